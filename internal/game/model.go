package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	TurnsPerYear  = 48
	WeeksPerMonth = 4

	SmoothingFactor         = 0.35
	ReserveRequirement      = 0.10
	WeeklyLoanRepaymentRate = 0.02
	BaseWeeklyDefaultRate   = 0.001

	AvgDepositPerCustomer = 1000.0
	AvgLoanPerCustomer    = 5000.0
	UniqueLoanCustomerPct = 0.3

	MaxTransactions = 100
	MaxFeedback     = 20
	MaxNews         = 20

	MinLoanRate    = 2.0
	MaxLoanRate    = 10.0
	MinDepositRate = 0.5
	MaxDepositRate = 5.0
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownOption = errors.New("unknown option")
)

type Strategy string

const (
	StrategyBalanced          Strategy = "BALANCED"
	StrategyAggressiveLending Strategy = "AGGRESSIVE_LENDING"
	StrategyBrandBuilding     Strategy = "BRAND_BUILDING"
	StrategyTechInvestment    Strategy = "TECH_INVESTMENT"
)

var Strategies = []Strategy{StrategyBalanced, StrategyAggressiveLending, StrategyBrandBuilding, StrategyTechInvestment}

// Label renders AGGRESSIVE_LENDING as "AGGRESSIVE LENDING".
func (s Strategy) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

type BankType string

const (
	BankRetail     BankType = "RETAIL"
	BankDigital    BankType = "DIGITAL"
	BankInvestment BankType = "INVESTMENT"
)

var BankTypes = []BankType{BankRetail, BankDigital, BankInvestment}

type Difficulty string

const (
	DifficultyNormal   Difficulty = "NORMAL"
	DifficultyHardcore Difficulty = "HARDCORE"
	DifficultySandbox  Difficulty = "SANDBOX"
)

var Difficulties = []Difficulty{DifficultyNormal, DifficultyHardcore, DifficultySandbox}

type TransactionType string

const (
	TxIncome            TransactionType = "INCOME"
	TxExpense           TransactionType = "EXPENSE"
	TxInvestment        TransactionType = "INVESTMENT"
	TxDeposit           TransactionType = "DEPOSIT"
	TxLoan              TransactionType = "LOAN"
	TxPenalty           TransactionType = "PENALTY"
	TxMarketingCampaign TransactionType = "MARKETING_CAMPAIGN"
	TxLoanRepayment     TransactionType = "LOAN_REPAYMENT"
	TxLoanDefault       TransactionType = "LOAN_DEFAULT"
)

type NewsType string

const (
	NewsSuccess NewsType = "success"
	NewsWarning NewsType = "warning"
	NewsInfo    NewsType = "info"
	NewsDanger  NewsType = "danger"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type ServerStatus string

const (
	ServerOptimal    ServerStatus = "Optimal"
	ServerStable     ServerStatus = "Stable"
	ServerOverloaded ServerStatus = "Overloaded"
)

type Channel string

const (
	ChannelMobileApp Channel = "Mobile App"
	ChannelWebPortal Channel = "Web Portal"
	ChannelATM       Channel = "ATM Network"
	ChannelInBranch  Channel = "In-Branch"
)

// Channels is the enumeration order used to break apportionment ties.
var Channels = []Channel{ChannelMobileApp, ChannelWebPortal, ChannelATM, ChannelInBranch}

type UpgradeCategory string

const (
	CategoryUIUX        UpgradeCategory = "UI/UX"
	CategoryPerformance UpgradeCategory = "Performance"
	CategoryFeatures    UpgradeCategory = "Features"
	CategorySecurity    UpgradeCategory = "Security"
)

type TechUpgradeType string

const (
	UpgradeThemeUpdate        TechUpgradeType = "THEME_UPDATE"
	UpgradeNavigationRedesign TechUpgradeType = "NAVIGATION_REDESIGN"
	UpgradeAccessibility      TechUpgradeType = "ACCESSIBILITY_IMPROVEMENTS"
	UpgradeServerOptimization TechUpgradeType = "SERVER_OPTIMIZATION"
	UpgradeCDNIntegration     TechUpgradeType = "CDN_INTEGRATION"
	UpgradeMobileCheckDeposit TechUpgradeType = "MOBILE_CHECK_DEPOSIT"
	UpgradeBudgetTools        TechUpgradeType = "BUDGET_TOOLS"
	UpgradeMFA                TechUpgradeType = "MFA_IMPLEMENTATION"
	UpgradeAdvancedEncryption TechUpgradeType = "ADVANCED_ENCRYPTION"
)

var TechUpgradeTypes = []TechUpgradeType{
	UpgradeThemeUpdate,
	UpgradeNavigationRedesign,
	UpgradeAccessibility,
	UpgradeServerOptimization,
	UpgradeCDNIntegration,
	UpgradeMobileCheckDeposit,
	UpgradeBudgetTools,
	UpgradeMFA,
	UpgradeAdvancedEncryption,
}

type CampaignType string

const (
	CampaignSocialMediaBlitz CampaignType = "SOCIAL_MEDIA_BLITZ"
	CampaignReferralBonus    CampaignType = "REFERRAL_BONUS"
	CampaignTVCommercials    CampaignType = "TV_COMMERCIALS"
	CampaignBillboard        CampaignType = "BILLBOARD_ADVERTISING"
)

var CampaignTypes = []CampaignType{CampaignSocialMediaBlitz, CampaignReferralBonus, CampaignTVCommercials, CampaignBillboard}

type SimulationSpeed string

const (
	SpeedNormal   SimulationSpeed = "NORMAL"
	SpeedFast     SimulationSpeed = "FAST"
	SpeedRealtime SimulationSpeed = "REALTIME"
)

func ParseStrategy(v string) (Strategy, error) {
	return parseEnum(v, Strategies, "strategy")
}

func ParseBankType(v string) (BankType, error) {
	return parseEnum(v, BankTypes, "bank type")
}

func ParseDifficulty(v string) (Difficulty, error) {
	return parseEnum(v, Difficulties, "difficulty")
}

func ParseTechUpgrade(v string) (TechUpgradeType, error) {
	return parseEnum(v, TechUpgradeTypes, "tech upgrade")
}

func ParseCampaign(v string) (CampaignType, error) {
	return parseEnum(v, CampaignTypes, "campaign")
}

func ParseSimulationSpeed(v string) (SimulationSpeed, error) {
	return parseEnum(v, []SimulationSpeed{SpeedNormal, SpeedFast, SpeedRealtime}, "simulation speed")
}

func parseEnum[T ~string](v string, allowed []T, what string) (T, error) {
	normalized := strings.ToUpper(strings.TrimSpace(v))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	for _, a := range allowed {
		if strings.ToUpper(string(a)) == normalized {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %w: %s %q", ErrInvalidInput, ErrUnknownOption, what, v)
}

// ValidateRates applies the slider bounds the game UI offers.
func ValidateRates(loanRate, depositRate float64) error {
	if math.IsNaN(loanRate) || loanRate < MinLoanRate || loanRate > MaxLoanRate {
		return fmt.Errorf("%w: loan rate must be within %.1f-%.1f%%", ErrInvalidInput, MinLoanRate, MaxLoanRate)
	}
	if math.IsNaN(depositRate) || depositRate < MinDepositRate || depositRate > MaxDepositRate {
		return fmt.Errorf("%w: deposit rate must be within %.1f-%.1f%%", ErrInvalidInput, MinDepositRate, MaxDepositRate)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// blend moves current toward target by SmoothingFactor.
func blend(current, target float64) float64 {
	return current + (target-current)*SmoothingFactor
}
