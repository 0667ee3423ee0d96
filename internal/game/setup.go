package game

import (
	"fmt"
	"strings"
)

const (
	DefaultBankName   = "Pioneer Financial"
	DefaultBankLogo   = "Vault"
	DefaultThemeColor = "blue"

	startingCash         = 100000
	startingLoans        = 400000
	startingDeposits     = 450000
	startingReputation   = 40
	startingSatisfaction = 50
	startingRisk         = 40
)

type SetupOptions struct {
	BankName   string     `json:"bankName"`
	BankLogo   string     `json:"bankLogo"`
	ThemeColor string     `json:"themeColor"`
	BankType   BankType   `json:"bankType"`
	Difficulty Difficulty `json:"difficulty"`
}

func (o SetupOptions) normalized() (SetupOptions, error) {
	o.BankName = strings.TrimSpace(o.BankName)
	if o.BankName == "" {
		o.BankName = DefaultBankName
	}
	if len(o.BankName) > 48 {
		return o, fmt.Errorf("%w: bank name must be at most 48 characters", ErrInvalidInput)
	}
	if o.BankLogo == "" {
		o.BankLogo = DefaultBankLogo
	}
	if o.ThemeColor == "" {
		o.ThemeColor = DefaultThemeColor
	}
	if o.BankType == "" {
		o.BankType = BankRetail
	}
	if o.Difficulty == "" {
		o.Difficulty = DifficultyNormal
	}
	var err error
	if o.BankType, err = ParseBankType(string(o.BankType)); err != nil {
		return o, err
	}
	if o.Difficulty, err = ParseDifficulty(string(o.Difficulty)); err != nil {
		return o, err
	}
	return o, nil
}

func DefaultSettings() Settings {
	return Settings{
		ThemeStyle:      "dark",
		SimulationSpeed: SpeedNormal,
		ReportStyle:     "BRIEF",
		Notifications:   Notifications{SystemAlerts: true, PlayerAlerts: true},
		Branding: Branding{
			BankName:   DefaultBankName,
			BankLogo:   DefaultBankLogo,
			ThemeColor: DefaultThemeColor,
		},
	}
}

// NewGame builds the week-one state for a freshly founded bank.
func NewGame(opts SetupOptions, tables Tables) (GameState, error) {
	opts, err := opts.normalized()
	if err != nil {
		return GameState{}, err
	}
	settings := DefaultSettings()
	settings.Branding = Branding{BankName: opts.BankName, BankLogo: opts.BankLogo, ThemeColor: opts.ThemeColor}

	s := GameState{
		Cash:                  startingCash * tables.difficulty(opts.Difficulty).CashModifier,
		Loans:                 startingLoans,
		Deposits:              startingDeposits,
		Reputation:            startingReputation,
		CustomerSatisfaction:  startingSatisfaction,
		RiskFactor:            startingRisk,
		TotalCustomers:        customersFor(startingDeposits, startingLoans),
		LoanInterestRate:      DefaultLoanRecommendation,
		DepositInterestRate:   DefaultDepositRecommendation,
		Year:                  2024,
		Month:                 1,
		Week:                  1,
		CurrentStrategy:       StrategyBalanced,
		Transactions:          []Transaction{},
		CustomerFeedback:      []CustomerFeedback{},
		AppRating:             4.2,
		AppVersion:            "1.0.0",
		WebsiteVersion:        "1.0.0",
		ServerStatus:          ServerStable,
		ActiveTechUpgrades:    []ActiveTechUpgrade{},
		CompletedTechUpgrades: []CompletedTechUpgrade{},
		BankType:              opts.BankType,
		Difficulty:            opts.Difficulty,
		Settings:              settings,
	}
	s.ChannelUsage = allocateChannels(s.TotalCustomers, tables.channelWeights(s))
	return s, nil
}

func WelcomeNews(s GameState) News {
	return News{Message: fmt.Sprintf("Welcome, CEO! %s is now ready for business.", s.Settings.Branding.BankName), Type: NewsSuccess}
}
