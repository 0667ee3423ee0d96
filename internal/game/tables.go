package game

import (
	"fmt"
)

type DifficultyModifier struct {
	CashModifier         float64 `yaml:"cashModifier" json:"cashModifier"`
	RiskModifier         float64 `yaml:"riskModifier" json:"riskModifier"`
	SatisfactionModifier float64 `yaml:"satisfactionModifier" json:"satisfactionModifier"`
}

// BankTypeModifier fields left at zero mean "no modifier" (a multiplier of 1).
type BankTypeModifier struct {
	ChannelUsage            map[Channel]float64 `yaml:"channelUsage,omitempty" json:"channelUsage,omitempty"`
	OperationalCostModifier float64             `yaml:"operationalCostModifier,omitempty" json:"operationalCostModifier,omitempty"`
	RiskModifier            float64             `yaml:"riskModifier,omitempty" json:"riskModifier,omitempty"`
	LoanDemandModifier      float64             `yaml:"loanDemandModifier,omitempty" json:"loanDemandModifier,omitempty"`
	DepositGrowthModifier   float64             `yaml:"depositGrowthModifier,omitempty" json:"depositGrowthModifier,omitempty"`
}

func (b BankTypeModifier) channel(c Channel) float64 {
	return orOne(b.ChannelUsage[c])
}

func (b BankTypeModifier) opCost() float64 {
	return orOne(b.OperationalCostModifier)
}

// riskDelta is the additive risk pressure per turn: (modifier-1)*10.
func (b BankTypeModifier) riskDelta() float64 {
	return (orOne(b.RiskModifier) - 1) * 10
}

func (b BankTypeModifier) loanDemandDelta() float64 {
	return orOne(b.LoanDemandModifier) - 1
}

func (b BankTypeModifier) depositGrowthDelta() float64 {
	return orOne(b.DepositGrowthModifier) - 1
}

type StrategyEffect struct {
	Name              string  `yaml:"name" json:"name"`
	Description       string  `yaml:"description" json:"description"`
	LoanGrowth        float64 `yaml:"loanGrowth,omitempty" json:"loanGrowth,omitempty"`
	Reputation        float64 `yaml:"reputation,omitempty" json:"reputation,omitempty"`
	Satisfaction      float64 `yaml:"satisfaction,omitempty" json:"satisfaction,omitempty"`
	Risk              float64 `yaml:"risk,omitempty" json:"risk,omitempty"`
	DefaultRate       float64 `yaml:"defaultRate,omitempty" json:"defaultRate,omitempty"`
	DigitalChannelMod float64 `yaml:"digitalChannel,omitempty" json:"digitalChannel,omitempty"`
	BranchChannelMod  float64 `yaml:"branchChannel,omitempty" json:"branchChannel,omitempty"`
}

type CampaignEffects struct {
	DepositGrowth  float64 `yaml:"depositGrowth" json:"depositGrowth"`
	Reputation     float64 `yaml:"reputation" json:"reputation"`
	LoanGrowth     float64 `yaml:"loanGrowth,omitempty" json:"loanGrowth,omitempty"`
	CustomerGrowth float64 `yaml:"customerGrowth" json:"customerGrowth"`
}

type Campaign struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	Effects     CampaignEffects `yaml:"effectMultipliers" json:"effectMultipliers"`
}

type UpgradeEffects struct {
	Satisfaction      float64      `yaml:"satisfaction,omitempty" json:"satisfaction,omitempty"`
	Reputation        float64      `yaml:"reputation,omitempty" json:"reputation,omitempty"`
	Risk              float64      `yaml:"risk,omitempty" json:"risk,omitempty"`
	ServerStatus      ServerStatus `yaml:"serverStatus,omitempty" json:"serverStatus,omitempty"`
	DigitalUsageBoost float64      `yaml:"digitalUsageBoost,omitempty" json:"digitalUsageBoost,omitempty"`
	AppRating         float64      `yaml:"appRating,omitempty" json:"appRating,omitempty"`
}

type TechUpgrade struct {
	Name            string          `yaml:"name" json:"name"`
	Description     string          `yaml:"description" json:"description"`
	Category        UpgradeCategory `yaml:"category" json:"category"`
	Cost            float64         `yaml:"cost" json:"cost"`
	Duration        int             `yaml:"duration" json:"duration"`
	MaintenanceCost float64         `yaml:"maintenanceCost" json:"maintenanceCost"`
	Effects         UpgradeEffects  `yaml:"effects" json:"effects"`
	FeedbackEffect  string          `yaml:"feedbackEffect" json:"feedbackEffect"`
}

// Tables holds every modifier the resolver reads. Each map must cover its whole enumeration.
type Tables struct {
	Difficulties       map[Difficulty]DifficultyModifier `yaml:"difficulties" json:"difficulties"`
	BankTypes          map[BankType]BankTypeModifier     `yaml:"bankTypes" json:"bankTypes"`
	Strategies         map[Strategy]StrategyEffect       `yaml:"strategies" json:"strategies"`
	Campaigns          map[CampaignType]Campaign         `yaml:"campaigns" json:"campaigns"`
	TechUpgrades       map[TechUpgradeType]TechUpgrade   `yaml:"techUpgrades" json:"techUpgrades"`
	ChannelPreferences map[Channel]float64               `yaml:"channelPreferences" json:"channelPreferences"`
}

func DefaultTables() Tables {
	return Tables{
		Difficulties: map[Difficulty]DifficultyModifier{
			DifficultyNormal:   {CashModifier: 1, RiskModifier: 1, SatisfactionModifier: 1},
			DifficultyHardcore: {CashModifier: 0.5, RiskModifier: 1.25, SatisfactionModifier: 0.8},
			DifficultySandbox:  {CashModifier: 5, RiskModifier: 0.5, SatisfactionModifier: 1.2},
		},
		BankTypes: map[BankType]BankTypeModifier{
			BankRetail: {
				ChannelUsage:            map[Channel]float64{ChannelInBranch: 1.2, ChannelMobileApp: 0.9},
				OperationalCostModifier: 1.1,
			},
			BankDigital: {
				ChannelUsage:            map[Channel]float64{ChannelInBranch: 0.5, ChannelMobileApp: 1.25, ChannelWebPortal: 1.15},
				OperationalCostModifier: 0.8,
			},
			BankInvestment: {
				RiskModifier:          1.15,
				LoanDemandModifier:    1.2,
				DepositGrowthModifier: 0.9,
			},
		},
		Strategies: map[Strategy]StrategyEffect{
			StrategyBalanced: {
				Name:        "Balanced",
				Description: "A stable approach focusing on steady, overall growth.",
			},
			StrategyAggressiveLending: {
				Name:         "Aggressive Lending",
				Description:  "Focus on expanding the loan portfolio, accepting higher risk for potential higher returns.",
				LoanGrowth:   0.00125,
				Satisfaction: -0.125,
				Risk:         0.75,
			},
			StrategyBrandBuilding: {
				Name:        "Brand Building",
				Description: "Invest in marketing and public relations to boost reputation and attract customers.",
				Reputation:  0.125,
			},
			StrategyTechInvestment: {
				Name:              "Tech Investment",
				Description:       "Focus on technological innovation to improve customer satisfaction and efficiency.",
				Satisfaction:      0.1875,
				DefaultRate:       -0.001,
				DigitalChannelMod: 1.15,
				BranchChannelMod:  0.85,
			},
		},
		Campaigns: map[CampaignType]Campaign{
			CampaignSocialMediaBlitz: {
				Name:        "Social Media Blitz",
				Description: "Boosts new customers and deposits, especially from young customers.",
				Effects:     CampaignEffects{DepositGrowth: 0.00001, Reputation: 0.00002, CustomerGrowth: 0.015},
			},
			CampaignReferralBonus: {
				Name:        "Referral Bonus Program",
				Description: "Encourages existing customers to invite new users, steadily increasing both deposits and loans.",
				Effects:     CampaignEffects{DepositGrowth: 0.00002, LoanGrowth: 0.00001, CustomerGrowth: 0.02},
			},
			CampaignTVCommercials: {
				Name:        "TV Commercials",
				Description: "Strong brand awareness campaign to increase customer trust and deposits over time.",
				Effects:     CampaignEffects{DepositGrowth: 0.00005, Reputation: 0.0001, CustomerGrowth: 0.005},
			},
			CampaignBillboard: {
				Name:        "Billboard Advertising",
				Description: "Minor but steady customer growth boost at a low cost.",
				Effects:     CampaignEffects{Reputation: 0.00001, CustomerGrowth: 0.008},
			},
		},
		TechUpgrades: map[TechUpgradeType]TechUpgrade{
			UpgradeThemeUpdate: {
				Name:            "UI Theme Update",
				Description:     "Refresh the app and website with a modern color palette and new icons.",
				Category:        CategoryUIUX,
				Cost:            7500,
				Duration:        2,
				MaintenanceCost: 150,
				Effects:         UpgradeEffects{Satisfaction: 2, AppRating: 0.2},
				FeedbackEffect:  "The new app theme looks so much cleaner! A nice refresh.",
			},
			UpgradeNavigationRedesign: {
				Name:            "Navigation Redesign",
				Description:     "Streamline menus and workflows to make the app easier to use.",
				Category:        CategoryUIUX,
				Cost:            15000,
				Duration:        4,
				MaintenanceCost: 300,
				Effects:         UpgradeEffects{Satisfaction: 4, AppRating: 0.3},
				FeedbackEffect:  "It's so much easier to find what I need in the app now. Great update!",
			},
			UpgradeAccessibility: {
				Name:            "Accessibility Improvements",
				Description:     "Improve support for screen readers and add high-contrast modes.",
				Category:        CategoryUIUX,
				Cost:            12000,
				Duration:        3,
				MaintenanceCost: 100,
				Effects:         UpgradeEffects{Reputation: 3, Satisfaction: 1, AppRating: 0.1},
				FeedbackEffect:  "I appreciate the bank making the app accessible for everyone.",
			},
			UpgradeServerOptimization: {
				Name:            "Server Optimization",
				Description:     "Upgrade server hardware to improve speed, reliability, and capacity.",
				Category:        CategoryPerformance,
				Cost:            25000,
				Duration:        4,
				MaintenanceCost: 500,
				Effects:         UpgradeEffects{Satisfaction: 3, ServerStatus: ServerOptimal, AppRating: 0.1},
				FeedbackEffect:  "The app feels much faster and more responsive lately.",
			},
			UpgradeCDNIntegration: {
				Name:            "CDN Integration",
				Description:     "Use a Content Delivery Network to speed up load times for users far from our servers.",
				Category:        CategoryPerformance,
				Cost:            18000,
				Duration:        3,
				MaintenanceCost: 400,
				Effects:         UpgradeEffects{Satisfaction: 2},
				FeedbackEffect:  "Website loading times have improved noticeably. Good job.",
			},
			UpgradeMobileCheckDeposit: {
				Name:            "Mobile Check Deposit",
				Description:     "Allow users to deposit checks by taking a photo with their phone.",
				Category:        CategoryFeatures,
				Cost:            40000,
				Duration:        5,
				MaintenanceCost: 750,
				Effects:         UpgradeEffects{Satisfaction: 5, DigitalUsageBoost: 0.10, AppRating: 0.4},
				FeedbackEffect:  "Mobile check deposit is a game-changer! Saves me so much time.",
			},
			UpgradeBudgetTools: {
				Name:            "Budgeting Tools",
				Description:     "Add tools for users to track their spending and set savings goals.",
				Category:        CategoryFeatures,
				Cost:            35000,
				Duration:        4,
				MaintenanceCost: 600,
				Effects:         UpgradeEffects{Satisfaction: 4, DigitalUsageBoost: 0.05, AppRating: 0.3},
				FeedbackEffect:  "The new budgeting tools are helping me manage my finances better.",
			},
			UpgradeMFA: {
				Name:            "Multi-Factor Authentication",
				Description:     "Implement two-factor authentication for a significant security boost.",
				Category:        CategorySecurity,
				Cost:            30000,
				Duration:        4,
				MaintenanceCost: 600,
				Effects:         UpgradeEffects{Risk: -5, Reputation: 2, Satisfaction: 1},
				FeedbackEffect:  "I feel much more secure with multi-factor authentication enabled.",
			},
			UpgradeAdvancedEncryption: {
				Name:            "Advanced Encryption",
				Description:     "Upgrade to the latest encryption standards to protect user data.",
				Category:        CategorySecurity,
				Cost:            22000,
				Duration:        3,
				MaintenanceCost: 450,
				Effects:         UpgradeEffects{Risk: -3, Reputation: 1},
				FeedbackEffect:  "Glad to see the bank is taking data security seriously.",
			},
		},
		ChannelPreferences: map[Channel]float64{
			ChannelMobileApp: 0.68,
			ChannelWebPortal: 0.55,
			ChannelATM:       0.42,
			ChannelInBranch:  0.15,
		},
	}
}

// Validate checks that every enumeration value has an entry.
func (t Tables) Validate() error {
	for _, d := range Difficulties {
		m, ok := t.Difficulties[d]
		if !ok {
			return fmt.Errorf("%w: missing difficulty %s", ErrInvalidInput, d)
		}
		if m.CashModifier <= 0 || m.RiskModifier < 0 || m.SatisfactionModifier < 0 {
			return fmt.Errorf("%w: difficulty %s has non-positive modifiers", ErrInvalidInput, d)
		}
	}
	for _, b := range BankTypes {
		if _, ok := t.BankTypes[b]; !ok {
			return fmt.Errorf("%w: missing bank type %s", ErrInvalidInput, b)
		}
	}
	for _, s := range Strategies {
		if _, ok := t.Strategies[s]; !ok {
			return fmt.Errorf("%w: missing strategy %s", ErrInvalidInput, s)
		}
	}
	for _, c := range CampaignTypes {
		if _, ok := t.Campaigns[c]; !ok {
			return fmt.Errorf("%w: missing campaign %s", ErrInvalidInput, c)
		}
	}
	for _, u := range TechUpgradeTypes {
		up, ok := t.TechUpgrades[u]
		if !ok {
			return fmt.Errorf("%w: missing tech upgrade %s", ErrInvalidInput, u)
		}
		if up.Duration < 1 || up.Cost < 0 || up.MaintenanceCost < 0 {
			return fmt.Errorf("%w: tech upgrade %s needs duration >= 1 and non-negative costs", ErrInvalidInput, u)
		}
		switch up.Category {
		case CategoryUIUX, CategoryPerformance, CategoryFeatures, CategorySecurity:
		default:
			return fmt.Errorf("%w: tech upgrade %s has unknown category %q", ErrInvalidInput, u, up.Category)
		}
	}
	for _, c := range Channels {
		if p, ok := t.ChannelPreferences[c]; !ok || p < 0 {
			return fmt.Errorf("%w: channel preference for %s missing or negative", ErrInvalidInput, c)
		}
	}
	return nil
}

func (t Tables) difficulty(d Difficulty) DifficultyModifier {
	if m, ok := t.Difficulties[d]; ok {
		return m
	}
	return DifficultyModifier{CashModifier: 1, RiskModifier: 1, SatisfactionModifier: 1}
}

func (t Tables) bankType(b BankType) BankTypeModifier {
	return t.BankTypes[b]
}

func (t Tables) strategy(s Strategy) StrategyEffect {
	return t.Strategies[s]
}

func (t Tables) Campaign(c CampaignType) (Campaign, bool) {
	v, ok := t.Campaigns[c]
	return v, ok
}

func (t Tables) Upgrade(u TechUpgradeType) (TechUpgrade, bool) {
	v, ok := t.TechUpgrades[u]
	return v, ok
}

func (t Tables) StrategyInfo(s Strategy) StrategyEffect {
	return t.strategy(s)
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
