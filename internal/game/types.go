package game

type Transaction struct {
	ID          int64           `json:"id"`
	Turn        int             `json:"turn"`
	Week        int             `json:"week"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
}

type News struct {
	ID      int64    `json:"id"`
	Message string   `json:"message"`
	Type    NewsType `json:"type"`
}

type CustomerFeedback struct {
	ID        int64     `json:"id"`
	Turn      int       `json:"turn"`
	Sentiment Sentiment `json:"sentiment"`
	Text      string    `json:"text"`
}

type ActiveCampaign struct {
	Type           CampaignType `json:"type"`
	Budget         float64      `json:"budget"`
	Duration       int          `json:"duration"`
	WeeksRemaining int          `json:"weeksRemaining"`
}

type ActiveTechUpgrade struct {
	Type           TechUpgradeType `json:"type"`
	WeeksRemaining int             `json:"weeksRemaining"`
}

type CompletedTechUpgrade struct {
	Type          TechUpgradeType `json:"type"`
	CompletedTurn int             `json:"completedTurn"`
}

type Notifications struct {
	SystemAlerts bool `json:"systemAlerts"`
	PlayerAlerts bool `json:"playerAlerts"`
}

type Branding struct {
	BankName   string `json:"bankName"`
	BankLogo   string `json:"bankLogo"`
	ThemeColor string `json:"themeColor"`
}

type Settings struct {
	ThemeStyle      string          `json:"themeStyle"`
	SimulationSpeed SimulationSpeed `json:"simulationSpeed"`
	ReportStyle     string          `json:"reportStyle"`
	Notifications   Notifications   `json:"notifications"`
	Branding        Branding        `json:"branding"`
}

type GameState struct {
	Cash                 float64 `json:"cash"`
	Loans                float64 `json:"loans"`
	Deposits             float64 `json:"deposits"`
	Reputation           float64 `json:"reputation"`
	CustomerSatisfaction float64 `json:"customerSatisfaction"`
	RiskFactor           float64 `json:"riskFactor"`
	TotalCustomers       int     `json:"totalCustomers"`
	LoanInterestRate     float64 `json:"loanInterestRate"`
	DepositInterestRate  float64 `json:"depositInterestRate"`

	Year  int `json:"year"`
	Month int `json:"month"`
	Week  int `json:"week"`
	Turn  int `json:"turn"`

	IsGameOver      bool   `json:"isGameOver"`
	GameOverMessage string `json:"gameOverMessage"`

	CurrentStrategy         Strategy           `json:"currentStrategy"`
	Transactions            []Transaction      `json:"transactions"`
	ActiveMarketingCampaign *ActiveCampaign    `json:"activeMarketingCampaign"`
	CustomerFeedback        []CustomerFeedback `json:"customerFeedback"`
	ChannelUsage            map[Channel]int    `json:"channelUsage"`

	AppRating      float64      `json:"appRating"`
	AppVersion     string       `json:"appVersion"`
	WebsiteVersion string       `json:"websiteVersion"`
	ServerStatus   ServerStatus `json:"serverStatus"`

	ActiveTechUpgrades     []ActiveTechUpgrade    `json:"activeTechUpgrades"`
	CompletedTechUpgrades  []CompletedTechUpgrade `json:"completedTechUpgrades"`
	MonthlyMaintenanceCost float64                `json:"monthlyMaintenanceCost"`
	DigitalChannelBoost    float64                `json:"digitalChannelBoost"`

	BankType   BankType   `json:"bankType"`
	Difficulty Difficulty `json:"difficulty"`
	Settings   Settings   `json:"settings"`
}

// Clone returns a deep copy; turns and actions mutate the copy and hand it back whole.
// List fields are never nil in the copy, so snapshots always carry JSON arrays.
func (s GameState) Clone() GameState {
	out := s
	out.Transactions = cloneList(s.Transactions)
	out.CustomerFeedback = cloneList(s.CustomerFeedback)
	out.ActiveTechUpgrades = cloneList(s.ActiveTechUpgrades)
	out.CompletedTechUpgrades = cloneList(s.CompletedTechUpgrades)
	if s.ActiveMarketingCampaign != nil {
		c := *s.ActiveMarketingCampaign
		out.ActiveMarketingCampaign = &c
	}
	out.ChannelUsage = make(map[Channel]int, len(Channels))
	for k, v := range s.ChannelUsage {
		out.ChannelUsage[k] = v
	}
	return out
}

func cloneList[T any](xs []T) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	return out
}

func (s GameState) IsUpgradeActive(t TechUpgradeType) bool {
	for _, u := range s.ActiveTechUpgrades {
		if u.Type == t {
			return true
		}
	}
	return false
}

func (s GameState) IsUpgradeCompleted(t TechUpgradeType) bool {
	for _, u := range s.CompletedTechUpgrades {
		if u.Type == t {
			return true
		}
	}
	return false
}

type HistoryEntry struct {
	Turn                 int     `json:"turn"`
	Year                 int     `json:"year"`
	Month                int     `json:"month"`
	Week                 int     `json:"week"`
	Cash                 float64 `json:"cash"`
	Loans                float64 `json:"loans"`
	Deposits             float64 `json:"deposits"`
	Reputation           float64 `json:"reputation"`
	CustomerSatisfaction float64 `json:"customerSatisfaction"`
	RiskFactor           float64 `json:"riskFactor"`
	TotalCustomers       int     `json:"totalCustomers"`
	LoanInterestRate     float64 `json:"loanInterestRate"`
	DepositInterestRate  float64 `json:"depositInterestRate"`
	NetOutcome           float64 `json:"netOutcome"`
	LoanDefaults         float64 `json:"loanDefaults"`
}

// CampaignAction launches a campaign, or stops the active one when Stop is set.
type CampaignAction struct {
	Stop     bool         `json:"stop,omitempty"`
	Type     CampaignType `json:"type,omitempty"`
	Budget   float64      `json:"budget,omitempty"`
	Duration int          `json:"duration,omitempty"`
}

// Decisions are applied in field order before the turn is resolved. Zero values keep the current setting.
type Decisions struct {
	Strategy    Strategy        `json:"strategy,omitempty"`
	LoanRate    *float64        `json:"loanRate,omitempty"`
	DepositRate *float64        `json:"depositRate,omitempty"`
	Campaign    *CampaignAction `json:"campaign,omitempty"`
	TechUpgrade TechUpgradeType `json:"techUpgrade,omitempty"`
}

type TurnResult struct {
	State   GameState     `json:"gameState"`
	Ledger  []Transaction `json:"ledger"`
	News    []News        `json:"news"`
	History *HistoryEntry `json:"history,omitempty"`
}

type ActionResult struct {
	State   GameState     `json:"gameState"`
	Ledger  []Transaction `json:"ledger,omitempty"`
	News    []News        `json:"news"`
	Applied bool          `json:"applied"`
}
