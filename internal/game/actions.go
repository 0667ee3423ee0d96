package game

import (
	"fmt"
	"math"
)

func rejected(s GameState, message string, typ NewsType) ActionResult {
	return ActionResult{State: s, News: []News{{Message: message, Type: typ}}}
}

func (r *Resolver) SetLoanRate(s GameState, rate float64) ActionResult {
	if s.IsGameOver || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ActionResult{State: s}
	}
	next := s.Clone()
	next.LoanInterestRate = RoundRate(rate)
	return ActionResult{
		State:   next,
		News:    []News{{Message: fmt.Sprintf("Loan interest rate adjusted to %.2f%%.", next.LoanInterestRate), Type: NewsInfo}},
		Applied: true,
	}
}

func (r *Resolver) SetDepositRate(s GameState, rate float64) ActionResult {
	if s.IsGameOver || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ActionResult{State: s}
	}
	next := s.Clone()
	next.DepositInterestRate = RoundRate(rate)
	return ActionResult{
		State:   next,
		News:    []News{{Message: fmt.Sprintf("Deposit interest rate adjusted to %.2f%%.", next.DepositInterestRate), Type: NewsInfo}},
		Applied: true,
	}
}

func (r *Resolver) SetStrategy(s GameState, strategy Strategy) ActionResult {
	if s.IsGameOver {
		return ActionResult{State: s}
	}
	if _, ok := r.tables.Strategies[strategy]; !ok {
		return rejected(s, fmt.Sprintf("Unknown strategy %q.", strategy), NewsWarning)
	}
	next := s.Clone()
	next.CurrentStrategy = strategy
	return ActionResult{
		State:   next,
		News:    []News{{Message: fmt.Sprintf("Strategy for next week changed to: %s.", strategy.Label()), Type: NewsInfo}},
		Applied: true,
	}
}

// LaunchCampaign replaces any running campaign. The full budget over the
// campaign's duration must be covered by current cash.
func (r *Resolver) LaunchCampaign(s GameState, typ CampaignType, budget float64, duration int) ActionResult {
	if s.IsGameOver {
		return ActionResult{State: s}
	}
	info, ok := r.tables.Campaign(typ)
	if !ok {
		return rejected(s, fmt.Sprintf("Unknown marketing campaign %q.", typ), NewsWarning)
	}
	if budget <= 0 || duration < 1 || math.IsNaN(budget) {
		return rejected(s, fmt.Sprintf("Campaign '%s' needs a positive weekly budget and at least one week.", info.Name), NewsWarning)
	}
	if budget*float64(duration) > s.Cash {
		return rejected(s, fmt.Sprintf("Insufficient funds for %s campaign.", info.Name), NewsWarning)
	}

	next := s.Clone()
	var news []News
	if cur := next.ActiveMarketingCampaign; cur != nil {
		news = append(news, r.campaignStoppedNews(cur.Type))
	}
	next.ActiveMarketingCampaign = &ActiveCampaign{
		Type:           typ,
		Budget:         budget,
		Duration:       duration,
		WeeksRemaining: duration,
	}
	news = append(news, News{
		Message: fmt.Sprintf("Marketing campaign launched: %s for %d weeks.", info.Name, duration),
		Type:    NewsSuccess,
	})
	return ActionResult{State: next, News: news, Applied: true}
}

func (r *Resolver) StopCampaign(s GameState) ActionResult {
	if s.IsGameOver || s.ActiveMarketingCampaign == nil {
		return ActionResult{State: s}
	}
	next := s.Clone()
	stopped := r.campaignStoppedNews(next.ActiveMarketingCampaign.Type)
	next.ActiveMarketingCampaign = nil
	return ActionResult{State: next, News: []News{stopped}, Applied: true}
}

func (r *Resolver) campaignStoppedNews(typ CampaignType) News {
	name := string(typ)
	if info, ok := r.tables.Campaign(typ); ok {
		name = info.Name
	}
	return News{Message: fmt.Sprintf("Marketing campaign stopped: %s.", name), Type: NewsWarning}
}

// StartTechUpgrade pays for a project up front and schedules it.
func (r *Resolver) StartTechUpgrade(s GameState, typ TechUpgradeType) ActionResult {
	if s.IsGameOver {
		return ActionResult{State: s}
	}
	info, ok := r.tables.Upgrade(typ)
	if !ok {
		return rejected(s, fmt.Sprintf("Unknown technology project %q.", typ), NewsWarning)
	}
	switch {
	case s.Cash < info.Cost:
		return rejected(s, fmt.Sprintf("Insufficient funds for %s project.", info.Name), NewsWarning)
	case s.IsUpgradeActive(typ):
		return rejected(s, fmt.Sprintf("Project '%s' is already in progress.", info.Name), NewsInfo)
	case s.IsUpgradeCompleted(typ):
		return rejected(s, fmt.Sprintf("Project '%s' has already been completed.", info.Name), NewsInfo)
	}

	next := s.Clone()
	next.Cash -= info.Cost
	next.ActiveTechUpgrades = append(next.ActiveTechUpgrades, ActiveTechUpgrade{Type: typ, WeeksRemaining: info.Duration})

	book := newLedger(next)
	book.post("Start Project: "+info.Name, TxInvestment, -info.Cost)
	next.Transactions = PrependTransactions(next.Transactions, book.entries)

	return ActionResult{
		State:  next,
		Ledger: book.entries,
		News: []News{{
			Message: fmt.Sprintf("Started %s project. Cost: %s. ETA: %d weeks.", info.Name, FormatUSD(info.Cost), info.Duration),
			Type:    NewsSuccess,
		}},
		Applied: true,
	}
}

// UpdateSettings swaps the cosmetic settings block. It stays allowed after game over.
func (r *Resolver) UpdateSettings(s GameState, settings Settings) ActionResult {
	if settings.SimulationSpeed == "" {
		settings.SimulationSpeed = s.Settings.SimulationSpeed
	}
	if _, err := ParseSimulationSpeed(string(settings.SimulationSpeed)); err != nil {
		return rejected(s, fmt.Sprintf("Unknown simulation speed %q.", settings.SimulationSpeed), NewsWarning)
	}
	next := s.Clone()
	next.Settings = settings
	return ActionResult{
		State:   next,
		News:    []News{{Message: "Game settings updated.", Type: NewsSuccess}},
		Applied: true,
	}
}

// applyDecisions runs the pre-turn decisions in a fixed order and collects their output.
func (r *Resolver) applyDecisions(s GameState, d Decisions) (GameState, []Transaction, []News) {
	var (
		ledger []Transaction
		news   []News
	)
	apply := func(res ActionResult) {
		s = res.State
		ledger = append(ledger, res.Ledger...)
		news = append(news, res.News...)
	}
	if d.Strategy != "" && d.Strategy != s.CurrentStrategy {
		apply(r.SetStrategy(s, d.Strategy))
	}
	if d.LoanRate != nil {
		apply(r.SetLoanRate(s, *d.LoanRate))
	}
	if d.DepositRate != nil {
		apply(r.SetDepositRate(s, *d.DepositRate))
	}
	if c := d.Campaign; c != nil {
		if c.Stop {
			apply(r.StopCampaign(s))
		} else {
			apply(r.LaunchCampaign(s, c.Type, c.Budget, c.Duration))
		}
	}
	if d.TechUpgrade != "" {
		apply(r.StartTechUpgrade(s, d.TechUpgrade))
	}
	return s, ledger, news
}
