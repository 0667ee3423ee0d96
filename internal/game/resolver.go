package game

import (
	"fmt"
	"log/slog"
	"math"
)

const insolvencyMessage = "Insolvency! Your bank has run out of cash reserves."

type Resolver struct {
	tables Tables
	rand   Source
	log    *slog.Logger
}

func NewResolver(tables Tables, src Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if src == nil {
		src = NewTimeSource()
	}
	return &Resolver{tables: tables, rand: src, log: logger}
}

func (r *Resolver) Tables() Tables {
	return r.tables
}

// turn carries the working values of one resolution.
type turn struct {
	r     *Resolver
	pre   GameState
	s     GameState
	diff  DifficultyModifier
	bank  BankTypeModifier
	strat StrategyEffect
	book  *ledger
	news  []News

	cash            float64
	netProfit       float64
	interestIncome  float64
	interestExpense float64
	loanDefaults    float64
	repDamage       float64
	campaignRep     float64
	campaignDeposit float64
	campaignLoan    float64
	newDeposits     float64
	newLoans        float64
}

func (t *turn) announce(message string, typ NewsType) {
	t.news = append(t.news, News{Message: message, Type: typ})
}

// ResolveTurn applies the decisions, then advances the state by one week.
// Random draws happen in a fixed order: regulatory penalty, security decay, feedback.
func (r *Resolver) ResolveTurn(state GameState, d Decisions) (TurnResult, error) {
	if state.IsGameOver {
		return TurnResult{State: state}, ErrGameOver
	}

	pre, decisionLedger, decisionNews := r.applyDecisions(state, d)
	t := &turn{
		r:     r,
		pre:   pre,
		s:     pre.Clone(),
		diff:  r.tables.difficulty(pre.Difficulty),
		bank:  r.tables.bankType(pre.BankType),
		strat: r.tables.strategy(pre.CurrentStrategy),
		book:  newLedger(pre),
		news:  decisionNews,
	}

	t.completeUpgrades()
	t.updateRisk()
	t.accrueInterest()
	t.chargeDefaults()
	t.highRiskBonus()
	t.runCampaign()
	t.regulatoryPenalty()

	t.cash = t.s.Cash + t.netProfit
	t.collectRepayments()
	t.updateReputation()
	t.growDeposits()
	t.issueLoans()
	turnNo, week, month, year := t.advanceCalendar()

	netOutcome := t.cash - pre.Cash
	if t.cash < 0 {
		over := pre.Clone()
		over.IsGameOver = true
		over.GameOverMessage = insolvencyMessage
		r.log.Info("bank insolvent", "turn", pre.Turn, "cash", t.cash, "bank", pre.Settings.Branding.BankName)
		return TurnResult{
			State:  over,
			Ledger: decisionLedger,
			News:   append(decisionNews, News{Message: insolvencyMessage, Type: NewsDanger}),
		}, nil
	}
	t.s.Cash = t.cash

	t.driftSatisfaction()
	t.driftAppRating()
	prospective := customersFor(t.s.Deposits, t.s.Loans)
	t.updateServerLoad(prospective)
	t.securityDecay()
	t.s.TotalCustomers = prospective
	t.allocateChannels()
	t.maybeFeedback()

	history := &HistoryEntry{
		Turn:                 pre.Turn,
		Year:                 pre.Year,
		Month:                pre.Month,
		Week:                 pre.Week,
		Cash:                 pre.Cash,
		Loans:                pre.Loans,
		Deposits:             pre.Deposits,
		Reputation:           pre.Reputation,
		CustomerSatisfaction: pre.CustomerSatisfaction,
		RiskFactor:           pre.RiskFactor,
		TotalCustomers:       pre.TotalCustomers,
		LoanInterestRate:     pre.LoanInterestRate,
		DepositInterestRate:  pre.DepositInterestRate,
		NetOutcome:           netOutcome,
		LoanDefaults:         t.loanDefaults,
	}

	t.s.Turn, t.s.Week, t.s.Month, t.s.Year = turnNo, week, month, year
	t.s.Transactions = PrependTransactions(t.s.Transactions, t.book.entries)

	if t.s.Settings.Notifications.PlayerAlerts {
		t.announce(fmt.Sprintf("Weekly report for %s: Net interest income is %s.",
			t.s.Settings.Branding.BankName, FormatUSD(t.interestIncome-t.interestExpense)), NewsInfo)
	}

	r.log.Debug("turn resolved",
		"turn", pre.Turn,
		"cash", t.s.Cash,
		"loans", t.s.Loans,
		"deposits", t.s.Deposits,
		"risk", t.s.RiskFactor,
		"net_outcome", netOutcome,
	)

	return TurnResult{
		State:   t.s,
		Ledger:  append(decisionLedger, t.book.entries...),
		News:    t.news,
		History: history,
	}, nil
}

func (t *turn) completeUpgrades() {
	s := &t.s
	remaining := make([]ActiveTechUpgrade, 0, len(s.ActiveTechUpgrades))
	var done []TechUpgradeType
	for _, u := range s.ActiveTechUpgrades {
		u.WeeksRemaining--
		if u.WeeksRemaining <= 0 {
			done = append(done, u.Type)
			continue
		}
		remaining = append(remaining, u)
	}
	s.ActiveTechUpgrades = remaining

	for _, typ := range done {
		s.CompletedTechUpgrades = append(s.CompletedTechUpgrades, CompletedTechUpgrade{Type: typ, CompletedTurn: s.Turn})
		info, ok := t.r.tables.Upgrade(typ)
		if !ok {
			continue
		}
		s.MonthlyMaintenanceCost += info.MaintenanceCost

		fx := info.Effects
		if fx.Satisfaction != 0 {
			s.CustomerSatisfaction = math.Min(100, s.CustomerSatisfaction+fx.Satisfaction)
		}
		if fx.Reputation != 0 {
			s.Reputation = math.Min(100, s.Reputation+fx.Reputation)
		}
		if fx.Risk != 0 {
			s.RiskFactor = math.Max(0, s.RiskFactor+fx.Risk)
		}
		if fx.ServerStatus != "" {
			s.ServerStatus = fx.ServerStatus
		}
		if fx.DigitalUsageBoost != 0 {
			s.DigitalChannelBoost += fx.DigitalUsageBoost
		}
		if fx.AppRating != 0 {
			s.AppRating = math.Min(5, s.AppRating+fx.AppRating)
		}
		if info.FeedbackEffect != "" {
			s.CustomerFeedback = prependFeedback(s.CustomerFeedback, CustomerFeedback{
				Turn:      s.Turn,
				Sentiment: SentimentPositive,
				Text:      info.FeedbackEffect,
			})
		}
		if info.Category == CategoryUIUX || info.Category == CategoryFeatures {
			v := IncrementVersion(s.AppVersion)
			s.AppVersion = v
			s.WebsiteVersion = v
		}
		t.announce(fmt.Sprintf("%s project completed and is now live!", info.Name), NewsSuccess)
	}
}

func (t *turn) updateRisk() {
	s := &t.s
	change := t.bank.riskDelta() + t.strat.Risk
	if s.Cash < 50000 {
		change += 0.5
	}
	if loanToDeposit(s.Loans, s.Deposits) > 0.9 {
		change += 0.5
	}
	if s.RiskFactor > 55 {
		change -= 0.25
	} else if s.RiskFactor < 45 {
		change += 0.25
	}
	s.RiskFactor = blend(s.RiskFactor, clamp(s.RiskFactor+change, 0, 100))
}

func (t *turn) accrueInterest() {
	s := &t.s
	t.interestIncome = s.Loans * (s.LoanInterestRate / 100) / TurnsPerYear
	t.interestExpense = s.Deposits * (s.DepositInterestRate / 100) / TurnsPerYear
	opCost := (s.Cash*0.0001 + 500) * t.bank.opCost()
	t.netProfit = t.interestIncome - t.interestExpense - opCost

	t.book.post("Interest Income", TxIncome, t.interestIncome)
	t.book.post("Interest Expense", TxExpense, -t.interestExpense)
	t.book.post("Operational Costs", TxExpense, -opCost)
}

func (t *turn) chargeDefaults() {
	s := &t.s
	rate := math.Max(0, BaseWeeklyDefaultRate+(s.RiskFactor/100)*0.005+t.strat.DefaultRate) * t.diff.RiskModifier
	defaulted := s.Loans * rate
	if defaulted <= 0 {
		return
	}
	t.netProfit -= defaulted
	s.Loans -= defaulted
	t.loanDefaults = defaulted
	t.book.post("Loan Defaults", TxLoanDefault, -defaulted)
}

func (t *turn) highRiskBonus() {
	if t.s.RiskFactor <= 60 {
		return
	}
	bonus := t.netProfit * ((t.s.RiskFactor - 60) / 100) * 0.2
	t.netProfit += bonus
	t.book.post("High-Risk Bonus", TxIncome, bonus)
}

func (t *turn) runCampaign() {
	c := t.s.ActiveMarketingCampaign
	if c == nil {
		return
	}
	info, _ := t.r.tables.Campaign(c.Type)
	if info.Name == "" {
		info.Name = string(c.Type)
	}
	if t.s.Cash < c.Budget {
		t.announce(fmt.Sprintf("Campaign '%s' stopped due to insufficient funds.", info.Name), NewsWarning)
		t.s.ActiveMarketingCampaign = nil
		return
	}

	t.netProfit -= c.Budget
	t.book.post("Weekly Cost: "+info.Name, TxMarketingCampaign, -c.Budget)
	t.campaignRep = c.Budget * info.Effects.Reputation
	t.campaignDeposit = c.Budget * info.Effects.DepositGrowth
	t.campaignLoan = c.Budget * info.Effects.LoanGrowth
	c.WeeksRemaining--
	if c.WeeksRemaining <= 0 {
		t.announce(fmt.Sprintf("Campaign '%s' has completed.", info.Name), NewsInfo)
		t.s.ActiveMarketingCampaign = nil
	}
}

func (t *turn) regulatoryPenalty() {
	s := &t.s
	if s.RiskFactor <= 80 {
		return
	}
	if t.r.rand.Float64() >= (s.RiskFactor-80)/20/4 {
		return
	}
	penalty := s.Cash * 0.1
	t.repDamage = 1.25
	t.netProfit -= penalty
	t.announce(fmt.Sprintf("Regulatory Fine! Your bank was fined %s for risky practices. Reputation damaged.", FormatUSD(penalty)), NewsDanger)
	t.book.post("Regulatory Penalty", TxPenalty, -penalty)
}

func (t *turn) collectRepayments() {
	repaid := t.s.Loans * WeeklyLoanRepaymentRate
	t.cash += repaid
	t.s.Loans -= repaid
	t.book.post("Loan Repayments", TxLoanRepayment, repaid)
}

func (t *turn) updateReputation() {
	s := &t.s
	target := clamp(s.Reputation+t.strat.Reputation-t.repDamage+t.campaignRep, 0, 100)
	s.Reputation = blend(s.Reputation, target)
}

func (t *turn) growDeposits() {
	s := &t.s
	factor := 0.002 +
		math.Pow(s.DepositInterestRate/3.0, 2)*0.005 +
		(s.Reputation/100)*0.003 +
		t.campaignDeposit +
		t.bank.depositGrowthDelta()
	t.newDeposits = s.Deposits * factor
	s.Deposits += t.newDeposits
	t.cash += t.newDeposits
	if t.newDeposits > 0 {
		t.book.post("New Customer Deposits", TxDeposit, t.newDeposits)
	}
}

func (t *turn) issueLoans() {
	s := &t.s
	available := t.cash - s.Deposits*ReserveRequirement
	factor := 0.003 +
		math.Pow(math.Max(0, 8-s.LoanInterestRate)/5.0, 2)*0.006 +
		(s.Reputation/100)*0.004 +
		t.strat.LoanGrowth +
		t.bank.loanDemandDelta() +
		t.campaignLoan
	demand := s.Deposits * factor

	if available <= 0 {
		if demand > 0 {
			t.announce(fmt.Sprintf("Loan growth stalled due to insufficient cash reserves to meet the %.0f%% requirement.", ReserveRequirement*100), NewsWarning)
		}
		return
	}
	t.newLoans = math.Min(demand, available)
	if t.newLoans <= 0 {
		return
	}
	s.Loans += t.newLoans
	t.cash -= t.newLoans
	t.book.post("New Loans Issued", TxLoan, t.newLoans)
}

// advanceCalendar returns the next calendar position and bills maintenance on a month rollover.
func (t *turn) advanceCalendar() (turnNo, week, month, year int) {
	s := t.s
	turnNo, week, month, year = s.Turn+1, s.Week+1, s.Month, s.Year
	if week <= WeeksPerMonth {
		return
	}
	week = 1
	month++
	if month > 12 {
		month = 1
		year++
	}
	if s.MonthlyMaintenanceCost > 0 {
		t.cash -= s.MonthlyMaintenanceCost
		t.book.post("Monthly Backend Maintenance", TxExpense, -s.MonthlyMaintenanceCost)
	}
	return
}

func (t *turn) driftSatisfaction() {
	s := &t.s
	drift := t.strat.Satisfaction
	if t.newLoans > 0 {
		drift += 0.025
	} else {
		drift -= 0.05
	}
	if t.newDeposits > 0 {
		drift += 0.025
	} else {
		drift -= 0.05
	}
	drift *= t.diff.SatisfactionModifier
	s.CustomerSatisfaction = blend(s.CustomerSatisfaction, clamp(s.CustomerSatisfaction+drift, 0, 100))
}

func (t *turn) driftAppRating() {
	s := &t.s
	target := 2.5 + (s.CustomerSatisfaction/100)*2.5
	drift := (target - s.AppRating) * 0.05
	if s.ServerStatus == ServerOverloaded {
		drift -= 0.02
	}
	s.AppRating = clamp(s.AppRating+drift, 1, 5)
}

// updateServerLoad compares this week's prospective customer count with last week's.
// Optimal has no outgoing transition.
func (t *turn) updateServerLoad(prospective int) {
	s := &t.s
	prev := t.pre.TotalCustomers
	growth := 0.0
	if prev > 0 {
		growth = float64(prospective-prev) / float64(prev)
	}
	switch {
	case growth > 0.05 && s.ServerStatus == ServerStable && !t.performanceUpgradeActive():
		s.ServerStatus = ServerOverloaded
		s.CustomerSatisfaction = math.Max(0, s.CustomerSatisfaction-3)
		t.announce("Servers are overloaded due to rapid user growth! Customer satisfaction is suffering.", NewsWarning)
	case s.ServerStatus == ServerOverloaded && growth < 0.01:
		s.ServerStatus = ServerStable
		t.announce("User growth has stabilized, and server performance has returned to normal.", NewsInfo)
	}
}

func (t *turn) performanceUpgradeActive() bool {
	for _, u := range t.s.ActiveTechUpgrades {
		if info, ok := t.r.tables.Upgrade(u.Type); ok && info.Category == CategoryPerformance {
			return true
		}
	}
	return false
}

func (t *turn) securityDecay() {
	s := &t.s
	if s.RiskFactor <= 60 {
		return
	}
	if last, ok := t.lastSecurityCompletion(); ok && s.Turn-last <= 24 {
		return
	}
	if t.r.rand.Float64() >= 0.15 {
		return
	}
	s.RiskFactor = math.Min(100, s.RiskFactor+0.5)
	t.announce("Security vulnerabilities are increasing due to lack of recent system hardening.", NewsWarning)
}

func (t *turn) lastSecurityCompletion() (int, bool) {
	last, found := 0, false
	for _, u := range t.s.CompletedTechUpgrades {
		info, ok := t.r.tables.Upgrade(u.Type)
		if !ok || info.Category != CategorySecurity {
			continue
		}
		if !found || u.CompletedTurn > last {
			last, found = u.CompletedTurn, true
		}
	}
	return last, found
}

func (t *turn) allocateChannels() {
	s := &t.s
	s.ChannelUsage = allocateChannels(s.TotalCustomers, t.r.tables.channelWeights(*s))
	if s.DigitalChannelBoost > 0 {
		s.DigitalChannelBoost *= 0.98
		if s.DigitalChannelBoost < 0.01 {
			s.DigitalChannelBoost = 0
		}
	}
}

func (t Tables) channelWeights(s GameState) map[Channel]float64 {
	base := t.ChannelPreferences
	bank := t.bankType(s.BankType)
	strat := t.strategy(s.CurrentStrategy)

	satFactor := 0.5 + s.CustomerSatisfaction/100
	digital := orOne(strat.DigitalChannelMod)
	branch := orOne(strat.BranchChannelMod)
	boost := 1 + s.DigitalChannelBoost
	rating := 1 + (s.AppRating-3.5)*0.1

	return map[Channel]float64{
		ChannelMobileApp: math.Max(0, base[ChannelMobileApp]*satFactor*digital*boost*rating*bank.channel(ChannelMobileApp)),
		ChannelWebPortal: math.Max(0, base[ChannelWebPortal]*satFactor*digital*boost*bank.channel(ChannelWebPortal)),
		ChannelATM:       math.Max(0, base[ChannelATM]*bank.channel(ChannelATM)),
		ChannelInBranch:  math.Max(0, base[ChannelInBranch]*branch*bank.channel(ChannelInBranch)),
	}
}

func customersFor(deposits, loans float64) int {
	return int(math.Round(deposits/AvgDepositPerCustomer + loans/AvgLoanPerCustomer*UniqueLoanCustomerPct))
}

func loanToDeposit(loans, deposits float64) float64 {
	if deposits > 0 {
		return loans / deposits
	}
	if loans > 0 {
		return math.Inf(1)
	}
	return 0
}
