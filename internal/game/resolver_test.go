package game

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

type scriptedSource struct {
	vals  []float64
	calls int
}

func (s *scriptedSource) Float64() float64 {
	v := 0.99
	if s.calls < len(s.vals) {
		v = s.vals[s.calls]
	}
	s.calls++
	return v
}

func newTestGame(t *testing.T) GameState {
	t.Helper()
	s, err := NewGame(SetupOptions{BankName: "Test Bank"}, DefaultTables())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return s
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func hasNews(news []News, typ NewsType, fragment string) bool {
	for _, n := range news {
		if n.Type == typ && strings.Contains(n.Message, fragment) {
			return true
		}
	}
	return false
}

func TestResolveTurnFromInitialState(t *testing.T) {
	src := &scriptedSource{}
	r := NewResolver(DefaultTables(), src, nil)
	start := newTestGame(t)

	res, err := r.ResolveTurn(start, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	risk := 40 + 0.25*SmoothingFactor
	income := 400000 * 0.055 / 48
	expense := 450000 * 0.025 / 48
	opCost := (100000*0.0001 + 500) * 1.1
	defaults := 400000 * (0.001 + risk/100*0.005)
	loans := 400000 - defaults
	cash := 100000 + income - expense - opCost - defaults
	repaid := loans * 0.02
	loans -= repaid
	cash += repaid
	newDeposits := 450000 * (0.002 + math.Pow(2.5/3, 2)*0.005 + 0.4*0.003)
	deposits := 450000 + newDeposits
	cash += newDeposits
	demand := deposits * (0.003 + math.Pow(2.5/5, 2)*0.006 + 0.4*0.004)
	newLoans := math.Min(demand, cash-deposits*0.1)
	loans += newLoans
	cash -= newLoans

	got := res.State
	if got.Turn != 1 || got.Week != 2 || got.Month != 1 || got.Year != 2024 {
		t.Fatalf("unexpected calendar: turn=%d week=%d month=%d year=%d", got.Turn, got.Week, got.Month, got.Year)
	}
	if !approx(got.RiskFactor, risk) {
		t.Fatalf("risk got=%f want=%f", got.RiskFactor, risk)
	}
	if !approx(got.Loans, loans) || !approx(got.Deposits, deposits) || !approx(got.Cash, cash) {
		t.Fatalf("balances got cash=%f loans=%f deposits=%f want %f %f %f", got.Cash, got.Loans, got.Deposits, cash, loans, deposits)
	}
	if got.Reputation != 40 {
		t.Fatalf("reputation should hold at 40, got %f", got.Reputation)
	}
	if want := int(math.Round(deposits/1000 + loans/5000*0.3)); got.TotalCustomers != want {
		t.Fatalf("customers got=%d want=%d", got.TotalCustomers, want)
	}
	sum := 0
	for _, n := range got.ChannelUsage {
		sum += n
	}
	if sum != got.TotalCustomers {
		t.Fatalf("channel usage %v does not sum to %d", got.ChannelUsage, got.TotalCustomers)
	}

	wantTypes := []TransactionType{TxIncome, TxExpense, TxExpense, TxLoanDefault, TxLoanRepayment, TxDeposit, TxLoan}
	if len(res.Ledger) != len(wantTypes) {
		t.Fatalf("ledger len=%d want %d: %+v", len(res.Ledger), len(wantTypes), res.Ledger)
	}
	for i, tx := range res.Ledger {
		if tx.Type != wantTypes[i] || tx.Turn != 0 || tx.Week != 1 {
			t.Fatalf("ledger[%d]=%+v want type %s stamped turn 0 week 1", i, tx, wantTypes[i])
		}
	}
	if got.Transactions[0].Description != "New Loans Issued" {
		t.Fatalf("expected newest transaction first, got %q", got.Transactions[0].Description)
	}

	if res.History == nil {
		t.Fatalf("expected a history entry")
	}
	if res.History.Turn != 0 || res.History.Cash != 100000 || !approx(res.History.NetOutcome, cash-100000) || !approx(res.History.LoanDefaults, defaults) {
		t.Fatalf("unexpected history entry %+v", *res.History)
	}
	if !hasNews(res.News, NewsInfo, "Weekly report for Test Bank: Net interest income is $223.96.") {
		t.Fatalf("expected weekly report, got %+v", res.News)
	}
	if src.calls != 1 {
		t.Fatalf("expected only the feedback draw, got %d draws", src.calls)
	}
	if start.Turn != 0 || start.Cash != 100000 || len(start.Transactions) != 0 {
		t.Fatalf("input state was mutated: %+v", start)
	}
}

func TestResolveTurnInsolvencyEndsGame(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	s.Cash = 1000
	s.Loans = 0
	s.Deposits = 0
	s.Week = 4
	s.MonthlyMaintenanceCost = 50000

	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.State.IsGameOver || res.State.GameOverMessage != "Insolvency! Your bank has run out of cash reserves." {
		t.Fatalf("expected insolvency, got %+v", res.State)
	}
	if res.History != nil {
		t.Fatalf("no history entry should be committed on game over")
	}
	if res.State.Turn != s.Turn || res.State.Cash != s.Cash || len(res.State.Transactions) != 0 || len(res.Ledger) != 0 {
		t.Fatalf("turn effects leaked into the terminal state: %+v", res.State)
	}
	if !hasNews(res.News, NewsDanger, "Insolvency!") {
		t.Fatalf("expected danger news, got %+v", res.News)
	}

	again, err := r.ResolveTurn(res.State, Decisions{})
	if err != ErrGameOver {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if !reflect.DeepEqual(again.State, res.State) {
		t.Fatalf("terminal state changed")
	}
}

func TestTechUpgradeCompletion(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	s.Turn = 7
	s.ActiveTechUpgrades = []ActiveTechUpgrade{
		{Type: UpgradeThemeUpdate, WeeksRemaining: 1},
		{Type: UpgradeMFA, WeeksRemaining: 1},
		{Type: UpgradeBudgetTools, WeeksRemaining: 3},
	}

	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := res.State
	if len(got.ActiveTechUpgrades) != 1 || got.ActiveTechUpgrades[0].Type != UpgradeBudgetTools || got.ActiveTechUpgrades[0].WeeksRemaining != 2 {
		t.Fatalf("unexpected active upgrades %+v", got.ActiveTechUpgrades)
	}
	if len(got.CompletedTechUpgrades) != 2 {
		t.Fatalf("expected two completions, got %+v", got.CompletedTechUpgrades)
	}
	for _, c := range got.CompletedTechUpgrades {
		if c.CompletedTurn != 7 {
			t.Fatalf("completion should record the pre-increment turn, got %+v", c)
		}
		if got.IsUpgradeActive(c.Type) {
			t.Fatalf("%s is both active and completed", c.Type)
		}
	}
	if got.AppVersion != "1.0.1" || got.WebsiteVersion != "1.0.1" {
		t.Fatalf("only the UI/UX completion should bump versions, got app=%s web=%s", got.AppVersion, got.WebsiteVersion)
	}
	if got.MonthlyMaintenanceCost != 150+600 {
		t.Fatalf("maintenance got %f", got.MonthlyMaintenanceCost)
	}
	if len(got.CustomerFeedback) < 2 || got.CustomerFeedback[0].Sentiment != SentimentPositive {
		t.Fatalf("expected positive feedback from completions, got %+v", got.CustomerFeedback)
	}
	if !hasNews(res.News, NewsSuccess, "UI Theme Update project completed and is now live!") ||
		!hasNews(res.News, NewsSuccess, "Multi-Factor Authentication project completed") {
		t.Fatalf("missing completion news: %+v", res.News)
	}
}

func TestCampaignBillingAndCompletion(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	s.ActiveMarketingCampaign = &ActiveCampaign{Type: CampaignTVCommercials, Budget: 100, Duration: 1, WeeksRemaining: 1}

	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State.ActiveMarketingCampaign != nil {
		t.Fatalf("campaign should have completed")
	}
	if !hasNews(res.News, NewsInfo, "Campaign 'TV Commercials' has completed.") {
		t.Fatalf("missing completion news: %+v", res.News)
	}
	found := false
	for _, tx := range res.Ledger {
		if tx.Type == TxMarketingCampaign && tx.Amount == -100 && tx.Description == "Weekly Cost: TV Commercials" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing campaign ledger line: %+v", res.Ledger)
	}
	if s.ActiveMarketingCampaign.WeeksRemaining != 1 {
		t.Fatalf("input campaign was mutated")
	}
}

func TestCampaignCancelledWhenUnaffordable(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	s.Cash = 500
	s.ActiveMarketingCampaign = &ActiveCampaign{Type: CampaignSocialMediaBlitz, Budget: 1000, Duration: 4, WeeksRemaining: 4}

	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State.IsGameOver {
		t.Fatalf("did not expect insolvency")
	}
	if res.State.ActiveMarketingCampaign != nil {
		t.Fatalf("campaign should have been cancelled")
	}
	if !hasNews(res.News, NewsWarning, "Campaign 'Social Media Blitz' stopped due to insufficient funds.") {
		t.Fatalf("missing cancellation news: %+v", res.News)
	}
	if !hasNews(res.News, NewsWarning, "Loan growth stalled") {
		t.Fatalf("expected stalled lending with low cash: %+v", res.News)
	}
}

func TestRegulatoryPenaltyDraw(t *testing.T) {
	s := newTestGame(t)
	s.RiskFactor = 95

	src := &scriptedSource{vals: []float64{0.0, 0.99, 0.99}}
	r := NewResolver(DefaultTables(), src, nil)
	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if src.calls != 3 {
		t.Fatalf("expected penalty, security and feedback draws, got %d", src.calls)
	}
	if !hasNews(res.News, NewsDanger, "Regulatory Fine! Your bank was fined $10,000.00 for risky practices.") {
		t.Fatalf("missing fine news: %+v", res.News)
	}
	penalised := false
	for _, tx := range res.Ledger {
		if tx.Type == TxPenalty && approx(tx.Amount, -10000) {
			penalised = true
		}
	}
	if !penalised {
		t.Fatalf("missing penalty ledger line")
	}

	src = &scriptedSource{vals: []float64{0.99, 0.0, 0.99}}
	r = NewResolver(DefaultTables(), src, nil)
	res, err = r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if hasNews(res.News, NewsDanger, "Regulatory Fine!") {
		t.Fatalf("penalty should not fire on a high draw")
	}
	if !hasNews(res.News, NewsWarning, "Security vulnerabilities are increasing") {
		t.Fatalf("expected security decay on the second draw: %+v", res.News)
	}
}

func TestSecurityDecaySkippedAfterRecentHardening(t *testing.T) {
	s := newTestGame(t)
	s.RiskFactor = 70
	s.Turn = 30
	s.CompletedTechUpgrades = []CompletedTechUpgrade{{Type: UpgradeAdvancedEncryption, CompletedTurn: 10}}

	src := &scriptedSource{vals: []float64{0.0}}
	r := NewResolver(DefaultTables(), src, nil)
	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if hasNews(res.News, NewsWarning, "Security vulnerabilities") {
		t.Fatalf("hardening 20 turns ago should suppress decay")
	}
	if src.calls != 1 {
		t.Fatalf("expected only the feedback draw, got %d", src.calls)
	}
}

func TestServerLoadTransitions(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)

	s := newTestGame(t)
	s.TotalCustomers = 400
	res, err := r.ResolveTurn(s, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State.ServerStatus != ServerOverloaded {
		t.Fatalf("expected overload after rapid growth, got %s", res.State.ServerStatus)
	}
	if !hasNews(res.News, NewsWarning, "Servers are overloaded") {
		t.Fatalf("missing overload news")
	}

	res, err = r.ResolveTurn(res.State, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State.ServerStatus != ServerStable {
		t.Fatalf("expected recovery once growth settles, got %s", res.State.ServerStatus)
	}
	if !hasNews(res.News, NewsInfo, "User growth has stabilized") {
		t.Fatalf("missing recovery news")
	}

	guarded := newTestGame(t)
	guarded.TotalCustomers = 400
	guarded.ActiveTechUpgrades = []ActiveTechUpgrade{{Type: UpgradeCDNIntegration, WeeksRemaining: 3}}
	res, _ = r.ResolveTurn(guarded, Decisions{})
	if res.State.ServerStatus != ServerStable {
		t.Fatalf("an active performance project should prevent overload, got %s", res.State.ServerStatus)
	}
}

// Optimal is only reachable through Server Optimization and currently never decays.
func TestOptimalServerStatusIsSticky(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	s.ServerStatus = ServerOptimal
	s.TotalCustomers = 300
	for i := 0; i < 5; i++ {
		res, err := r.ResolveTurn(s, Decisions{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.State.ServerStatus != ServerOptimal {
			t.Fatalf("turn %d: status changed to %s", i, res.State.ServerStatus)
		}
		s = res.State
	}
}

func TestResolveTurnAppliesDecisionsFirst(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	loan, deposit := 6.257, 3.0

	res, err := r.ResolveTurn(s, Decisions{
		Strategy:    StrategyTechInvestment,
		LoanRate:    &loan,
		DepositRate: &deposit,
		TechUpgrade: UpgradeThemeUpdate,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State.CurrentStrategy != StrategyTechInvestment || res.State.LoanInterestRate != 6.26 || res.State.DepositInterestRate != 3 {
		t.Fatalf("decisions not applied: %+v", res.State)
	}
	if res.Ledger[0].Type != TxInvestment || res.Ledger[0].Amount != -7500 {
		t.Fatalf("expected the investment to lead the ledger, got %+v", res.Ledger[0])
	}
	if res.History.Cash != 100000-7500 || res.History.LoanInterestRate != 6.26 {
		t.Fatalf("history should snapshot the post-decision state, got %+v", *res.History)
	}
	if len(res.State.ActiveTechUpgrades) != 1 || res.State.ActiveTechUpgrades[0].WeeksRemaining != 1 {
		t.Fatalf("new project should tick down in the same turn: %+v", res.State.ActiveTechUpgrades)
	}
}

func TestInvariantsHoldOverManyTurns(t *testing.T) {
	for _, bank := range BankTypes {
		for _, diff := range Difficulties {
			s, err := NewGame(SetupOptions{BankType: bank, Difficulty: diff}, DefaultTables())
			if err != nil {
				t.Fatalf("new game: %v", err)
			}
			r := NewResolver(DefaultTables(), NewSource(7), nil)
			for i := 0; i < 150 && !s.IsGameOver; i++ {
				d := Decisions{Strategy: Strategies[i%len(Strategies)]}
				if i%10 == 0 {
					d.TechUpgrade = TechUpgradeTypes[(i/10)%len(TechUpgradeTypes)]
				}
				res, err := r.ResolveTurn(s, d)
				if err != nil {
					t.Fatalf("%s/%s turn %d: %v", bank, diff, i, err)
				}
				if !res.State.IsGameOver {
					checkInvariants(t, res.State)
					if res.State.Turn != s.Turn+1 {
						t.Fatalf("turn did not advance by one")
					}
				}
				s = res.State
			}
		}
	}
}

func checkInvariants(t *testing.T, s GameState) {
	t.Helper()
	for name, v := range map[string]float64{
		"reputation":   s.Reputation,
		"satisfaction": s.CustomerSatisfaction,
		"risk":         s.RiskFactor,
	} {
		if v < 0 || v > 100 || math.IsNaN(v) {
			t.Fatalf("turn %d: %s out of range: %f", s.Turn, name, v)
		}
	}
	if s.AppRating < 1 || s.AppRating > 5 {
		t.Fatalf("turn %d: app rating %f", s.Turn, s.AppRating)
	}
	if s.Loans < 0 || s.Deposits < 0 || s.Cash < 0 {
		t.Fatalf("turn %d: negative balance cash=%f loans=%f deposits=%f", s.Turn, s.Cash, s.Loans, s.Deposits)
	}
	if s.Week < 1 || s.Week > 4 || s.Month < 1 || s.Month > 12 {
		t.Fatalf("turn %d: calendar week=%d month=%d", s.Turn, s.Week, s.Month)
	}
	sum := 0
	for _, n := range s.ChannelUsage {
		sum += n
	}
	if sum != s.TotalCustomers {
		t.Fatalf("turn %d: channels sum %d != customers %d", s.Turn, sum, s.TotalCustomers)
	}
	if len(s.Transactions) > MaxTransactions || len(s.CustomerFeedback) > MaxFeedback {
		t.Fatalf("turn %d: bounded lists overflowed", s.Turn)
	}
	for _, c := range s.CompletedTechUpgrades {
		if s.IsUpgradeActive(c.Type) {
			t.Fatalf("turn %d: %s active and completed", s.Turn, c.Type)
		}
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	run := func() GameState {
		s, _ := NewGame(SetupOptions{}, DefaultTables())
		s.RiskFactor = 85
		r := NewResolver(DefaultTables(), NewSource(42), nil)
		for i := 0; i < 30 && !s.IsGameOver; i++ {
			res, err := r.ResolveTurn(s, Decisions{})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			s = res.State
		}
		return s
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different states")
	}
}

func TestLedgerIsBoundedNewestFirst(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	for i := 0; i < 30; i++ {
		res, err := r.ResolveTurn(s, Decisions{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		s = res.State
	}
	if len(s.Transactions) != MaxTransactions {
		t.Fatalf("expected ledger at cap, got %d", len(s.Transactions))
	}
	for i := 1; i < len(s.Transactions); i++ {
		if s.Transactions[i].ID >= s.Transactions[i-1].ID {
			t.Fatalf("ledger not newest-first at %d", i)
		}
	}
	if s.Transactions[0].Turn != 29 {
		t.Fatalf("newest entry should come from the last turn, got turn %d", s.Transactions[0].Turn)
	}
}
