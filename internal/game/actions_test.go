package game

import "testing"

func TestStartTechUpgradeRules(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)

	res := r.StartTechUpgrade(s, UpgradeThemeUpdate)
	if !res.Applied {
		t.Fatalf("expected project to start: %+v", res.News)
	}
	if res.State.Cash != 100000-7500 {
		t.Fatalf("cost not deducted: %f", res.State.Cash)
	}
	if len(res.Ledger) != 1 || res.Ledger[0].Type != TxInvestment || res.Ledger[0].Description != "Start Project: UI Theme Update" {
		t.Fatalf("unexpected ledger %+v", res.Ledger)
	}
	if res.News[0].Message != "Started UI Theme Update project. Cost: $7,500.00. ETA: 2 weeks." {
		t.Fatalf("unexpected news %q", res.News[0].Message)
	}

	dup := r.StartTechUpgrade(res.State, UpgradeThemeUpdate)
	if dup.Applied || dup.State.Cash != res.State.Cash || len(dup.State.ActiveTechUpgrades) != 1 {
		t.Fatalf("duplicate project must be a no-op")
	}
	if dup.News[0].Type != NewsInfo || dup.News[0].Message != "Project 'UI Theme Update' is already in progress." {
		t.Fatalf("unexpected rejection %+v", dup.News)
	}

	done := res.State.Clone()
	done.ActiveTechUpgrades = nil
	done.CompletedTechUpgrades = []CompletedTechUpgrade{{Type: UpgradeThemeUpdate, CompletedTurn: 2}}
	again := r.StartTechUpgrade(done, UpgradeThemeUpdate)
	if again.Applied || again.News[0].Message != "Project 'UI Theme Update' has already been completed." {
		t.Fatalf("completed project must be rejected: %+v", again.News)
	}

	poor := s.Clone()
	poor.Cash = 100
	broke := r.StartTechUpgrade(poor, UpgradeMobileCheckDeposit)
	if broke.Applied || broke.News[0].Type != NewsWarning || broke.News[0].Message != "Insufficient funds for Mobile Check Deposit project." {
		t.Fatalf("unexpected result for insufficient funds: %+v", broke.News)
	}
}

func TestLaunchCampaignReplacesActive(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)

	first := r.LaunchCampaign(s, CampaignTVCommercials, 1000, 4)
	if !first.Applied || len(first.News) != 1 {
		t.Fatalf("expected launch, got %+v", first.News)
	}
	second := r.LaunchCampaign(first.State, CampaignSocialMediaBlitz, 500, 3)
	if !second.Applied || len(second.News) != 2 {
		t.Fatalf("expected stop and launch news, got %+v", second.News)
	}
	if second.News[0].Type != NewsWarning || second.News[0].Message != "Marketing campaign stopped: TV Commercials." {
		t.Fatalf("unexpected stop news %+v", second.News[0])
	}
	if second.News[1].Type != NewsSuccess || second.News[1].Message != "Marketing campaign launched: Social Media Blitz for 3 weeks." {
		t.Fatalf("unexpected launch news %+v", second.News[1])
	}
	c := second.State.ActiveMarketingCampaign
	if c == nil || c.Type != CampaignSocialMediaBlitz || c.WeeksRemaining != 3 || c.Budget != 500 {
		t.Fatalf("unexpected campaign %+v", c)
	}

	stopped := r.StopCampaign(second.State)
	if !stopped.Applied || stopped.State.ActiveMarketingCampaign != nil {
		t.Fatalf("expected campaign to stop")
	}
	if noop := r.StopCampaign(stopped.State); noop.Applied || len(noop.News) != 0 {
		t.Fatalf("stopping with nothing active should be silent")
	}

	if tooBig := r.LaunchCampaign(s, CampaignTVCommercials, 50000, 4); tooBig.Applied {
		t.Fatalf("campaign larger than cash reserves should be rejected")
	}
}

func TestRateAndStrategyActions(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)

	res := r.SetLoanRate(s, 5.256)
	if res.State.LoanInterestRate != 5.26 || res.News[0].Message != "Loan interest rate adjusted to 5.26%." {
		t.Fatalf("unexpected loan rate result %+v", res)
	}
	res = r.SetDepositRate(res.State, 1.5)
	if res.State.DepositInterestRate != 1.5 || res.News[0].Message != "Deposit interest rate adjusted to 1.50%." {
		t.Fatalf("unexpected deposit rate result %+v", res)
	}
	res = r.SetStrategy(res.State, StrategyAggressiveLending)
	if res.State.CurrentStrategy != StrategyAggressiveLending || res.News[0].Message != "Strategy for next week changed to: AGGRESSIVE LENDING." {
		t.Fatalf("unexpected strategy result %+v", res.News)
	}
	if bad := r.SetStrategy(res.State, Strategy("YOLO")); bad.Applied {
		t.Fatalf("unknown strategy should be rejected")
	}
	if s.LoanInterestRate != 5.5 {
		t.Fatalf("input state mutated")
	}

	over := s.Clone()
	over.IsGameOver = true
	if r.SetLoanRate(over, 3).Applied {
		t.Fatalf("actions must not apply after game over")
	}
}

func TestUpdateSettings(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	s := newTestGame(t)
	next := s.Settings
	next.SimulationSpeed = SpeedRealtime
	next.Notifications.PlayerAlerts = false

	res := r.UpdateSettings(s, next)
	if !res.Applied || res.State.Settings.SimulationSpeed != SpeedRealtime || res.State.Settings.Notifications.PlayerAlerts {
		t.Fatalf("settings not applied: %+v", res.State.Settings)
	}
	next.SimulationSpeed = "WARP"
	if r.UpdateSettings(s, next).Applied {
		t.Fatalf("unknown speed should be rejected")
	}

	quiet, err := r.ResolveTurn(res.State, Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if hasNews(quiet.News, NewsInfo, "Weekly report") {
		t.Fatalf("weekly report should respect player alerts")
	}
}

func TestNewGame(t *testing.T) {
	s, err := NewGame(SetupOptions{BankName: "  Ironclad  ", BankType: BankDigital, Difficulty: DifficultyHardcore}, DefaultTables())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if s.Cash != 50000 || s.Settings.Branding.BankName != "Ironclad" || s.BankType != BankDigital {
		t.Fatalf("unexpected setup %+v", s)
	}
	if s.TotalCustomers != 474 || s.Turn != 0 || s.Week != 1 || s.Month != 1 || s.Year != 2024 {
		t.Fatalf("unexpected starting position %+v", s)
	}
	sum := 0
	for _, n := range s.ChannelUsage {
		sum += n
	}
	if sum != s.TotalCustomers {
		t.Fatalf("channel usage %v does not sum to %d", s.ChannelUsage, s.TotalCustomers)
	}
	if s.ChannelUsage[ChannelMobileApp] <= s.ChannelUsage[ChannelInBranch] {
		t.Fatalf("a digital bank should skew away from branches: %v", s.ChannelUsage)
	}

	if _, err := NewGame(SetupOptions{Difficulty: "NIGHTMARE"}, DefaultTables()); err == nil {
		t.Fatalf("expected unknown difficulty to fail")
	}
	def, _ := NewGame(SetupOptions{}, DefaultTables())
	if def.Settings.Branding.BankName != DefaultBankName || def.Cash != 100000 {
		t.Fatalf("unexpected defaults %+v", def.Settings.Branding)
	}
}
