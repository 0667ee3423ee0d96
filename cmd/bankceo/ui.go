package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"bankceo/internal/game"
	"bankceo/internal/session"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func printNews(n game.News) {
	switch n.Type {
	case game.NewsSuccess:
		printSuccess(n.Message)
	case game.NewsWarning:
		printWarn(n.Message)
	case game.NewsDanger:
		printError(n.Message)
	default:
		printInfo(n.Message)
	}
}

// renderNews prints items in the order they happened.
func renderNews(items []game.News) {
	for _, n := range items {
		printNews(n)
	}
}

// renderNewsFeed prints a newest-first feed.
func renderNewsFeed(feed []game.News) {
	if len(feed) == 0 {
		return
	}
	fmt.Println()
	accent.Println("Latest News")
	for _, n := range feed {
		printNews(n)
	}
}

func renderStatus(s game.GameState) {
	b := s.Settings.Branding
	accent.Printf("\n== %s %s (%s, %s) ==\n", b.BankLogo, b.BankName, s.BankType, s.Difficulty)
	fmt.Printf("Date:               Week %d, Month %d, %d (turn %d)\n", s.Week, s.Month, s.Year, s.Turn)
	fmt.Printf("Cash:               %s\n", colorizeUSD(s.Cash))
	fmt.Printf("Loans:              %s\n", game.FormatUSD(s.Loans))
	fmt.Printf("Deposits:           %s\n", game.FormatUSD(s.Deposits))
	fmt.Printf("Customers:          %d\n", s.TotalCustomers)
	fmt.Printf("Reputation:         %s\n", colorizeScore(s.Reputation, false))
	fmt.Printf("Satisfaction:       %s\n", colorizeScore(s.CustomerSatisfaction, false))
	fmt.Printf("Risk:               %s\n", colorizeScore(s.RiskFactor, true))
	fmt.Printf("Rates:              loan %.2f%% / deposit %.2f%%\n", s.LoanInterestRate, s.DepositInterestRate)
	fmt.Printf("Strategy:           %s\n", s.CurrentStrategy.Label())
	if c := s.ActiveMarketingCampaign; c != nil {
		fmt.Printf("Campaign:           %s, %s/week, %d of %d weeks left\n", c.Type, game.FormatUSD(c.Budget), c.WeeksRemaining, c.Duration)
	}
	fmt.Printf("Digital:            app %.1f stars, v%s app / v%s web, servers %s\n", s.AppRating, s.AppVersion, s.WebsiteVersion, s.ServerStatus)
	if s.MonthlyMaintenanceCost > 0 {
		fmt.Printf("Tech Maintenance:   %s/month\n", game.FormatUSD(s.MonthlyMaintenanceCost))
	}

	if len(s.ChannelUsage) > 0 {
		fmt.Println()
		accent.Println("Channels")
		for _, ch := range game.Channels {
			fmt.Printf("%-14s %8d\n", ch, s.ChannelUsage[ch])
		}
	}
	if len(s.CustomerFeedback) > 0 {
		fmt.Println()
		accent.Println("Customer Feedback")
		for _, fb := range s.CustomerFeedback[:min(3, len(s.CustomerFeedback))] {
			fmt.Printf("[%s] %s\n", fb.Sentiment, fb.Text)
		}
	}
	if s.IsGameOver {
		fmt.Println()
		danger.Println("GAME OVER")
		printError(s.GameOverMessage)
	}
	fmt.Println()
}

func renderTurn(res game.TurnResult) {
	s := res.State
	accent.Printf("\n-- Week %d, Month %d, %d --\n", s.Week, s.Month, s.Year)
	if h := res.History; h != nil {
		fmt.Printf("Net this week:   %s\n", colorizeUSD(h.NetOutcome))
	}
	fmt.Printf("Cash:            %s\n", colorizeUSD(s.Cash))
	fmt.Printf("Customers:       %d\n", s.TotalCustomers)
	renderNews(res.News)
}

func renderLedger(txs []game.Transaction, last int) {
	if len(txs) == 0 {
		printInfo("No transactions yet.")
		return
	}
	if last > 0 && len(txs) > last {
		txs = txs[:last]
	}
	fmt.Printf("%-6s %-14s %-20s %-40s %16s\n", "TURN", "DATE", "TYPE", "DESCRIPTION", "AMOUNT")
	for _, tx := range txs {
		fmt.Printf("%-6d %-14s %-20s %-40s %16s\n",
			tx.Turn,
			fmt.Sprintf("W%d M%d %d", tx.Week, tx.Month, tx.Year),
			tx.Type,
			truncate(tx.Description, 40),
			colorizeUSD(tx.Amount),
		)
	}
}

func renderHistory(history []game.HistoryEntry, last int) {
	if len(history) == 0 {
		printInfo("No weeks played yet.")
		return
	}
	if last > 0 && len(history) > last {
		history = history[len(history)-last:]
	}
	fmt.Printf("%-6s %-14s %16s %16s %16s %10s %8s %16s\n", "TURN", "DATE", "CASH", "LOANS", "DEPOSITS", "CUSTOMERS", "RISK", "NET")
	for _, h := range history {
		fmt.Printf("%-6d %-14s %16s %16s %16s %10d %8.1f %16s\n",
			h.Turn,
			fmt.Sprintf("W%d M%d %d", h.Week, h.Month, h.Year),
			game.FormatUSD(h.Cash),
			game.FormatUSD(h.Loans),
			game.FormatUSD(h.Deposits),
			h.TotalCustomers,
			h.RiskFactor,
			colorizeUSD(h.NetOutcome),
		)
	}
}

func renderStrategies(t game.Tables, current game.Strategy) {
	accent.Println("Strategies")
	for _, s := range game.Strategies {
		info := t.StrategyInfo(s)
		marker := " "
		if s == current {
			marker = "*"
		}
		fmt.Printf("%s %-20s %s\n", marker, s, info.Description)
	}
}

func renderCampaigns(t game.Tables, active *game.ActiveCampaign) {
	accent.Println("Marketing Campaigns")
	for _, typ := range game.CampaignTypes {
		info, ok := t.Campaign(typ)
		if !ok {
			continue
		}
		fmt.Printf("%-22s %-22s %s\n", typ, info.Name, info.Description)
	}
	fmt.Println()
	if active == nil {
		printInfo("No campaign is running.")
		return
	}
	printSuccess(fmt.Sprintf("Running: %s at %s/week, %d weeks left.", active.Type, game.FormatUSD(active.Budget), active.WeeksRemaining))
}

func renderTech(t game.Tables, s game.GameState) {
	accent.Println("Technology Projects")
	fmt.Printf("%-28s %-12s %14s %6s %12s  %s\n", "PROJECT", "CATEGORY", "COST", "WEEKS", "UPKEEP/MO", "STATUS")
	remaining := make(map[game.TechUpgradeType]int, len(s.ActiveTechUpgrades))
	for _, u := range s.ActiveTechUpgrades {
		remaining[u.Type] = u.WeeksRemaining
	}
	for _, typ := range game.TechUpgradeTypes {
		info, ok := t.Upgrade(typ)
		if !ok {
			continue
		}
		status := neutral.Sprint("available")
		if s.IsUpgradeCompleted(typ) {
			status = success.Sprint("completed")
		} else if weeks, ok := remaining[typ]; ok {
			status = warn.Sprintf("%d weeks left", weeks)
		} else if s.Cash < info.Cost {
			status = danger.Sprint("unaffordable")
		}
		fmt.Printf("%-28s %-12s %14s %6d %12s  %s\n", typ, info.Category, game.FormatUSD(info.Cost), info.Duration, game.FormatUSD(info.MaintenanceCost), status)
	}
}

func renderAdvice(r game.Recommendation) {
	accent.Println("Advisor")
	fmt.Printf("Loan rate:    %.3f%%  %s\n", r.Loan.Rate, r.Loan.Reason)
	fmt.Printf("Deposit rate: %.3f%%  %s\n", r.Deposit.Rate, r.Deposit.Reason)
}

func renderSettings(s game.Settings) {
	accent.Println("Settings")
	fmt.Printf("Bank:           %s %s (%s)\n", s.Branding.BankLogo, s.Branding.BankName, s.Branding.ThemeColor)
	fmt.Printf("Speed:          %s\n", s.SimulationSpeed)
	fmt.Printf("Theme:          %s\n", s.ThemeStyle)
	fmt.Printf("Reports:        %s\n", s.ReportStyle)
	fmt.Printf("System alerts:  %t\n", s.Notifications.SystemAlerts)
	fmt.Printf("Player alerts:  %t\n", s.Notifications.PlayerAlerts)
}

func renderSlots(slots []session.SlotInfo) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	accent.Println("Save Slots")
	for _, s := range slots {
		if s.Empty {
			fmt.Printf("%d  %s\n", s.Slot, neutral.Sprint("(empty)"))
			continue
		}
		fmt.Printf("%d  %-24s W%d M%d %d  %s\n", s.Slot, truncate(s.BankName, 24), s.Week, s.Month, s.Year, game.FormatUSD(s.Cash))
	}
}

func colorizeUSD(v float64) string {
	text := game.FormatUSD(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

// colorizeScore shades a 0-100 meter; inverted meters are bad when high.
func colorizeScore(v float64, inverted bool) string {
	text := fmt.Sprintf("%.1f", v)
	good := v >= 60
	bad := v < 30
	if inverted {
		good, bad = v < 40, v > 70
	}
	switch {
	case good:
		return success.Sprint(text)
	case bad:
		return danger.Sprint(text)
	default:
		return warn.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
