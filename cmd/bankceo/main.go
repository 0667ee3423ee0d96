package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bankceo/internal/config"
	"bankceo/internal/game"
	"bankceo/internal/session"
	"bankceo/internal/store"
	"bankceo/internal/tui"
)

type app struct {
	cfg     config.CLIConfig
	log     *slog.Logger
	verbose bool
	deps    session.Deps
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:          "bankceo",
		Short:        "Run a bank one week at a time",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.deps.Store != nil {
				return a.deps.Store.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(
		a.newNewCmd(),
		a.newStatusCmd(),
		a.newTurnCmd(),
		a.newRatesCmd(),
		a.newStrategyCmd(),
		a.newCampaignCmd(),
		a.newTechCmd(),
		a.newAdviseCmd(),
		a.newHistoryCmd(),
		a.newLedgerCmd(),
		a.newSettingsCmd(),
		a.newSlotsCmd(),
		a.newSaveCmd(),
		a.newLoadCmd(),
		a.newDeleteCmd(),
		a.newResetCmd(),
		a.newPlayCmd(),
		a.newRemoteCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init(ctx context.Context) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg
	tables, err := config.LoadTables(cfg.TablesPath)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store, a.log)
	if err != nil {
		return err
	}
	src := game.NewTimeSource()
	if cfg.Seed != 0 {
		src = game.NewSource(cfg.Seed)
	}
	a.deps = session.Deps{
		Store:    st,
		Resolver: game.NewResolver(tables, src, a.log),
		Logger:   a.log,
	}
	return nil
}

func (a *app) session(ctx context.Context) (*session.Session, error) {
	sess, err := session.Resume(ctx, a.deps)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("no game in progress; run `bankceo new` first")
	}
	return sess, err
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (a *app) newNewCmd() *cobra.Command {
	var opts game.SetupOptions
	var bankType, difficulty string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Found a new bank (replaces the autosave)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 && isInteractive() {
				var err error
				if opts.BankName, err = promptOptional(fmt.Sprintf("Bank name [%s]", game.DefaultBankName)); err != nil {
					return err
				}
				if bankType, err = promptChoice("Bank type", enumNames(game.BankTypes), string(game.BankRetail)); err != nil {
					return err
				}
				if difficulty, err = promptChoice("Difficulty", enumNames(game.Difficulties), string(game.DifficultyNormal)); err != nil {
					return err
				}
			}
			opts.BankType = game.BankType(bankType)
			opts.Difficulty = game.Difficulty(difficulty)

			sess, err := session.Create(cmd.Context(), a.deps, session.AutosaveKey, opts)
			if err != nil {
				return err
			}
			renderNews(sess.News())
			renderStatus(sess.State())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.BankName, "name", "", "bank name")
	cmd.Flags().StringVar(&opts.BankLogo, "logo", "", "bank logo")
	cmd.Flags().StringVar(&opts.ThemeColor, "color", "", "theme color")
	cmd.Flags().StringVar(&bankType, "type", string(game.BankRetail), "RETAIL, DIGITAL or INVESTMENT")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(game.DifficultyNormal), "NORMAL, HARDCORE or SANDBOX")
	return cmd
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the bank dashboard and latest news",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			renderStatus(sess.State())
			news := sess.News()
			if len(news) > 5 {
				news = news[:5]
			}
			renderNewsFeed(news)
			return nil
		},
	}
}

func (a *app) newTurnCmd() *cobra.Command {
	var (
		count       int
		strategy    string
		techUpgrade string
		loanRate    float64
		depositRate float64
	)
	cmd := &cobra.Command{
		Use:   "turn",
		Short: "End the week and resolve the next turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("%w: --count must be at least 1", game.ErrInvalidInput)
			}
			d := game.Decisions{Strategy: game.Strategy(strategy), TechUpgrade: game.TechUpgradeType(techUpgrade)}
			if cmd.Flags().Changed("loan") {
				d.LoanRate = &loanRate
			}
			if cmd.Flags().Changed("deposit") {
				d.DepositRate = &depositRate
			}
			if d, err = d.Normalize(sess.State()); err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				res, err := sess.NextTurn(cmd.Context(), d)
				if err != nil {
					return err
				}
				renderTurn(res)
				if res.State.IsGameOver {
					break
				}
				d = game.Decisions{}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of weeks to resolve")
	cmd.Flags().StringVar(&strategy, "strategy", "", "strategy for the first week")
	cmd.Flags().StringVar(&techUpgrade, "tech", "", "technology project to start first")
	cmd.Flags().Float64Var(&loanRate, "loan", 0, "loan interest rate (%)")
	cmd.Flags().Float64Var(&depositRate, "deposit", 0, "deposit interest rate (%)")
	return cmd
}

func (a *app) newRatesCmd() *cobra.Command {
	var loanRate, depositRate float64
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Set loan and deposit interest rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			var lp, dp *float64
			if cmd.Flags().Changed("loan") {
				lp = &loanRate
			}
			if cmd.Flags().Changed("deposit") {
				dp = &depositRate
			}
			if lp == nil && dp == nil {
				st := sess.State()
				printInfo(fmt.Sprintf("Loan rate %.2f%%, deposit rate %.2f%%.", st.LoanInterestRate, st.DepositInterestRate))
				return nil
			}
			res, err := sess.SetRates(cmd.Context(), lp, dp)
			if err != nil {
				return err
			}
			renderNews(res.News)
			return nil
		},
	}
	cmd.Flags().Float64Var(&loanRate, "loan", 0, "loan interest rate (2-10%)")
	cmd.Flags().Float64Var(&depositRate, "deposit", 0, "deposit interest rate (0.5-5%)")
	return cmd
}

func (a *app) newStrategyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategy [name]",
		Short: "List strategies or pick one for next week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				renderStrategies(a.deps.Resolver.Tables(), sess.State().CurrentStrategy)
				return nil
			}
			s, err := game.ParseStrategy(args[0])
			if err != nil {
				return err
			}
			res, err := sess.SetStrategy(cmd.Context(), s)
			if err != nil {
				return err
			}
			renderNews(res.News)
			return nil
		},
	}
}

func (a *app) newCampaignCmd() *cobra.Command {
	campaign := &cobra.Command{
		Use:   "campaign",
		Short: "Marketing campaigns",
	}
	campaign.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List campaign types and the running campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			renderCampaigns(a.deps.Resolver.Tables(), sess.State().ActiveMarketingCampaign)
			return nil
		},
	})
	campaign.AddCommand(&cobra.Command{
		Use:   "launch <type> <weekly-budget> <weeks>",
		Short: "Launch a campaign, replacing any running one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			typ, err := game.ParseCampaign(args[0])
			if err != nil {
				return err
			}
			budget, err := strconv.ParseFloat(args[1], 64)
			if err != nil || budget <= 0 {
				return fmt.Errorf("%w: weekly budget must be a positive number", game.ErrInvalidInput)
			}
			weeks, err := strconv.Atoi(args[2])
			if err != nil || weeks < 1 {
				return fmt.Errorf("%w: weeks must be a whole number >= 1", game.ErrInvalidInput)
			}
			res, err := sess.LaunchCampaign(cmd.Context(), typ, budget, weeks)
			if err != nil {
				return err
			}
			renderNews(res.News)
			return nil
		},
	})
	campaign.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the running campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			res, err := sess.StopCampaign(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Applied {
				printInfo("No campaign is running.")
				return nil
			}
			renderNews(res.News)
			return nil
		},
	})
	return campaign
}

func (a *app) newTechCmd() *cobra.Command {
	tech := &cobra.Command{
		Use:   "tech",
		Short: "Technology projects",
	}
	tech.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects with their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			renderTech(a.deps.Resolver.Tables(), sess.State())
			return nil
		},
	})
	tech.AddCommand(&cobra.Command{
		Use:   "start <upgrade>",
		Short: "Pay for and start a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			u, err := game.ParseTechUpgrade(args[0])
			if err != nil {
				return err
			}
			res, err := sess.StartTechUpgrade(cmd.Context(), u)
			if err != nil {
				return err
			}
			renderNews(res.News)
			return nil
		},
	})
	return tech
}

func (a *app) newAdviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise",
		Short: "Ask the advisor for next week's rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			renderAdvice(sess.Recommend())
			return nil
		},
	}
}

func (a *app) newHistoryCmd() *cobra.Command {
	var last int
	var csvPath string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show weekly history or export it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if csvPath == "" {
				renderHistory(sess.History(), last)
				return nil
			}
			out := os.Stdout
			if csvPath != "-" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			n, err := sess.ExportHistory(cmd.Context(), out)
			if err != nil {
				return err
			}
			if n == 0 {
				printWarn("No history to export.")
			} else if csvPath != "-" {
				printSuccess(fmt.Sprintf("Exported %d weeks to %s.", n, csvPath))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 12, "number of weeks to show")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write CSV to this file (- for stdout)")
	return cmd
}

func (a *app) newLedgerCmd() *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show recent transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			renderLedger(sess.State().Transactions, last)
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "number of transactions to show")
	return cmd
}

func (a *app) newSettingsCmd() *cobra.Command {
	var (
		speed, theme, report string
		name, logo, color    string
		systemAlerts         bool
		playerAlerts         bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change game settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			s := sess.State().Settings
			if cmd.Flags().NFlag() == 0 {
				renderSettings(s)
				return nil
			}
			f := cmd.Flags()
			if f.Changed("speed") {
				v, err := game.ParseSimulationSpeed(speed)
				if err != nil {
					return err
				}
				s.SimulationSpeed = v
			}
			if f.Changed("theme") {
				s.ThemeStyle = strings.ToLower(theme)
			}
			if f.Changed("report") {
				s.ReportStyle = strings.ToUpper(report)
			}
			if f.Changed("name") {
				s.Branding.BankName = strings.TrimSpace(name)
			}
			if f.Changed("logo") {
				s.Branding.BankLogo = logo
			}
			if f.Changed("color") {
				s.Branding.ThemeColor = color
			}
			if f.Changed("system-alerts") {
				s.Notifications.SystemAlerts = systemAlerts
			}
			if f.Changed("player-alerts") {
				s.Notifications.PlayerAlerts = playerAlerts
			}
			res, err := sess.UpdateSettings(cmd.Context(), s)
			if err != nil {
				return err
			}
			renderNews(res.News)
			renderSettings(res.State.Settings)
			return nil
		},
	}
	cmd.Flags().StringVar(&speed, "speed", "", "NORMAL, FAST or REALTIME (REALTIME is advanced by the worker)")
	cmd.Flags().StringVar(&theme, "theme", "", "dark or light")
	cmd.Flags().StringVar(&report, "report", "", "BRIEF or DETAILED")
	cmd.Flags().StringVar(&name, "name", "", "bank name")
	cmd.Flags().StringVar(&logo, "logo", "", "bank logo")
	cmd.Flags().StringVar(&color, "color", "", "theme color")
	cmd.Flags().BoolVar(&systemAlerts, "system-alerts", true, "warning and danger alerts")
	cmd.Flags().BoolVar(&playerAlerts, "player-alerts", true, "weekly reports and success alerts")
	return cmd
}

func (a *app) newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderSlots(session.ListSlots(cmd.Context(), a.deps.Store))
			return nil
		},
	}
}

func slotArg(args []string) (int, error) {
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 || slot > session.SlotCount {
		return 0, session.ErrInvalidSlot
	}
	return slot, nil
}

func (a *app) newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <slot>",
		Short: "Copy the current game into a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := slotArg(args)
			if err != nil {
				return err
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := sess.SaveSlot(cmd.Context(), slot); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Game saved to slot %d.", slot))
			return nil
		},
	}
}

func (a *app) newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <slot>",
		Short: "Replace the current game with a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := slotArg(args)
			if err != nil {
				return err
			}
			sess, err := session.Resume(cmd.Context(), a.deps)
			if errors.Is(err, store.ErrNotFound) {
				sess, err = session.Create(cmd.Context(), a.deps, session.AutosaveKey, game.SetupOptions{})
			}
			if err != nil {
				return err
			}
			if err := sess.LoadSlot(cmd.Context(), slot); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Game loaded from slot %d.", slot))
			renderStatus(sess.State())
			return nil
		},
	}
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := slotArg(args)
			if err != nil {
				return err
			}
			if err := a.deps.Store.Delete(cmd.Context(), session.SlotKey(slot)); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					printInfo(fmt.Sprintf("Slot %d is already empty.", slot))
					return nil
				}
				return err
			}
			printSuccess(fmt.Sprintf("Slot %d deleted.", slot))
			return nil
		},
	}
}

func (a *app) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the game in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptChoice("Reset all progress? This cannot be undone", []string{"yes", "no"}, "no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					printInfo("Reset cancelled.")
					return nil
				}
			}
			err := a.deps.Store.Delete(cmd.Context(), session.AutosaveKey)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			printSuccess("Progress reset. Run `bankceo new` to start again.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively in a full-screen terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive() {
				return errors.New("play needs an interactive terminal; use `bankceo turn` in scripts")
			}
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(sess)
		},
	}
}

func enumNames[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
