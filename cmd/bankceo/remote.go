package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bankceo/internal/cli"
	"bankceo/internal/game"
	"bankceo/internal/syncq"
)

func (a *app) newRemoteCmd() *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Play a game hosted by bankceo-api",
	}
	remote.AddCommand(
		a.newRemoteCreateCmd(),
		a.newRemoteStatusCmd(),
		a.newRemoteTurnCmd(),
		a.newRemoteAdviseCmd(),
		a.newRemoteSyncCmd(),
		a.newRemoteForgetCmd(),
	)
	return remote
}

func (a *app) remoteProfile() (cli.Profile, *cli.Client, error) {
	p, err := cli.LoadProfile(a.cfg.DataDir)
	if err != nil {
		return p, nil, err
	}
	return p, cli.NewClient(p.BaseURL), nil
}

func (a *app) newRemoteCreateCmd() *cobra.Command {
	var opts game.SetupOptions
	var baseURL, bankType, difficulty string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Found a bank on the server and remember its access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" && isInteractive() {
				var err error
				if baseURL, err = promptOptional(fmt.Sprintf("Server URL [%s]", a.cfg.APIBaseURL)); err != nil {
					return err
				}
			}
			if baseURL == "" {
				baseURL = a.cfg.APIBaseURL
			}
			opts.BankType = game.BankType(bankType)
			opts.Difficulty = game.Difficulty(difficulty)

			client := cli.NewClient(baseURL)
			created, err := client.CreateGame(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := cli.SaveProfile(a.cfg.DataDir, cli.Profile{BaseURL: client.BaseURL, GameID: created.ID, Token: created.Token}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Remote game %s created.", created.ID))
			renderNewsFeed(created.Snapshot.News)
			renderStatus(created.Snapshot.GameState)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "server", "", "API base URL")
	cmd.Flags().StringVar(&opts.BankName, "name", "", "bank name")
	cmd.Flags().StringVar(&opts.BankLogo, "logo", "", "bank logo")
	cmd.Flags().StringVar(&opts.ThemeColor, "color", "", "theme color")
	cmd.Flags().StringVar(&bankType, "type", string(game.BankRetail), "RETAIL, DIGITAL or INVESTMENT")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(game.DifficultyNormal), "NORMAL, HARDCORE or SANDBOX")
	return cmd
}

func (a *app) newRemoteStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, client, err := a.remoteProfile()
			if err != nil {
				return err
			}
			view, err := client.Game(cmd.Context(), p.GameID, p.Token)
			if err != nil {
				return err
			}
			renderStatus(view.GameState)
			news := view.News
			if len(news) > 5 {
				news = news[:5]
			}
			renderNewsFeed(news)
			if pending, err := syncq.Load(a.cfg.DataDir); err == nil && len(pending) > 0 {
				printWarn(fmt.Sprintf("%d queued commands waiting for `bankceo remote sync`.", len(pending)))
			}
			return nil
		},
	}
}

func (a *app) newRemoteTurnCmd() *cobra.Command {
	var (
		strategy    string
		loanRate    float64
		depositRate float64
	)
	cmd := &cobra.Command{
		Use:   "turn",
		Short: "Resolve the next week on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, client, err := a.remoteProfile()
			if err != nil {
				return err
			}
			d := game.Decisions{Strategy: game.Strategy(strategy)}
			if cmd.Flags().Changed("loan") {
				d.LoanRate = &loanRate
			}
			if cmd.Flags().Changed("deposit") {
				d.DepositRate = &depositRate
			}
			idem := uuid.NewString()
			res, err := client.Turn(cmd.Context(), p.GameID, p.Token, d, idem)
			if err != nil {
				if !cli.IsTransient(err) {
					return err
				}
				body, merr := json.Marshal(d)
				if merr != nil {
					return merr
				}
				if qerr := syncq.Push(a.cfg.DataDir, syncq.Command{
					Method:         http.MethodPost,
					Path:           cli.GamePath(p.GameID, "turns"),
					Body:           body,
					IdempotencyKey: idem,
				}); qerr != nil {
					return fmt.Errorf("queue turn: %w (request failed: %v)", qerr, err)
				}
				printWarn("Server unreachable; turn queued. Run `bankceo remote sync` later.")
				return nil
			}
			renderTurn(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "strategy for this week")
	cmd.Flags().Float64Var(&loanRate, "loan", 0, "loan interest rate (%)")
	cmd.Flags().Float64Var(&depositRate, "deposit", 0, "deposit interest rate (%)")
	return cmd
}

func (a *app) newRemoteAdviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise",
		Short: "Ask the server's advisor for rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, client, err := a.remoteProfile()
			if err != nil {
				return err
			}
			rec, err := client.Recommendation(cmd.Context(), p.GameID, p.Token)
			if err != nil {
				return err
			}
			renderAdvice(rec)
			return nil
		},
	}
}

func (a *app) newRemoteSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued turns in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, client, err := a.remoteProfile()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			res, err := syncq.Drain(ctx, a.cfg.DataDir, func(ctx context.Context, q syncq.Command) (bool, error) {
				err := client.Do(ctx, q.Method, q.Path, p.Token, q.Body, q.IdempotencyKey)
				if err != nil {
					printError(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
				}
				return cli.IsTransient(err), err
			})
			if err != nil {
				return err
			}
			if res.Sent == 0 && res.Dropped == 0 && res.Remaining == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d dropped=%d remaining=%d", res.Sent, res.Dropped, res.Remaining))
			return nil
		},
	}
}

func (a *app) newRemoteForgetCmd() *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Forget the remote game token (use --delete to also end it on the server)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, client, err := a.remoteProfile()
			if err != nil {
				return err
			}
			if drop {
				if err := client.DeleteGame(cmd.Context(), p.GameID, p.Token); err != nil {
					return err
				}
			}
			if err := cli.ClearProfile(a.cfg.DataDir); err != nil {
				return err
			}
			printSuccess("Remote profile cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&drop, "delete", false, "delete the game on the server")
	return cmd
}
