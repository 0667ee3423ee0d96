package tui

import (
	"fmt"
	"strconv"
	"strings"

	"bankceo/internal/game"
)

type commandKind int

const (
	cmdNextTurn commandKind = iota
	cmdLoanRate
	cmdDepositRate
	cmdStrategy
	cmdCampaign
	cmdStopCampaign
	cmdTech
	cmdAdvise
	cmdQuit
)

type command struct {
	kind     commandKind
	rate     float64
	strategy game.Strategy
	campaign game.CampaignType
	budget   float64
	weeks    int
	upgrade  game.TechUpgradeType
}

const helpText = "Enter: next week | loan <rate> | deposit <rate> | strategy <name> | campaign <type> <budget> <weeks> | stop | tech <upgrade> | advise | quit"

// parseCommand reads one line typed at the prompt. An empty line ends the week.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdNextTurn}, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%w: %s needs %d argument(s)", game.ErrInvalidInput, verb, n)
		}
		return nil
	}

	switch verb {
	case "next", "n":
		return command{kind: cmdNextTurn}, nil
	case "loan", "deposit":
		if err := need(1); err != nil {
			return command{}, err
		}
		rate, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
		if err != nil {
			return command{}, fmt.Errorf("%w: rate %q", game.ErrInvalidInput, args[0])
		}
		if verb == "loan" {
			return command{kind: cmdLoanRate, rate: rate}, game.ValidateRates(rate, game.MinDepositRate)
		}
		return command{kind: cmdDepositRate, rate: rate}, game.ValidateRates(game.MinLoanRate, rate)
	case "strategy":
		if err := need(1); err != nil {
			return command{}, err
		}
		s, err := game.ParseStrategy(strings.Join(args, " "))
		return command{kind: cmdStrategy, strategy: s}, err
	case "campaign":
		if err := need(3); err != nil {
			return command{}, err
		}
		typ, err := game.ParseCampaign(args[0])
		if err != nil {
			return command{}, err
		}
		budget, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return command{}, fmt.Errorf("%w: budget %q", game.ErrInvalidInput, args[1])
		}
		weeks, err := strconv.Atoi(args[2])
		if err != nil {
			return command{}, fmt.Errorf("%w: weeks %q", game.ErrInvalidInput, args[2])
		}
		return command{kind: cmdCampaign, campaign: typ, budget: budget, weeks: weeks}, nil
	case "stop":
		return command{kind: cmdStopCampaign}, nil
	case "tech":
		if err := need(1); err != nil {
			return command{}, err
		}
		u, err := game.ParseTechUpgrade(args[0])
		return command{kind: cmdTech, upgrade: u}, err
	case "advise", "advice":
		return command{kind: cmdAdvise}, nil
	case "quit", "exit", "q":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("%w: unknown command %q", game.ErrInvalidInput, verb)
	}
}
