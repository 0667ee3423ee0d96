package game

import (
	"math"
	"strings"
)

const (
	DefaultLoanRecommendation    = 5.5
	DefaultDepositRecommendation = 2.5

	advisorStep       = 0.125
	advisorMaxClimbs  = 20
	advisorMinLoan    = 3.0
	advisorMaxLoan    = 9.5
	advisorMinDeposit = 1.0
	advisorMaxDeposit = 5.0
)

type RateAdvice struct {
	Rate   float64 `json:"rate"`
	Reason string  `json:"reason"`
}

type Recommendation struct {
	Loan    RateAdvice `json:"loan"`
	Deposit RateAdvice `json:"deposit"`
}

// RecommendRates suggests loan and deposit rates for the next week from recent history.
// It does not touch state and returns the same answer for the same inputs.
func RecommendRates(state GameState, history []HistoryEntry) Recommendation {
	if len(history) < 2 {
		return Recommendation{
			Loan:    RateAdvice{Rate: DefaultLoanRecommendation, Reason: "A balanced base rate to start. Analysis will begin next week."},
			Deposit: RateAdvice{Rate: DefaultDepositRecommendation, Reason: "A standard rate to maintain deposit levels."},
		}
	}

	// The profit trend spans the last five recorded weeks and the last-week
	// checks read the newest history entry. The week in progress has no
	// outcome yet and is left out of both.
	recent := tail(history, 5)
	outcomes := make([]float64, len(recent))
	for i, h := range recent {
		outcomes[i] = h.NetOutcome
	}
	netTrend := slope(outcomes)
	last := recent[len(recent)-1]

	points := append(append([]HistoryEntry(nil), tail(history, 2)...), HistoryEntry{TotalCustomers: state.TotalCustomers})
	customers := make([]float64, len(points))
	for i, p := range points {
		customers[i] = float64(p.TotalCustomers)
	}
	customerTrend := slope(customers)
	ldRatio := 1.0
	if state.Deposits > 0 {
		ldRatio = state.Loans / state.Deposits
	}

	loanRate := state.LoanInterestRate
	depositRate := state.DepositInterestRate
	var loanReasons, depositReasons []string

	if netTrend < -100 {
		loanRate += 0.25
		loanReasons = append(loanReasons, "a declining profit trend")
	}
	if last.LoanDefaults > state.Loans*0.005 {
		loanRate += 0.25
		loanReasons = append(loanReasons, "an increase in loan defaults")
	}
	if ldRatio > 0.9 {
		loanRate += 0.125
		loanReasons = append(loanReasons, "a high loan-to-deposit ratio")
	}
	if customerTrend < 1 && state.CustomerSatisfaction < 60 {
		loanRate -= 0.125
		loanReasons = append(loanReasons, "stalling customer growth")
	}
	if state.RiskFactor > 70 {
		loanRate += 0.25
		loanReasons = append(loanReasons, "a high risk factor")
	}
	if state.CurrentStrategy == StrategyAggressiveLending {
		loanRate -= 0.125
		loanReasons = append(loanReasons, "an 'Aggressive Lending' strategy")
	}

	if last.NetOutcome < -5000 {
		depositRate += 0.5
		depositReasons = append(depositReasons, "a significant negative cash flow last week")
	} else if ldRatio > 0.9 {
		depositRate += 0.25
		depositReasons = append(depositReasons, "a high loan-to-deposit ratio needing more funding")
	}
	if state.CustomerSatisfaction < 50 && customerTrend < 1 {
		depositRate += 0.25
		depositReasons = append(depositReasons, "low customer satisfaction")
	}
	if state.CurrentStrategy == StrategyBrandBuilding {
		depositRate += 0.125
		depositReasons = append(depositReasons, "a 'Brand Building' strategy")
	}

	loanRate = clamp(loanRate, advisorMinLoan, advisorMaxLoan)
	depositRate = clamp(depositRate, advisorMinDeposit, advisorMaxDeposit)

	adjusted := false
climb:
	for i := 0; i < advisorMaxClimbs && projectedProfit(state, loanRate, depositRate) < 0; i++ {
		switch {
		case loanRate < advisorMaxLoan:
			loanRate = math.Min(advisorMaxLoan, loanRate+advisorStep)
		case depositRate > advisorMinDeposit:
			depositRate = math.Max(advisorMinDeposit, depositRate-advisorStep)
		default:
			break climb
		}
		adjusted = true
	}
	if adjusted {
		loanReasons = append(loanReasons, "ensuring profitability")
		depositReasons = append(depositReasons, "ensuring profitability")
	}

	return Recommendation{
		Loan:    RateAdvice{Rate: loanRate, Reason: explain(loanReasons, "Analysis of recent trends indicates stable performance.")},
		Deposit: RateAdvice{Rate: depositRate, Reason: explain(depositReasons, "Analysis of recent trends indicates stable funding levels.")},
	}
}

// projectedProfit is one week of interest margin less operating costs and baseline defaults.
func projectedProfit(s GameState, loanRate, depositRate float64) float64 {
	income := s.Loans * (loanRate / 100) / TurnsPerYear
	expense := s.Deposits * (depositRate / 100) / TurnsPerYear
	opCost := s.Cash*0.0001 + 500
	defaults := s.Loans * BaseWeeklyDefaultRate
	return income - expense - opCost - defaults
}

func explain(reasons []string, fallback string) string {
	seen := make(map[string]bool, len(reasons))
	var uniq []string
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}
	switch len(uniq) {
	case 0:
		return fallback
	case 1:
		return "This rate is suggested due to " + uniq[0] + "."
	case 2:
		return "This rate is suggested based on: " + uniq[0] + " and " + uniq[1] + "."
	default:
		return "This rate is suggested based on: " + strings.Join(uniq[:len(uniq)-1], ", ") + ", and " + uniq[len(uniq)-1] + "."
	}
}

// slope is the least-squares slope of ys against their index.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

func tail[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
