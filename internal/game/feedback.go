package game

import "math"

var feedbackLines = map[Sentiment][]string{
	SentimentPositive: {
		"Opening an account took five minutes. Really impressed.",
		"The staff always treat me like a person, not an account number.",
		"Your savings rate beats my old bank by a mile.",
		"Transfers clear so quickly now. Keep it up!",
	},
	SentimentNeutral: {
		"Service is fine, nothing special either way.",
		"The app does what I need, though it could be quicker.",
		"Rates are about the same as everyone else's.",
		"Would appreciate longer branch opening hours.",
	},
	SentimentNegative: {
		"I waited on hold for forty minutes. Not acceptable.",
		"Fees keep creeping up and nobody explains why.",
		"Thinking about moving my accounts somewhere else.",
		"My loan application took far too long to get a decision.",
	},
}

const (
	overloadedFeedback = "The app keeps timing out whenever I try to log in."
	riskyFeedback      = "All the talk about risky lending makes me nervous about my deposits."
)

// maybeFeedback draws once against a chance that grows with the customer base
// and with how far satisfaction sits from neutral.
func (t *turn) maybeFeedback() {
	s := &t.s
	if s.TotalCustomers <= 10 {
		return
	}
	chance := math.Min(0.6, float64(s.TotalCustomers)/1000*0.05)
	volatility := math.Abs(s.CustomerSatisfaction-55) / 45
	if t.r.rand.Float64() >= chance*(1+volatility*0.5) {
		return
	}
	s.CustomerFeedback = prependFeedback(s.CustomerFeedback, composeFeedback(*s))
}

// composeFeedback picks a comment for the bank's current condition without consuming randomness.
func composeFeedback(s GameState) CustomerFeedback {
	fb := CustomerFeedback{Turn: s.Turn}
	switch {
	case s.ServerStatus == ServerOverloaded:
		fb.Sentiment, fb.Text = SentimentNegative, overloadedFeedback
		return fb
	case s.CustomerSatisfaction >= 65:
		fb.Sentiment = SentimentPositive
	case s.CustomerSatisfaction < 40:
		fb.Sentiment = SentimentNegative
	default:
		fb.Sentiment = SentimentNeutral
	}
	if fb.Sentiment != SentimentPositive && s.RiskFactor > 70 {
		fb.Sentiment, fb.Text = SentimentNegative, riskyFeedback
		return fb
	}
	lines := feedbackLines[fb.Sentiment]
	fb.Text = lines[s.Turn%len(lines)]
	return fb
}
