package game

import (
	"errors"
	"testing"
)

func TestDecisionsNormalize(t *testing.T) {
	state, err := NewGame(SetupOptions{}, DefaultTables())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	loan := 7.0
	d, err := Decisions{
		Strategy:    "aggressive lending",
		LoanRate:    &loan,
		Campaign:    &CampaignAction{Type: "referral-bonus", Budget: 1000, Duration: 2},
		TechUpgrade: "mfa_implementation",
	}.Normalize(state)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if d.Strategy != StrategyAggressiveLending || d.Campaign.Type != CampaignReferralBonus || d.TechUpgrade != UpgradeMFA {
		t.Fatalf("unexpected normalized decisions: %+v", d)
	}

	tests := []struct {
		name string
		in   Decisions
	}{
		{"strategy", Decisions{Strategy: "HOARDING"}},
		{"campaign", Decisions{Campaign: &CampaignAction{Type: "RADIO"}}},
		{"upgrade", Decisions{TechUpgrade: "BLOCKCHAIN"}},
		{"deposit rate", Decisions{DepositRate: ptr(9.0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.in.Normalize(state); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, err := (Decisions{Campaign: &CampaignAction{Stop: true}}).Normalize(state); err != nil {
		t.Fatalf("stop needs no type: %v", err)
	}
}

func ptr(v float64) *float64 { return &v }
