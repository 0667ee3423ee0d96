package game

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResolvedStateKeepsJSONArrays(t *testing.T) {
	r := NewResolver(DefaultTables(), &scriptedSource{}, nil)
	res, err := r.ResolveTurn(newTestGame(t), Decisions{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	raw, err := json.Marshal(res.State)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"transactions", "customerFeedback", "activeTechUpgrades", "completedTechUpgrades"} {
		if strings.Contains(string(raw), `"`+field+`":null`) {
			t.Fatalf("%s encoded as null: %s", field, raw)
		}
	}

	var back GameState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.CustomerFeedback == nil || back.CompletedTechUpgrades == nil {
		t.Fatalf("lists lost after decode: %+v", back)
	}
}

func TestCloneNeverReturnsNilLists(t *testing.T) {
	var s GameState
	c := s.Clone()
	if c.Transactions == nil || c.CustomerFeedback == nil || c.ActiveTechUpgrades == nil || c.CompletedTechUpgrades == nil {
		t.Fatalf("clone left nil lists: %+v", c)
	}

	s = newTestGame(t)
	s.CustomerFeedback = []CustomerFeedback{{ID: 1, Text: "Great app"}}
	c = s.Clone()
	c.CustomerFeedback[0].Text = "changed"
	if s.CustomerFeedback[0].Text != "Great app" {
		t.Fatal("clone shares backing array with the original")
	}
}
