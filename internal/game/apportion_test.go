package game

import (
	"math"
	"testing"
)

func TestApportionPreservesTotal(t *testing.T) {
	tests := []struct {
		total   int
		weights []float64
	}{
		{total: 474, weights: []float64{0.68, 0.55, 0.42, 0.15}},
		{total: 7, weights: []float64{1, 1, 1}},
		{total: 1, weights: []float64{0.2, 0.3, 0.5}},
		{total: 1000, weights: []float64{3, 0, 2, 0.0001}},
		{total: 13, weights: []float64{1}},
	}
	for _, tc := range tests {
		got, ok := Apportion(tc.total, tc.weights)
		if !ok {
			t.Fatalf("total=%d weights=%v: unexpected degenerate result", tc.total, tc.weights)
		}
		sumW := 0.0
		for _, w := range tc.weights {
			sumW += w
		}
		sum := 0
		for i, n := range got {
			sum += n
			exact := float64(tc.total) * tc.weights[i] / sumW
			if float64(n) < math.Floor(exact) || float64(n) > math.Floor(exact)+1 {
				t.Fatalf("total=%d index=%d got=%d exact=%f", tc.total, i, n, exact)
			}
		}
		if sum != tc.total {
			t.Fatalf("total=%d got sum=%d (%v)", tc.total, sum, got)
		}
	}
}

func TestApportionTiesFollowOrder(t *testing.T) {
	got, _ := Apportion(1, []float64{1, 1, 1, 1})
	if got[0] != 1 || got[1]+got[2]+got[3] != 0 {
		t.Fatalf("expected first index to win the tie, got %v", got)
	}
	got, _ = Apportion(2, []float64{1, 1, 1})
	if got[0] != 1 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("expected [1 1 0], got %v", got)
	}
}

func TestApportionDegenerate(t *testing.T) {
	if _, ok := Apportion(10, []float64{0, 0, 0}); ok {
		t.Fatalf("expected zero weights to be degenerate")
	}
	if got, ok := Apportion(0, []float64{1, 2}); ok || got[0]+got[1] != 0 {
		t.Fatalf("expected zero total to allocate nothing, got %v ok=%v", got, ok)
	}

	usage := allocateChannels(25, map[Channel]float64{})
	if usage[ChannelInBranch] != 25 {
		t.Fatalf("expected all customers in branch, got %v", usage)
	}
	for _, c := range Channels {
		if c != ChannelInBranch && usage[c] != 0 {
			t.Fatalf("expected %s to be empty, got %d", c, usage[c])
		}
	}
}
