package game

import (
	"math"
	"sort"
)

// Apportion splits total into integer parts proportional to weights using the
// largest-remainder method. Ties in remainder go to the earlier index.
// It reports false when total is not positive or the weights sum to zero.
func Apportion(total int, weights []float64) ([]int, bool) {
	out := make([]int, len(weights))
	if total <= 0 || len(weights) == 0 {
		return out, false
	}
	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		return out, false
	}

	remainders := make([]float64, len(weights))
	assigned := 0
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		exact := float64(total) * (w / sum)
		floor := math.Floor(exact)
		out[i] = int(floor)
		remainders[i] = exact - floor
		assigned += out[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := 0; i < total-assigned; i++ {
		out[order[i%len(order)]]++
	}
	return out, true
}

// allocateChannels distributes customers across Channels; a degenerate split sends everyone to In-Branch.
func allocateChannels(customers int, prefs map[Channel]float64) map[Channel]int {
	weights := make([]float64, len(Channels))
	for i, c := range Channels {
		weights[i] = math.Max(0, prefs[c])
	}
	usage := make(map[Channel]int, len(Channels))
	counts, ok := Apportion(customers, weights)
	for i, c := range Channels {
		usage[c] = counts[i]
	}
	if !ok && customers > 0 {
		usage[ChannelInBranch] = customers
	}
	return usage
}
