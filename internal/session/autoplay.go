package session

import (
	"context"
	"errors"
	"strings"

	"bankceo/internal/game"
)

type AutoplayReport struct {
	Scanned  int
	Advanced int
	Failed   int
}

// AdvanceRealtime resolves one empty-decision turn for every stored game
// running at REALTIME speed. Save slots are never advanced.
func AdvanceRealtime(ctx context.Context, deps Deps) (AutoplayReport, error) {
	deps = deps.withDefaults()
	entries, err := deps.Store.List(ctx)
	if err != nil {
		return AutoplayReport{}, err
	}
	var rep AutoplayReport
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if strings.HasPrefix(e.Key, "slot-") {
			continue
		}
		rep.Scanned++
		sess, err := Open(ctx, deps, e.Key)
		if err != nil {
			rep.Failed++
			deps.Logger.Warn("autoplay open failed", "key", e.Key, "err", err)
			continue
		}
		st := sess.State()
		if st.IsGameOver || st.Settings.SimulationSpeed != game.SpeedRealtime {
			continue
		}
		res, err := sess.NextTurn(ctx, game.Decisions{})
		if err != nil && !errors.Is(err, game.ErrGameOver) {
			rep.Failed++
			deps.Logger.Warn("autoplay turn failed", "key", e.Key, "err", err)
			continue
		}
		rep.Advanced++
		deps.Logger.Info("autoplay advanced game", "key", e.Key, "turn", res.State.Turn, "cash", res.State.Cash, "game_over", res.State.IsGameOver)
	}
	return rep, nil
}
