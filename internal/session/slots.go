package session

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bankceo/internal/game"
	"bankceo/internal/store"
)

const SlotCount = 3

var ErrInvalidSlot = fmt.Errorf("%w: save slots are numbered 1 to %d", game.ErrInvalidInput, SlotCount)

func SlotKey(slot int) string {
	return "slot-" + strconv.Itoa(slot)
}

// SaveSlot copies the running game into a numbered slot.
func (s *Session) SaveSlot(ctx context.Context, slot int) error {
	if slot < 1 || slot > SlotCount {
		return ErrInvalidSlot
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.News = game.PrependNews(s.snap.News, []game.News{{Message: fmt.Sprintf("Game saved to slot %d.", slot), Type: game.NewsSuccess}})
	saved := s.copySnapshot()
	saved.AccessHash = ""
	if err := s.deps.Store.Save(ctx, SlotKey(slot), saved); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	return s.save(ctx)
}

// LoadSlot replaces the running game with a numbered slot. A failed load
// leaves the game as it was and records a danger item in the feed.
func (s *Session) LoadSlot(ctx context.Context, slot int) error {
	if slot < 1 || slot > SlotCount {
		return ErrInvalidSlot
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.deps.Store.Load(ctx, SlotKey(slot))
	if err != nil {
		s.deps.Logger.Warn("slot load failed", "slot", slot, "err", err)
		if perr := s.post(ctx, fmt.Sprintf("Failed to load game from slot %d.", slot), game.NewsDanger); perr != nil {
			return perr
		}
		return fmt.Errorf("load slot %d: %w", slot, err)
	}
	snap.AccessHash = s.snap.AccessHash
	s.snap = snap
	return s.post(ctx, fmt.Sprintf("Game loaded from slot %d.", slot), game.NewsSuccess)
}

type SlotInfo struct {
	Slot     int     `json:"slot"`
	Empty    bool    `json:"empty"`
	BankName string  `json:"bankName,omitempty"`
	Year     int     `json:"year,omitempty"`
	Month    int     `json:"month,omitempty"`
	Week     int     `json:"week,omitempty"`
	Cash     float64 `json:"cash,omitempty"`
}

func ListSlots(ctx context.Context, st store.Store) []SlotInfo {
	out := make([]SlotInfo, 0, SlotCount)
	for slot := 1; slot <= SlotCount; slot++ {
		snap, err := st.Load(ctx, SlotKey(slot))
		if err != nil {
			out = append(out, SlotInfo{Slot: slot, Empty: true})
			continue
		}
		g := snap.GameState
		out = append(out, SlotInfo{
			Slot:     slot,
			BankName: g.Settings.Branding.BankName,
			Year:     g.Year,
			Month:    g.Month,
			Week:     g.Week,
			Cash:     g.Cash,
		})
	}
	return out
}

var historyHeader = []string{
	"turn", "year", "month", "week", "cash", "loans", "deposits", "reputation",
	"customerSatisfaction", "riskFactor", "totalCustomers", "loanInterestRate",
	"depositInterestRate", "netOutcome", "loanDefaults",
}

// ExportHistory writes the weekly history as CSV. An empty history posts a
// warning and writes nothing.
func (s *Session) ExportHistory(ctx context.Context, w io.Writer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snap.History) == 0 {
		return 0, s.post(ctx, "No history to export.", game.NewsWarning)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return 0, err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, h := range s.snap.History {
		row := []string{
			strconv.Itoa(h.Turn), strconv.Itoa(h.Year), strconv.Itoa(h.Month), strconv.Itoa(h.Week),
			f(h.Cash), f(h.Loans), f(h.Deposits), f(h.Reputation),
			f(h.CustomerSatisfaction), f(h.RiskFactor), strconv.Itoa(h.TotalCustomers), f(h.LoanInterestRate),
			f(h.DepositInterestRate), f(h.NetOutcome), f(h.LoanDefaults),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(s.snap.History), s.post(ctx, "Game history exported as CSV.", game.NewsSuccess)
}

// Delete removes the running game from the store.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.Store.Delete(ctx, s.key)
}
