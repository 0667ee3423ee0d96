package game

// ledger collects transactions for one resolution step, stamped with the
// calendar position at which they happened.
type ledger struct {
	turn, week, month, year int
	nextID                  int64
	entries                 []Transaction
}

func newLedger(s GameState) *ledger {
	return &ledger{
		turn:   s.Turn,
		week:   s.Week,
		month:  s.Month,
		year:   s.Year,
		nextID: nextTransactionID(s.Transactions),
	}
}

func (l *ledger) post(description string, typ TransactionType, amount float64) {
	l.entries = append(l.entries, Transaction{
		ID:          l.nextID,
		Turn:        l.turn,
		Week:        l.week,
		Month:       l.month,
		Year:        l.year,
		Description: description,
		Type:        typ,
		Amount:      amount,
	})
	l.nextID++
}

func nextTransactionID(existing []Transaction) int64 {
	if len(existing) == 0 {
		return 1
	}
	return existing[0].ID + 1
}

// PrependTransactions puts entries (oldest first) in front of a newest-first
// ledger and evicts past MaxTransactions.
func PrependTransactions(existing, entries []Transaction) []Transaction {
	out := make([]Transaction, 0, len(existing)+len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	out = append(out, existing...)
	if len(out) > MaxTransactions {
		out = out[:MaxTransactions]
	}
	return out
}

// PrependNews keeps the newest MaxNews items, newest first. Items (oldest
// first) without an id are numbered after the current newest.
func PrependNews(existing, items []News) []News {
	next := int64(1)
	if len(existing) > 0 {
		next = existing[0].ID + 1
	}
	out := make([]News, 0, len(existing)+len(items))
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		if n.ID == 0 {
			n.ID = next + int64(i)
		}
		out = append(out, n)
	}
	out = append(out, existing...)
	if len(out) > MaxNews {
		out = out[:MaxNews]
	}
	return out
}

func prependFeedback(existing []CustomerFeedback, fb CustomerFeedback) []CustomerFeedback {
	if len(existing) > 0 {
		fb.ID = existing[0].ID + 1
	} else {
		fb.ID = 1
	}
	out := append([]CustomerFeedback{fb}, existing...)
	if len(out) > MaxFeedback {
		out = out[:MaxFeedback]
	}
	return out
}
