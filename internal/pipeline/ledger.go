package pipeline

// Ledger is the set of identity keys already persisted to the sink. It is
// seeded once per run from the sink's existing links and appended to as
// items are sunk; the sink itself stays the source of truth across runs.
type Ledger struct {
	seen map[string]struct{}
}

// NewLedger builds a ledger seeded with the given identity keys.
func NewLedger(keys []string) *Ledger {
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		seen[key] = struct{}{}
	}
	return &Ledger{seen: seen}
}

// Seen reports whether the identity key is already persisted.
func (l *Ledger) Seen(key string) bool {
	_, ok := l.seen[key]
	return ok
}

// Record marks an identity key as persisted for the rest of the run.
func (l *Ledger) Record(key string) {
	l.seen[key] = struct{}{}
}

// Len returns the number of known identity keys.
func (l *Ledger) Len() int {
	return len(l.seen)
}
