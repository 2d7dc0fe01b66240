// Package reconcile owns the in-memory reconciliation state: the records loaded
// for each side and the append-only list of committed pairs.
package reconcile

import (
	"fmt"
	"sync"

	"BankRecon/internal/formats"
	"BankRecon/internal/ingest"
	"BankRecon/internal/logger"
	"BankRecon/internal/matching"
	"BankRecon/internal/model"
)

type source struct {
	format      formats.ID
	fingerprint string
}

type ledger struct {
	records []model.Transaction
	index   map[string]int
	source  source
}

func (l *ledger) lookup(id string) (model.Transaction, bool) {
	i, ok := l.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return l.records[i], true
}

// State is safe for concurrent use; every method takes the same lock. The zero
// value is an empty state.
type State struct {
	mu         sync.Mutex
	bank       ledger
	accounting ledger
	pairs      []model.MatchedPair
	claims     *matching.ClaimSet
}

func New() *State {
	return &State{claims: matching.NewClaimSet(nil)}
}

// Snapshot is a consistent view of the pending records and the pairs.
type Snapshot struct {
	UnmatchedBank       []model.Transaction
	UnmatchedAccounting []model.Transaction
	Pairs               []model.MatchedPair
}

func (s *State) ledger(side model.Side) *ledger {
	if side == model.SideBank {
		return &s.bank
	}
	return &s.accounting
}

// Replace loads a batch as the full record set of its side and clears every pair.
// Loading the same file in the same format again changes nothing and reports false.
func (s *State) Replace(b *ingest.Batch) (bool, error) {
	if b == nil || !b.Side.Valid() {
		return false, fmt.Errorf("replace: batch has no valid side")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger(b.Side)
	src := source{format: b.Format, fingerprint: b.Fingerprint}
	if l.source == src && src.fingerprint != "" {
		logger.Infof("reconcile: %s file %s already loaded, keeping %d pairs", b.Side, shortHash(src.fingerprint), len(s.pairs))
		return false, nil
	}

	l.records = append([]model.Transaction(nil), b.Records...)
	l.index = make(map[string]int, len(l.records))
	for i, t := range l.records {
		l.index[t.ID] = i
	}
	l.source = src
	cleared := len(s.pairs)
	s.resetPairsLocked()
	logger.Audit("loaded %d %s records from %s (%s), cleared %d pairs", len(l.records), b.Side, b.Format, shortHash(src.fingerprint), cleared)
	return true, nil
}

// Fingerprint returns the format and file hash currently loaded for side.
func (s *State) Fingerprint(side model.Side) (formats.ID, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.ledger(side).source
	return src.format, src.fingerprint
}

func (s *State) Records(side model.Side) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(side)
	return append(make([]model.Transaction, 0, len(l.records)), l.records...)
}

func (s *State) Unmatched(side model.Side) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UnmatchedView(s.ledger(side).records, s.pairs)
}

func (s *State) Pairs() []model.MatchedPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]model.MatchedPair, 0, len(s.pairs)), s.pairs...)
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		UnmatchedBank:       UnmatchedView(s.bank.records, s.pairs),
		UnmatchedAccounting: UnmatchedView(s.accounting.records, s.pairs),
		Pairs:               append(make([]model.MatchedPair, 0, len(s.pairs)), s.pairs...),
	}
}

// Contents returns every record of both sides and the pairs, taken under one lock.
func (s *State) Contents() (bank, accounting []model.Transaction, pairs []model.MatchedPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bank = append(make([]model.Transaction, 0, len(s.bank.records)), s.bank.records...)
	accounting = append(make([]model.Transaction, 0, len(s.accounting.records)), s.accounting.records...)
	pairs = append(make([]model.MatchedPair, 0, len(s.pairs)), s.pairs...)
	return bank, accounting, pairs
}

func (s *State) Lookup(side model.Side, id string) (model.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger(side).lookup(id)
}

// AutoMatch runs the automatic pass over the given records and commits the new
// pairs. Records unknown to the state are ignored.
func (s *State) AutoMatch(bank, accounting []model.Transaction) []model.MatchedPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoMatchLocked(s.known(model.SideBank, bank), s.known(model.SideAccounting, accounting))
}

// AutoMatchPending runs the automatic pass over everything still unmatched.
func (s *State) AutoMatchPending() []model.MatchedPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoMatchLocked(UnmatchedView(s.bank.records, s.pairs), UnmatchedView(s.accounting.records, s.pairs))
}

func (s *State) autoMatchLocked(bank, accounting []model.Transaction) []model.MatchedPair {
	pairs := matching.AutoMatch(bank, accounting, s.claimsLocked())
	s.appendLocked(pairs)
	logger.Audit("auto reconcile: %d bank and %d accounting candidates, %d new pairs", len(bank), len(accounting), len(pairs))
	return pairs
}

// ProposeGroup validates a manual grouping and commits it. On error nothing changes.
func (s *State) ProposeGroup(bankIDs, accountingIDs []string) (matching.GroupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := matching.ProposeGroup(lockedBook{s}, bankIDs, accountingIDs)
	if err != nil {
		return res, err
	}
	s.appendLocked(res.Pairs)
	logger.Audit("manual reconcile %s: %d pairs committed", res.Shape, len(res.Pairs))
	if res.Warning != "" {
		logger.Warnf("manual reconcile %s: %s", res.Shape, res.Warning)
	}
	return res, nil
}

// ResetPairs removes every pair and returns how many there were.
func (s *State) ResetPairs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pairs)
	s.resetPairsLocked()
	logger.Audit("reset %d pairs", n)
	return n
}

// Clear drops all records and pairs.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank, s.accounting = ledger{}, ledger{}
	s.resetPairsLocked()
	logger.Audit("cleared all reconciliation data")
}

func (s *State) appendLocked(pairs []model.MatchedPair) {
	for _, p := range pairs {
		s.claimsLocked().Add(p)
	}
	s.pairs = append(s.pairs, pairs...)
}

// claimsLocked builds the claim index on first use so the zero State works.
func (s *State) claimsLocked() *matching.ClaimSet {
	if s.claims == nil {
		s.claims = matching.NewClaimSet(s.pairs)
	}
	return s.claims
}

func (s *State) resetPairsLocked() {
	s.pairs = nil
	s.claims = matching.NewClaimSet(nil)
}

func (s *State) known(side model.Side, records []model.Transaction) []model.Transaction {
	l := s.ledger(side)
	out := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		if t, ok := l.lookup(r.ID); ok {
			out = append(out, t)
		}
	}
	return out
}

// lockedBook exposes the state to the matching engine while the lock is held.
type lockedBook struct{ s *State }

func (b lockedBook) Lookup(side model.Side, id string) (model.Transaction, bool) {
	if !side.Valid() {
		return model.Transaction{}, false
	}
	return b.s.ledger(side).lookup(id)
}

func (b lockedBook) IsReconciled(side model.Side, id string) bool {
	return b.s.claimsLocked().IsReconciled(side, id)
}

// UnmatchedView returns the records not referenced by any pair, in their
// original order.
func UnmatchedView(all []model.Transaction, pairs []model.MatchedPair) []model.Transaction {
	claims := matching.NewClaimSet(pairs)
	out := make([]model.Transaction, 0, len(all))
	for _, t := range all {
		if !claims.IsReconciled(t.Side, t.ID) {
			out = append(out, t)
		}
	}
	return out
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
