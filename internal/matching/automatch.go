// Package matching pairs bank records with accounting records, automatically by
// amount or manually from user-selected groups.
package matching

import (
	"sort"

	"BankRecon/internal/model"
)

type bucketKey struct {
	amount  string
	ordinal int
}

type ranked struct {
	id  string
	key bucketKey
}

// AutoMatch pairs the given unmatched records by rounded amount. Each side is
// sorted by (amount, date) and every record gets its ordinal inside its amount
// bucket; a bank and an accounting record pair when amount and ordinal agree.
// Surplus records in a bucket stay pending.
//
// Ties inside a bucket are resolved by date rank only, not by how close the two
// dates are, so equal amounts with distant dates can pair.
//
// Ids already consumed earlier in the pass, or reported by claims (may be nil),
// are skipped. The returned pairs are not committed anywhere.
func AutoMatch(bank, accounting []model.Transaction, claims Claims) []model.MatchedPair {
	pairs := make([]model.MatchedPair, 0)
	if len(bank) == 0 || len(accounting) == 0 {
		return pairs
	}

	accByKey := make(map[bucketKey]string, len(accounting))
	for _, r := range rank(accounting) {
		accByKey[r.key] = r.id
	}

	consumed := NewClaimSet(nil)
	for _, b := range rank(bank) {
		accID, ok := accByKey[b.key]
		if !ok {
			continue
		}
		p := model.MatchedPair{BankID: b.id, AccountingID: accID}
		if claimed(consumed, p) || claimed(claims, p) {
			continue
		}
		consumed.Add(p)
		pairs = append(pairs, p)
	}
	return pairs
}

// rank orders records by (rounded amount, date), unknown dates last, and numbers
// them within each amount.
func rank(records []model.Transaction) []ranked {
	sorted := make([]model.Transaction, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].RoundedAmount().Cmp(sorted[j].RoundedAmount()); c != 0 {
			return c < 0
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	seen := make(map[string]int)
	out := make([]ranked, len(sorted))
	for i, t := range sorted {
		amount := t.RoundedAmount().StringFixed(2)
		out[i] = ranked{id: t.ID, key: bucketKey{amount: amount, ordinal: seen[amount]}}
		seen[amount]++
	}
	return out
}
