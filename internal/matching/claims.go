package matching

import "BankRecon/internal/model"

// Claims reports whether a record is already referenced by a committed pair.
type Claims interface {
	IsReconciled(side model.Side, id string) bool
}

// ClaimSet is the set of ids referenced by a list of pairs, per side.
type ClaimSet struct {
	bank       map[string]struct{}
	accounting map[string]struct{}
}

func NewClaimSet(pairs []model.MatchedPair) *ClaimSet {
	c := &ClaimSet{bank: map[string]struct{}{}, accounting: map[string]struct{}{}}
	for _, p := range pairs {
		c.Add(p)
	}
	return c
}

func (c *ClaimSet) Add(p model.MatchedPair) {
	c.bank[p.BankID] = struct{}{}
	c.accounting[p.AccountingID] = struct{}{}
}

func (c *ClaimSet) IsReconciled(side model.Side, id string) bool {
	var ok bool
	switch side {
	case model.SideBank:
		_, ok = c.bank[id]
	case model.SideAccounting:
		_, ok = c.accounting[id]
	}
	return ok
}

func claimed(claims Claims, p model.MatchedPair) bool {
	if claims == nil {
		return false
	}
	return claims.IsReconciled(model.SideBank, p.BankID) || claims.IsReconciled(model.SideAccounting, p.AccountingID)
}
