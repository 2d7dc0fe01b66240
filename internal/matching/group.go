package matching

import (
	"errors"
	"fmt"

	"BankRecon/internal/config"
	"BankRecon/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrAlreadyReconciled = errors.New("record already reconciled")
	ErrEmptyGroup        = errors.New("a group needs at least one bank and one accounting record")
	ErrUnsupportedShape  = errors.New("several bank records cannot be grouped with several accounting records")
)

var tolerance = decimal.RequireFromString(config.AmountTolerance)

// GroupError names the record a manual grouping was rejected for.
type GroupError struct {
	Kind error
	Side model.Side
	ID   string
}

func (e *GroupError) Error() string {
	if e.ID == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s record %q", e.Kind, e.Side, e.ID)
}

func (e *GroupError) Unwrap() error { return e.Kind }

// Shape of a manual group, named after the endpoints that create them.
type Shape string

const (
	ShapeOneToOne Shape = "one_to_one"
	// ShapeManyToOne is one bank record settled by several accounting records.
	ShapeManyToOne Shape = "many_to_one"
	// ShapeOneToMany is one accounting record settled by several bank records.
	ShapeOneToMany Shape = "one_to_many"
)

// Book resolves records and knows which ones are already paired.
type Book interface {
	Claims
	Lookup(side model.Side, id string) (model.Transaction, bool)
}

type GroupResult struct {
	Pairs      []model.MatchedPair
	Shape      Shape
	Warning    string
	Difference decimal.Decimal
}

// ProposeGroup validates a manual grouping and returns the pairs that realize it.
// Duplicate ids are ignored. Amounts that do not add up within the tolerance only
// produce a Warning.
func ProposeGroup(book Book, bankIDs, accountingIDs []string) (GroupResult, error) {
	bankIDs, accountingIDs = dedupe(bankIDs), dedupe(accountingIDs)
	if len(bankIDs) == 0 || len(accountingIDs) == 0 {
		return GroupResult{}, &GroupError{Kind: ErrEmptyGroup}
	}

	var shape Shape
	switch {
	case len(bankIDs) == 1 && len(accountingIDs) == 1:
		shape = ShapeOneToOne
	case len(bankIDs) == 1:
		shape = ShapeManyToOne
	case len(accountingIDs) == 1:
		shape = ShapeOneToMany
	default:
		return GroupResult{}, &GroupError{Kind: ErrUnsupportedShape}
	}

	bankSum, err := sumRecords(book, model.SideBank, bankIDs)
	if err != nil {
		return GroupResult{}, err
	}
	accSum, err := sumRecords(book, model.SideAccounting, accountingIDs)
	if err != nil {
		return GroupResult{}, err
	}
	if err := checkUnclaimed(book, model.SideBank, bankIDs); err != nil {
		return GroupResult{}, err
	}
	if err := checkUnclaimed(book, model.SideAccounting, accountingIDs); err != nil {
		return GroupResult{}, err
	}

	res := GroupResult{Shape: shape, Difference: bankSum.Sub(accSum)}
	for _, b := range bankIDs {
		for _, a := range accountingIDs {
			res.Pairs = append(res.Pairs, model.MatchedPair{BankID: b, AccountingID: a})
		}
	}
	if res.Difference.Abs().GreaterThan(tolerance) {
		res.Warning = fmt.Sprintf("amounts differ: bank %s vs accounting %s (difference %s)",
			bankSum.StringFixed(2), accSum.StringFixed(2), res.Difference.StringFixed(2))
	}
	return res, nil
}

func sumRecords(book Book, side model.Side, ids []string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, id := range ids {
		t, ok := book.Lookup(side, id)
		if !ok {
			return decimal.Zero, &GroupError{Kind: ErrRecordNotFound, Side: side, ID: id}
		}
		sum = sum.Add(t.RoundedAmount())
	}
	return sum, nil
}

func checkUnclaimed(book Book, side model.Side, ids []string) error {
	for _, id := range ids {
		if book.IsReconciled(side, id) {
			return &GroupError{Kind: ErrAlreadyReconciled, Side: side, ID: id}
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
