package matching

import (
	"errors"
	"testing"

	"BankRecon/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string, side model.Side, amount, date string) model.Transaction {
	t := model.Transaction{ID: id, Side: side, Amount: decimal.RequireFromString(amount)}
	if date != "" {
		t.Date = model.MustDate(date)
	}
	return t
}

func bankTx(id, amount, date string) model.Transaction { return tx(id, model.SideBank, amount, date) }
func accTx(id, amount, date string) model.Transaction  { return tx(id, model.SideAccounting, amount, date) }

type memBook struct {
	records map[string]model.Transaction
	claims  *ClaimSet
}

func newMemBook(records ...model.Transaction) *memBook {
	b := &memBook{records: map[string]model.Transaction{}, claims: NewClaimSet(nil)}
	for _, r := range records {
		b.records[string(r.Side)+"/"+r.ID] = r
	}
	return b
}

func (b *memBook) Lookup(side model.Side, id string) (model.Transaction, bool) {
	t, ok := b.records[string(side)+"/"+id]
	return t, ok
}

func (b *memBook) IsReconciled(side model.Side, id string) bool { return b.claims.IsReconciled(side, id) }

func (b *memBook) commit(pairs []model.MatchedPair) {
	for _, p := range pairs {
		b.claims.Add(p)
	}
}

func TestAutoMatchOrdinalWithinBucket(t *testing.T) {
	bank := []model.Transaction{
		bankTx("b2", "100", "2024-01-05"),
		bankTx("b1", "100", "2024-01-01"),
	}
	acc := []model.Transaction{accTx("a1", "100", "2024-01-01")}

	pairs := AutoMatch(bank, acc, nil)
	assert.Equal(t, []model.MatchedPair{{BankID: "b1", AccountingID: "a1"}}, pairs)
}

func TestAutoMatchPairsByRoundedAmount(t *testing.T) {
	bank := []model.Transaction{
		bankTx("b1", "-150000.004", "2024-01-05"),
		bankTx("b2", "20", "2024-01-06"),
		bankTx("b3", "20", "2024-01-07"),
	}
	acc := []model.Transaction{
		accTx("a1", "20", "2024-03-01"),
		accTx("a2", "-150000", "2024-01-04"),
		accTx("a3", "20", "2024-02-01"),
		accTx("a4", "20", ""),
	}

	pairs := AutoMatch(bank, acc, nil)
	require.Len(t, pairs, 3)

	byBank := map[string]string{}
	for _, p := range pairs {
		byBank[p.BankID] = p.AccountingID
	}
	assert.Equal(t, "a2", byBank["b1"])
	assert.Equal(t, "a3", byBank["b2"])
	assert.Equal(t, "a1", byBank["b3"])

	amounts := map[string]decimal.Decimal{}
	for _, r := range append(bank, acc...) {
		amounts[string(r.Side)+r.ID] = r.RoundedAmount()
	}
	for _, p := range pairs {
		assert.True(t, amounts["bank"+p.BankID].Equal(amounts["accounting"+p.AccountingID]))
	}
}

func TestAutoMatchDisjointAmounts(t *testing.T) {
	bank := []model.Transaction{bankTx("b1", "10", "2024-01-01"), bankTx("b2", "11", "2024-01-01")}
	acc := []model.Transaction{accTx("a1", "12", "2024-01-01"), accTx("a2", "-10", "2024-01-01")}

	assert.Empty(t, AutoMatch(bank, acc, nil))
}

func TestAutoMatchEmptySide(t *testing.T) {
	bank := []model.Transaction{bankTx("b1", "10", "2024-01-01")}
	assert.Empty(t, AutoMatch(bank, nil, nil))
	assert.Empty(t, AutoMatch(nil, bank, nil))
}

func TestAutoMatchIdempotent(t *testing.T) {
	bank := []model.Transaction{bankTx("b1", "10", "2024-01-01"), bankTx("b2", "10", "2024-01-02")}
	acc := []model.Transaction{accTx("a1", "10", "2024-01-01"), accTx("a2", "10", "2024-01-03")}

	first := AutoMatch(bank, acc, nil)
	require.Len(t, first, 2)

	second := AutoMatch(bank, acc, NewClaimSet(first))
	assert.Empty(t, second)
}

func TestAutoMatchSkipsDuplicateIDsInPass(t *testing.T) {
	bank := []model.Transaction{bankTx("b1", "10", "2024-01-01"), bankTx("b1", "10", "2024-01-02")}
	acc := []model.Transaction{accTx("a1", "10", "2024-01-01"), accTx("a2", "10", "2024-01-02")}

	pairs := AutoMatch(bank, acc, nil)
	assert.Equal(t, []model.MatchedPair{{BankID: "b1", AccountingID: "a1"}}, pairs)
}

func TestProposeGroupManyToOneExact(t *testing.T) {
	book := newMemBook(
		bankTx("b1", "300", "2024-01-05"),
		accTx("a1", "100", "2024-01-05"),
		accTx("a2", "200", "2024-01-06"),
	)

	res, err := ProposeGroup(book, []string{"b1"}, []string{"a1", "a2", "a1"})
	require.NoError(t, err)
	assert.Equal(t, ShapeManyToOne, res.Shape)
	assert.Empty(t, res.Warning)
	assert.Equal(t, []model.MatchedPair{
		{BankID: "b1", AccountingID: "a1"},
		{BankID: "b1", AccountingID: "a2"},
	}, res.Pairs)
}

func TestProposeGroupAmountMismatchWarns(t *testing.T) {
	book := newMemBook(
		bankTx("b1", "305", "2024-01-05"),
		accTx("a1", "100", "2024-01-05"),
		accTx("a2", "200", "2024-01-06"),
	)

	res, err := ProposeGroup(book, []string{"b1"}, []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Len(t, res.Pairs, 2)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "5.00", res.Difference.StringFixed(2))
}

func TestProposeGroupWithinTolerance(t *testing.T) {
	book := newMemBook(bankTx("b1", "100.01", "2024-01-05"), accTx("a1", "100", "2024-01-05"))

	res, err := ProposeGroup(book, []string{"b1"}, []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, ShapeOneToOne, res.Shape)
	assert.Empty(t, res.Warning)
}

func TestProposeGroupOneToMany(t *testing.T) {
	book := newMemBook(
		bankTx("b1", "40", "2024-01-05"),
		bankTx("b2", "60", "2024-01-05"),
		accTx("a1", "100", "2024-01-05"),
	)

	res, err := ProposeGroup(book, []string{"b1", "b2"}, []string{"a1"})
	require.NoError(t, err)
	assert.Equal(t, ShapeOneToMany, res.Shape)
	assert.Len(t, res.Pairs, 2)
}

func TestProposeGroupValidation(t *testing.T) {
	book := newMemBook(
		bankTx("b1", "10", "2024-01-05"),
		bankTx("b2", "10", "2024-01-05"),
		accTx("a1", "10", "2024-01-05"),
		accTx("a2", "10", "2024-01-05"),
	)
	book.commit([]model.MatchedPair{{BankID: "b2", AccountingID: "a2"}})

	tests := []struct {
		name    string
		bank    []string
		acc     []string
		wantErr error
		wantID  string
	}{
		{"unknown bank", []string{"bx"}, []string{"a1"}, ErrRecordNotFound, "bx"},
		{"unknown accounting", []string{"b1"}, []string{"ax"}, ErrRecordNotFound, "ax"},
		{"wrong side", []string{"a1"}, []string{"a1"}, ErrRecordNotFound, "a1"},
		{"claimed bank", []string{"b2"}, []string{"a1"}, ErrAlreadyReconciled, "b2"},
		{"claimed accounting", []string{"b1"}, []string{"a2"}, ErrAlreadyReconciled, "a2"},
		{"empty", nil, []string{"a1"}, ErrEmptyGroup, ""},
		{"many to many", []string{"b1", "b2"}, []string{"a1", "a2"}, ErrUnsupportedShape, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProposeGroup(book, tt.bank, tt.acc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			var ge *GroupError
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, tt.wantID, ge.ID)
		})
	}
}

func TestProposeGroupOverlapFailsSecondCall(t *testing.T) {
	book := newMemBook(
		bankTx("b1", "10", "2024-01-05"),
		bankTx("b2", "10", "2024-01-05"),
		accTx("a1", "10", "2024-01-05"),
		accTx("a2", "10", "2024-01-05"),
	)

	res, err := ProposeGroup(book, []string{"b1"}, []string{"a1", "a2"})
	require.NoError(t, err)
	book.commit(res.Pairs)

	_, err = ProposeGroup(book, []string{"b2"}, []string{"a2"})
	assert.True(t, errors.Is(err, ErrAlreadyReconciled))
}
