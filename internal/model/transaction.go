package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side tells which ledger a record was read from.
type Side string

const (
	SideBank       Side = "bank"
	SideAccounting Side = "accounting"
)

func (s Side) Valid() bool {
	return s == SideBank || s == SideAccounting
}

// ParseSide accepts the side names used in upload routes.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBank:
		return SideBank, nil
	case SideAccounting:
		return SideAccounting, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// Transaction is a canonical record. Amount always carries two fractional digits;
// for accounting records it is debit minus credit.
type Transaction struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Side        Side            `json:"type"`
	DocumentRef string          `json:"document_ref,omitempty"`
}

// MarshalJSON writes the amount with exactly two fractional digits.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type plain Transaction
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain: plain(t), Amount: t.RoundedAmount().StringFixed(2)})
}

// RoundedAmount is the only amount value that may take part in comparisons.
func (t Transaction) RoundedAmount() decimal.Decimal {
	return t.Amount.Round(2)
}

// MatchedPair links one bank record to one accounting record.
type MatchedPair struct {
	BankID       string `json:"bankTransactionId"`
	AccountingID string `json:"accountingTransactionId"`
}

// ID returns the pair's id for the given side.
func (p MatchedPair) ID(side Side) string {
	if side == SideBank {
		return p.BankID
	}
	return p.AccountingID
}
