package normalize

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Result is either an Ok value or a default substituted for an unparsable input.
// Lenient callers read Value; strict ones call Strict.
type Result[T any] struct {
	Value     T
	Defaulted bool
	Reason    string
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Default[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Defaulted: true, Reason: reason}
}

// Strict turns a defaulted result into an error.
func (r Result[T]) Strict() (T, error) {
	if r.Defaulted {
		return r.Value, fmt.Errorf("value defaulted: %s", r.Reason)
	}
	return r.Value, nil
}

// Kind is the canonical type a Normalizer produces.
type Kind int

const (
	KindText Kind = iota
	KindAmount
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindAmount:
		return "amount"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Value is the outcome of a Normalizer. Only the field matching Kind is meaningful.
type Value struct {
	Kind      Kind
	Text      string
	Amount    decimal.Decimal
	Date      time.Time
	Defaulted bool
	Reason    string
}

// Present reports whether the value carries real data rather than a default.
func (v Value) Present() bool {
	if v.Defaulted {
		return false
	}
	switch v.Kind {
	case KindDate:
		return !v.Date.IsZero()
	case KindText:
		return v.Text != ""
	}
	return true
}

// DefaultValue is what a missing source column materializes as.
func DefaultValue(k Kind, reason string) Value {
	return Value{Kind: k, Amount: decimal.Zero, Defaulted: true, Reason: reason}
}

// Normalizer converts one raw cell into a canonical value.
type Normalizer interface {
	Kind() Kind
	Parse(raw string) Value
}

var (
	Amount Normalizer = amountNormalizer{}
	Date   Normalizer = dateNormalizer{}
	Text   Normalizer = textNormalizer{}
	Clean  Normalizer = cleanNormalizer{}
)

type amountNormalizer struct{}

func (amountNormalizer) Kind() Kind { return KindAmount }

func (amountNormalizer) Parse(raw string) Value {
	r := ParseAmount(raw)
	return Value{Kind: KindAmount, Amount: r.Value, Defaulted: r.Defaulted, Reason: r.Reason}
}

type dateNormalizer struct{}

func (dateNormalizer) Kind() Kind { return KindDate }

func (dateNormalizer) Parse(raw string) Value {
	r := ParseDate(raw)
	return Value{Kind: KindDate, Date: r.Value, Defaulted: r.Defaulted, Reason: r.Reason}
}

type textNormalizer struct{}

func (textNormalizer) Kind() Kind { return KindText }

func (textNormalizer) Parse(raw string) Value {
	return Value{Kind: KindText, Text: NormalizeCell(raw)}
}

type cleanNormalizer struct{}

func (cleanNormalizer) Kind() Kind { return KindText }

func (cleanNormalizer) Parse(raw string) Value {
	return Value{Kind: KindText, Text: CleanText(raw)}
}
