package formats

import (
	"strconv"

	"BankRecon/internal/model"
	"BankRecon/internal/normalize"
)

// Field is a canonical column name.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldDocumentRef Field = "document_ref"
)

// ReaderKind selects how raw bytes become a table.
type ReaderKind int

const (
	ReaderDelimited ReaderKind = iota
	ReaderWorkbook
)

func (r ReaderKind) String() string {
	if r == ReaderWorkbook {
		return "workbook"
	}
	return "delimited"
}

// HeaderMode is the header-location strategy.
type HeaderMode int

const (
	HeaderFixedRow HeaderMode = iota
	HeaderKeywordScan
	HeaderPositional
)

// KeywordGroup is satisfied when any of its alternatives is a cleaned cell of the row.
type KeywordGroup []string

// HeaderRule locates the header row. Row applies to HeaderFixedRow, Keywords and
// ScanRows to HeaderKeywordScan, Names to header-less files read positionally.
type HeaderRule struct {
	Mode     HeaderMode
	Row      int
	Keywords []KeywordGroup
	ScanRows int
	Names    []string
}

// SourceColumn refers to a raw column by header name, or by zero-based position
// when Name is empty.
type SourceColumn struct {
	Name  string
	Index int
}

func Named(name string) SourceColumn { return SourceColumn{Name: name, Index: -1} }
func At(index int) SourceColumn      { return SourceColumn{Index: index} }

func (c SourceColumn) String() string {
	if c.Name != "" {
		return c.Name
	}
	return "#" + strconv.Itoa(c.Index)
}

// Mapping resolves one canonical field from the first candidate column present.
type Mapping struct {
	Field      Field
	Candidates []SourceColumn
	Normalizer normalize.Normalizer
}

// AmountRule says how the canonical amount is derived.
type AmountRule int

const (
	AmountSigned AmountRule = iota
	AmountDebitMinusCredit
)

// CombineRule concatenates the cleaned text of several columns into Target.
type CombineRule struct {
	Target    Field
	Sources   []SourceColumn
	Separator string
}

// ExcludeRule drops rows whose cleaned Column value is in Values.
type ExcludeRule struct {
	Column []SourceColumn
	Values []string
}

// Descriptor is the immutable recipe for one known file layout.
type Descriptor struct {
	ID              ID
	Description     string
	Side            model.Side
	Reader          ReaderKind
	ExpectedColumns int
	Header          HeaderRule
	Mappings        []Mapping
	Amount          AmountRule
	Combine         *CombineRule
	Exclude         *ExcludeRule
	Required        []Field
}

// Mapping returns the mapping for f, if any.
func (d Descriptor) Mapping(f Field) (Mapping, bool) {
	for _, m := range d.Mappings {
		if m.Field == f {
			return m, true
		}
	}
	return Mapping{}, false
}
