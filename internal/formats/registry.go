package formats

import (
	"fmt"
	"sort"

	"BankRecon/internal/config"
	"BankRecon/internal/model"
	"BankRecon/internal/normalize"
)

// ID names a registered layout.
type ID string

const (
	SiesaAuxiliary       ID = "siesa-auxiliary"
	BancolombiaStatement ID = "bancolombia-statement"
	BancolombiaMovements ID = "bancolombia-movements"
	GenericBank          ID = "generic-bank"
	GenericLedger        ID = "generic-ledger"
)

// All lists every known format id. descriptorFor must handle each of them.
var All = []ID{SiesaAuxiliary, BancolombiaStatement, BancolombiaMovements, GenericBank, GenericLedger}

// Info is the enumerable summary collaborators show to users.
type Info struct {
	ID          ID         `json:"id"`
	Description string     `json:"description"`
	Side        model.Side `json:"side"`
	Reader      string     `json:"reader"`
}

// Lookup resolves an id to a fresh copy of its descriptor.
func Lookup(id ID) (Descriptor, bool) {
	return descriptorFor(id)
}

// List returns the registry sorted by id.
func List() []Info {
	out := make([]Info, 0, len(All))
	for _, id := range All {
		d, ok := descriptorFor(id)
		if !ok {
			panic(fmt.Sprintf("format %q listed but not described", id))
		}
		out = append(out, Info{ID: d.ID, Description: d.Description, Side: d.Side, Reader: d.Reader.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func descriptorFor(id ID) (Descriptor, bool) {
	switch id {
	case SiesaAuxiliary:
		return siesaAuxiliary(), true
	case BancolombiaStatement:
		return bancolombiaStatement(), true
	case BancolombiaMovements:
		return bancolombiaMovements(), true
	case GenericBank:
		return genericBank(), true
	case GenericLedger:
		return genericLedger(), true
	}
	return Descriptor{}, false
}

// siesaAuxiliary is the accounting auxiliary book exported from SIESA: a workbook
// with a title block above the header, debit and credit columns.
func siesaAuxiliary() Descriptor {
	return Descriptor{
		ID:          SiesaAuxiliary,
		Description: "SIESA auxiliary ledger (xlsx/xls, header detected by keywords)",
		Side:        model.SideAccounting,
		Reader:      ReaderWorkbook,
		Header: HeaderRule{
			Mode: HeaderKeywordScan,
			Keywords: []KeywordGroup{
				{"fecha"},
				{"documento"},
				{"debito", "debitos"},
				{"credito", "creditos"},
			},
			ScanRows: config.HeaderScanRows,
		},
		Mappings: []Mapping{
			{Field: FieldDate, Candidates: []SourceColumn{Named("Fecha")}, Normalizer: normalize.Date},
			{Field: FieldDocumentRef, Candidates: []SourceColumn{Named("Documento")}, Normalizer: normalize.Text},
			{Field: FieldDescription, Candidates: []SourceColumn{Named("descripcion_transaccion"), Named("Descripción"), At(4)}, Normalizer: normalize.Text},
			{Field: FieldDebit, Candidates: []SourceColumn{Named("Débito"), Named("Débitos")}, Normalizer: normalize.Amount},
			{Field: FieldCredit, Candidates: []SourceColumn{Named("Crédito"), Named("Créditos")}, Normalizer: normalize.Amount},
		},
		Amount:   AmountDebitMinusCredit,
		Required: []Field{FieldDate, FieldDocumentRef, FieldDebit, FieldCredit},
	}
}

var bancolombiaStatementColumns = []string{
	"cuenta", "codigo_transaccion", "ignorar_3", "fecha", "ignorar_5",
	"movimiento", "codigo_descripcion", "descripcion", "ignorar_9",
}

// bancolombiaStatement is the nine column CSV statement without a header row.
func bancolombiaStatement() Descriptor {
	return Descriptor{
		ID:              BancolombiaStatement,
		Description:     "Bancolombia statement CSV (9 columns, no header)",
		Side:            model.SideBank,
		Reader:          ReaderDelimited,
		ExpectedColumns: len(bancolombiaStatementColumns),
		Header: HeaderRule{
			Mode:  HeaderPositional,
			Names: append([]string(nil), bancolombiaStatementColumns...),
		},
		Mappings: []Mapping{
			{Field: FieldDate, Candidates: []SourceColumn{Named("fecha")}, Normalizer: normalize.Date},
			{Field: FieldAmount, Candidates: []SourceColumn{Named("movimiento")}, Normalizer: normalize.Amount},
			{Field: FieldDescription, Candidates: []SourceColumn{Named("descripcion")}, Normalizer: normalize.Text},
		},
		Amount: AmountSigned,
		Exclude: &ExcludeRule{
			Column: []SourceColumn{Named("descripcion")},
			Values: []string{"SALDO DIA", "SALDO FINAL", "SALDO INICIAL"},
		},
		Required: []Field{FieldDate, FieldAmount, FieldDescription},
	}
}

// bancolombiaMovements is the account movements CSV; only columns 0, 3, 5 and 7 matter.
func bancolombiaMovements() Descriptor {
	return Descriptor{
		ID:          BancolombiaMovements,
		Description: "Bancolombia movements CSV (account, date, amount, description at fixed positions)",
		Side:        model.SideBank,
		Reader:      ReaderDelimited,
		Header: HeaderRule{
			Mode: HeaderPositional,
		},
		Mappings: []Mapping{
			{Field: FieldDocumentRef, Candidates: []SourceColumn{At(0)}, Normalizer: normalize.Text},
			{Field: FieldDate, Candidates: []SourceColumn{At(3)}, Normalizer: normalize.Date},
			{Field: FieldAmount, Candidates: []SourceColumn{At(5)}, Normalizer: normalize.Amount},
			{Field: FieldDescription, Candidates: []SourceColumn{At(7)}, Normalizer: normalize.Text},
		},
		Amount:   AmountSigned,
		Required: []Field{FieldDate, FieldAmount},
	}
}

// genericBank accepts any statement whose first row names its columns.
func genericBank() Descriptor {
	return Descriptor{
		ID:          GenericBank,
		Description: "Generic bank statement (CSV with header row: date, description, amount)",
		Side:        model.SideBank,
		Reader:      ReaderDelimited,
		Header:      HeaderRule{Mode: HeaderFixedRow, Row: 0},
		Mappings: []Mapping{
			{Field: FieldDate, Candidates: []SourceColumn{Named("fecha"), Named("date"), Named("fecha movimiento"), Named("transaction date")}, Normalizer: normalize.Date},
			{Field: FieldDescription, Candidates: []SourceColumn{Named("descripcion"), Named("description"), Named("concepto"), Named("detalle")}, Normalizer: normalize.Text},
			{Field: FieldAmount, Candidates: []SourceColumn{Named("valor"), Named("monto"), Named("amount"), Named("movimiento")}, Normalizer: normalize.Amount},
			{Field: FieldDocumentRef, Candidates: []SourceColumn{Named("referencia"), Named("reference"), Named("documento")}, Normalizer: normalize.Text},
		},
		Amount:   AmountSigned,
		Required: []Field{FieldDate, FieldAmount},
	}
}

// genericLedger is a ledger export with debit/credit columns and the narrative split
// across several columns.
func genericLedger() Descriptor {
	return Descriptor{
		ID:          GenericLedger,
		Description: "Generic accounting ledger (CSV, header detected by fecha/debito/credito)",
		Side:        model.SideAccounting,
		Reader:      ReaderDelimited,
		Header: HeaderRule{
			Mode: HeaderKeywordScan,
			Keywords: []KeywordGroup{
				{"fecha", "date"},
				{"debito", "debitos", "debit"},
				{"credito", "creditos", "credit"},
			},
			ScanRows: config.HeaderScanRows,
		},
		Mappings: []Mapping{
			{Field: FieldDate, Candidates: []SourceColumn{Named("fecha"), Named("date")}, Normalizer: normalize.Date},
			{Field: FieldDocumentRef, Candidates: []SourceColumn{Named("documento"), Named("comprobante"), Named("document")}, Normalizer: normalize.Text},
			{Field: FieldDebit, Candidates: []SourceColumn{Named("debito"), Named("debitos"), Named("debit")}, Normalizer: normalize.Amount},
			{Field: FieldCredit, Candidates: []SourceColumn{Named("credito"), Named("creditos"), Named("credit")}, Normalizer: normalize.Amount},
		},
		Amount: AmountDebitMinusCredit,
		Combine: &CombineRule{
			Target:    FieldDescription,
			Sources:   []SourceColumn{Named("concepto"), Named("detalle"), Named("tercero")},
			Separator: config.CombineSeparator,
		},
		Required: []Field{FieldDate, FieldDebit, FieldCredit},
	}
}
