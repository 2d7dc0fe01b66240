// Package ingest turns an uploaded statement or ledger file into canonical
// transactions by following the descriptor of its declared format.
package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"BankRecon/internal/checksum"
	"BankRecon/internal/config"
	"BankRecon/internal/formats"
	"BankRecon/internal/logger"
	"BankRecon/internal/model"
	"BankRecon/internal/normalize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Batch is the outcome of one successful ingestion.
type Batch struct {
	Format        formats.ID
	Side          model.Side
	Records       []model.Transaction
	Fingerprint   string
	RowsRead      int
	DroppedNoDate int
	Excluded      int
	Warnings      []string
}

// Pipeline runs ingestion. NewID assigns record ids and may be replaced in tests.
type Pipeline struct {
	NewID func() string
}

func New() *Pipeline {
	return &Pipeline{NewID: uuid.NewString}
}

type canonicalRow struct {
	line   int
	values map[formats.Field]normalize.Value
}

// Ingest parses data with the descriptor registered for id. Structural problems
// abort with an *Error; cell-level problems become defaults and warnings.
func (p *Pipeline) Ingest(data []byte, id formats.ID) (*Batch, error) {
	desc, ok := formats.Lookup(id)
	if !ok {
		return nil, structural(ErrUnknownFormat, id, "")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, structural(ErrUnreadableFile, id, "file is empty")
	}

	rows, err := readTable(data, desc.Reader)
	if err != nil {
		return nil, &Error{Kind: ErrUnreadableFile, Format: id, Err: err}
	}
	rows, width := rectangular(rows)
	if len(rows) == 0 {
		return nil, structural(ErrUnreadableFile, id, "file has no rows")
	}
	if desc.ExpectedColumns > 0 && width != desc.ExpectedColumns {
		return nil, &Error{Kind: ErrColumnCountMismatch, Format: id, Expected: desc.ExpectedColumns, Observed: width}
	}

	header, body, err := locateHeader(desc, rows, width)
	if err != nil {
		return nil, err
	}
	cols := newColumnIndex(header)

	b := &Batch{Format: id, Side: desc.Side, Fingerprint: checksum.Fingerprint(data), RowsRead: len(body)}
	body = b.exclude(desc, cols, body)

	resolved := map[formats.Field]bool{}
	canon := make([]canonicalRow, len(body))
	for i, r := range body {
		canon[i] = canonicalRow{line: r.line, values: map[formats.Field]normalize.Value{}}
	}
	for _, m := range desc.Mappings {
		idx, found := cols.resolve(m.Candidates)
		if !found {
			b.warnf("%s: no source column among %v, defaulting every row", m.Field, m.Candidates)
			for i := range canon {
				canon[i].values[m.Field] = normalize.DefaultValue(m.Normalizer.Kind(), "missing column")
			}
			continue
		}
		resolved[m.Field] = true
		for i, r := range body {
			v := m.Normalizer.Parse(r.cells[idx])
			if v.Defaulted && v.Kind == normalize.KindAmount {
				b.warnf("row %d %s: %s", r.line, m.Field, v.Reason)
			}
			canon[i].values[m.Field] = v
		}
	}
	if desc.Combine != nil {
		combine(desc.Combine, cols, body, canon, resolved)
	}

	kept := canon[:0]
	for _, r := range canon {
		if !r.values[formats.FieldDate].Present() {
			b.DroppedNoDate++
			continue
		}
		kept = append(kept, r)
	}
	if b.DroppedNoDate > 0 {
		logger.Infof("ingest %s: dropped %d rows without a usable date", id, b.DroppedNoDate)
	}

	var missing []formats.Field
	for _, f := range desc.Required {
		if !resolved[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &Error{Kind: ErrMissingCanonicalColumns, Format: id, Missing: missing}
	}

	b.Records = make([]model.Transaction, 0, len(kept))
	for _, r := range kept {
		b.Records = append(b.Records, p.transaction(desc, r))
	}
	logger.Infof("ingest %s: %d records from %d rows (%d excluded, %d without date, %d warnings)",
		id, len(b.Records), b.RowsRead, b.Excluded, b.DroppedNoDate, len(b.Warnings))
	return b, nil
}

func (p *Pipeline) transaction(desc formats.Descriptor, r canonicalRow) model.Transaction {
	var amount decimal.Decimal
	switch desc.Amount {
	case formats.AmountDebitMinusCredit:
		amount = r.values[formats.FieldDebit].Amount.Sub(r.values[formats.FieldCredit].Amount)
	default:
		amount = r.values[formats.FieldAmount].Amount
	}
	newID := p.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return model.Transaction{
		ID:          newID(),
		Date:        model.NewDate(r.values[formats.FieldDate].Date),
		Description: r.values[formats.FieldDescription].Text,
		Amount:      amount.Round(2),
		Side:        desc.Side,
		DocumentRef: r.values[formats.FieldDocumentRef].Text,
	}
}

func (b *Batch) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	b.Warnings = append(b.Warnings, msg)
	logger.Warnf("ingest %s: %s", b.Format, msg)
}

func (b *Batch) exclude(desc formats.Descriptor, cols columnIndex, body []rawRow) []rawRow {
	if desc.Exclude == nil {
		return body
	}
	idx, found := cols.resolve(desc.Exclude.Column)
	if !found {
		b.warnf("exclusion column %v not present, no rows excluded", desc.Exclude.Column)
		return body
	}
	drop := normalize.CleanSet(desc.Exclude.Values)
	kept := body[:0]
	for _, r := range body {
		if _, ok := drop[normalize.CleanText(r.cells[idx])]; ok {
			b.Excluded++
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// combine joins the non-blank cleaned values of the source columns that exist.
func combine(rule *formats.CombineRule, cols columnIndex, body []rawRow, canon []canonicalRow, resolved map[formats.Field]bool) {
	var idxs []int
	for _, src := range rule.Sources {
		if i, ok := cols.resolve([]formats.SourceColumn{src}); ok {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return
	}
	resolved[rule.Target] = true
	for i, r := range body {
		parts := make([]string, 0, len(idxs))
		for _, j := range idxs {
			if s := normalize.CleanText(r.cells[j]); s != "" {
				parts = append(parts, s)
			}
		}
		canon[i].values[rule.Target] = normalize.Value{Kind: normalize.KindText, Text: strings.Join(parts, rule.Separator)}
	}
}

// locateHeader returns the header names and the data rows below them.
func locateHeader(desc formats.Descriptor, rows []rawRow, width int) ([]string, []rawRow, error) {
	rule := desc.Header
	switch rule.Mode {
	case formats.HeaderPositional:
		return headerNames(rule.Names, width), rows, nil
	case formats.HeaderKeywordScan:
		limit := rule.ScanRows
		if limit <= 0 || limit > len(rows) {
			limit = len(rows)
		}
		for i := 0; i < limit; i++ {
			if matchesKeywords(rows[i].cells, rule.Keywords) {
				logger.Infof("ingest %s: header found at row %d", desc.ID, rows[i].line)
				return headerNames(rows[i].cells, width), rows[i+1:], nil
			}
		}
		return nil, nil, structural(ErrHeaderNotFound, desc.ID,
			fmt.Sprintf("no row among the first %d contains %s", limit, describeKeywords(rule.Keywords)))
	default:
		if rule.Row >= len(rows) {
			return nil, nil, structural(ErrHeaderNotFound, desc.ID, fmt.Sprintf("file has no row %d", rule.Row+1))
		}
		return headerNames(rows[rule.Row].cells, width), rows[rule.Row+1:], nil
	}
}

func headerNames(cells []string, width int) []string {
	names := make([]string, width)
	for j := range names {
		if j < len(cells) {
			names[j] = strings.TrimSpace(cells[j])
		}
		if names[j] == "" {
			names[j] = fmt.Sprintf(config.UnnamedColumn, j)
		}
	}
	return names
}

func matchesKeywords(cells []string, groups []formats.KeywordGroup) bool {
	present := normalize.CleanSet(cells)
	for _, g := range groups {
		hit := false
		for _, kw := range g {
			if _, ok := present[normalize.CleanText(kw)]; ok {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func describeKeywords(groups []formats.KeywordGroup) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, "/")
	}
	return strings.Join(parts, ", ")
}

// columnIndex maps cleaned header names to positions; the first duplicate wins.
type columnIndex struct {
	byName map[string]int
	width  int
}

func newColumnIndex(header []string) columnIndex {
	ci := columnIndex{byName: make(map[string]int, len(header)), width: len(header)}
	for j, h := range header {
		key := normalize.CleanText(h)
		if _, dup := ci.byName[key]; !dup {
			ci.byName[key] = j
		}
	}
	return ci
}

func (ci columnIndex) resolve(candidates []formats.SourceColumn) (int, bool) {
	for _, c := range candidates {
		if c.Name != "" {
			if j, ok := ci.byName[normalize.CleanText(c.Name)]; ok {
				return j, true
			}
			continue
		}
		if c.Index >= 0 && c.Index < ci.width {
			return c.Index, true
		}
	}
	return 0, false
}
