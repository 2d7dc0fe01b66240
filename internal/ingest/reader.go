package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"BankRecon/internal/formats"
	"BankRecon/internal/logger"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	zipMagic   = []byte{'P', 'K', 0x03, 0x04}
	oleMagic   = []byte{0xD0, 0xCF, 0x11, 0xE0}
	delimiters = []rune{',', ';', '\t', '|'}

	errInvalidUTF8 = errors.New("input is not valid UTF-8")
)

// rawRow is one source row with its 1-based position in the file.
type rawRow struct {
	line  int
	cells []string
}

// readTable turns the uploaded bytes into rows of cell text. Workbook bytes are
// always opened as a workbook; a workbook format that receives plain text falls
// back to delimited reading.
func readTable(data []byte, kind formats.ReaderKind) ([]rawRow, error) {
	var (
		cells [][]string
		err   error
	)
	switch {
	case isWorkbook(data):
		cells, err = readWorkbook(data)
	case kind == formats.ReaderWorkbook:
		cells, err = readWorkbook(data)
		if err != nil {
			logger.Warnf("workbook read failed (%v), trying delimited text", err)
			cells, err = readDelimited(data)
		}
	default:
		cells, err = readDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	rows := make([]rawRow, 0, len(cells))
	for i, c := range cells {
		rows = append(rows, rawRow{line: i + 1, cells: c})
	}
	return rows, nil
}

func isWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic) || bytes.HasPrefix(data, oleMagic)
}

func readDelimited(data []byte) ([][]string, error) {
	rows, err := parseDelimited(data)
	if err == nil {
		return rows, nil
	}
	logger.Warnf("delimited read failed (%v), retrying as Windows-1252", err)
	decoded, derr := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder()))
	if derr != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", derr)
	}
	return parseDelimited(decoded)
}

func parseDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// sniffDelimiter picks the candidate whose per-line count is the most consistent
// over the first lines, preferring the larger count and then list order.
func sniffDelimiter(data []byte) rune {
	lines := strings.Split(string(data), "\n")
	sample := make([]string, 0, 20)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == cap(sample) {
			break
		}
	}

	best, bestFreq, bestCount := ',', 0, 0
	for _, d := range delimiters {
		freq := map[int]int{}
		for _, l := range sample {
			if n := countOutsideQuotes(l, d); n > 0 {
				freq[n]++
			}
		}
		modeCount, modeFreq := 0, 0
		for n, f := range freq {
			if f > modeFreq || (f == modeFreq && n > modeCount) {
				modeCount, modeFreq = n, f
			}
		}
		if modeFreq > bestFreq || (modeFreq == bestFreq && modeCount > bestCount) {
			best, bestFreq, bestCount = d, modeFreq, modeCount
		}
	}
	return best
}

func countOutsideQuotes(line string, d rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

func readWorkbook(data []byte) ([][]string, error) {
	rows, err := readXLSX(data)
	if err == nil {
		return rows, nil
	}
	rows, xlsErr := readXLS(data)
	if xlsErr == nil {
		return rows, nil
	}
	return nil, fmt.Errorf("xlsx: %v; xls: %v", err, xlsErr)
}

// readXLSX reads the first sheet with raw cell values, so dates arrive as
// serial numbers instead of locale-formatted text.
func readXLSX(data []byte) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()
	sheet := xl.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	return xl.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) (rows [][]string, err error) {
	// the legacy reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("xls reader: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// rectangular drops rows whose cells are all blank and pads the rest to the
// widest row. It returns the kept rows and the column count.
func rectangular(rows []rawRow) ([]rawRow, int) {
	kept := rows[:0]
	width := 0
	for _, r := range rows {
		if allEmptyRow(r.cells) {
			continue
		}
		if len(r.cells) > width {
			width = len(r.cells)
		}
		kept = append(kept, r)
	}
	for i := range kept {
		if n := len(kept[i].cells); n < width {
			kept[i].cells = append(kept[i].cells, make([]string, width-n)...)
		}
	}
	return kept, width
}

func allEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
