package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Day-first layouts come before anything month-first; compact DDMMYYYY before YYYYMMDD.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/01/02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"02/01/2006 03:04:05 PM",
	"2/1/2006 3:04:05 PM",
	"02-01-2006",
	"2-1-2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02.01.2006",
	"02/01/06",
	"2/1/06",
	"02-01-06",
	"2-1-06",
	"02/01/06 15:04",
	"02012006",
	"20060102",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"02/Jan/2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

var monthNames = map[string]time.Month{
	"jan": time.January, "ene": time.January, "january": time.January, "enero": time.January,
	"feb": time.February, "february": time.February, "febrero": time.February,
	"mar": time.March, "march": time.March, "marzo": time.March,
	"apr": time.April, "abr": time.April, "april": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"jun": time.June, "june": time.June, "junio": time.June,
	"jul": time.July, "july": time.July, "julio": time.July,
	"aug": time.August, "ago": time.August, "august": time.August, "agosto": time.August,
	"sep": time.September, "sept": time.September, "set": time.September, "september": time.September, "septiembre": time.September,
	"oct": time.October, "october": time.October, "octubre": time.October,
	"nov": time.November, "november": time.November, "noviembre": time.November,
	"dec": time.December, "dic": time.December, "december": time.December, "diciembre": time.December,
}

// ParseDate resolves a date cell. A defaulted result with a zero time means "no date";
// the caller decides what to do with such rows.
func ParseDate(raw string) Result[time.Time] {
	s := NormalizeCell(raw)
	if s == "" {
		return Default(time.Time{}, "empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Ok(truncateDay(t))
		}
	}
	if t, err := parseExcelSerialDate(s); err == nil {
		return Ok(t)
	}
	if t, ok := parseDayFirst(s); ok {
		return Ok(t)
	}
	return Default(time.Time{}, fmt.Sprintf("date %q not recognised", raw))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseExcelSerialDate converts an Excel serial day number (optionally fractional).
// Only four and five digit serials (1902 onwards) are accepted, except bare
// integers 1900-2100 which are years. Past the fake 1900-02-29 serials are plain
// offsets from 1899-12-30.
func parseExcelSerialDate(s string) (time.Time, error) {
	intPart := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
	}
	if len(intPart) < 4 || len(intPart) > 5 {
		return time.Time{}, fmt.Errorf("not an excel serial: %s", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 {
		return time.Time{}, fmt.Errorf("not an excel serial: %s", s)
	}
	days := int(f)
	if len(intPart) == 4 && !strings.Contains(s, ".") && days >= 1900 && days <= 2100 {
		return time.Time{}, fmt.Errorf("bare year, not an excel serial: %s", s)
	}
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, days), nil
}

// parseDayFirst is the permissive fallback: three tokens, day before month unless the
// first token is a four digit year or a month name.
func parseDayFirst(s string) (time.Time, bool) {
	var tokens []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		// fillers such as "de" in "15 de enero de 2024" are skipped
		if isNumber(tok) || isMonthName(tok) {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 3 {
		return time.Time{}, false
	}
	tokens = tokens[:3]

	var y, d int
	var m time.Month
	var err error
	switch {
	case isMonthName(tokens[1]):
		m = monthNames[CleanText(tokens[1])]
		if len(tokens[0]) == 4 {
			y, d, err = atoi2(tokens[0], tokens[2])
		} else {
			d, y, err = atoi2(tokens[0], tokens[2])
		}
	case isMonthName(tokens[0]):
		m = monthNames[CleanText(tokens[0])]
		d, y, err = atoi2(tokens[1], tokens[2])
	default:
		var a, b, c int
		if a, b, err = atoi2(tokens[0], tokens[1]); err != nil {
			return time.Time{}, false
		}
		if c, err = strconv.Atoi(tokens[2]); err != nil {
			return time.Time{}, false
		}
		if len(tokens[0]) == 4 {
			y, m, d = a, time.Month(b), c
		} else {
			d, m, y = a, time.Month(b), c
			if m > 12 && d <= 12 {
				d, m = int(m), time.Month(d)
			}
		}
	}
	if err != nil {
		return time.Time{}, false
	}
	if y < 100 {
		y = expandYear(y)
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func isMonthName(tok string) bool {
	_, ok := monthNames[CleanText(tok)]
	return ok
}

func isNumber(tok string) bool {
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return tok != ""
}

func atoi2(a, b string) (int, int, error) {
	x, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// expandYear follows the time package's two digit year pivot.
func expandYear(y int) int {
	if y >= 69 {
		return 1900 + y
	}
	return 2000 + y
}
