package model

import (
	"bytes"
	"encoding/json"
	"time"

	"BankRecon/internal/config"
)

// Date is an optional calendar date. The zero value means the date is unknown.
type Date struct {
	t     time.Time
	valid bool
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), valid: true}
}

// MustDate parses a YYYY-MM-DD literal and panics on failure. Meant for fixtures.
func MustDate(s string) Date {
	t, err := time.Parse(config.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return NewDate(t)
}

func (d Date) Valid() bool     { return d.valid }
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(config.DateFormat)
}

// Before orders unknown dates after every known one.
func (d Date) Before(o Date) bool {
	switch {
	case !d.valid:
		return false
	case !o.valid:
		return true
	}
	return d.t.Before(o.t)
}

func (d Date) Equal(o Date) bool {
	return d.valid == o.valid && d.t.Equal(o.t)
}

// DaysBetween returns the absolute day distance, or -1 when either date is unknown.
func DaysBetween(a, b Date) int {
	if !a.valid || !b.valid {
		return -1
	}
	h := a.t.Sub(b.t).Hours()
	if h < 0 {
		h = -h
	}
	return int(h / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.t.Format(config.DateFormat))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(config.DateFormat, s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}
