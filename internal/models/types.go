package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/course-portal-api/internal/validation"
)

// Date is a calendar date without time of day. It is stored as DATE and
// serialised as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// ParseDate parses s strictly in validation.DateLayout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(validation.DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. Drivers hand DATE columns back either as
// time.Time or as text.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("models: cannot scan %T into Date", src)
	}
	return nil
}

func (d *Date) scanText(s string) error {
	if len(s) > len(validation.DateLayout) {
		s = s[:len(validation.DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("models: scan date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// StringList is an ordered list of strings persisted as a JSON array in a
// text column. A nil list serialises as [].
type StringList []string

// MarshalJSON implements json.Marshaler.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	raw, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner. Empty or malformed content yields an empty
// list, matching how older rows were written.
func (l *StringList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("models: cannot scan %T into StringList", src)
	}

	raw = strings.TrimSpace(raw)
	var items []string
	if raw == "" || json.Unmarshal([]byte(raw), &items) != nil {
		*l = StringList{}
		return nil
	}
	if items == nil {
		items = []string{}
	}
	*l = StringList(items)
	return nil
}
