package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day granularity, no time component
// =============================================================================

// Date is a calendar day in UTC. Constructors normalize to midnight UTC so
// Date values are comparable with == and usable as map keys.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date {
	t := d.Time.AddDate(0, 0, n)
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string { return d.Time.Format(dateLayout) }

// JSON serialization as YYYY-MM-DD strings.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s (use YYYY-MM-DD)", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
