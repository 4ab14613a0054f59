package core

import (
	"fmt"
	"strconv"
	"strings"
)

// monthNames are the short Spanish month labels used by the charts.
var monthNames = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// PlaceholderLabel is the single entry MonthlyComparison returns when there is
// no history at all, so an empty dataset still renders as a chart.
const PlaceholderLabel = "Actual"

// MonthKey identifies a calendar month. It is derived from transaction dates
// for filtering and grouping, never persisted. The zero value is the sentinel
// for an unparseable date.
type MonthKey struct {
	Month int // 1-12
	Year  int
}

func (k MonthKey) IsZero() bool {
	return k.Month == 0 && k.Year == 0
}

// String renders the key in its wire form, "MM-YYYY".
func (k MonthKey) String() string {
	return fmt.Sprintf("%02d-%04d", k.Month, k.Year)
}

// Label returns the short month name with year, e.g. "Dic 2024".
func (k MonthKey) Label() string {
	if k.Month < 1 || k.Month > 12 {
		return k.String()
	}
	return monthNames[k.Month-1] + " " + strconv.Itoa(k.Year)
}

// ShortLabel returns just the month name for the comparison chart axis.
func (k MonthKey) ShortLabel() string {
	if k.Month < 1 || k.Month > 12 {
		return k.String()
	}
	return monthNames[k.Month-1]
}

// Before reports whether k is chronologically before o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// Range returns the first day of the month and the first day of the following
// month as ISO dates, the half-open interval used to bound date-range queries.
// December rolls over to January of the next year.
func (k MonthKey) Range() (start, end string) {
	start = fmt.Sprintf("%04d-%02d-01", k.Year, k.Month)
	m, y := k.Month+1, k.Year
	if m > 12 {
		m = 1
		y++
	}
	end = fmt.Sprintf("%04d-%02d-01", y, m)
	return start, end
}

// ParseMonthKey parses the wire form "MM-YYYY".
func ParseMonthKey(s string) (MonthKey, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return MonthKey{}, fmt.Errorf("invalid month key %q", s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key %q", s)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month key %q", s)
	}
	if m < 1 || m > 12 || y < 1 {
		return MonthKey{}, fmt.Errorf("invalid month key %q", s)
	}
	return MonthKey{Month: m, Year: y}, nil
}

// MonthKeyForDate derives the month key from a date in either storage
// (YYYY-MM-DD) or display (DD/MM/YYYY) form. Malformed dates yield the zero
// key so one bad record drops out of month buckets instead of failing the
// whole aggregation.
func MonthKeyForDate(date string) MonthKey {
	sep, yearIdx := "-", 0
	if strings.Contains(date, "/") {
		sep, yearIdx = "/", 2
	}
	parts := strings.Split(date, sep)
	if len(parts) < 3 {
		return MonthKey{}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthKey{}
	}
	y, err := strconv.Atoi(parts[yearIdx])
	if err != nil {
		return MonthKey{}
	}
	if m < 1 || m > 12 || y < 1 {
		return MonthKey{}
	}
	return MonthKey{Month: m, Year: y}
}

// DayOfMonth extracts the day component from a date in either form, 0 when
// the date is malformed.
func DayOfMonth(date string) int {
	sep, dayIdx := "-", 2
	if strings.Contains(date, "/") {
		sep, dayIdx = "/", 0
	}
	parts := strings.Split(date, sep)
	if len(parts) < 3 {
		return 0
	}
	d, err := strconv.Atoi(parts[dayIdx])
	if err != nil || d < 1 {
		return 0
	}
	return d
}

// DisplayDate rewrites an ISO date (YYYY-MM-DD) as DD/MM/YYYY. It is a pure
// string rewrite with no calendar validation; input that does not split into
// three parts passes through unchanged.
func DisplayDate(iso string) string {
	parts := strings.SplitN(iso, "-", 3)
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// ISODate is the inverse rewrite, DD/MM/YYYY to YYYY-MM-DD.
func ISODate(display string) string {
	parts := strings.SplitN(display, "/", 3)
	if len(parts) != 3 {
		return display
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
