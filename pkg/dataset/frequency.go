package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is a calendar-frequency specifier for the sampling interval of
// a dataset, e.g. "H" (hourly), "D" (daily), "15min". An optional leading
// integer multiplies the base unit.
//
// Recognized units: "S" (second), "min" or "T" (minute), "H" (hour),
// "D" (day), "W" (week), "M" (month), "Y" (year).
type Frequency string

// Validate reports whether the specifier is well formed.
func (f Frequency) Validate() error {
	_, _, err := f.parse()
	return err
}

// Step returns the fixed duration of one frequency step. Calendar units
// without a fixed length (months, years) return an error; use Next or
// Times for those.
func (f Frequency) Step() (time.Duration, error) {
	n, unit, err := f.parse()
	if err != nil {
		return 0, err
	}
	var base time.Duration
	switch unit {
	case "S":
		base = time.Second
	case "min", "T":
		base = time.Minute
	case "H":
		base = time.Hour
	case "D":
		base = 24 * time.Hour
	case "W":
		base = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("frequency %q has no fixed step duration", f)
	}
	return time.Duration(n) * base, nil
}

// Next returns the timestamp one frequency step after t. Month and year
// steps are calendar-aware.
func (f Frequency) Next(t time.Time) (time.Time, error) {
	n, unit, err := f.parse()
	if err != nil {
		return time.Time{}, err
	}
	switch unit {
	case "M":
		return t.AddDate(0, n, 0), nil
	case "Y":
		return t.AddDate(n, 0, 0), nil
	default:
		step, err := f.Step()
		if err != nil {
			return time.Time{}, err
		}
		return t.Add(step), nil
	}
}

// Times generates h future timestamps starting one step after last.
func (f Frequency) Times(last time.Time, h int) ([]time.Time, error) {
	if h <= 0 {
		return nil, nil
	}
	out := make([]time.Time, 0, h)
	t := last
	for i := 0; i < h; i++ {
		next, err := f.Next(t)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		t = next
	}
	return out, nil
}

func (f Frequency) parse() (int, string, error) {
	s := string(f)
	if s == "" {
		return 0, "", fmt.Errorf("frequency cannot be empty")
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	n := 1
	if i > 0 {
		v, err := strconv.Atoi(s[:i])
		if err != nil || v <= 0 {
			return 0, "", fmt.Errorf("invalid frequency multiple in %q", s)
		}
		n = v
	}

	unit := s[i:]
	switch unit {
	case "S", "min", "T", "H", "D", "W", "M", "Y":
		return n, unit, nil
	case "h", "d", "w", "s":
		// Tolerate lowercase fixed units.
		return n, strings.ToUpper(unit), nil
	default:
		return 0, "", fmt.Errorf("unknown frequency unit %q in %q", unit, s)
	}
}
