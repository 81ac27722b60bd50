// Package dataset provides the tabular structures tidecast backends operate
// on: a lightweight Frame of rows keyed by column name, and an IndexedFrame
// produced by promoting the series-identifier column to the index.
//
// Column conventions follow the rest of the toolkit:
//   - "series": per-series identifier
//   - "ts":     observation timestamp
//   - "value":  target value to forecast
//
// Any additional columns are carried through untouched.
package dataset

import (
	"fmt"
	"time"
)

// Column names recognized across the toolkit.
const (
	IDColumn    = "series"
	TimeColumn  = "ts"
	ValueColumn = "value"
)

// Row represents a single tabular observation.
// Example: {"series": "store-12", "ts": "2025-10-25T17:00:00Z", "value": 312.4}
type Row map[string]any

// Frame is a lightweight structure for tabular data. Backends accept a Frame
// and return a Frame; no schema is enforced until a backend hands it to an
// engine.
type Frame struct {
	Rows []Row
}

// Series holds the rows of one identifier after re-indexing, in their
// original order. The promoted column is removed from each row.
type Series struct {
	ID   string
	Rows []Row
}

// IndexedFrame is a Frame re-indexed by one column. Series appear in
// first-seen order.
type IndexedFrame struct {
	Index  string
	Series []Series
}

// IndexBy promotes the named column to the index, grouping rows by its
// value. The input frame is not mutated: each returned row is a copy with
// the promoted column removed and every other column unaltered.
func (f *Frame) IndexBy(col string) (*IndexedFrame, error) {
	if col == "" {
		return nil, fmt.Errorf("index column name cannot be empty")
	}

	idx := &IndexedFrame{Index: col}
	pos := make(map[string]int)

	for i, row := range f.Rows {
		raw, ok := row[col]
		if !ok {
			return nil, fmt.Errorf("column %q not found in row %d", col, i)
		}
		id := asString(raw)

		clone := make(Row, len(row)-1)
		for k, v := range row {
			if k == col {
				continue
			}
			clone[k] = v
		}

		p, seen := pos[id]
		if !seen {
			p = len(idx.Series)
			pos[id] = p
			idx.Series = append(idx.Series, Series{ID: id})
		}
		idx.Series[p].Rows = append(idx.Series[p].Rows, clone)
	}

	return idx, nil
}

// NumRows returns the total row count across all series.
func (x *IndexedFrame) NumRows() int {
	n := 0
	for _, s := range x.Series {
		n += len(s.Rows)
	}
	return n
}

// Values extracts the target column of one series as a float slice,
// skipping rows without a coercible value.
func (s *Series) Values() []float64 {
	out := make([]float64, 0, len(s.Rows))
	for _, row := range s.Rows {
		if raw, ok := row[ValueColumn]; ok {
			if v, ok := ToFloat64(raw); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// LastTime returns the timestamp of the last row carrying a parseable "ts"
// cell, or the zero time when none exists.
func (s *Series) LastTime() time.Time {
	for i := len(s.Rows) - 1; i >= 0; i-- {
		if raw, ok := s.Rows[i][TimeColumn]; ok {
			if t, err := ParseTime(raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// ToFloat64 attempts to convert any numeric cell to float64.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// ParseTime attempts to parse a timestamp cell from the formats adapters
// commonly produce: RFC3339 strings, unix seconds as numeric types, or
// time.Time itself.
func ParseTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp string: %w", err)
		}
		return t, nil
	case float64:
		return time.Unix(int64(val), 0).UTC(), nil
	case int:
		return time.Unix(int64(val), 0).UTC(), nil
	case int64:
		return time.Unix(val, 0).UTC(), nil
	case time.Time:
		return val, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type: %T", v)
	}
}

// AlignTimestamp truncates ts to a consistent step duration.
func AlignTimestamp(ts time.Time, stepSec int) time.Time {
	return ts.Truncate(time.Duration(stepSec) * time.Second)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
