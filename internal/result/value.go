package result

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Number is a loosely typed numeric field. Backends send plain numbers,
// numeric strings or null; anything else decodes as an invalid Number
// instead of failing the whole result.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// Float implements format.Floater.
func (n Number) Float() (float64, bool) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return 0, false
	}
	return n.Value, true
}

// Or returns the value, or def when invalid.
func (n Number) Or(def float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return def
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return nil
		}
		*n = Num(f)
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return nil
		}
		*n = Num(f)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	f, ok := n.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Numbers converts a slice to plain floats. Invalid entries become NaN so
// positions line up with their labels.
func Numbers(ns []Number) []float64 {
	out := make([]float64, len(ns))
	for i, n := range ns {
		if f, ok := n.Float(); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Text is a label that backends send either as a string or as a bare
// number or boolean.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Text(cast.ToString(v))
	return nil
}

func (t Text) String() string { return string(t) }

// Level scores used for impact and effort.
const (
	LevelLow     = 1.0
	LevelMedium  = 2.0
	LevelHigh    = 3.0
	LevelDefault = LevelMedium
)

// LevelScore maps "Low", "Medium" and "High" (any case, surrounding space
// ignored) to 1, 2 and 3. Anything else maps to the midpoint.
func LevelScore(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return LevelLow
	case "medium":
		return LevelMedium
	case "high":
		return LevelHigh
	default:
		return LevelDefault
	}
}
