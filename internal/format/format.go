// Package format holds the display rules shared by every analysis renderer:
// fixed decimals, percentage suffixes, "N/A" fallbacks and label shortening.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NA is shown wherever a value is missing or not numeric.
const NA = "N/A"

// Floater is implemented by loosely typed numeric values that may be absent.
type Floater interface {
	Float() (float64, bool)
}

// Float coerces v to a finite float64. Nil, NaN, infinities and
// non-numeric values report false.
func Float(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case Floater:
		var ok bool
		if f, ok = t.Float(); !ok {
			return 0, false
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		var err error
		if f, err = cast.ToFloat64E(s); err != nil {
			return 0, false
		}
	case bool:
		return 0, false
	default:
		var err error
		if f, err = cast.ToFloat64E(v); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Fixed formats v with the given number of decimals, or NA.
func Fixed(v any, decimals int) string {
	f, ok := Float(v)
	if !ok {
		return NA
	}
	return fmt.Sprintf("%.*f", decimals, f)
}

// Percent formats a value that is already a percentage ("12.5" -> "12.50%").
func Percent(v any, decimals int) string {
	f, ok := Float(v)
	if !ok {
		return NA
	}
	return fmt.Sprintf("%.*f%%", decimals, f)
}

// Ratio formats a 0..1 ratio as a percentage ("0.125" -> "12.5%").
func Ratio(v any, decimals int) string {
	f, ok := Float(v)
	if !ok {
		return NA
	}
	return fmt.Sprintf("%.*f%%", decimals, f*100)
}

// Count formats an integral count with thousands separators.
func Count(v any) string {
	f, ok := Float(v)
	if !ok {
		return NA
	}
	return humanize.Comma(int64(math.Round(f)))
}

// PValue formats a p-value, collapsing tiny values to "< 0.001".
func PValue(v any) string {
	f, ok := Float(v)
	if !ok {
		return NA
	}
	if f < 0.001 {
		return "< 0.001"
	}
	return fmt.Sprintf("%.3f", f)
}

// Stars returns the conventional significance marker for a p-value.
func Stars(v any) string {
	f, ok := Float(v)
	if !ok {
		return ""
	}
	switch {
	case f < 0.001:
		return "***"
	case f < 0.01:
		return "**"
	case f < 0.05:
		return "*"
	default:
		return ""
	}
}

// Text returns s trimmed, or NA when empty.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NA
	}
	return s
}

// Truncate shortens s to at most width display cells, appending an ellipsis.
// A non-positive width disables truncation.
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Label turns a backend key such as "numerical_summary" into "Numerical Summary".
func Label(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	// cases.Caser is stateful and not safe for concurrent use.
	caser := cases.Title(language.English)
	return caser.String(strings.Join(words, " "))
}
