package teamdesk

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindText
	kindNumber
	kindBool
	kindOther
)

// Value is one optional scalar cell of a TeamDesk row. The source enforces no
// schema, so a column may arrive as a string, a number, or not at all.
type Value struct {
	kind valueKind
	text string
	num  float64
}

// Text builds a string cell.
func Text(s string) Value {
	return Value{kind: kindText, text: s}
}

// Number builds a numeric cell.
func Number(f float64) Value {
	return Value{kind: kindNumber, num: f, text: formatNumber(f)}
}

// IsZero reports whether the cell was absent or null.
func (v Value) IsZero() bool {
	return v.kind == kindAbsent
}

// String returns the trimmed display form of the cell.
func (v Value) String() string {
	if v.kind == kindNumber {
		return v.text
	}
	return strings.TrimSpace(v.text)
}

// Key returns the lowercase display form used for lookups.
func (v Value) Key() string {
	return strings.ToLower(v.String())
}

// Float coerces the cell to a finite number. Strings are accepted with
// thousands separators; blanks and unparseable text are treated as absent.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, isFinite(v.num)
	case kindText:
		trimmed := strings.TrimSpace(v.text)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
		if err != nil || !isFinite(parsed) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// FloatOr returns Float or the fallback when the cell is not numeric.
func (v Value) FloatOr(fallback float64) float64 {
	if f, ok := v.Float(); ok {
		return f
	}
	return fallback
}

// Time parses the cell as a date or timestamp. Values without a zone are
// read as UTC.
func (v Value) Time() (time.Time, bool) {
	s := v.String()
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Value{kind: kindBool, text: strconv.FormatBool(b)}
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return err
		}
		*v = Value{kind: kindOther, text: compact.String()}
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return err
		}
		// Out-of-range literals keep the row; Float reports them as absent.
		*v = Number(f)
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindAbsent:
		return []byte("null"), nil
	case kindNumber:
		if !isFinite(v.num) {
			return []byte("null"), nil
		}
		return []byte(v.text), nil
	case kindBool:
		return []byte(v.text), nil
	case kindOther:
		return []byte(v.text), nil
	default:
		return json.Marshal(v.text)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
