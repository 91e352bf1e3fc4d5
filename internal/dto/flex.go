package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nilantra/furniture-api/internal/model"
)

// ErrInvalidInput marks a request value that cannot be normalized.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func isNull(b []byte) bool { return bytes.Equal(b, []byte("null")) }

// Text is a scalar sent as a JSON string, number or boolean. Form posts
// carry everything as strings, JSON clients often do not.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		return invalid("expected a scalar, got %s", b)
	}
	*t = Text(b)
	return nil
}

func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(string(*t))
}

// IsBlank reports whether t was omitted or sent empty.
func (t *Text) IsBlank() bool { return t.String() == "" }

// Bool parses "true"/"false" in any case, plus "1"/"0".
func (t *Text) Bool(field string) (bool, error) {
	v, err := strconv.ParseBool(strings.ToLower(t.String()))
	if err != nil {
		return false, invalid("%s must be true or false", field)
	}
	return v, nil
}

func (t *Text) Decimal(field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(t.String())
	if err != nil {
		return decimal.Zero, invalid("%s must be a number", field)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid("%s must not be negative", field)
	}
	return d, nil
}

var maxCount = decimal.NewFromInt(math.MaxInt32)

func (t *Text) Int(field string) (int, error) {
	d, err := decimal.NewFromString(t.String())
	if err != nil || !d.IsInteger() {
		return 0, invalid("%s must be a whole number", field)
	}
	if d.IsNegative() {
		return 0, invalid("%s must not be negative", field)
	}
	if d.GreaterThan(maxCount) {
		return 0, invalid("%s is out of range", field)
	}
	return int(d.IntPart()), nil
}

// List is a sequence sent either as a JSON array or as a comma separated
// string. Tokens are trimmed and empty ones dropped.
type List []string

func (l *List) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var raw []Text
		if err := json.Unmarshal(b, &raw); err != nil {
			return invalid("list elements must be scalars")
		}
		values := make([]string, len(raw))
		for i := range raw {
			values[i] = string(raw[i])
		}
		*l = ParseList(values...)
		return nil
	}
	var t Text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	*l = ParseList(string(t))
	return nil
}

// ParseList normalizes form values. Each value may itself be a JSON array
// or a comma separated string.
func ParseList(values ...string) List {
	out := List{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var inner []Text
			if json.Unmarshal([]byte(v), &inner) == nil {
				for _, s := range inner {
					if s := strings.TrimSpace(string(s)); s != "" {
						out = append(out, s)
					}
				}
				continue
			}
		}
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Floats keeps the tokens that parse as numbers and drops the rest.
func (l List) Floats() []float64 {
	out := []float64{}
	for _, s := range l {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Dimensions accepts an object or the same object encoded as a JSON string.
type Dimensions model.Dimensions

func (d *Dimensions) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isNull(b) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseDimensions(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var raw struct {
		Length *Text `json:"length"`
		Width  *Text `json:"width"`
		Height *Text `json:"height"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return invalid("dimensions must be an object")
	}
	*d = Dimensions{Length: raw.Length.String(), Width: raw.Width.String(), Height: raw.Height.String()}
	return nil
}

// ParseDimensions decodes a JSON object string; an empty string is an
// empty set of dimensions.
func ParseDimensions(s string) (Dimensions, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dimensions{}, nil
	}
	if !strings.HasPrefix(s, "{") {
		return Dimensions{}, invalid("dimensions must be a JSON object")
	}
	var d Dimensions
	if err := d.UnmarshalJSON([]byte(s)); err != nil {
		return Dimensions{}, err
	}
	return d, nil
}
