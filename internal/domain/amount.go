package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ParseAmount converts a client-supplied amount to a float64. It accepts JSON
// numbers, Go numeric types and numeric strings. Missing, empty, non-numeric
// and non-finite values fail with ErrInvalidInput.
func ParseAmount(v any) (float64, error) {
	var (
		f   float64
		err error
	)

	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: amount is missing", ErrInvalidInput)
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = parseNumericString(string(x))
	case string:
		f, err = parseNumericString(x)
	case []byte:
		f, err = parseNumericString(string(x))
	default:
		return 0, fmt.Errorf("%w: amount has unsupported type %T", ErrInvalidInput, v)
	}
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: amount is not finite", ErrInvalidInput)
	}
	return f, nil
}

func parseNumericString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is empty", ErrInvalidInput)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	return f, nil
}

// CoerceAmount converts a stored amount to a float64, treating anything that
// does not parse as a finite number as 0.
func CoerceAmount(v any) float64 {
	f, err := ParseAmount(v)
	if err != nil {
		return 0
	}
	return f
}

// SumAmounts returns the total of the coerced amounts of readings. The result
// does not depend on the order of readings. A total that overflows float64
// saturates at ±math.MaxFloat64 so it stays comparable and encodable.
func SumAmounts(readings []RawReading) float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = CoerceAmount(r.Amount)
	}
	slices.Sort(values)

	// Neumaier compensated summation over the sorted values.
	var sum, comp float64
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			comp += (sum - t) + v
		} else {
			comp += (v - t) + sum
		}
		sum = t
		if math.IsInf(sum, 0) {
			return math.Copysign(math.MaxFloat64, sum)
		}
	}
	return sum + comp
}
