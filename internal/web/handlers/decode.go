package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/giftlink/backend/internal/database"
)

var errNotObject = errors.New("body is not a JSON object")

// decodeGift reads a single JSON object. Integral numbers are kept as
// integers (int32 when they fit, like other MongoDB clients) instead of
// being widened to float64.
func decodeGift(body io.Reader) (database.Gift, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errNotObject
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON object")
	}

	return database.Gift(normalizeMap(raw)), nil
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		return normalizeNumber(val)
	case map[string]any:
		return normalizeMap(val)
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}

func normalizeNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i)
		}
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
