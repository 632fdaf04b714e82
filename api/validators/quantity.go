package validators

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// DefaultQuantity is used when the client omits quantity or sends a value
// whose type carries no number (bool, object, array).
const DefaultQuantity = 1

// ParseQuantity coerces a loosely typed JSON quantity into an int.
//
//   - absent, null or "" yields DefaultQuantity
//   - integral numbers and numeric strings yield their value, sign included
//   - fractional numbers, non-numeric strings and values outside int32 are rejected
//   - any other JSON type yields DefaultQuantity
//
// Callers decide whether zero or negative values are meaningful.
func ParseQuantity(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DefaultQuantity, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, invalidQuantity()
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return DefaultQuantity, nil
		}
		return parseIntegral(s)
	case '{', '[', 't', 'f':
		return DefaultQuantity, nil
	default:
		return parseIntegral(string(trimmed))
	}
}

func parseIntegral(s string) (int, error) {
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalidQuantity()
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, invalidQuantity()
	}
	return int(f), nil
}

func invalidQuantity() *pkgerrors.Error {
	return pkgerrors.Validation("quantity must be an integer").WithDetails(map[string]any{"field": "quantity"})
}
