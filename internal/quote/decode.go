package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed matches every *DecodeError via errors.Is.
var ErrMalformed = errors.New("malformed payload")

// DecodeError reports why a payload or one of its records could not be decoded.
type DecodeError struct {
	// Index is the record position in the array, or -1 when the payload itself is bad.
	Index  int
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

// Mode selects how Decode treats a record that fails validation.
type Mode int

const (
	// ModeStrict fails the whole decode on the first malformed record.
	ModeStrict Mode = iota
	// ModeLenient drops malformed records and keeps the rest.
	ModeLenient
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeLenient:
		return "lenient"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "strict" or "lenient" (case-insensitive). Empty means strict.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ModeStrict, nil
	case "lenient":
		return ModeLenient, nil
	default:
		return ModeStrict, fmt.Errorf("unknown decode mode %q", s)
	}
}

// Decoder turns a /coins/markets response body into quotes. The zero value is strict.
type Decoder struct {
	Mode Mode
	// OnSkip, if set, is called for every record dropped in lenient mode.
	OnSkip func(err *DecodeError)
}

// Decode parses b as a JSON array of market records. Order and length follow the
// input; in lenient mode skipped records are omitted.
func (d Decoder) Decode(b []byte) ([]CurrencyQuote, error) {
	var payload any
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, &DecodeError{Index: -1, Field: "payload", Reason: err.Error()}
	}

	records, ok := payload.([]any)
	if !ok {
		return nil, &DecodeError{Index: -1, Field: "payload", Reason: "expected array, got " + kindOf(payload)}
	}

	out := make([]CurrencyQuote, 0, len(records))
	for i, raw := range records {
		q, derr := decodeRecord(i, raw)
		if derr != nil {
			if d.Mode == ModeLenient {
				if d.OnSkip != nil {
					d.OnSkip(derr)
				}
				continue
			}
			return nil, derr
		}
		out = append(out, q)
	}
	return out, nil
}

func decodeRecord(i int, raw any) (CurrencyQuote, *DecodeError) {
	// {
	//   "id": "bitcoin",
	//   "symbol": "btc",
	//   "name": "Bitcoin",
	//   "current_price": 67890.12,
	//   "market_cap": 1330000000000,
	//   "total_volume": 25000000000,
	//   ...
	// }
	obj, ok := raw.(map[string]any)
	if !ok {
		return CurrencyQuote{}, &DecodeError{Index: i, Field: "record", Reason: "expected object, got " + kindOf(raw)}
	}

	var (
		q    CurrencyQuote
		derr *DecodeError
	)
	if q.ID, derr = requiredValue[string](obj, i, "id"); derr != nil {
		return CurrencyQuote{}, derr
	}
	if q.ID == "" {
		return CurrencyQuote{}, &DecodeError{Index: i, Field: "id", Reason: "empty"}
	}
	if q.Symbol, derr = requiredValue[string](obj, i, "symbol"); derr != nil {
		return CurrencyQuote{}, derr
	}
	if q.Name, derr = requiredValue[string](obj, i, "name"); derr != nil {
		return CurrencyQuote{}, derr
	}
	if q.CurrentPrice, derr = requiredValue[float64](obj, i, "current_price"); derr != nil {
		return CurrencyQuote{}, derr
	}
	if q.MarketCap, derr = requiredValue[float64](obj, i, "market_cap"); derr != nil {
		return CurrencyQuote{}, derr
	}
	if q.TotalVolume, derr = requiredValue[float64](obj, i, "total_volume"); derr != nil {
		return CurrencyQuote{}, derr
	}
	return q, nil
}

// requiredValue reads key from data. Absent keys, nulls and type mismatches are errors.
func requiredValue[T string | float64](data map[string]any, i int, key string) (T, *DecodeError) {
	var zero T
	v, ok := data[key]
	if !ok {
		return zero, &DecodeError{Index: i, Field: key, Reason: "missing"}
	}
	tv, ok := v.(T)
	if !ok {
		return zero, &DecodeError{Index: i, Field: key, Reason: fmt.Sprintf("expected %s, got %s", kindOf(zero), kindOf(v))}
	}
	return tv, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
