package internal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lychee-technology/rhizo"
)

// MapKindToDuckDBType maps a meta model kind to a DuckDB SQL type string.
func MapKindToDuckDBType(k rhizo.Kind) string {
	switch k {
	case rhizo.KindBoolean:
		return "BOOLEAN"
	case rhizo.KindNumber, rhizo.KindDecimal, rhizo.KindRange, rhizo.KindDecimalRange, rhizo.KindLogarithmRange:
		return "DOUBLE"
	case rhizo.KindDate:
		return "TIMESTAMP"
	default:
		// Strings, categories, arrays and opaque values; the last three are
		// stored as JSON text.
		return "VARCHAR"
	}
}

// ToDuckDBParam converts a record value to the form expected by the DuckDB
// driver for a column of kind k.
//   - numbers -> float64
//   - dates -> time.Time in UTC
//   - arrays and opaque values -> JSON text
func ToDuckDBParam(value any, k rhizo.Kind) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch k {
	case rhizo.KindBoolean:
		switch b := value.(type) {
		case bool:
			return b, nil
		case *bool:
			if b == nil {
				return nil, nil
			}
			return *b, nil
		default:
			return nil, fmt.Errorf("cannot convert %T to BOOLEAN param", value)
		}
	case rhizo.KindNumber, rhizo.KindDecimal, rhizo.KindRange, rhizo.KindDecimalRange, rhizo.KindLogarithmRange:
		switch n := value.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		default:
			return nil, fmt.Errorf("cannot convert %T to numeric param", value)
		}
	case rhizo.KindDate:
		switch t := value.(type) {
		case time.Time:
			return t.UTC(), nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return t.UTC(), nil
		case string:
			return t, nil
		default:
			return nil, fmt.Errorf("cannot convert %T to TIMESTAMP param", value)
		}
	case rhizo.KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil
	case rhizo.KindCategory:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return toJSONText(value)
	default:
		return toJSONText(value)
	}
}

func toJSONText(value any) (any, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %T as JSON param: %w", value, err)
	}
	return string(data), nil
}
