package rhizo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the semantic type of a model attribute as understood by the
// visualization engine. It drives which filter, layout and legend widgets
// the engine builds for the attribute.
type Kind string

const (
	// KindOpaque marks values that are carried on the native record without
	// any engine-level semantics.
	KindOpaque         Kind = ""
	KindBoolean        Kind = "BOOLEAN"
	KindString         Kind = "STRING"
	KindNumber         Kind = "NUMBER"
	KindDate           Kind = "DATE"
	KindRange          Kind = "RANGE"
	KindCategory       Kind = "CATEGORY"
	KindDecimal        Kind = "DECIMAL"
	KindDecimalRange   Kind = "DECIMALRANGE"
	KindLogarithmRange Kind = "LOGARITHMRANGE"
	KindStringArray    Kind = "STRINGARRAY" // experimental in the engine
)

var allKinds = []Kind{
	KindBoolean,
	KindString,
	KindNumber,
	KindDate,
	KindRange,
	KindCategory,
	KindDecimal,
	KindDecimalRange,
	KindLogarithmRange,
	KindStringArray,
}

// Kinds returns every non-opaque kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind parses a kind name case-insensitively. An empty string parses to
// KindOpaque.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return KindOpaque, nil
	}
	for _, k := range allKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return KindOpaque, fmt.Errorf("unknown kind: %q", s)
}

// IsOpaque reports whether k carries no engine semantics.
func (k Kind) IsOpaque() bool {
	return k == KindOpaque
}

// IsNumeric reports whether values of this kind are numbers.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindNumber, KindRange, KindDecimal, KindDecimalRange, KindLogarithmRange:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	if k == KindOpaque {
		return "OPAQUE"
	}
	return string(k)
}

// UnmarshalJSON rejects kind names the engine does not know.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DateCluster is the granularity used to group DATE attributes.
type DateCluster string

const (
	DateClusterDay   DateCluster = "d"
	DateClusterMonth DateCluster = "m"
	DateClusterYear  DateCluster = "y"
)
