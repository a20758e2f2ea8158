package internal

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

var (
	stringType      = reflect.TypeFor[string]()
	opaqueType      = reflect.TypeFor[any]()
	opaqueArrayType = reflect.TypeFor[[]any]()
)

// BridgeMethodEntry describes one converter method of a Converter type.
type BridgeMethodEntry struct {
	ValueType     reflect.Type
	Kind          rhizo.Kind
	ConverterName string
}

// BridgeCapabilities is the converter table built from a Converter type.
// It is immutable once built.
type BridgeCapabilities struct {
	converterType reflect.Type
	newConverter  func() rhizo.Converter
	entries       map[reflect.Type]BridgeMethodEntry
}

// NewBridgeCapabilities scans the method set of the converter returned by
// newConverter. A method is a converter when it is listed in BridgeTags and
// has the shape func(string, V). Converters for any and []any must exist.
func NewBridgeCapabilities(newConverter func() rhizo.Converter) (*BridgeCapabilities, error) {
	if newConverter == nil {
		newConverter = rhizo.NewRecordBuilder
	}
	conv := newConverter()
	if conv == nil {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeInvalidConverter, "converter factory returned nil")
	}
	convType := reflect.TypeOf(conv)
	tags := conv.BridgeTags()

	caps := &BridgeCapabilities{
		converterType: convType,
		newConverter:  newConverter,
		entries:       make(map[reflect.Type]BridgeMethodEntry),
	}

	for i := 0; i < convType.NumMethod(); i++ {
		method := convType.Method(i)
		tag, tagged := tags[method.Name]
		if !tagged {
			continue
		}
		valueType, ok := converterValueType(method)
		if !ok {
			zap.S().Warnw("skipping tagged converter with unsupported signature",
				"converter", convType.String(), "method", method.Name, "signature", method.Type.String())
			continue
		}
		if prev, exists := caps.entries[valueType]; exists {
			zap.S().Debugw("converter overrides previous entry",
				"valueType", valueType.String(), "previous", prev.ConverterName, "method", method.Name)
		}
		caps.entries[valueType] = BridgeMethodEntry{
			ValueType:     valueType,
			Kind:          tag.Kind,
			ConverterName: method.Name,
		}
	}

	if _, ok := caps.entries[opaqueType]; !ok {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeMissingFallback,
			"no converter targets the opaque object type any").
			WithModel(convType.String())
	}
	if _, ok := caps.entries[opaqueArrayType]; !ok {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeMissingFallback,
			"no converter targets the opaque array type []any").
			WithModel(convType.String())
	}

	zap.S().Debugw("bridge capabilities built", "converter", convType.String(), "entries", len(caps.entries))
	return caps, nil
}

// converterValueType returns V for a method of shape func(recv, string, V).
func converterValueType(m reflect.Method) (reflect.Type, bool) {
	mt := m.Type
	if mt.NumIn() != 3 || mt.NumOut() != 0 || mt.IsVariadic() {
		return nil, false
	}
	if mt.In(1) != stringType {
		return nil, false
	}
	return mt.In(2), true
}

// ConverterType returns the concrete converter type the table was built from.
func (c *BridgeCapabilities) ConverterType() reflect.Type {
	return c.converterType
}

// NewConverter returns a fresh converter of the table's type.
func (c *BridgeCapabilities) NewConverter() rhizo.Converter {
	return c.newConverter()
}

// Lookup resolves the converter for t. Exact matches win; named basic types
// and named slices fall back to their unnamed form; anything else falls back
// to the opaque array converter for slices and arrays, and to the opaque
// object converter otherwise.
func (c *BridgeCapabilities) Lookup(t reflect.Type) BridgeMethodEntry {
	if entry, ok := c.entries[t]; ok {
		return entry
	}
	if unnamed := unnamedType(t); unnamed != nil {
		if entry, ok := c.entries[unnamed]; ok {
			return entry
		}
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		return c.entries[opaqueArrayType]
	}
	return c.entries[opaqueType]
}

// MappablePrimitiveTypes returns the primitive numeric and boolean value
// types that have a dedicated converter.
func (c *BridgeCapabilities) MappablePrimitiveTypes() map[reflect.Type]struct{} {
	out := make(map[reflect.Type]struct{})
	for t := range c.entries {
		if isPrimitive(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Entries lists the table sorted by converter name.
func (c *BridgeCapabilities) Entries() []BridgeMethodEntry {
	out := make([]BridgeMethodEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConverterName < out[j].ConverterName
	})
	return out
}

func (c *BridgeCapabilities) String() string {
	return fmt.Sprintf("BridgeCapabilities(%s, %d entries)", c.converterType, len(c.entries))
}

func isPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:       reflect.TypeFor[bool](),
	reflect.Int:        reflect.TypeFor[int](),
	reflect.Int8:       reflect.TypeFor[int8](),
	reflect.Int16:      reflect.TypeFor[int16](),
	reflect.Int32:      reflect.TypeFor[int32](),
	reflect.Int64:      reflect.TypeFor[int64](),
	reflect.Uint:       reflect.TypeFor[uint](),
	reflect.Uint8:      reflect.TypeFor[uint8](),
	reflect.Uint16:     reflect.TypeFor[uint16](),
	reflect.Uint32:     reflect.TypeFor[uint32](),
	reflect.Uint64:     reflect.TypeFor[uint64](),
	reflect.Uintptr:    reflect.TypeFor[uintptr](),
	reflect.Float32:    reflect.TypeFor[float32](),
	reflect.Float64:    reflect.TypeFor[float64](),
	reflect.Complex64:  reflect.TypeFor[complex64](),
	reflect.Complex128: reflect.TypeFor[complex128](),
	reflect.String:     reflect.TypeFor[string](),
}

// unnamedType returns the predeclared type behind a named basic type, or
// the unnamed slice type behind a named slice. It returns nil when t has no
// such form or already is it.
func unnamedType(t reflect.Type) reflect.Type {
	if basic, ok := basicTypes[t.Kind()]; ok {
		if basic == t {
			return nil
		}
		return basic
	}
	if t.Kind() == reflect.Slice && t.Name() != "" {
		return reflect.SliceOf(t.Elem())
	}
	return nil
}

// basicType returns the predeclared type for a primitive t.
func basicType(t reflect.Type) reflect.Type {
	if basic, ok := basicTypes[t.Kind()]; ok {
		return basic
	}
	return t
}
