package internal

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

// MappingOptions tunes generated bridges.
type MappingOptions struct {
	CacheEnabled       bool
	GenerateMissingIDs bool
}

// DefaultMappingOptions mirrors rhizo.DefaultConfig.
func DefaultMappingOptions() MappingOptions {
	return MappingOptions{CacheEnabled: true, GenerateMissingIDs: true}
}

// conversionStep writes one attribute: record[name] = converter(accessor(v)).
type conversionStep struct {
	attr           MappableAttribute
	accessorIndex  int
	entry          BridgeMethodEntry
	converterIndex int
}

// GeneratedMapping is the adapter pair generated for one model type.
type GeneratedMapping struct {
	inspection *ModelInspection
	caps       *BridgeCapabilities
	steps      []conversionStep
	opts       MappingOptions
}

var _ rhizo.Mapping = (*GeneratedMapping)(nil)

// GenerateMapping resolves a converter for every inspected attribute.
func GenerateMapping(inspection *ModelInspection, caps *BridgeCapabilities, opts MappingOptions) *GeneratedMapping {
	return &GeneratedMapping{
		inspection: inspection,
		caps:       caps,
		steps:      resolveSteps(inspection, caps),
		opts:       opts,
	}
}

// Generate inspects t and generates its mapping. Inspection failures abort
// generation; there is no partial mapping.
func Generate(t reflect.Type, caps *BridgeCapabilities, opts MappingOptions) (*GeneratedMapping, error) {
	inspection, err := InspectModel(t, caps)
	if err != nil {
		return nil, err
	}
	m := GenerateMapping(inspection, caps, opts)
	zap.S().Infow("generated model mapping", "model", t.String(),
		"attributes", len(inspection.Attributes), "customAttributes", inspection.HasCustomAttributes,
		"converter", caps.ConverterType().String())
	return m, nil
}

func resolveSteps(inspection *ModelInspection, caps *BridgeCapabilities) []conversionStep {
	t := inspection.ModelType
	convType := caps.ConverterType()
	steps := make([]conversionStep, 0, len(inspection.Attributes))
	for _, attr := range inspection.Attributes {
		accessor, _ := t.MethodByName(attr.AccessorName)
		entry := caps.Lookup(attr.ReturnType)
		converter, _ := convType.MethodByName(entry.ConverterName)
		steps = append(steps, conversionStep{
			attr:           attr,
			accessorIndex:  accessor.Index,
			entry:          entry,
			converterIndex: converter.Index,
		})
	}
	return steps
}

func (m *GeneratedMapping) ModelType() reflect.Type {
	return m.inspection.ModelType
}

// Inspection returns the static analysis the mapping was generated from.
func (m *GeneratedMapping) Inspection() *ModelInspection {
	return m.inspection
}

// Converters lists the converter chosen for each attribute, keyed by
// attribute name.
func (m *GeneratedMapping) Converters() map[string]BridgeMethodEntry {
	out := make(map[string]BridgeMethodEntry, len(m.steps))
	for _, s := range m.steps {
		out[s.attr.AttributeName] = s.entry
	}
	return out
}

// NewModelBridge returns a bridge that builds records with converters from
// newConverter. A converter of a different type than the one the mapping
// was generated against gets its own capability table, and the accessor
// return types are checked against it again.
func (m *GeneratedMapping) NewModelBridge(newConverter func() rhizo.Converter) rhizo.ModelBridge {
	if newConverter == nil {
		return &modelBridge{mapping: m, caps: m.caps, steps: m.steps}
	}
	caps := m.caps
	steps := m.steps
	if reflect.TypeOf(newConverter()) != m.caps.ConverterType() {
		var err error
		caps, err = NewBridgeCapabilities(newConverter)
		if err != nil {
			return &failedBridge{err: err}
		}
		primitives := caps.MappablePrimitiveTypes()
		for _, attr := range m.inspection.Attributes {
			if rerr := verifyReturnType(caps, primitives, attr.ReturnType); rerr != nil {
				return &failedBridge{err: rerr.WithModel(m.ModelType().String()).WithMethod(attr.AccessorName)}
			}
		}
		steps = resolveSteps(m.inspection, caps)
	}
	return &modelBridge{mapping: m, caps: caps, steps: steps}
}

// NewMetaModelFactory returns a factory that fills each attribute with
// filler, or with the default AttributeBuilder when filler is nil.
func (m *GeneratedMapping) NewMetaModelFactory(filler rhizo.AttributeFiller) rhizo.MetaModelFactory {
	if filler == nil {
		filler = NewAttributeBuilder()
	}
	return &metaModelFactory{steps: m.steps, filler: filler}
}

type metaModelFactory struct {
	steps  []conversionStep
	filler rhizo.AttributeFiller
}

// NewMetaModel builds one attribute per attribute that is neither opaque
// nor the model id, with a fresh descriptor for each.
func (f *metaModelFactory) NewMetaModel() rhizo.MetaModel {
	mm := rhizo.NewMetaModel()
	for _, s := range f.steps {
		if s.attr.Opaque || s.attr.ModelID {
			continue
		}
		target := mm.NewAttribute(s.attr.AttributeName)
		f.filler.Fill(target, s.attr.Descriptor(), s.attr.AttributeName, s.attr.AttributeLabel, s.entry.Kind)
	}
	return mm
}

type modelBridge struct {
	mapping *GeneratedMapping
	caps    *BridgeCapabilities
	steps   []conversionStep
}

func (b *modelBridge) Bridge(model any) (rhizo.NativeRecord, error) {
	t := b.mapping.ModelType()
	if model == nil {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeInvalidModel, "model is nil").WithModel(t.String())
	}
	v := reflect.ValueOf(model)
	if v.Type() != t {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeModelTypeMismatch,
			fmt.Sprintf("bridge converts %s, got %s", t, v.Type())).WithModel(t.String())
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeInvalidModel, "model is a nil pointer").WithModel(t.String())
	}

	conv := b.caps.NewConverter()
	conv.SetTarget(make(rhizo.NativeRecord, len(b.steps)+2))
	cv := reflect.ValueOf(conv)

	for _, s := range b.steps {
		value := v.Method(s.accessorIndex).Call(nil)[0]
		arg := adaptValue(value, s.entry.ValueType)
		setter := cv.Method(s.converterIndex)
		setter.Call([]reflect.Value{reflect.ValueOf(s.attr.AttributeName), arg})
		if s.attr.ModelID {
			setter.Call([]reflect.Value{reflect.ValueOf(rhizo.RecordIDKey), arg})
		}
	}

	record := conv.Target()
	if b.mapping.inspection.HasCustomAttributes {
		builder := conv.Builder()
		builder.SetTarget(record)
		model.(rhizo.CustomModel).SetCustomAttributes(builder)
		record = builder.Target()
	}

	bindModel(record, model)
	if b.mapping.opts.GenerateMissingIDs {
		ensureModelID(record)
	}
	return record, nil
}

// ExtractModel returns the bridged model. Pointer models come back as the
// same pointer; value models come back as the copy taken at Bridge time.
func (b *modelBridge) ExtractModel(record rhizo.NativeRecord) (any, bool) {
	m, ok := record.Model()
	if !ok || m == nil || reflect.TypeOf(m) != b.mapping.ModelType() {
		return nil, false
	}
	return m, true
}

// failedBridge reports a converter that could not be scanned.
type failedBridge struct {
	err error
}

func (b *failedBridge) Bridge(any) (rhizo.NativeRecord, error) {
	return nil, b.err
}

func (b *failedBridge) ExtractModel(rhizo.NativeRecord) (any, bool) {
	return nil, false
}

// adaptValue converts an accessor result to the converter's value type.
func adaptValue(v reflect.Value, target reflect.Type) reflect.Value {
	if v.Type() == target {
		return v
	}
	switch {
	case target == opaqueArrayType && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		if v.Kind() == reflect.Slice && v.IsNil() {
			return reflect.Zero(target)
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = v.Index(i).Interface()
		}
		return reflect.ValueOf(out)
	case target.Kind() == reflect.Interface:
		out := reflect.New(target).Elem()
		if isNilValue(v) {
			return out
		}
		out.Set(v)
		return out
	case v.Type().ConvertibleTo(target):
		return v.Convert(target)
	default:
		return reflect.Zero(target)
	}
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func bindModel(record rhizo.NativeRecord, model any) {
	record[rhizo.ModelRefKey] = model
}

// ensureModelID assigns a UUIDv7 when the record has no usable id.
func ensureModelID(record rhizo.NativeRecord) {
	switch id := record[rhizo.RecordIDKey].(type) {
	case nil:
	case string:
		if id != "" {
			return
		}
	default:
		return
	}
	generated, err := uuid.NewV7()
	if err != nil {
		record[rhizo.RecordIDKey] = uuid.NewString()
		return
	}
	record[rhizo.RecordIDKey] = generated.String()
}
