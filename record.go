package rhizo

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// RecordIDKey is the reserved key holding the unique model id.
	RecordIDKey = "id"

	// ModelRefKey holds the hidden back-reference to the bridged model.
	ModelRefKey = "__rhizo_model"

	hiddenKeyPrefix = "__"
)

// NativeRecord is the open key-value structure the visualization engine
// consumes in place of application objects.
type NativeRecord map[string]any

// ID returns the record id, if one was assigned.
func (r NativeRecord) ID() (any, bool) {
	id, ok := r[RecordIDKey]
	return id, ok && id != nil
}

// Model returns the hidden back-reference to the bridged model.
func (r NativeRecord) Model() (any, bool) {
	m, ok := r[ModelRefKey]
	return m, ok
}

// Fields returns a copy of the record without hidden keys.
func (r NativeRecord) Fields() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if strings.HasPrefix(k, hiddenKeyPrefix) {
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON drops hidden keys so the back-reference never leaves the process.
func (r NativeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

// BridgeTag declares a converter method and the kind of the values it sets.
// The zero value declares an opaque converter.
type BridgeTag struct {
	Kind Kind
}

// Converter is the runtime value-setting bridge. Mapping generation reflects
// over the converter's method set: every method listed in BridgeTags with
// the shape func(name string, value V) becomes the converter for type V.
type Converter interface {
	SetTarget(target NativeRecord)
	Target() NativeRecord
	BridgeTags() map[string]BridgeTag
	Builder() *RecordBuilder
}

// RecordBuilder assigns converted values onto a NativeRecord. Custom
// converters embed it and extend its BridgeTags.
type RecordBuilder struct {
	target NativeRecord
}

// NewRecordBuilder returns the default Converter.
func NewRecordBuilder() Converter {
	return &RecordBuilder{}
}

var recordBuilderTags = map[string]BridgeTag{
	"SetInt":         {Kind: KindNumber},
	"SetInt32":       {Kind: KindNumber},
	"SetInt64":       {Kind: KindNumber},
	"SetFloat32":     {Kind: KindDecimal},
	"SetFloat64":     {Kind: KindDecimal},
	"SetBool":        {Kind: KindBoolean},
	"SetString":      {Kind: KindString},
	"SetTime":        {Kind: KindDate},
	"SetStrings":     {Kind: KindStringArray},
	"SetRaw":         {},
	"SetObject":      {},
	"SetObjectArray": {},
}

// BridgeTags returns the kind tags of the converter methods, keyed by method name.
func (b *RecordBuilder) BridgeTags() map[string]BridgeTag {
	out := make(map[string]BridgeTag, len(recordBuilderTags))
	for k, v := range recordBuilderTags {
		out[k] = v
	}
	return out
}

// SetTarget sets the record that this builder will populate.
func (b *RecordBuilder) SetTarget(target NativeRecord) {
	b.target = target
}

// Target returns the record being populated.
func (b *RecordBuilder) Target() NativeRecord {
	return b.target
}

// Builder returns b. Converters embedding RecordBuilder inherit it.
func (b *RecordBuilder) Builder() *RecordBuilder {
	return b
}

func (b *RecordBuilder) set(attribute string, value any) {
	if b.target == nil {
		b.target = make(NativeRecord)
	}
	b.target[attribute] = value
}

func (b *RecordBuilder) SetInt(attribute string, value int) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetInt32(attribute string, value int32) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetInt64(attribute string, value int64) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetFloat32(attribute string, value float32) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetFloat64(attribute string, value float64) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetBool(attribute string, value bool) {
	b.set(attribute, value)
}

func (b *RecordBuilder) SetString(attribute string, value string) {
	b.set(attribute, value)
}

// SetTime stores dates in UTC; the zero time is stored as nil.
func (b *RecordBuilder) SetTime(attribute string, value time.Time) {
	if value.IsZero() {
		b.set(attribute, nil)
		return
	}
	b.set(attribute, value.UTC())
}

func (b *RecordBuilder) SetStrings(attribute string, value []string) {
	if value == nil {
		b.set(attribute, nil)
		return
	}
	cp := make([]string, len(value))
	copy(cp, value)
	b.set(attribute, cp)
}

// SetRaw stores an engine-native JSON value untouched.
func (b *RecordBuilder) SetRaw(attribute string, value json.RawMessage) {
	b.set(attribute, value)
}

// SetObject stores an opaque value. It is the fallback for every type
// without a dedicated converter.
func (b *RecordBuilder) SetObject(attribute string, value any) {
	b.set(attribute, value)
}

// SetObjectArray stores an opaque array. It is the fallback for slices and
// arrays without a dedicated converter.
func (b *RecordBuilder) SetObjectArray(attribute string, value []any) {
	if value == nil {
		b.set(attribute, nil)
		return
	}
	b.set(attribute, value)
}
