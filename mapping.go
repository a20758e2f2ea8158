package rhizo

import (
	"fmt"
	"reflect"
)

// ModelBridge converts model instances to native records and back.
type ModelBridge interface {
	// Bridge converts model into a native record carrying a hidden
	// back-reference to model.
	Bridge(model any) (NativeRecord, error)
	// ExtractModel returns the model a record was bridged from.
	ExtractModel(record NativeRecord) (any, bool)
}

// MetaModelFactory builds the meta model describing a model type.
type MetaModelFactory interface {
	NewMetaModel() MetaModel
}

// Mapping bundles the adapters generated for one model type.
type Mapping interface {
	ModelType() reflect.Type
	// NewModelBridge returns a bridge using newConverter to build native
	// records. A nil newConverter uses the converter the mapping was
	// generated against.
	NewModelBridge(newConverter func() Converter) ModelBridge
	// NewMetaModelFactory returns a factory filling attributes with filler.
	// A nil filler uses the default attribute builder.
	NewMetaModelFactory(filler AttributeFiller) MetaModelFactory
}

// MappingRegistry resolves the mapping of a model type, generating it on
// first use.
type MappingRegistry interface {
	MappingFor(modelType reflect.Type) (Mapping, error)
}

// MappingOf resolves the mapping for T.
func MappingOf[T any](registry MappingRegistry) (Mapping, error) {
	return registry.MappingFor(reflect.TypeFor[T]())
}

// TypedBridge is a ModelBridge bound to a static model type.
type TypedBridge[T any] struct {
	bridge ModelBridge
}

// NewTypedBridge binds the default bridge of mapping to T. It fails when
// the mapping was generated for a different type.
func NewTypedBridge[T any](mapping Mapping) (*TypedBridge[T], error) {
	want := reflect.TypeFor[T]()
	if mapping.ModelType() != want {
		return nil, NewConversionError(ErrCodeModelTypeMismatch,
			fmt.Sprintf("mapping generated for %s, not %s", mapping.ModelType(), want)).
			WithModel(want.String())
	}
	return &TypedBridge[T]{bridge: mapping.NewModelBridge(nil)}, nil
}

// ToNative converts model into a native record.
func (b *TypedBridge[T]) ToNative(model T) (NativeRecord, error) {
	return b.bridge.Bridge(model)
}

// FromNative returns the model a record was bridged from.
func (b *TypedBridge[T]) FromNative(record NativeRecord) (T, bool) {
	var zero T
	m, ok := b.bridge.ExtractModel(record)
	if !ok {
		return zero, false
	}
	typed, ok := m.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
