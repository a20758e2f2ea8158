package internal

import (
	"encoding/json"
	"fmt"

	"github.com/lychee-technology/rhizo"
)

// JSONObjectBridge bridges models that already are engine-shaped objects.
type JSONObjectBridge struct {
	generateIDs bool
}

// NewJSONObjectBridge returns a bridge for map[string]any models.
func NewJSONObjectBridge(generateIDs bool) *JSONObjectBridge {
	return &JSONObjectBridge{generateIDs: generateIDs}
}

var _ rhizo.ModelBridge = (*JSONObjectBridge)(nil)

func (b *JSONObjectBridge) Bridge(model any) (rhizo.NativeRecord, error) {
	obj, ok := model.(map[string]any)
	if !ok || obj == nil {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeModelTypeMismatch,
			fmt.Sprintf("expected a JSON object, got %T", model))
	}
	return finishJSONRecord(obj, model, b.generateIDs), nil
}

// ExtractModel returns the original map.
func (b *JSONObjectBridge) ExtractModel(record rhizo.NativeRecord) (any, bool) {
	m, ok := record.Model()
	if !ok {
		return nil, false
	}
	_, isObject := m.(map[string]any)
	return m, isObject
}

// JSONStringBridge bridges models given as JSON text. The text must parse
// strictly to a JSON object.
type JSONStringBridge struct {
	generateIDs bool
}

// NewJSONStringBridge returns a bridge for string models.
func NewJSONStringBridge(generateIDs bool) *JSONStringBridge {
	return &JSONStringBridge{generateIDs: generateIDs}
}

var _ rhizo.ModelBridge = (*JSONStringBridge)(nil)

func (b *JSONStringBridge) Bridge(model any) (rhizo.NativeRecord, error) {
	text, ok := model.(string)
	if !ok {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeModelTypeMismatch,
			fmt.Sprintf("expected a JSON string, got %T", model))
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeInvalidJSON, "model is not valid JSON").WithCause(err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, rhizo.NewConversionError(rhizo.ErrCodeInvalidJSON,
			fmt.Sprintf("model is not a JSON object (%s)", text))
	}
	return finishJSONRecord(obj, model, b.generateIDs), nil
}

// ExtractModel returns the original JSON text.
func (b *JSONStringBridge) ExtractModel(record rhizo.NativeRecord) (any, bool) {
	m, ok := record.Model()
	if !ok {
		return nil, false
	}
	_, isString := m.(string)
	return m, isString
}

func finishJSONRecord(obj map[string]any, model any, generateIDs bool) rhizo.NativeRecord {
	record := make(rhizo.NativeRecord, len(obj)+2)
	for k, v := range obj {
		record[k] = v
	}
	bindModel(record, model)
	if generateIDs {
		ensureModelID(record)
	}
	return record
}
