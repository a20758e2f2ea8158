package internal

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/rhizo"
)

// MetaModelToJSONSchema describes the records of a meta model as a JSON
// Schema. Every attribute is nullable; attributes with an opaque or custom
// kind accept any value. Keys outside the meta model are allowed since
// opaque and custom attributes are carried on records too.
func MetaModelToJSONSchema(modelType string, mm rhizo.MetaModel) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Title:      modelType,
		Properties: make(map[string]*jsonschema.Schema, len(mm)+1),
	}
	schema.Properties[rhizo.RecordIDKey] = &jsonschema.Schema{Types: []string{"string", "number", "null"}}

	for _, name := range mm.Names() {
		schema.Properties[name] = attributeSchema(mm[name])
		schema.Required = append(schema.Required, name)
	}
	return schema
}

func attributeSchema(attr *rhizo.Attribute) *jsonschema.Schema {
	s := &jsonschema.Schema{Title: attr.Label()}

	switch attr.Kind() {
	case rhizo.KindBoolean:
		s.Types = []string{"boolean", "null"}
	case rhizo.KindString:
		s.Types = []string{"string", "null"}
	case rhizo.KindNumber, rhizo.KindDecimal, rhizo.KindRange, rhizo.KindDecimalRange, rhizo.KindLogarithmRange:
		s.Types = []string{"number", "null"}
		if minV, maxV, ok := attr.Range(); ok {
			s.Minimum = ptr(minV)
			s.Maximum = ptr(maxV)
		}
	case rhizo.KindDate:
		s.Types = []string{"string", "null"}
		s.Format = "date-time"
		if minYear, ok := attr.Get(rhizo.AttrKeyMinYear); ok {
			maxYear, _ := attr.Get(rhizo.AttrKeyMaxYear)
			s.Description = fmt.Sprintf("years %v to %v", minYear, maxYear)
		}
	case rhizo.KindStringArray:
		s.Types = []string{"array", "null"}
		s.Items = &jsonschema.Schema{Type: "string"}
	case rhizo.KindCategory:
		s = categorySchema(attr, s)
	}
	return s
}

func categorySchema(attr *rhizo.Attribute, s *jsonschema.Schema) *jsonschema.Schema {
	categories := attr.Categories()
	multiple, _ := attr.Get(rhizo.AttrKeyMultiple)
	enum := make([]any, 0, len(categories)+1)
	for _, c := range categories {
		enum = append(enum, c)
	}

	if isMultiple, _ := multiple.(bool); isMultiple {
		s.Types = []string{"array", "null"}
		s.Items = &jsonschema.Schema{Type: "string"}
		if len(enum) > 0 {
			s.Items.Enum = enum
		}
		return s
	}
	s.Types = []string{"string", "null"}
	if len(enum) > 0 {
		s.Enum = append(enum, nil)
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}

// RecordValidator checks native records against the JSON Schema of a meta
// model.
type RecordValidator struct {
	modelType string
	resolved  *jsonschema.Resolved
}

// NewRecordValidator resolves the schema of mm once.
func NewRecordValidator(modelType string, mm rhizo.MetaModel) (*RecordValidator, error) {
	schema := MetaModelToJSONSchema(modelType, mm)
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON schema for %s: %w", modelType, err)
	}
	return &RecordValidator{modelType: modelType, resolved: resolved}, nil
}

// Validate normalizes record through JSON, dropping hidden keys, and checks
// it against the schema.
func (v *RecordValidator) Validate(record rhizo.NativeRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return rhizo.NewConversionError(rhizo.ErrCodeInvalidJSON, "record is not JSON encodable").
			WithModel(v.modelType).WithCause(err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	if err := v.resolved.Validate(normalized); err != nil {
		id, _ := record.ID()
		return rhizo.NewValidationError(fmt.Sprint(id), "record does not match the meta model").
			WithModel(v.modelType).WithCause(err)
	}
	return nil
}

// ValidateDataset validates every record of ds and stops at the first
// failure.
func ValidateDataset(ds *rhizo.Dataset) error {
	v, err := NewRecordValidator(ds.ModelType, ds.MetaModel)
	if err != nil {
		return err
	}
	for i, rec := range ds.Records {
		if err := v.Validate(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
