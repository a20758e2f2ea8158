package main

import (
	"fmt"
	"strings"
)

// FieldMapper defines the interface for transforming a CSV field value to a typed model value.
type FieldMapper interface {
	// Map transforms a CSV string value to the target type. A nil result
	// leaves the field unset.
	Map(csvValue string) (any, error)
}

// FieldMapping describes a single field mapping from CSV column to model field.
type FieldMapping struct {
	CSVColumn string      // CSV column name
	Field     string      // Model field key passed to the model constructor
	Mapper    FieldMapper // Transformer for the field
	Required  bool        // Whether this field is required
}

// CSVRowMapper maps CSV records to the field values a model is built from.
type CSVRowMapper interface {
	// ModelName returns the name of the target model.
	ModelName() string

	// Mappings returns all field mappings.
	Mappings() []FieldMapping

	// MapRecord transforms a CSV record (column->value) to typed field values.
	MapRecord(csvRecord map[string]string) (map[string]any, error)
}

// MapperBuilder provides a fluent API for building CSV row mappers.
type MapperBuilder struct {
	modelName string
	mappings  []FieldMapping
}

// NewMapperBuilder creates a new MapperBuilder for the specified model.
func NewMapperBuilder(modelName string) *MapperBuilder {
	return &MapperBuilder{
		modelName: modelName,
		mappings:  make([]FieldMapping, 0),
	}
}

// Map adds a trimmed string mapping.
func (b *MapperBuilder) Map(csvColumn, field string) *MapperBuilder {
	return b.add(csvColumn, field, Trim(), false)
}

// MapWith adds a mapping with a custom transformer.
func (b *MapperBuilder) MapWith(csvColumn, field string, mapper FieldMapper) *MapperBuilder {
	return b.add(csvColumn, field, mapper, false)
}

// Required adds a required trimmed string mapping.
func (b *MapperBuilder) Required(csvColumn, field string) *MapperBuilder {
	return b.add(csvColumn, field, Trim(), true)
}

// RequiredWith adds a required field mapping with a custom transformer.
func (b *MapperBuilder) RequiredWith(csvColumn, field string, mapper FieldMapper) *MapperBuilder {
	return b.add(csvColumn, field, mapper, true)
}

func (b *MapperBuilder) add(csvColumn, field string, mapper FieldMapper, required bool) *MapperBuilder {
	b.mappings = append(b.mappings, FieldMapping{
		CSVColumn: csvColumn,
		Field:     field,
		Mapper:    mapper,
		Required:  required,
	})
	return b
}

// Build creates the CSVRowMapper from the builder configuration.
func (b *MapperBuilder) Build() CSVRowMapper {
	return &rowMapper{
		modelName: b.modelName,
		mappings:  b.mappings,
	}
}

// rowMapper implements CSVRowMapper.
type rowMapper struct {
	modelName string
	mappings  []FieldMapping
}

func (m *rowMapper) ModelName() string {
	return m.modelName
}

func (m *rowMapper) Mappings() []FieldMapping {
	return m.mappings
}

func (m *rowMapper) MapRecord(csvRecord map[string]string) (map[string]any, error) {
	result := make(map[string]any, len(m.mappings))
	for _, mapping := range m.mappings {
		csvValue, exists := csvRecord[mapping.CSVColumn]
		empty := !exists || strings.TrimSpace(csvValue) == ""

		if mapping.Required && empty {
			return nil, &MappingError{
				CSVColumn: mapping.CSVColumn,
				Field:     mapping.Field,
				RawValue:  csvValue,
				Reason:    "required field is empty",
			}
		}

		// Default mappers still see empty optional fields.
		if empty {
			if _, ok := mapping.Mapper.(*defaultMapper); !ok {
				continue
			}
		}

		value, err := mapping.Mapper.Map(csvValue)
		if err != nil {
			return nil, &MappingError{
				CSVColumn: mapping.CSVColumn,
				Field:     mapping.Field,
				RawValue:  csvValue,
				Reason:    err.Error(),
			}
		}
		if value != nil {
			result[mapping.Field] = value
		}
	}

	return result, nil
}

// MappingError represents an error that occurred during field mapping.
type MappingError struct {
	CSVColumn string
	Field     string
	RawValue  string
	Reason    string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("column %q -> field %q: value %q - %s",
		e.CSVColumn, e.Field, e.RawValue, e.Reason)
}
