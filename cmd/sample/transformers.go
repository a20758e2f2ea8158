package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// trimMapper trims whitespace and optionally applies another mapper.
type trimMapper struct {
	inner FieldMapper
}

func (m *trimMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if m.inner != nil {
		return m.inner.Map(v)
	}
	return v, nil
}

// Trim returns a mapper that trims whitespace.
func Trim() FieldMapper {
	return &trimMapper{}
}

// TrimWith returns a mapper that trims whitespace and then applies the inner mapper.
func TrimWith(inner FieldMapper) FieldMapper {
	return &trimMapper{inner: inner}
}

// toIntMapper converts string to int.
type toIntMapper struct{}

func (m *toIntMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid integer format: %v", err)
	}
	return i, nil
}

// ToInt returns a mapper that converts string to int.
func ToInt() FieldMapper {
	return &toIntMapper{}
}

// toFloat64Mapper converts string to float64.
type toFloat64Mapper struct{}

func (m *toFloat64Mapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid float64 format: %v", err)
	}
	return f, nil
}

// ToFloat64 returns a mapper that converts string to float64.
func ToFloat64() FieldMapper {
	return &toFloat64Mapper{}
}

// toBoolMapper converts string to bool.
// Accepts: "true", "false", "1", "0", "yes", "no" (case-insensitive).
type toBoolMapper struct{}

func (m *toBoolMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(strings.ToLower(csvValue))
	if v == "" {
		return nil, nil
	}
	switch v {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return nil, fmt.Errorf("invalid boolean value: %q (expected true/false/1/0/yes/no)", csvValue)
	}
}

// ToBool returns a mapper that converts string to bool.
func ToBool() FieldMapper {
	return &toBoolMapper{}
}

// toDateMapper converts string to a UTC time.Time.
type toDateMapper struct {
	layouts []string
}

func (m *toDateMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return nil, nil
	}
	for _, layout := range m.layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("invalid date format (expected %s)", strings.Join(m.layouts, " or "))
}

// ToDate returns a mapper that parses dates with the first matching layout.
// Without layouts it accepts YYYY-MM-DD and RFC 3339.
func ToDate(layouts ...string) FieldMapper {
	if len(layouts) == 0 {
		layouts = []string{"2006-01-02", time.RFC3339}
	}
	return &toDateMapper{layouts: layouts}
}

// splitMapper splits a string by a separator.
type splitMapper struct {
	separator string
}

func (m *splitMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return []string{}, nil
	}
	parts := strings.Split(v, m.separator)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result, nil
}

// Split returns a mapper that splits a string by the specified separator.
func Split(separator string) FieldMapper {
	return &splitMapper{separator: separator}
}

// enumMapper validates that the value is one of the allowed values.
type enumMapper struct {
	allowed map[string]bool
}

func (m *enumMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return nil, nil
	}
	if !m.allowed[v] {
		keys := make([]string, 0, len(m.allowed))
		for k := range m.allowed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("invalid value %q: must be one of %v", csvValue, keys)
	}
	return v, nil
}

// Enum returns a mapper that validates the value is one of the allowed values.
func Enum(allowed ...string) FieldMapper {
	m := &enumMapper{allowed: make(map[string]bool)}
	for _, a := range allowed {
		m.allowed[a] = true
	}
	return m
}

// enumListMapper splits a value and validates every part.
type enumListMapper struct {
	split splitMapper
	enum  *enumMapper
}

func (m *enumListMapper) Map(csvValue string) (any, error) {
	parts, _ := m.split.Map(csvValue)
	values := parts.([]string)
	for _, v := range values {
		if _, err := m.enum.Map(v); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// EnumList returns a mapper that splits by separator and validates each
// part against the allowed values.
func EnumList(separator string, allowed ...string) FieldMapper {
	return &enumListMapper{
		split: splitMapper{separator: separator},
		enum:  Enum(allowed...).(*enumMapper),
	}
}

// defaultMapper provides a default value if the input is empty.
type defaultMapper struct {
	defaultValue any
	inner        FieldMapper
}

func (m *defaultMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" {
		return m.defaultValue, nil
	}
	if m.inner != nil {
		return m.inner.Map(csvValue)
	}
	return v, nil
}

// DefaultWith returns a mapper that uses a default value if empty, otherwise applies the inner mapper.
func DefaultWith(defaultValue any, inner FieldMapper) FieldMapper {
	return &defaultMapper{defaultValue: defaultValue, inner: inner}
}

// toPriceMapper converts price strings like "$43,500" to float64.
// Returns nil for "Price on request" or empty strings.
type toPriceMapper struct{}

func (m *toPriceMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" || strings.Contains(strings.ToLower(v), "request") {
		return nil, nil
	}

	v = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "").Replace(v)
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price format: %v", err)
	}
	return f, nil
}

// ToPrice returns a mapper that converts price strings (e.g., "$43,500") to float64.
func ToPrice() FieldMapper {
	return &toPriceMapper{}
}

// toYearMapper extracts year from strings like "2022", "2022 (Approximation)", "Unknown".
type toYearMapper struct{}

func (m *toYearMapper) Map(csvValue string) (any, error) {
	v := strings.TrimSpace(csvValue)
	if v == "" || strings.EqualFold(v, "unknown") {
		return nil, nil
	}

	yearStr := v
	if idx := strings.IndexAny(v, " ("); idx > 0 {
		yearStr = v[:idx]
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, nil
	}
	if year < 1000 || year > 2100 {
		return nil, fmt.Errorf("year out of range: %d", year)
	}
	return year, nil
}

// ToYear returns a mapper that extracts a year from strings like "2022"
// or "2022 (Approximation)". "Unknown" and unparseable values yield nil.
func ToYear() FieldMapper {
	return &toYearMapper{}
}
