package internal

import (
	"reflect"
	"testing"

	"github.com/lychee-technology/rhizo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAttributeName(t *testing.T) {
	tests := []struct {
		accessor string
		want     string
	}{
		{"GetFoo", "foo"},
		{"IsFoo", "foo"},
		{"Bar", "bar"},
		{"GetID", "id"},
		{"ID", "id"},
		{"URLPath", "urlPath"},
		{"GetHTTPServer", "httpServer"},
		{"Get", "get"},
		{"Is", "is"},
		{"Issue", "issue"},
		{"Getaway", "getaway"},
		{"Get2FA", "2FA"},
		{"X", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.accessor, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveAttributeName(tt.accessor))
		})
	}
}

func TestInspectModel_Person(t *testing.T) {
	inspection, err := InspectModel(reflect.TypeFor[*person](), defaultCaps(t))
	require.NoError(t, err)

	names := attributeNames(inspection)
	assert.Equal(t, []string{"age", "name", "id"}, names)
	assert.False(t, inspection.HasCustomAttributes)

	id, ok := inspection.IDAttribute()
	require.True(t, ok)
	assert.Equal(t, "ID", id.AccessorName)
	assert.True(t, id.ModelID)
	assert.Equal(t, reflect.TypeFor[string](), id.ReturnType)
}

func TestInspectModel_ExplicitNameWins(t *testing.T) {
	inspection, err := InspectModel(reflect.TypeFor[*employee](), defaultCaps(t))
	require.NoError(t, err)

	attr := findAttribute(t, inspection, "HiredOn")
	assert.Equal(t, "hired", attr.AttributeName)
	assert.Equal(t, "Hire date", attr.AttributeLabel)

	assert.Equal(t, "active", findAttribute(t, inspection, "IsActive").AttributeName)
	assert.True(t, findAttribute(t, inspection, "Address").Opaque)

	for _, a := range inspection.Attributes {
		assert.NotEqual(t, "NotExported", a.AccessorName)
		assert.NotNil(t, a.Descriptor, "descriptor defaults for %s", a.AccessorName)
	}
}

func TestInspectModel_CustomAttributes(t *testing.T) {
	t.Run("value receiver with accessors", func(t *testing.T) {
		inspection, err := InspectModel(reflect.TypeFor[book](), defaultCaps(t))
		require.NoError(t, err)
		assert.True(t, inspection.HasCustomAttributes)
		assert.Len(t, inspection.Attributes, 1)
	})

	t.Run("custom attributes only", func(t *testing.T) {
		inspection, err := InspectModel(reflect.TypeFor[*customOnly](), defaultCaps(t))
		require.NoError(t, err)
		assert.True(t, inspection.HasCustomAttributes)
		assert.Empty(t, inspection.Attributes)
		assert.Equal(t, -1, inspection.ModelID)
	})
}

func TestInspectModel_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		modelType reflect.Type
		code      string
		contains  string
	}{
		{"no attributes", reflect.TypeFor[emptyModel](), rhizo.ErrCodeNoAttributes, "emptyModel"},
		{"unsupported primitive", reflect.TypeFor[unsignedCounter](), rhizo.ErrCodeUnsupportedReturnType, "unsignedCounter::Count"},
		{"unsupported array element", reflect.TypeFor[unsignedSlice](), rhizo.ErrCodeUnsupportedReturnType, "Counts"},
		{"not a model", reflect.TypeFor[notAModel](), rhizo.ErrCodeNotAModel, "notAModel"},
		{"pointer receivers on value type", reflect.TypeFor[person](), rhizo.ErrCodeNotAModel, "person"},
		{"interface type", reflect.TypeFor[rhizo.Model](), rhizo.ErrCodeNotAModel, "Model"},
		{"duplicate names", reflect.TypeFor[duplicateNames](), rhizo.ErrCodeDuplicateAttribute, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InspectModel(tt.modelType, defaultCaps(t))
			require.Error(t, err)
			assert.True(t, rhizo.IsConfigurationError(err))
			assert.Equal(t, tt.code, rhizo.ErrorCode(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestInspectModel_UnsupportedTypeNamesAccessor(t *testing.T) {
	_, err := InspectModel(reflect.TypeFor[unsignedCounter](), defaultCaps(t))
	require.Error(t, err)

	var rerr *rhizo.RhizoError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Count", rerr.Method)
	assert.Equal(t, "uint", rerr.Details["returnType"])
}

func TestInspectModel_NamedAndCompositeTypes(t *testing.T) {
	inspection, err := InspectModel(reflect.TypeFor[namedTypes](), defaultCaps(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"err", "age", "tags", "grid"}, attributeNames(inspection))
}

func TestInspectModel_FirstModelIDWins(t *testing.T) {
	inspection, err := InspectModel(reflect.TypeFor[twoIDs](), defaultCaps(t))
	require.NoError(t, err)

	id, ok := inspection.IDAttribute()
	require.True(t, ok)
	assert.Equal(t, "Code", id.AccessorName)
	assert.False(t, findAttribute(t, inspection, "Key").ModelID)
}

func TestInspectModel_SkipsMalformedTags(t *testing.T) {
	inspection, err := InspectModel(reflect.TypeFor[brokenTags](), defaultCaps(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, attributeNames(inspection))
}

func TestInspectModel_Deterministic(t *testing.T) {
	caps := defaultCaps(t)
	first, err := InspectModel(reflect.TypeFor[*employee](), caps)
	require.NoError(t, err)
	second, err := InspectModel(reflect.TypeFor[*employee](), caps)
	require.NoError(t, err)

	assert.Equal(t, attributeNames(first), attributeNames(second))
	assert.Equal(t, first.ModelID, second.ModelID)
}

func attributeNames(inspection *ModelInspection) []string {
	names := make([]string, 0, len(inspection.Attributes))
	for _, a := range inspection.Attributes {
		names = append(names, a.AttributeName)
	}
	return names
}

func findAttribute(t *testing.T, inspection *ModelInspection, accessor string) MappableAttribute {
	t.Helper()
	for _, a := range inspection.Attributes {
		if a.AccessorName == accessor {
			return a
		}
	}
	require.Failf(t, "attribute not found", "accessor %s", accessor)
	return MappableAttribute{}
}
