package rhizo

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Attribute field keys understood by the engine.
const (
	AttrKeyKind        = "kind"
	AttrKeyKindUI      = "kindUi"
	AttrKeyLabel       = "label"
	AttrKeyCategories  = "categories"
	AttrKeyMultiple    = "multiple"
	AttrKeyHierarchy   = "isHierarchy"
	AttrKeyIsLink      = "isLink"
	AttrKeyLinkKey     = "linkKey"
	AttrKeyMin         = "min"
	AttrKeyMax         = "max"
	AttrKeyStepping    = "stepping"
	AttrKeySteps       = "steps"
	AttrKeyPrecision   = "precision"
	AttrKeyMinYear     = "minYear"
	AttrKeyMaxYear     = "maxYear"
	AttrKeyDateCluster = "clusterby"
)

// KindFactory builds a custom, engine-native kind object.
type KindFactory func() any

// KindUIFactory builds the custom UI paired with a custom kind.
type KindUIFactory func() any

// Attribute describes a single meta model attribute. It is an open field
// map: typed setters cover the fields the engine knows about and Set is the
// escape hatch for everything else.
type Attribute struct {
	fields map[string]any
}

func newAttribute() *Attribute {
	return &Attribute{fields: make(map[string]any)}
}

// Set assigns an arbitrary field, overwriting any previous value.
func (a *Attribute) Set(key string, value any) *Attribute {
	a.fields[key] = value
	return a
}

// Get returns a field value.
func (a *Attribute) Get(key string) (any, bool) {
	v, ok := a.fields[key]
	return v, ok
}

// Has reports whether a field was configured.
func (a *Attribute) Has(key string) bool {
	_, ok := a.fields[key]
	return ok
}

// Fields returns a copy of every configured field.
func (a *Attribute) Fields() map[string]any {
	out := make(map[string]any, len(a.fields))
	for k, v := range a.fields {
		out[k] = v
	}
	return out
}

func (a *Attribute) SetKind(kind Kind) *Attribute {
	return a.Set(AttrKeyKind, kind)
}

// SetKindFromFactory installs a custom kind and, when uiFactory is not nil,
// its custom UI.
func (a *Attribute) SetKindFromFactory(factory KindFactory, uiFactory KindUIFactory) *Attribute {
	if factory != nil {
		a.Set(AttrKeyKind, factory())
	}
	if uiFactory != nil {
		a.Set(AttrKeyKindUI, uiFactory())
	}
	return a
}

// Kind returns the attribute kind. Custom kinds installed from a factory
// report KindOpaque; use KindValue to retrieve them.
func (a *Attribute) Kind() Kind {
	k, _ := a.fields[AttrKeyKind].(Kind)
	return k
}

// KindValue returns the raw kind field.
func (a *Attribute) KindValue() any {
	return a.fields[AttrKeyKind]
}

func (a *Attribute) SetLabel(label string) *Attribute {
	return a.Set(AttrKeyLabel, label)
}

func (a *Attribute) Label() string {
	l, _ := a.fields[AttrKeyLabel].(string)
	return l
}

func (a *Attribute) SetCategories(categories []string, multiple, hierarchy bool) *Attribute {
	cp := make([]string, len(categories))
	copy(cp, categories)
	a.Set(AttrKeyCategories, cp)
	a.Set(AttrKeyMultiple, multiple)
	return a.Set(AttrKeyHierarchy, hierarchy)
}

// Categories returns the configured category values, or nil.
func (a *Attribute) Categories() []string {
	c, _ := a.fields[AttrKeyCategories].([]string)
	return c
}

func (a *Attribute) SetLink(isLink bool, linkKey string) *Attribute {
	a.Set(AttrKeyIsLink, isLink)
	if linkKey != "" {
		a.Set(AttrKeyLinkKey, linkKey)
	}
	return a
}

// SetRange sets the numeric bounds. Stepping and steps are only recorded
// when positive.
func (a *Attribute) SetRange(min, max, stepping, steps float64) *Attribute {
	a.Set(AttrKeyMin, min)
	a.Set(AttrKeyMax, max)
	if stepping > 0 {
		a.Set(AttrKeyStepping, stepping)
	}
	if steps > 0 {
		a.Set(AttrKeySteps, steps)
	}
	return a
}

// Range returns the configured bounds, if any.
func (a *Attribute) Range() (min, max float64, ok bool) {
	min, okMin := a.fields[AttrKeyMin].(float64)
	max, okMax := a.fields[AttrKeyMax].(float64)
	return min, max, okMin && okMax
}

func (a *Attribute) SetPrecision(precision int) *Attribute {
	return a.Set(AttrKeyPrecision, precision)
}

func (a *Attribute) SetYearRange(minYear, maxYear int) *Attribute {
	a.Set(AttrKeyMinYear, minYear)
	return a.Set(AttrKeyMaxYear, maxYear)
}

func (a *Attribute) SetDateClusterBy(cluster DateCluster) *Attribute {
	return a.Set(AttrKeyDateCluster, cluster)
}

func (a *Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.fields)
}

// UnmarshalJSON restores an attribute written by MarshalJSON. Known kind
// names come back as Kind; custom kind objects stay generic JSON values.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	if name, ok := fields[AttrKeyKind].(string); ok {
		if kind, err := ParseKind(name); err == nil {
			fields[AttrKeyKind] = kind
		}
	}
	a.fields = fields
	return nil
}

// MetaModel is the schema the engine uses to drive filters, layouts and
// legends, keyed by attribute name.
type MetaModel map[string]*Attribute

// NewMetaModel returns an empty meta model.
func NewMetaModel() MetaModel {
	return make(MetaModel)
}

// NewAttribute creates the attribute name, replacing any existing one.
func (m MetaModel) NewAttribute(name string) *Attribute {
	attr := newAttribute()
	m[name] = attr
	return attr
}

// UnmarshalJSON decodes a meta model and rejects attributes that are not
// JSON objects, so every entry of a decoded meta model is non-nil.
func (m *MetaModel) UnmarshalJSON(data []byte) error {
	var attrs map[string]*Attribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	for name, attr := range attrs {
		if attr == nil {
			return NewValidationError(name, fmt.Sprintf("meta model attribute %q is null", name))
		}
	}
	*m = attrs
	return nil
}

// Names returns the attribute names in sorted order.
func (m MetaModel) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
