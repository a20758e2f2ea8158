package rhizo

// AttributeDescriptor customizes how a model attribute appears in the meta
// model. A descriptor opts into any subset of the Has* capabilities below;
// each one is detected independently.
type AttributeDescriptor interface{}

// DescriptorFactory builds a fresh descriptor. Mapping generation calls it
// once per attribute each time a meta model factory is constructed.
type DescriptorFactory func() AttributeDescriptor

// EmptyDescriptor implements no capability.
type EmptyDescriptor struct{}

// NewEmptyDescriptor is the default DescriptorFactory.
func NewEmptyDescriptor() AttributeDescriptor {
	return EmptyDescriptor{}
}

// HasKind overrides the kind derived from the attribute's Go type.
type HasKind interface {
	Kind() Kind
}

// HasKindFactory supplies a custom kind, and optionally a custom UI for it.
// It takes precedence over HasKind.
type HasKindFactory interface {
	KindFactory() KindFactory
	KindUIFactory() KindUIFactory
}

// HasLabel overrides the user-visible label.
type HasLabel interface {
	Label() string
}

// HasCategories lists the values of a CATEGORY attribute.
type HasCategories interface {
	Categories() []string
	Multiple() bool
	Hierarchy() bool
}

// HasLink marks the attribute as a reference to another model, optionally
// through a named target key.
type HasLink interface {
	IsLink() bool
	LinkKey() string
}

// HasRange sets the bounds of a numeric attribute.
type HasRange interface {
	MinRange() float64
	MaxRange() float64
	Stepping() float64
	Steps() float64
}

// HasPrecision sets the number of decimal digits shown for DECIMAL kinds.
type HasPrecision interface {
	Precision() int
}

// HasYearRange bounds a DATE attribute.
type HasYearRange interface {
	MinYear() int
	MaxYear() int
}

// HasDateClusterBy sets the clustering granularity of a DATE attribute.
type HasDateClusterBy interface {
	ClusterBy() DateCluster
}

// HasCustomParameters is applied last and may overwrite any field.
type HasCustomParameters interface {
	SetCustomParameters(target *Attribute)
}

// AttributeFiller fills a meta model attribute from its descriptor.
type AttributeFiller interface {
	Fill(target *Attribute, descriptor AttributeDescriptor, attrName, attrLabel string, kind Kind)
}
