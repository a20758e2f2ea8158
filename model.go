package rhizo

// AttributeTag marks an accessor method as an exported model attribute.
//
// Name and Label override the derived attribute name and label. Descriptor
// customizes the meta model entry; nil means EmptyDescriptor. Opaque
// attributes are set on native records but left out of the meta model.
// ModelID marks the accessor producing the unique model id.
type AttributeTag struct {
	Name       string
	Label      string
	Descriptor DescriptorFactory
	Opaque     bool
	ModelID    bool
}

// AttributeTags maps accessor method names to their tags.
type AttributeTags map[string]AttributeTag

// Model is implemented by application types exposed to the visualization.
// ModelAttributes is called once, on a zero value, while the mapping for the
// type is generated; it must not depend on instance state.
//
// Example:
//
//	func (p *Person) ModelAttributes() rhizo.AttributeTags {
//	    return rhizo.AttributeTags{
//	        "GetName":    {},
//	        "HeightInCm": {Name: "height", Label: "Height (cm)"},
//	        "Address":    {Opaque: true},
//	        "ID":         {ModelID: true},
//	    }
//	}
type Model interface {
	ModelAttributes() AttributeTags
}

// CustomModel lets a model set attributes that accessor inspection cannot
// derive. SetCustomAttributes runs after every tagged accessor, so it may
// overwrite their values.
type CustomModel interface {
	Model
	SetCustomAttributes(b *RecordBuilder)
}
