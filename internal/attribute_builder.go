package internal

import (
	"unicode"
	"unicode/utf8"

	"github.com/lychee-technology/rhizo"
)

// AttributeBuilder fills meta model attributes by probing descriptors for
// the rhizo.Has* capabilities.
type AttributeBuilder struct{}

// NewAttributeBuilder returns the default rhizo.AttributeFiller.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{}
}

var _ rhizo.AttributeFiller = (*AttributeBuilder)(nil)

// Fill configures target from descriptor. Capabilities the descriptor does
// not implement leave their fields unset. HasCustomParameters runs last.
func (b *AttributeBuilder) Fill(target *rhizo.Attribute, descriptor rhizo.AttributeDescriptor, attrName, attrLabel string, kind rhizo.Kind) {
	b.setKind(target, descriptor, kind)
	b.setLabel(target, descriptor, attrName, attrLabel)

	if d, ok := descriptor.(rhizo.HasCategories); ok {
		target.SetCategories(d.Categories(), d.Multiple(), d.Hierarchy())
	}
	if d, ok := descriptor.(rhizo.HasLink); ok {
		target.SetLink(d.IsLink(), d.LinkKey())
	}
	if d, ok := descriptor.(rhizo.HasRange); ok {
		target.SetRange(d.MinRange(), d.MaxRange(), d.Stepping(), d.Steps())
	}
	if d, ok := descriptor.(rhizo.HasPrecision); ok {
		target.SetPrecision(d.Precision())
	}
	if d, ok := descriptor.(rhizo.HasYearRange); ok {
		target.SetYearRange(d.MinYear(), d.MaxYear())
	}
	if d, ok := descriptor.(rhizo.HasDateClusterBy); ok {
		target.SetDateClusterBy(d.ClusterBy())
	}
	if d, ok := descriptor.(rhizo.HasCustomParameters); ok {
		d.SetCustomParameters(target)
	}
}

func (b *AttributeBuilder) setKind(target *rhizo.Attribute, descriptor rhizo.AttributeDescriptor, kind rhizo.Kind) {
	if d, ok := descriptor.(rhizo.HasKindFactory); ok && d.KindFactory() != nil {
		target.SetKindFromFactory(d.KindFactory(), d.KindUIFactory())
		return
	}
	if d, ok := descriptor.(rhizo.HasKind); ok {
		target.SetKind(d.Kind())
		return
	}
	target.SetKind(kind)
}

func (b *AttributeBuilder) setLabel(target *rhizo.Attribute, descriptor rhizo.AttributeDescriptor, attrName, attrLabel string) {
	switch d, ok := descriptor.(rhizo.HasLabel); {
	case ok:
		target.SetLabel(d.Label())
	case attrLabel != "":
		target.SetLabel(attrLabel)
	default:
		target.SetLabel(capitalize(attrName))
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
