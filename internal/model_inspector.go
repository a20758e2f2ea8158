package internal

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/lychee-technology/rhizo"
	"go.uber.org/zap"
)

var (
	modelInterface       = reflect.TypeFor[rhizo.Model]()
	customModelInterface = reflect.TypeFor[rhizo.CustomModel]()
)

// MappableAttribute is an accessor exported to the visualization.
type MappableAttribute struct {
	AccessorName   string
	AttributeName  string
	AttributeLabel string
	Descriptor     rhizo.DescriptorFactory
	Opaque         bool
	ModelID        bool
	ReturnType     reflect.Type
}

// ModelInspection is the static analysis of a model type.
type ModelInspection struct {
	ModelType  reflect.Type
	Attributes []MappableAttribute
	// ModelID is the index in Attributes of the unique id accessor, or -1.
	ModelID             int
	HasCustomAttributes bool
}

// IDAttribute returns the unique id accessor, if any.
func (m *ModelInspection) IDAttribute() (MappableAttribute, bool) {
	if m.ModelID < 0 {
		return MappableAttribute{}, false
	}
	return m.Attributes[m.ModelID], true
}

// InspectModel analyzes the exported accessors of t. The result depends
// only on t's static shape and on caps.
func InspectModel(t reflect.Type, caps *BridgeCapabilities) (*ModelInspection, error) {
	if t == nil {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeNotAModel, "model type is nil")
	}
	if t.Kind() == reflect.Interface || !t.Implements(modelInterface) {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeNotAModel,
			"type does not implement rhizo.Model").WithModel(t.String())
	}

	tags := zeroModel(t).ModelAttributes()
	accessors := SortedKeys(tags)

	primitives := caps.MappablePrimitiveTypes()
	inspection := &ModelInspection{
		ModelType:           t,
		ModelID:             -1,
		HasCustomAttributes: t.Implements(customModelInterface),
	}
	seen := make(map[string]string, len(accessors))

	for _, accessor := range accessors {
		tag := tags[accessor]
		method, ok := t.MethodByName(accessor)
		if !ok {
			zap.S().Warnw("tagged accessor not found", "model", t.String(), "method", accessor)
			continue
		}
		if !isAccessor(method) {
			zap.S().Warnw("tagged method is not a zero-argument single-result accessor",
				"model", t.String(), "method", accessor, "signature", method.Type.String())
			continue
		}

		returnType := method.Type.Out(0)
		if err := verifyReturnType(caps, primitives, returnType); err != nil {
			zap.S().Errorw("unsupported accessor return type", "model", t.String(), "method", accessor, "type", returnType.String())
			return nil, err.WithModel(t.String()).WithMethod(accessor)
		}

		attr := MappableAttribute{
			AccessorName:   accessor,
			AttributeName:  tag.Name,
			AttributeLabel: tag.Label,
			Descriptor:     tag.Descriptor,
			Opaque:         tag.Opaque,
			ReturnType:     returnType,
		}
		if attr.AttributeName == "" {
			attr.AttributeName = DeriveAttributeName(accessor)
		}
		if attr.Descriptor == nil {
			attr.Descriptor = rhizo.NewEmptyDescriptor
		}
		if prev, dup := seen[attr.AttributeName]; dup {
			return nil, rhizo.NewConfigurationError(rhizo.ErrCodeDuplicateAttribute,
				fmt.Sprintf("attribute %q is produced by both %s and %s", attr.AttributeName, prev, accessor)).
				WithModel(t.String()).WithMethod(accessor)
		}
		seen[attr.AttributeName] = accessor

		if tag.ModelID {
			if inspection.ModelID < 0 {
				attr.ModelID = true
				inspection.ModelID = len(inspection.Attributes)
			} else {
				zap.S().Warnw("multiple model id accessors, keeping the first",
					"model", t.String(), "kept", inspection.Attributes[inspection.ModelID].AccessorName, "ignored", accessor)
			}
		}

		zap.S().Debugw("found model attribute", "model", t.String(), "method", accessor,
			"attribute", attr.AttributeName, "type", returnType.String(), "opaque", attr.Opaque, "modelId", attr.ModelID)
		inspection.Attributes = append(inspection.Attributes, attr)
	}

	if len(inspection.Attributes) == 0 && !inspection.HasCustomAttributes {
		return nil, rhizo.NewConfigurationError(rhizo.ErrCodeNoAttributes,
			"model exposes no attributes: tag at least one accessor in ModelAttributes or implement rhizo.CustomModel").
			WithModel(t.String())
	}
	return inspection, nil
}

// zeroModel returns a zero value of t as a rhizo.Model. Pointer types get a
// freshly allocated element so pointer receivers do not see nil.
func zeroModel(t reflect.Type) rhizo.Model {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(rhizo.Model)
	}
	return reflect.Zero(t).Interface().(rhizo.Model)
}

func isAccessor(m reflect.Method) bool {
	// In(0) is the receiver.
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1
}

// verifyReturnType rejects primitive return types, and slices or arrays of
// primitives, that have no dedicated converter. Other types are accepted
// and fall back to the opaque converters.
func verifyReturnType(caps *BridgeCapabilities, primitives map[reflect.Type]struct{}, t reflect.Type) *rhizo.RhizoError {
	if _, exact := caps.entries[t]; exact {
		return nil
	}
	checked := t
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		checked = t.Elem()
	}
	if !isPrimitive(checked) {
		return nil
	}
	if _, ok := primitives[basicType(checked)]; ok {
		return nil
	}
	return rhizo.NewConfigurationError(rhizo.ErrCodeUnsupportedReturnType,
		fmt.Sprintf("return type %s is not mappable; supported primitives: %s", t, primitiveNames(primitives))).
		WithDetail("returnType", t.String())
}

func primitiveNames(primitives map[reflect.Type]struct{}) string {
	names := make([]string, 0, len(primitives))
	for t := range primitives {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// DeriveAttributeName turns an accessor name into an attribute name: a Get
// or Is prefix is dropped when a new word follows it, then the leading word
// is lower-cased (GetFoo -> foo, IsFoo -> foo, Bar -> bar, URLPath -> urlPath).
func DeriveAttributeName(accessor string) string {
	name := accessor
	for _, prefix := range []string{"Get", "Is"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && rest != "" && startsWord(rest) {
			name = rest
			break
		}
	}
	return lowerLeadingWord(name)
}

func startsWord(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '_'
	}
	return false
}

// lowerLeadingWord lower-cases the first rune, or a whole leading acronym
// except for the rune that starts the next word.
func lowerLeadingWord(s string) string {
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if i > 0 && nextLower {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
