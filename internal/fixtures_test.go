package internal

import (
	"encoding/json"
	"time"

	"github.com/lychee-technology/rhizo"
)

type ageDescriptor struct{}

func (ageDescriptor) Kind() rhizo.Kind            { return rhizo.KindRange }
func (ageDescriptor) MinRange() float64           { return 0 }
func (ageDescriptor) MaxRange() float64           { return 100 }
func (ageDescriptor) Stepping() float64           { return 0 }
func (ageDescriptor) Steps() float64              { return 0 }
func newAgeDescriptor() rhizo.AttributeDescriptor { return ageDescriptor{} }

type person struct {
	name string
	age  int
	id   string
}

func (p *person) GetName() string { return p.name }
func (p *person) GetAge() int     { return p.age }
func (p *person) ID() string      { return p.id }

func (p *person) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"GetName": {},
		"GetAge":  {Descriptor: newAgeDescriptor},
		"ID":      {ModelID: true},
	}
}

type address struct {
	Street string
	City   string
}

type employee struct {
	person
	address  *address
	hired    time.Time
	skills   []string
	manager  string
	active   bool
	ratings  []float64
	extraRaw json.RawMessage
}

func (e *employee) Address() *address         { return e.address }
func (e *employee) HiredOn() time.Time        { return e.hired }
func (e *employee) Skills() []string          { return e.skills }
func (e *employee) Manager() string           { return e.manager }
func (e *employee) IsActive() bool            { return e.active }
func (e *employee) Ratings() []float64        { return e.ratings }
func (e *employee) Extra() json.RawMessage    { return e.extraRaw }
func (e *employee) NotExported() string       { return "hidden" }
func (e *employee) SetManager(manager string) { e.manager = manager }

func (e *employee) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"GetName":  {},
		"GetAge":   {Descriptor: newAgeDescriptor},
		"ID":       {ModelID: true},
		"Address":  {Opaque: true},
		"HiredOn":  {Name: "hired", Label: "Hire date"},
		"Skills":   {},
		"Manager":  {Descriptor: func() rhizo.AttributeDescriptor { return linkDescriptor{} }},
		"IsActive": {},
		"Ratings":  {},
		"Extra":    {Opaque: true},
	}
}

type linkDescriptor struct{}

func (linkDescriptor) IsLink() bool    { return true }
func (linkDescriptor) LinkKey() string { return "" }

// book is a value-receiver model with custom attributes.
type book struct {
	Title  string
	Genres []string
}

func (b book) GetTitle() string { return b.Title }

func (b book) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{"GetTitle": {}}
}

func (b book) SetCustomAttributes(builder *rhizo.RecordBuilder) {
	builder.SetInt("genreCount", len(b.Genres))
	builder.SetString("title", "overwritten "+b.Title)
}

// customOnly exposes attributes only through SetCustomAttributes.
type customOnly struct {
	value int
}

func (c *customOnly) ModelAttributes() rhizo.AttributeTags { return nil }

func (c *customOnly) SetCustomAttributes(builder *rhizo.RecordBuilder) {
	builder.SetInt("value", c.value)
}

type emptyModel struct{}

func (emptyModel) ModelAttributes() rhizo.AttributeTags { return nil }

type unsignedCounter struct{}

func (unsignedCounter) Count() uint { return 1 }

func (unsignedCounter) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{"Count": {}}
}

type unsignedSlice struct{}

func (unsignedSlice) Counts() []uint16 { return nil }

func (unsignedSlice) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{"Counts": {}}
}

type notAModel struct{}

func (notAModel) GetName() string { return "x" }

type age int

type tags []string

type namedTypes struct{}

func (namedTypes) GetAge() age   { return 42 }
func (namedTypes) GetTags() tags { return tags{"a", "b"} }
func (namedTypes) Bytes() []byte { return []byte{1} }
func (namedTypes) Grid() [2]int  { return [2]int{1, 2} }
func (namedTypes) Err() error    { return nil }

func (namedTypes) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"GetAge":  {},
		"GetTags": {},
		"Grid":    {},
		"Err":     {},
	}
}

type twoIDs struct{}

func (twoIDs) Code() string { return "" }
func (twoIDs) Key() string  { return "k-1" }

func (twoIDs) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"Key":  {ModelID: true},
		"Code": {ModelID: true},
	}
}

type duplicateNames struct{}

func (duplicateNames) GetColor() string { return "red" }
func (duplicateNames) Color() string    { return "blue" }

func (duplicateNames) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{"GetColor": {}, "Color": {}}
}

type brokenTags struct{}

func (brokenTags) Name() string { return "n" }
func (brokenTags) Rename(string) {}
func (brokenTags) Pair() (string, error) { return "", nil }

func (brokenTags) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"Name":    {},
		"Rename":  {},
		"Pair":    {},
		"Missing": {},
	}
}

// noFallbackConverter lacks the opaque array converter.
type noFallbackConverter struct {
	target rhizo.NativeRecord
}

func (c *noFallbackConverter) SetTarget(t rhizo.NativeRecord) { c.target = t }
func (c *noFallbackConverter) Target() rhizo.NativeRecord     { return c.target }
func (c *noFallbackConverter) Builder() *rhizo.RecordBuilder  { return &rhizo.RecordBuilder{} }
func (c *noFallbackConverter) SetObject(name string, v any)   { c.target[name] = v }
func (c *noFallbackConverter) BridgeTags() map[string]rhizo.BridgeTag {
	return map[string]rhizo.BridgeTag{"SetObject": {}}
}

// textConverter has the opaque fallbacks and a string converter only.
type textConverter struct {
	target rhizo.NativeRecord
}

func newTextConverter() rhizo.Converter { return &textConverter{} }

func (c *textConverter) SetTarget(t rhizo.NativeRecord)      { c.target = t }
func (c *textConverter) Target() rhizo.NativeRecord          { return c.target }
func (c *textConverter) Builder() *rhizo.RecordBuilder       { return &rhizo.RecordBuilder{} }
func (c *textConverter) SetString(name string, v string)     { c.target[name] = v }
func (c *textConverter) SetObject(name string, v any)        { c.target[name] = v }
func (c *textConverter) SetObjectArray(name string, v []any) { c.target[name] = v }
func (c *textConverter) BridgeTags() map[string]rhizo.BridgeTag {
	return map[string]rhizo.BridgeTag{
		"SetString":      {Kind: rhizo.KindString},
		"SetObject":      {},
		"SetObjectArray": {},
	}
}

// upperConverter extends the default converter: strings are upper-cased
// and durations get a converter of their own.
type upperConverter struct {
	rhizo.RecordBuilder
}

func newUpperConverter() rhizo.Converter { return &upperConverter{} }

func (c *upperConverter) SetString(name string, value string) {
	c.Builder().SetObject(name, "UP:"+value)
}

func (c *upperConverter) SetDuration(name string, value time.Duration) {
	c.Builder().SetFloat64(name, value.Seconds())
}

func (c *upperConverter) BridgeTags() map[string]rhizo.BridgeTag {
	out := c.RecordBuilder.BridgeTags()
	out["SetDuration"] = rhizo.BridgeTag{Kind: rhizo.KindDecimal}
	return out
}
