package main

import (
	"time"

	"github.com/lychee-technology/rhizo"
)

// Person is the simplest sample model: a name, an age range and tags.
type Person struct {
	id    string
	name  string
	age   int
	email string
	tags  []string
}

func (p *Person) ID() string      { return p.id }
func (p *Person) GetName() string { return p.name }
func (p *Person) GetAge() int     { return p.age }
func (p *Person) Email() string   { return p.email }
func (p *Person) Tags() []string  { return p.tags }

func (p *Person) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"ID":      {ModelID: true},
		"GetName": {},
		"GetAge":  {Descriptor: newAgeDescriptor},
		"Email":   {Opaque: true},
		"Tags":    {},
	}
}

func newPerson(values map[string]any) *Person {
	return &Person{
		id:    stringOf(values, "id"),
		name:  stringOf(values, "name"),
		age:   intOf(values, "age"),
		email: stringOf(values, "email"),
		tags:  stringsOf(values, "tags"),
	}
}

// Employee links to its manager and sits in a department hierarchy.
type Employee struct {
	Person
	department string
	manager    string
	hired      time.Time
	salary     float64
	active     bool
}

func (e *Employee) Department() string { return e.department }
func (e *Employee) Manager() string    { return e.manager }
func (e *Employee) HiredOn() time.Time { return e.hired }
func (e *Employee) Salary() float64    { return e.salary }
func (e *Employee) IsActive() bool     { return e.active }

func (e *Employee) ModelAttributes() rhizo.AttributeTags {
	tags := e.Person.ModelAttributes()
	tags["Department"] = rhizo.AttributeTag{Descriptor: newDepartmentDescriptor}
	tags["Manager"] = rhizo.AttributeTag{Label: "Reports to", Descriptor: newManagerDescriptor}
	tags["HiredOn"] = rhizo.AttributeTag{Name: "hired", Label: "Hire date", Descriptor: newHireDateDescriptor}
	tags["Salary"] = rhizo.AttributeTag{Descriptor: newSalaryDescriptor}
	tags["IsActive"] = rhizo.AttributeTag{}
	return tags
}

func newEmployee(values map[string]any) *Employee {
	return &Employee{
		Person:     *newPerson(values),
		department: stringOf(values, "department"),
		manager:    stringOf(values, "manager"),
		hired:      timeOf(values, "hired"),
		salary:     floatOf(values, "salary"),
		active:     boolOf(values, "active"),
	}
}

// Book is a value model whose genre count is a custom attribute.
type Book struct {
	ISBN      string
	Title     string
	Authors   []string
	Genres    []string
	Price     float64
	Published int
}

func (b Book) GetISBN() string      { return b.ISBN }
func (b Book) GetTitle() string     { return b.Title }
func (b Book) GetAuthors() []string { return b.Authors }
func (b Book) GetGenres() []string  { return b.Genres }
func (b Book) GetPrice() float64    { return b.Price }
func (b Book) GetPublished() int    { return b.Published }

func (b Book) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"GetISBN":      {Name: "isbn", Label: "ISBN", ModelID: true},
		"GetTitle":     {},
		"GetAuthors":   {},
		"GetGenres":    {Descriptor: newGenreDescriptor},
		"GetPrice":     {Descriptor: newPriceDescriptor},
		"GetPublished": {Label: "Year published", Descriptor: newPublishedDescriptor},
	}
}

func (b Book) SetCustomAttributes(builder *rhizo.RecordBuilder) {
	builder.SetInt("genreCount", len(b.Genres))
	builder.SetBool("priced", b.Price > 0)
}

func newBook(values map[string]any) Book {
	return Book{
		ISBN:      stringOf(values, "isbn"),
		Title:     stringOf(values, "title"),
		Authors:   stringsOf(values, "authors"),
		Genres:    stringsOf(values, "genres"),
		Price:     floatOf(values, "price"),
		Published: intOf(values, "published"),
	}
}

func stringOf(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}

func intOf(values map[string]any, key string) int {
	i, _ := values[key].(int)
	return i
}

func floatOf(values map[string]any, key string) float64 {
	f, _ := values[key].(float64)
	return f
}

func boolOf(values map[string]any, key string) bool {
	b, _ := values[key].(bool)
	return b
}

func timeOf(values map[string]any, key string) time.Time {
	t, _ := values[key].(time.Time)
	return t
}

func stringsOf(values map[string]any, key string) []string {
	s, _ := values[key].([]string)
	return s
}
