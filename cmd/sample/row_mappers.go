package main

import "fmt"

// NewPersonMapper maps person CSV rows.
//
// Expected CSV columns:
//   - id: Person identifier (optional, a UUIDv7 is generated when empty)
//   - name: Display name (required)
//   - age: Age in years
//   - email: Contact address, carried as an opaque attribute
//   - tags: Semicolon separated tags
func NewPersonMapper() CSVRowMapper {
	return personColumns(NewMapperBuilder("person")).Build()
}

func personColumns(b *MapperBuilder) *MapperBuilder {
	return b.
		Map("id", "id").
		Required("name", "name").
		MapWith("age", "age", ToInt()).
		Map("email", "email").
		MapWith("tags", "tags", Split(";"))
}

// NewEmployeeMapper maps employee CSV rows: the person columns plus
//   - department: One of the department categories (required)
//   - manager: Id of the employee this one reports to
//   - hired: Hire date, YYYY-MM-DD or RFC 3339
//   - salary: Yearly salary, "$85,000" style prices accepted (required)
//   - active: true/false/1/0/yes/no, defaults to true
func NewEmployeeMapper() CSVRowMapper {
	return personColumns(NewMapperBuilder("employee")).
		RequiredWith("department", "department", Enum(departments...)).
		Map("manager", "manager").
		MapWith("hired", "hired", ToDate()).
		RequiredWith("salary", "salary", ToPrice()).
		MapWith("active", "active", DefaultWith(true, ToBool())).
		Build()
}

// NewBookMapper maps book CSV rows.
//
// Expected CSV columns:
//   - isbn: Book identifier (required)
//   - title: Book title (required)
//   - authors: Semicolon separated authors
//   - genres: Semicolon separated genres from the genre categories
//   - price: Price string (e.g., "$12.50" or "Price on request")
//   - published: Year of publication, "1965" or "1965 (Approximation)" (required)
func NewBookMapper() CSVRowMapper {
	return NewMapperBuilder("book").
		Required("isbn", "isbn").
		Required("title", "title").
		MapWith("authors", "authors", Split(";")).
		MapWith("genres", "genres", EnumList(";", genres...)).
		MapWith("price", "price", ToPrice()).
		RequiredWith("published", "published", ToYear()).
		Build()
}

// mapperFor returns the row mapper for a sample model name.
func mapperFor(model string) (CSVRowMapper, error) {
	switch model {
	case "person":
		return NewPersonMapper(), nil
	case "employee":
		return NewEmployeeMapper(), nil
	case "book":
		return NewBookMapper(), nil
	default:
		return nil, fmt.Errorf("unknown model %q: supported models are person, employee, book", model)
	}
}
