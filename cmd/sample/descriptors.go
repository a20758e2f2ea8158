package main

import "github.com/lychee-technology/rhizo"

var (
	departments = []string{"Engineering", "Engineering/Platform", "Engineering/Data", "Sales", "Operations"}
	genres      = []string{"fiction", "history", "poetry", "science", "travel"}
)

type ageDescriptor struct{}

func (ageDescriptor) Kind() rhizo.Kind  { return rhizo.KindRange }
func (ageDescriptor) MinRange() float64 { return 0 }
func (ageDescriptor) MaxRange() float64 { return 120 }
func (ageDescriptor) Stepping() float64 { return 1 }
func (ageDescriptor) Steps() float64    { return 12 }

func newAgeDescriptor() rhizo.AttributeDescriptor { return ageDescriptor{} }

type departmentDescriptor struct{}

func (departmentDescriptor) Kind() rhizo.Kind     { return rhizo.KindCategory }
func (departmentDescriptor) Categories() []string { return departments }
func (departmentDescriptor) Multiple() bool       { return false }
func (departmentDescriptor) Hierarchy() bool      { return true }

func newDepartmentDescriptor() rhizo.AttributeDescriptor { return departmentDescriptor{} }

// managerDescriptor points at the id of another employee.
type managerDescriptor struct{}

func (managerDescriptor) IsLink() bool    { return true }
func (managerDescriptor) LinkKey() string { return rhizo.RecordIDKey }

func newManagerDescriptor() rhizo.AttributeDescriptor { return managerDescriptor{} }

type hireDateDescriptor struct{}

func (hireDateDescriptor) MinYear() int                 { return 1990 }
func (hireDateDescriptor) MaxYear() int                 { return 2030 }
func (hireDateDescriptor) ClusterBy() rhizo.DateCluster { return rhizo.DateClusterMonth }

func newHireDateDescriptor() rhizo.AttributeDescriptor { return hireDateDescriptor{} }

type salaryDescriptor struct{}

func (salaryDescriptor) Kind() rhizo.Kind  { return rhizo.KindLogarithmRange }
func (salaryDescriptor) MinRange() float64 { return 10000 }
func (salaryDescriptor) MaxRange() float64 { return 1000000 }
func (salaryDescriptor) Stepping() float64 { return 0 }
func (salaryDescriptor) Steps() float64    { return 0 }
func (salaryDescriptor) Precision() int    { return 0 }

func newSalaryDescriptor() rhizo.AttributeDescriptor { return salaryDescriptor{} }

type genreDescriptor struct{}

func (genreDescriptor) Kind() rhizo.Kind     { return rhizo.KindCategory }
func (genreDescriptor) Categories() []string { return genres }
func (genreDescriptor) Multiple() bool       { return true }
func (genreDescriptor) Hierarchy() bool      { return false }

func newGenreDescriptor() rhizo.AttributeDescriptor { return genreDescriptor{} }

type priceDescriptor struct{}

func (priceDescriptor) Kind() rhizo.Kind  { return rhizo.KindDecimalRange }
func (priceDescriptor) MinRange() float64 { return 0 }
func (priceDescriptor) MaxRange() float64 { return 500 }
func (priceDescriptor) Stepping() float64 { return 0.5 }
func (priceDescriptor) Steps() float64    { return 0 }
func (priceDescriptor) Precision() int    { return 2 }

func newPriceDescriptor() rhizo.AttributeDescriptor { return priceDescriptor{} }

type publishedDescriptor struct{}

func (publishedDescriptor) Kind() rhizo.Kind  { return rhizo.KindRange }
func (publishedDescriptor) MinRange() float64 { return 1450 }
func (publishedDescriptor) MaxRange() float64 { return 2100 }
func (publishedDescriptor) Stepping() float64 { return 10 }
func (publishedDescriptor) Steps() float64    { return 0 }

func newPublishedDescriptor() rhizo.AttributeDescriptor { return publishedDescriptor{} }
