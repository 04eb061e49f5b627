package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
)

// Term kinds: a course is split either in semesters or in academic years.
const (
	TermSemester = "semester"
	TermYear     = "year"

	MaxSemesters = 2
	MaxYears     = 4
)

type Course struct {
	ID          string             `json:"id" yaml:"-"`
	Code        string             `json:"code" yaml:"code"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	TermKind    string             `json:"termKind" yaml:"termKind"`
	TermCount   int                `json:"termCount" yaml:"termCount"`
	Subjects    []CatalogueSubject `json:"subjects" yaml:"subjects"`
	CreatedAt   time.Time          `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time          `json:"updatedAt" yaml:"-"`
}

// CatalogueSubject is a subject taught in a course. Its bounds prefill marksheet subject entries.
type CatalogueSubject struct {
	ID       string  `json:"id" yaml:"-"`
	Name     string  `json:"name" yaml:"name" validate:"notblank,max=120"`
	MinMarks float64 `json:"minMarks" yaml:"minMarks" validate:"gte=0"`
	MaxMarks float64 `json:"maxMarks" yaml:"maxMarks" validate:"gtfield=MinMarks"`
}

func (c Course) HasSubject(name string, excludeID ...string) bool {
	name = core.CleanString(name, true /* lower */)
	for _, s := range c.Subjects {
		if len(excludeID) > 0 && s.ID == excludeID[0] {
			continue
		}
		if strings.ToLower(s.Name) == name {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string             `json:"code" yaml:"code" validate:"required,max=20,alphanum_"`
	Name        string             `json:"name" yaml:"name" validate:"notblank,max=200"`
	Description string             `json:"description" yaml:"description" validate:"max=2000"`
	TermKind    string             `json:"termKind" yaml:"termKind" validate:"required,oneof=semester year"`
	TermCount   int                `json:"termCount" yaml:"termCount" validate:"required,min=1"`
	Subjects    []CatalogueSubject `json:"subjects" yaml:"subjects" validate:"dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.TermKind = core.CleanString(nc.TermKind, true /* lower */)
	for i := range nc.Subjects {
		nc.Subjects[i].Name = core.CleanString(nc.Subjects[i].Name)
	}
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name        string `json:"name" validate:"omitempty,max=200"`
	Description string `json:"description" validate:"max=2000"`
	TermKind    string `json:"termKind" validate:"omitempty,oneof=semester year"`
	TermCount   int    `json:"termCount" validate:"omitempty,min=1"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	uc.Description = core.CleanString(uc.Description)
	if kind := core.CleanString(uc.TermKind, true /* lower */); kind != "" {
		uc.TermKind = kind
	} else {
		uc.TermKind = orig.TermKind
	}
	if uc.TermCount == 0 {
		uc.TermCount = orig.TermCount
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search   string `query:"search"`
	TermKind string `query:"termKind"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.TermKind = core.CleanString(qf.TermKind, true /* lower */)
}

func (qf QueryFilter) Match(c Course) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(c.Name), s) || strings.Contains(strings.ToLower(c.Code), s)) {
			return false
		}
	}
	return qf.TermKind == "" || c.TermKind == qf.TermKind
}
