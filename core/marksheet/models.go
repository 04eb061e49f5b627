package marksheet

import (
	"fmt"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
)

// Field names used as keys of the validation errors.
const (
	FieldSubjectName = "subjectName"
	FieldMarks       = "marks"
	FieldInternal    = "internal"
	FieldTotal       = "total"
	FieldMinMarks    = "minMarks"
	FieldMaxMarks    = "maxMarks"
	FieldStudentID   = "studentId"
	FieldSemester    = "semester"
	FieldYear        = "year"
)

// SubjectRecord is a scored subject committed to a marksheet.
type SubjectRecord struct {
	ID          string  `json:"id"`
	SubjectName string  `json:"subjectName"`
	Marks       float64 `json:"marks"`
	Internal    float64 `json:"internal"`
	Total       float64 `json:"total"` // Marks + Internal
	MinMarks    float64 `json:"minMarks"`
	MaxMarks    float64 `json:"maxMarks"`
	Grade       string  `json:"grade,omitempty"`
}

// Passed reports whether the subject total reaches its minimum.
func (r SubjectRecord) Passed() bool {
	return r.Total >= r.MinMarks
}

// SubjectDraft is the raw user input for a subject, before it is validated.
// ID is only set when an already committed subject is submitted again.
type SubjectDraft struct {
	ID          string `json:"id,omitempty"`
	SubjectName string `json:"subjectName"`
	Marks       string `json:"marks"`
	Internal    string `json:"internal"`
	Total       string `json:"total"`
	MinMarks    string `json:"minMarks"`
	MaxMarks    string `json:"maxMarks"`
	Grade       string `json:"grade,omitempty"`
}

// Term is either a semester or an academic year, never both.
type Term struct {
	Semester int `json:"semester,omitempty"`
	Year     int `json:"year,omitempty"`
}

func (t Term) IsZero() bool { return t.Semester == 0 && t.Year == 0 }

func (t Term) String() string {
	if t.Semester > 0 {
		return fmt.Sprintf("Semester %d", t.Semester)
	}
	return fmt.Sprintf("Year %d", t.Year)
}

// Validate checks t against the term kind and length of c.
func (t Term) Validate(c course.Course) core.FieldErrors {
	errs := make(core.FieldErrors)
	switch {
	case t.Semester > 0 && t.Year > 0:
		errs[FieldSemester] = "Choose either a semester or a year"
	case t.Semester < 0 || t.Year < 0 || t.IsZero():
		if c.TermKind == course.TermYear {
			errs[FieldYear] = "Please select a year"
		} else {
			errs[FieldSemester] = "Please select a semester"
		}
	case t.Semester > 0:
		if c.TermKind != course.TermSemester {
			errs[FieldSemester] = "This course is organised in years"
		} else if t.Semester > c.TermCount {
			errs[FieldSemester] = fmt.Sprintf("Semester must be between 1 and %d", c.TermCount)
		}
	default:
		if c.TermKind != course.TermYear {
			errs[FieldYear] = "This course is organised in semesters"
		} else if t.Year > c.TermCount {
			errs[FieldYear] = fmt.Sprintf("Year must be between 1 and %d", c.TermCount)
		}
	}
	return errs
}

// Marksheet is the persisted per-student, per-term record of subject scores.
type Marksheet struct {
	ID        string          `json:"id"`
	SerialNo  string          `json:"serialNo"`
	StudentID string          `json:"studentId"`
	CourseID  string          `json:"courseId"`
	CenterID  string          `json:"centerId"`
	Semester  int             `json:"semester,omitempty"`
	Year      int             `json:"year,omitempty"`
	Subjects  []SubjectRecord `json:"subjects"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (ms Marksheet) Term() Term {
	return Term{Semester: ms.Semester, Year: ms.Year}
}

// NewMarksheet contains information needed to create a Marksheet.
type NewMarksheet struct {
	StudentID string         `json:"studentId"`
	Semester  int            `json:"semester"`
	Year      int            `json:"year"`
	Subjects  []SubjectDraft `json:"subjects"`
}

func (nm NewMarksheet) Term() Term {
	return Term{Semester: nm.Semester, Year: nm.Year}
}

// UpdateMarksheet replaces the subjects of a Marksheet.
type UpdateMarksheet struct {
	Subjects []SubjectDraft `json:"subjects"`
}

type QueryFilter struct {
	StudentID string `query:"studentId"`
	CourseID  string `query:"courseId"`
	CenterID  string `query:"centerId"`
	Semester  int    `query:"semester"`
	Year      int    `query:"year"`
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.CenterID = core.CleanString(qf.CenterID)
}

func (qf QueryFilter) Match(ms Marksheet) bool {
	switch {
	case qf.StudentID != "" && ms.StudentID != qf.StudentID,
		qf.CourseID != "" && ms.CourseID != qf.CourseID,
		qf.CenterID != "" && ms.CenterID != qf.CenterID,
		qf.Semester != 0 && ms.Semester != qf.Semester,
		qf.Year != 0 && ms.Year != qf.Year:
		return false
	}
	return true
}
