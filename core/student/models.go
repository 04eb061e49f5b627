package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
)

type Student struct {
	ID           string    `json:"id"`
	EnrollmentNo string    `json:"enrollmentNo"`
	Name         string    `json:"name"`
	FatherName   string    `json:"fatherName"`
	DateOfBirth  string    `json:"dateOfBirth"` // YYYY-MM-DD
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CenterID     string    `json:"centerId"`
	CourseID     string    `json:"courseId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewStudent contains information needed to enroll a new Student.
// CenterID is ignored for center accounts: they always enroll into their own center.
type NewStudent struct {
	EnrollmentNo string `json:"enrollmentNo" validate:"required,max=30,alphanum_"`
	Name         string `json:"name" validate:"notblank,max=200"`
	FatherName   string `json:"fatherName" validate:"max=200"`
	DateOfBirth  string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	CenterID     string `json:"centerId"`
	CourseID     string `json:"courseId" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.EnrollmentNo = strings.ToUpper(core.CleanString(ns.EnrollmentNo))
	ns.Name = core.CleanString(ns.Name)
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.CenterID = core.CleanString(ns.CenterID)
	ns.CourseID = core.CleanString(ns.CourseID)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be changed on a Student. Blank fields keep their value.
type UpdateStudent struct {
	Name        string `json:"name" validate:"max=200"`
	FatherName  string `json:"fatherName" validate:"max=200"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	CourseID    string `json:"courseId"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.FatherName = core.CleanString(us.FatherName)
	us.DateOfBirth = core.CleanString(us.DateOfBirth)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Phone = core.CleanString(us.Phone)
	us.CourseID = core.CleanString(us.CourseID)
	return validate.Struct(us)
}

type QueryFilter struct {
	Search   string `query:"search"`
	CenterID string `query:"centerId"`
	CourseID string `query:"courseId"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CenterID = core.CleanString(qf.CenterID)
	qf.CourseID = core.CleanString(qf.CourseID)
}

// Match applies an AND on the set filter fields. Search matches name or enrollment number, case-insensitively.
func (qf QueryFilter) Match(s Student) bool {
	if qf.Search != "" {
		q := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.EnrollmentNo), q)) {
			return false
		}
	}
	if qf.CenterID != "" && s.CenterID != qf.CenterID {
		return false
	}
	return qf.CourseID == "" || s.CourseID == qf.CourseID
}
