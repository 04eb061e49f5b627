package inquiry

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
)

// Sources are the public pages an inquiry form is shown on.
const (
	SourceHome    = "home"
	SourceContact = "contact"
	SourceProgram = "program"
)

// Statuses of the follow-up of an inquiry.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusClosed    = "closed"
)

type Inquiry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CourseID  string    `json:"courseId"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewInquiry is submitted by a visitor of the public website.
type NewInquiry struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	Email    string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone    string `json:"phone" validate:"required_without=Email,omitempty,phone"`
	CourseID string `json:"courseId"`
	Message  string `json:"message" validate:"max=2000"`
	Source   string `json:"source" validate:"required,oneof=home contact program"`
}

func (ni *NewInquiry) Validate(validate *validator.Validate) error {
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Phone = core.CleanString(ni.Phone)
	ni.CourseID = core.CleanString(ni.CourseID)
	ni.Message = strings.TrimSpace(ni.Message)
	ni.Source = core.CleanString(ni.Source, true /* lower */)
	return validate.Struct(ni)
}

type UpdateInquiry struct {
	Status string `json:"status" validate:"required,oneof=new contacted closed"`
}

func (ui *UpdateInquiry) Validate(validate *validator.Validate) error {
	ui.Status = core.CleanString(ui.Status, true /* lower */)
	return validate.Struct(ui)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Status   string `query:"status"`
	Source   string `query:"source"`
	CourseID string `query:"courseId"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Source = core.CleanString(qf.Source, true /* lower */)
	qf.CourseID = core.CleanString(qf.CourseID)
}

// Match applies an AND on the set filter fields. Search is a case-insensitive match on name, email or phone.
func (qf QueryFilter) Match(inq Inquiry) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(inq.Name), s) ||
			strings.Contains(inq.Email, s) ||
			strings.Contains(inq.Phone, s)) {
			return false
		}
	}
	switch {
	case qf.Status != "" && inq.Status != qf.Status,
		qf.Source != "" && inq.Source != qf.Source,
		qf.CourseID != "" && inq.CourseID != qf.CourseID:
		return false
	}
	return true
}
