package inquiry

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound  = errors.New("inquiry not found")
	ErrThrottled = errors.New("too many inquiries, please try again later")
)

type (
	Repository interface {
		CreateInquiry(ctx context.Context, inq Inquiry) (Inquiry, error)
		GetInquiryByID(ctx context.Context, id string) (Inquiry, error)
		QueryInquiries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Inquiry, error)
		UpdateInquiry(ctx context.Context, inq Inquiry) (Inquiry, error)
		DeleteInquiriesByID(ctx context.Context, ids ...string) error
	}

	// Limiter counts the hits of key and reports whether one more is allowed.
	Limiter interface {
		Allow(ctx context.Context, key string) (bool, error)
	}

	Service interface {
		// Submit records an inquiry from the public website. clientKey identifies the visitor for throttling.
		Submit(ctx context.Context, clientKey string, ni NewInquiry) (Inquiry, error)
		GetByID(ctx context.Context, id string) (Inquiry, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Inquiry, error)
		Update(ctx context.Context, inq Inquiry, ui UpdateInquiry) (Inquiry, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo      Repository
		limiter   Limiter
		courseSvc course.Service
		mailSvc   core.EmailService
		notifyTo  mail.Address
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, limiter Limiter, courseSvc course.Service, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:      repo,
		limiter:   limiter,
		courseSvc: courseSvc,
		mailSvc:   mailSvc,
		notifyTo:  conf.InquiryNotifyAddress(),
	}
}

func (svc *service) Submit(ctx context.Context, clientKey string, ni NewInquiry) (Inquiry, error) {
	allowed, err := svc.limiter.Allow(ctx, "inquiry:"+clientKey)
	if err != nil {
		return Inquiry{}, errors.Wrap(err, "checking inquiry rate")
	}
	if !allowed {
		return Inquiry{}, ErrThrottled
	}

	var courseName string
	if ni.CourseID != "" {
		c, err := svc.courseSvc.GetByID(ctx, ni.CourseID)
		if err != nil {
			if errors.Cause(err) != course.ErrNotFound {
				return Inquiry{}, errors.Wrap(err, "finding course")
			}
			return Inquiry{}, core.NewValidationError(err, core.FieldError{Field: "courseId", Error: err.Error()})
		}
		courseName = c.Name
	}

	now := NowFunc().UTC()
	inq, err := svc.repo.CreateInquiry(ctx, Inquiry{
		ID:        uuid.New().String(),
		Name:      ni.Name,
		Email:     ni.Email,
		Phone:     ni.Phone,
		CourseID:  ni.CourseID,
		Message:   ni.Message,
		Source:    ni.Source,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Inquiry{}, err
	}
	svc.notify(inq, courseName)
	return inq, nil
}

func (svc *service) notify(inq Inquiry, courseName string) {
	if svc.notifyTo.Address == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{svc.notifyTo},
		Subject:      "New inquiry from " + inq.Name,
		TemplateName: "inquiry_received",
		TemplateData: struct {
			Inquiry
			CourseName string
		}{inq, courseName},
	})
}

func (svc *service) GetByID(ctx context.Context, id string) (Inquiry, error) {
	return svc.repo.GetInquiryByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Inquiry, error) {
	return svc.repo.QueryInquiries(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, inq Inquiry, ui UpdateInquiry) (Inquiry, error) {
	inq.Status = ui.Status
	inq.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateInquiry(ctx, inq)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteInquiriesByID(ctx, ids...)
}
