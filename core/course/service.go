package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/suggest"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound        = errors.New("course not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrCodeExists      = errors.New("a course with this code already exists")
	ErrSubjectExists   = errors.New("this subject is already part of the course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseByCode(ctx context.Context, code string) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		// UpdateCourse saves the course and replaces its catalogue subjects.
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		// Upsert creates the course, or updates the course with the same code.
		Upsert(ctx context.Context, nc NewCourse) (Course, bool, error)
		GetByID(ctx context.Context, id string) (Course, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Suggest(ctx context.Context, query string, limit int) ([]suggest.Option, error)
		Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error)
		AddSubject(ctx context.Context, c Course, subj CatalogueSubject) (Course, error)
		RemoveSubject(ctx context.Context, c Course, subjectID string) (Course, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) checkCodeUniqueness(ctx context.Context, code string) error {
	_, err := svc.repo.GetCourseByCode(ctx, code)
	switch errors.Cause(err) {
	case nil:
		return core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	case ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "finding course by code")
	}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if err := svc.checkCodeUniqueness(ctx, nc.Code); err != nil {
		return Course{}, err
	}
	now := NowFunc().UTC()
	c := Course{
		ID:          uuid.New().String(),
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		TermKind:    nc.TermKind,
		TermCount:   nc.TermCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, subj := range nc.Subjects {
		if c.HasSubject(subj.Name) {
			return Course{}, subjectExistsErr()
		}
		subj.ID = uuid.New().String()
		c.Subjects = append(c.Subjects, subj)
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *service) Upsert(ctx context.Context, nc NewCourse) (Course, bool, error) {
	c, err := svc.repo.GetCourseByCode(ctx, nc.Code)
	if errors.Cause(err) == ErrNotFound {
		c, err = svc.Create(ctx, nc)
		return c, true, err
	}
	if err != nil {
		return Course{}, false, errors.Wrap(err, "finding course by code")
	}

	c.Name = nc.Name
	c.Description = nc.Description
	c.TermKind = nc.TermKind
	c.TermCount = nc.TermCount
	for _, subj := range nc.Subjects {
		if !c.HasSubject(subj.Name) {
			subj.ID = uuid.New().String()
			c.Subjects = append(c.Subjects, subj)
		}
	}
	c.UpdatedAt = NowFunc().UTC()
	c, err = svc.repo.UpdateCourse(ctx, c)
	return c, false, err
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) Suggest(ctx context.Context, query string, limit int) ([]suggest.Option, error) {
	courses, err := svc.repo.QueryCourses(ctx, QueryFilter{}, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return suggest.Filter(courses, query, limit, func(c Course) suggest.Option {
		return suggest.Option{ID: c.ID, Label: c.Code + " - " + c.Name}
	}), nil
}

func (svc *service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	c.Name = uc.Name
	c.Description = uc.Description
	c.TermKind = uc.TermKind
	c.TermCount = uc.TermCount
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) AddSubject(ctx context.Context, c Course, subj CatalogueSubject) (Course, error) {
	if c.HasSubject(subj.Name) {
		return Course{}, subjectExistsErr()
	}
	subj.ID = uuid.New().String()
	c.Subjects = append(c.Subjects, subj)
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) RemoveSubject(ctx context.Context, c Course, subjectID string) (Course, error) {
	kept := make([]CatalogueSubject, 0, len(c.Subjects))
	for _, s := range c.Subjects {
		if s.ID != subjectID {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(c.Subjects) {
		return Course{}, ErrSubjectNotFound
	}
	c.Subjects = kept
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func subjectExistsErr() error {
	return core.NewValidationError(ErrSubjectExists, core.FieldError{Field: "name", Error: ErrSubjectExists.Error()})
}
