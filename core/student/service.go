package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/suggest"
	"github.com/paramedico/console/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("student not found")
	ErrEnrollmentNoExists = errors.New("a student with this enrollment number already exists")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByEnrollmentNo(ctx context.Context, enrollmentNo string) (Student, error)
		QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, actor user.Actor, ns NewStudent) (Student, error)
		// Get returns ErrNotFound for students the actor may not access.
		Get(ctx context.Context, actor user.Actor, id string) (Student, error)
		Query(ctx context.Context, actor user.Actor, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		Suggest(ctx context.Context, actor user.Actor, query string, limit int) ([]suggest.Option, error)
		Update(ctx context.Context, s Student, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo      Repository
		centerSvc center.Service
		courseSvc course.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, centerSvc center.Service, courseSvc course.Service) Service {
	return &service{repo: repo, centerSvc: centerSvc, courseSvc: courseSvc}
}

func (svc *service) Create(ctx context.Context, actor user.Actor, ns NewStudent) (Student, error) {
	if actor.IsCenter() {
		ns.CenterID = actor.CenterID
	}
	fldErrs := make(core.FieldErrors)
	if err := svc.checkCenter(ctx, ns.CenterID, fldErrs); err != nil {
		return Student{}, err
	}
	if err := svc.checkCourse(ctx, ns.CourseID, fldErrs); err != nil {
		return Student{}, err
	}
	if _, err := svc.repo.GetStudentByEnrollmentNo(ctx, ns.EnrollmentNo); err == nil {
		fldErrs["enrollmentNo"] = ErrEnrollmentNoExists.Error()
	} else if errors.Cause(err) != ErrNotFound {
		return Student{}, errors.Wrap(err, "finding student by enrollment number")
	}
	if err := fldErrs.Err(); err != nil {
		return Student{}, err
	}

	now := NowFunc().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		ID:           uuid.New().String(),
		EnrollmentNo: ns.EnrollmentNo,
		Name:         ns.Name,
		FatherName:   ns.FatherName,
		DateOfBirth:  ns.DateOfBirth,
		Email:        ns.Email,
		Phone:        ns.Phone,
		CenterID:     ns.CenterID,
		CourseID:     ns.CourseID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) checkCenter(ctx context.Context, id string, fldErrs core.FieldErrors) error {
	if id == "" {
		fldErrs["centerId"] = "this field is required"
		return nil
	}
	if _, err := svc.centerSvc.GetByID(ctx, id); err != nil {
		if errors.Cause(err) != center.ErrNotFound {
			return errors.Wrap(err, "finding center")
		}
		fldErrs["centerId"] = center.ErrNotFound.Error()
	}
	return nil
}

func (svc *service) checkCourse(ctx context.Context, id string, fldErrs core.FieldErrors) error {
	if _, err := svc.courseSvc.GetByID(ctx, id); err != nil {
		if errors.Cause(err) != course.ErrNotFound {
			return errors.Wrap(err, "finding course")
		}
		fldErrs["courseId"] = course.ErrNotFound.Error()
	}
	return nil
}

func (svc *service) Get(ctx context.Context, actor user.Actor, id string) (Student, error) {
	s, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !actor.CanAccessCenter(s.CenterID) {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (svc *service) Query(ctx context.Context, actor user.Actor, filter QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if actor.IsCenter() {
		filter.CenterID = actor.CenterID
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) Suggest(ctx context.Context, actor user.Actor, query string, limit int) ([]suggest.Option, error) {
	students, err := svc.Query(ctx, actor, QueryFilter{}, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return suggest.Filter(students, query, limit, func(s Student) suggest.Option {
		return suggest.Option{ID: s.ID, Label: s.Name + " (" + s.EnrollmentNo + ")"}
	}), nil
}

func (svc *service) Update(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	if us.CourseID != "" && us.CourseID != s.CourseID {
		fldErrs := make(core.FieldErrors)
		if err := svc.checkCourse(ctx, us.CourseID, fldErrs); err != nil {
			return Student{}, err
		}
		if err := fldErrs.Err(); err != nil {
			return Student{}, err
		}
		s.CourseID = us.CourseID
	}
	set := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	set(&s.Name, us.Name)
	set(&s.FatherName, us.FatherName)
	set(&s.DateOfBirth, us.DateOfBirth)
	set(&s.Email, us.Email)
	set(&s.Phone, us.Phone)
	s.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
