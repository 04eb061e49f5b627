package marksheet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("marksheet not found")
	ErrTermExists = errors.New("a marksheet already exists for this student and term")
)

type (
	Repository interface {
		// CreateMarksheet stores ms. ms.SerialNo is set by the caller from NextSerial.
		// It returns ErrTermExists if the student already has a marksheet for the term.
		CreateMarksheet(ctx context.Context, ms Marksheet) (Marksheet, error)
		// NextSerial returns the next marksheet sequence number for year, starting at 1.
		NextSerial(ctx context.Context, year int) (int, error)
		GetMarksheetByID(ctx context.Context, id string) (Marksheet, error)
		GetMarksheetBySerial(ctx context.Context, serialNo string) (Marksheet, error)
		QueryMarksheets(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Marksheet, error)
		// UpdateMarksheet replaces the subjects of ms.
		UpdateMarksheet(ctx context.Context, ms Marksheet) (Marksheet, error)
		DeleteMarksheetsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		// CalculateTotal auto-fills the total of a subject being typed.
		CalculateTotal(marks, internal string) string
		// ValidateDraft checks a single subject draft against the subjects already in the form.
		ValidateDraft(actor user.Actor, draft SubjectDraft, existing []SubjectRecord) DraftCheck
		Create(ctx context.Context, actor user.Actor, nm NewMarksheet) (Marksheet, error)
		Update(ctx context.Context, actor user.Actor, ms Marksheet, um UpdateMarksheet) (Marksheet, error)
		// Get returns ErrNotFound for marksheets the actor may not access.
		Get(ctx context.Context, actor user.Actor, id string) (Marksheet, error)
		Query(ctx context.Context, actor user.Actor, filter QueryFilter, ordering []core.DBOrdering) ([]Marksheet, error)
		// GetResult looks up a marksheet by serial number for the public results page.
		GetResult(ctx context.Context, serialNo string) (Result, error)
		Delete(ctx context.Context, ids ...string) error
	}

	// DraftCheck is the live feedback for a subject draft.
	DraftCheck struct {
		Total  string           `json:"total"`
		Errors core.FieldErrors `json:"errors"`
	}

	// Result is a marksheet as shown on the public results page.
	Result struct {
		Marksheet   Marksheet `json:"marksheet"`
		StudentName string    `json:"studentName"`
		CourseName  string    `json:"courseName"`
		Term        string    `json:"term"`
		Aggregate   Aggregate `json:"aggregate"`
	}

	service struct {
		repo         Repository
		studentRepo  student.Repository
		courseSvc    course.Service
		serialPrefix string
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, studentRepo student.Repository, courseSvc course.Service, conf *core.Config) Service {
	return &service{
		repo:         repo,
		studentRepo:  studentRepo,
		courseSvc:    courseSvc,
		serialPrefix: conf.Marksheet.SerialPrefix,
	}
}

func (svc *service) CalculateTotal(marks, internal string) string {
	return CalculateTotal(marks, internal)
}

func (svc *service) ValidateDraft(actor user.Actor, draft SubjectDraft, existing []SubjectRecord) DraftCheck {
	errs := ValidateMaxSubjects(len(existing))
	if len(errs) == 0 {
		errs = ValidateSubject(draft, existing, actor.Role)
	}
	return DraftCheck{Total: CalculateTotal(draft.Marks, draft.Internal), Errors: errs}
}

func (svc *service) Create(ctx context.Context, actor user.Actor, nm NewMarksheet) (Marksheet, error) {
	sess := NewSession(actor.Role)
	stu, found, err := svc.findStudent(ctx, actor, nm.StudentID)
	if err != nil {
		return Marksheet{}, err
	}

	fldErrs := make(core.FieldErrors)
	if found {
		c, err := svc.courseSvc.GetByID(ctx, stu.CourseID)
		if err != nil {
			return Marksheet{}, errors.Wrap(err, "finding student course")
		}
		if err = sess.SelectStudent(stu, c); err != nil {
			return Marksheet{}, err
		}
		termErrs, err := sess.SelectTerm(nm.Term())
		if err != nil {
			return Marksheet{}, err
		}
		fldErrs.Merge("", termErrs)
	}
	checked, err := svc.addDrafts(sess, nm.Subjects, fldErrs, !found)
	if err != nil {
		return Marksheet{}, err
	}
	fldErrs.Merge("", formErrors(sess.Student(), nm.Subjects, checked))
	if err := fldErrs.Err(); err != nil {
		return Marksheet{}, err
	}

	return sess.Save(ctx, func(ctx context.Context, stu student.Student, term Term, subjects []SubjectRecord) (Marksheet, error) {
		return svc.persistNew(ctx, actor, stu, term, subjects)
	})
}

// addDrafts commits the drafts in order and returns the accepted subjects.
// Errors of the i-th draft are keyed `subjects[i].<field>`.
// Without a selected student or term the drafts are checked on a scratch session so that all errors are reported at once.
func (svc *service) addDrafts(sess *Session, drafts []SubjectDraft, fldErrs core.FieldErrors, scratch bool) ([]SubjectRecord, error) {
	if scratch || sess.Term().IsZero() {
		sess = NewSession(sess.role)
		sess.term = Term{Semester: 1} // only the subjects are checked
	}
	for i, d := range drafts {
		_, errs, err := sess.AddSubject(d)
		if err != nil {
			return nil, err
		}
		fldErrs.Merge(fmt.Sprintf("subjects[%d].", i), errs)
	}
	return sess.Subjects(), nil
}

// formErrors runs ValidateFormForSave. Rejected drafts already carry their own errors,
// so the missing subject error is only kept when nothing was submitted.
func formErrors(stu *student.Student, drafts []SubjectDraft, checked []SubjectRecord) core.FieldErrors {
	errs := ValidateFormForSave(stu, checked)
	if len(drafts) > 0 {
		delete(errs, FieldSubjectName)
	}
	return errs
}

func (svc *service) findStudent(ctx context.Context, actor user.Actor, id string) (student.Student, bool, error) {
	id = core.CleanString(id)
	if id == "" {
		return student.Student{}, false, nil
	}
	stu, err := svc.studentRepo.GetStudentByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, false, nil
		}
		return student.Student{}, false, errors.Wrap(err, "finding student")
	}
	if !actor.CanAccessCenter(stu.CenterID) {
		return student.Student{}, false, nil
	}
	return stu, true, nil
}

func (svc *service) persistNew(ctx context.Context, actor user.Actor, stu student.Student, term Term, subjects []SubjectRecord) (Marksheet, error) {
	existing, err := svc.repo.QueryMarksheets(ctx, QueryFilter{StudentID: stu.ID, Semester: term.Semester, Year: term.Year}, nil)
	if err != nil {
		return Marksheet{}, errors.Wrap(err, "querying student marksheets")
	}
	if len(existing) > 0 {
		return Marksheet{}, termExistsError(term)
	}

	now := NowFunc().UTC()
	seq, err := svc.repo.NextSerial(ctx, now.Year())
	if err != nil {
		return Marksheet{}, errors.Wrap(err, "generating serial number")
	}
	ms, err := svc.repo.CreateMarksheet(ctx, Marksheet{
		ID:        uuid.New().String(),
		SerialNo:  FormatSerial(svc.serialPrefix, now.Year(), seq),
		StudentID: stu.ID,
		CourseID:  stu.CourseID,
		CenterID:  stu.CenterID,
		Semester:  term.Semester,
		Year:      term.Year,
		Subjects:  subjects,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Cause(err) == ErrTermExists {
		// another request created it first
		return Marksheet{}, termExistsError(term)
	}
	return ms, err
}

func termExistsError(term Term) error {
	field := FieldSemester
	if term.Year > 0 {
		field = FieldYear
	}
	return core.NewValidationError(ErrTermExists, core.FieldError{Field: field, Error: ErrTermExists.Error()})
}

// FormatSerial formats a marksheet serial number, e.g. PMI2026-000042.
func FormatSerial(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%d-%06d", prefix, year, seq)
}

func (svc *service) Update(ctx context.Context, actor user.Actor, ms Marksheet, um UpdateMarksheet) (Marksheet, error) {
	stu, err := svc.studentRepo.GetStudentByID(ctx, ms.StudentID)
	if err != nil {
		return Marksheet{}, errors.Wrap(err, "finding marksheet student")
	}
	c, err := svc.courseSvc.GetByID(ctx, ms.CourseID)
	if err != nil {
		return Marksheet{}, errors.Wrap(err, "finding marksheet course")
	}

	sess := EditSession(actor.Role, Marksheet{Semester: ms.Semester, Year: ms.Year}, stu, c)
	fldErrs := make(core.FieldErrors)
	checked, err := svc.addDrafts(sess, um.Subjects, fldErrs, false)
	if err != nil {
		return Marksheet{}, err
	}
	fldErrs.Merge("", formErrors(sess.Student(), um.Subjects, checked))
	if err = fldErrs.Err(); err != nil {
		return Marksheet{}, err
	}

	return sess.Save(ctx, func(ctx context.Context, _ student.Student, _ Term, subjects []SubjectRecord) (Marksheet, error) {
		ms.Subjects = subjects
		ms.UpdatedAt = NowFunc().UTC()
		return svc.repo.UpdateMarksheet(ctx, ms)
	})
}

func (svc *service) Get(ctx context.Context, actor user.Actor, id string) (Marksheet, error) {
	ms, err := svc.repo.GetMarksheetByID(ctx, id)
	if err != nil {
		return Marksheet{}, err
	}
	if !actor.CanAccessCenter(ms.CenterID) {
		return Marksheet{}, ErrNotFound
	}
	return ms, nil
}

func (svc *service) Query(ctx context.Context, actor user.Actor, filter QueryFilter, ordering []core.DBOrdering) ([]Marksheet, error) {
	if actor.IsCenter() {
		filter.CenterID = actor.CenterID
	}
	return svc.repo.QueryMarksheets(ctx, filter, ordering)
}

func (svc *service) GetResult(ctx context.Context, serialNo string) (Result, error) {
	ms, err := svc.repo.GetMarksheetBySerial(ctx, core.CleanString(serialNo))
	if err != nil {
		return Result{}, err
	}
	res := Result{Marksheet: ms, Term: ms.Term().String(), Aggregate: Summarize(ms.Subjects)}

	stu, err := svc.studentRepo.GetStudentByID(ctx, ms.StudentID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding marksheet student")
	}
	res.StudentName = stu.Name
	c, err := svc.courseSvc.GetByID(ctx, ms.CourseID)
	if err != nil {
		return Result{}, errors.Wrap(err, "finding marksheet course")
	}
	res.CourseName = c.Name
	return res, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteMarksheetsByID(ctx, ids...)
}
