package marksheet

import (
	"context"

	"github.com/pkg/errors"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/student"
)

// State of a marksheet authoring session.
type State int

const (
	StateEmpty State = iota
	StateStudentSelected
	StateTermSelected
	StateHasSubjects
	StatePersisting
	StateSaved
)

var stateNames = [...]string{"empty", "student-selected", "term-selected", "has-subjects", "persisting", "saved"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

var ErrSessionBusy = errors.New("marksheet is being saved")

const noTermText = "Please select a semester or year first"

// Persister stores the marksheet being authored. It is called by Session.Save.
type Persister func(ctx context.Context, stu student.Student, term Term, subjects []SubjectRecord) (Marksheet, error)

// Session holds the subjects of one marksheet while it is being authored.
// It is owned by a single request or user and is not safe for concurrent use.
type Session struct {
	role     string
	update   bool
	state    State
	student  *student.Student
	course   course.Course
	term     Term
	subjects []SubjectRecord
}

// NewSession starts authoring a new marksheet as role.
func NewSession(role string) *Session {
	return &Session{role: role}
}

// EditSession starts editing the subjects of ms. The student and term of ms are fixed.
func EditSession(role string, ms Marksheet, stu student.Student, c course.Course) *Session {
	s := &Session{
		role:     role,
		update:   true,
		state:    StateTermSelected,
		student:  &stu,
		course:   c,
		term:     ms.Term(),
		subjects: append([]SubjectRecord(nil), ms.Subjects...),
	}
	s.refreshState()
	return s
}

func (s *Session) State() State { return s.state }

func (s *Session) Student() *student.Student { return s.student }

func (s *Session) Term() Term { return s.term }

// Subjects returns a copy of the committed subjects.
func (s *Session) Subjects() []SubjectRecord {
	return append([]SubjectRecord(nil), s.subjects...)
}

// SelectStudent sets the marksheet owner. Choosing another student clears the selected term.
func (s *Session) SelectStudent(stu student.Student, c course.Course) error {
	if s.state == StatePersisting {
		return ErrSessionBusy
	}
	if s.student == nil || s.student.ID != stu.ID {
		s.term = Term{}
	}
	s.student = &stu
	s.course = c
	s.refreshState()
	return nil
}

// SelectTerm sets the semester or year of the marksheet, checked against the student's course.
func (s *Session) SelectTerm(t Term) (core.FieldErrors, error) {
	if s.state == StatePersisting {
		return nil, ErrSessionBusy
	}
	if s.student == nil {
		return core.FieldErrors{FieldStudentID: "Please select a student"}, nil
	}
	if errs := t.Validate(s.course); len(errs) > 0 {
		return errs, nil
	}
	s.term = t
	s.refreshState()
	return core.FieldErrors{}, nil
}

// AddSubject validates the draft and commits it. The draft is left untouched when errors are returned.
func (s *Session) AddSubject(d SubjectDraft) (SubjectRecord, core.FieldErrors, error) {
	if s.state == StatePersisting {
		return SubjectRecord{}, nil, ErrSessionBusy
	}
	if s.term.IsZero() {
		return SubjectRecord{}, core.FieldErrors{FieldSemester: noTermText}, nil
	}
	if errs := ValidateMaxSubjects(len(s.subjects)); len(errs) > 0 {
		return SubjectRecord{}, errs, nil
	}
	if errs := ValidateSubject(d, s.subjects, s.role); len(errs) > 0 {
		return SubjectRecord{}, errs, nil
	}
	rec := d.Record()
	s.subjects = append(s.subjects, rec)
	s.refreshState()
	return rec, core.FieldErrors{}, nil
}

// RemoveSubject drops the committed subject with the given id and reports whether it was found.
func (s *Session) RemoveSubject(id string) (bool, error) {
	if s.state == StatePersisting {
		return false, ErrSessionBusy
	}
	for i, rec := range s.subjects {
		if rec.ID == id {
			s.subjects = append(s.subjects[:i], s.subjects[i+1:]...)
			s.refreshState()
			return true, nil
		}
	}
	return false, nil
}

// Save persists the marksheet once ValidateFormForSave passes.
// A successful create resets the session, an update keeps it open. On failure the subjects are kept.
func (s *Session) Save(ctx context.Context, persist Persister) (Marksheet, error) {
	if s.state == StatePersisting {
		return Marksheet{}, ErrSessionBusy
	}
	if err := ValidateFormForSave(s.student, s.subjects).Err(); err != nil {
		return Marksheet{}, err
	}
	if s.term.IsZero() {
		return Marksheet{}, core.FieldErrors{FieldSemester: noTermText}.Err()
	}

	s.state = StatePersisting
	ms, err := persist(ctx, *s.student, s.term, s.Subjects())
	if err != nil {
		s.refreshState()
		return Marksheet{}, err
	}

	s.state = StateSaved
	if s.update {
		s.subjects = append([]SubjectRecord(nil), ms.Subjects...)
		s.refreshState()
	} else {
		s.reset()
	}
	return ms, nil
}

func (s *Session) reset() {
	s.state = StateEmpty
	s.student = nil
	s.course = course.Course{}
	s.term = Term{}
	s.subjects = nil
}

func (s *Session) refreshState() {
	switch {
	case s.student == nil:
		s.state = StateEmpty
	case s.term.IsZero():
		s.state = StateStudentSelected
	case len(s.subjects) == 0:
		s.state = StateTermSelected
	default:
		s.state = StateHasSubjects
	}
}
