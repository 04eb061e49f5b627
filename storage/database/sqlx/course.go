package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

var courseColumns = map[string]string{
	"code":      "code",
	"name":      "name",
	"createdAt": "created_at",
}

type (
	courseRow struct {
		ID          string      `db:"id"`
		Code        string      `db:"code"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		TermKind    string      `db:"term_kind"`
		TermCount   int         `db:"term_count"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	courseSubjectRow struct {
		ID       string  `db:"id"`
		CourseID string  `db:"course_id"`
		Position int     `db:"position"`
		Name     string  `db:"name"`
		MinMarks float64 `db:"min_marks"`
		MaxMarks float64 `db:"max_marks"`
	}
)

const courseSelect = `SELECT id, code, name, description, term_kind, term_count, created_at, updated_at FROM courses`

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description.String,
		TermKind:    r.TermKind,
		TermCount:   r.TermCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO courses
		(id, code, name, description, term_kind, term_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.Code, c.Name, nullString(c.Description), c.TermKind, c.TermCount, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "inserting course")
		}
		return insertCourseSubjects(ctx, tx, c)
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func insertCourseSubjects(ctx context.Context, tx *sqlx.Tx, c course.Course) error {
	for i, subj := range c.Subjects {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO course_subjects (id, course_id, position, name, min_marks, max_marks)
		VALUES (:id, :course_id, :position, :name, :min_marks, :max_marks)`, courseSubjectRow{
			ID:       subj.ID,
			CourseID: c.ID,
			Position: i,
			Name:     subj.Name,
			MinMarks: subj.MinMarks,
			MaxMarks: subj.MaxMarks,
		})
		if err != nil {
			return errors.Wrap(err, "inserting course subject")
		}
	}
	return nil
}

// withSubjects loads the catalogue subjects of courses.
func (repo *courseRepository) withSubjects(ctx context.Context, rows []courseRow) ([]course.Course, error) {
	courses := make([]course.Course, 0, len(rows))
	if len(rows) == 0 {
		return courses, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	q, args, err := sqlx.In(`SELECT id, course_id, position, name, min_marks, max_marks FROM course_subjects
	WHERE course_id IN (?) ORDER BY course_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subjects query")
	}
	var subjRows []courseSubjectRow
	if err = repo.db.SelectContext(ctx, &subjRows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting course subjects")
	}

	subjects := make(map[string][]course.CatalogueSubject, len(rows))
	for _, s := range subjRows {
		subjects[s.CourseID] = append(subjects[s.CourseID], course.CatalogueSubject{
			ID: s.ID, Name: s.Name, MinMarks: s.MinMarks, MaxMarks: s.MaxMarks,
		})
	}
	for _, r := range rows {
		c := r.course()
		c.Subjects = subjects[r.ID]
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *courseRepository) getOne(ctx context.Context, cond string, arg interface{}) (course.Course, error) {
	var r courseRow
	if err := repo.db.GetContext(ctx, &r, courseSelect+" WHERE "+cond, arg); err != nil {
		return course.Course{}, notFound(err, course.ErrNotFound, "selecting course")
	}
	courses, err := repo.withSubjects(ctx, []courseRow{r})
	if err != nil {
		return course.Course{}, err
	}
	return courses[0], nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	return repo.getOne(ctx, "id = $1", id)
}

func (repo *courseRepository) GetCourseByCode(ctx context.Context, code string) (course.Course, error) {
	return repo.getOne(ctx, "code = $1", code)
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	filter.Clean()
	var w where
	w.search(filter.Search, "name", "code")
	if filter.TermKind != "" {
		w.add("term_kind = ?", filter.TermKind)
	}

	var rows []courseRow
	q := repo.db.Rebind(courseSelect + w.String() + orderBy(ordering, courseColumns))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return repo.withSubjects(ctx, rows)
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE courses SET
		code = $2, name = $3, description = $4, term_kind = $5, term_count = $6, updated_at = $7
		WHERE id = $1`, c.ID, c.Code, c.Name, nullString(c.Description), c.TermKind, c.TermCount, c.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "updating course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return course.ErrNotFound
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM course_subjects WHERE course_id = $1", c.ID); err != nil {
			return errors.Wrap(err, "deleting course subjects")
		}
		return insertCourseSubjects(ctx, tx, c)
	})
	if err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "courses", ids)
}
