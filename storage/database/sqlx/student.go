package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/student"
)

const dateLayout = "2006-01-02"

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

var studentColumns = map[string]string{
	"enrollmentNo": "enrollment_no",
	"name":         "name",
	"createdAt":    "created_at",
}

type studentRow struct {
	ID           string      `db:"id"`
	EnrollmentNo string      `db:"enrollment_no"`
	Name         string      `db:"name"`
	FatherName   null.String `db:"father_name"`
	DateOfBirth  null.Time   `db:"date_of_birth"`
	Email        null.String `db:"email"`
	Phone        null.String `db:"phone"`
	CenterID     string      `db:"center_id"`
	CourseID     string      `db:"course_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

const studentSelect = `SELECT id, enrollment_no, name, father_name, date_of_birth, email, phone, center_id, course_id,
	created_at, updated_at FROM students`

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func toStudentRow(s student.Student) studentRow {
	r := studentRow{
		ID:           s.ID,
		EnrollmentNo: s.EnrollmentNo,
		Name:         s.Name,
		FatherName:   nullString(s.FatherName),
		Email:        nullString(s.Email),
		Phone:        nullString(s.Phone),
		CenterID:     s.CenterID,
		CourseID:     s.CourseID,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
	if dob, err := time.Parse(dateLayout, s.DateOfBirth); err == nil {
		r.DateOfBirth = null.TimeFrom(dob)
	}
	return r
}

func (r studentRow) student() student.Student {
	s := student.Student{
		ID:           r.ID,
		EnrollmentNo: r.EnrollmentNo,
		Name:         r.Name,
		FatherName:   r.FatherName.String,
		Email:        r.Email.String,
		Phone:        r.Phone.String,
		CenterID:     r.CenterID,
		CourseID:     r.CourseID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.DateOfBirth.Valid {
		s.DateOfBirth = r.DateOfBirth.Time.Format(dateLayout)
	}
	return s
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO students
	(id, enrollment_no, name, father_name, date_of_birth, email, phone, center_id, course_id, created_at, updated_at)
	VALUES (:id, :enrollment_no, :name, :father_name, :date_of_birth, :email, :phone, :center_id, :course_id, :created_at, :updated_at)`,
		toStudentRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, studentSelect+" WHERE id = $1", id); err != nil {
		return student.Student{}, notFound(err, student.ErrNotFound, "selecting student")
	}
	return r.student(), nil
}

func (repo *studentRepository) GetStudentByEnrollmentNo(ctx context.Context, enrollmentNo string) (student.Student, error) {
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, studentSelect+" WHERE enrollment_no = $1", enrollmentNo); err != nil {
		return student.Student{}, notFound(err, student.ErrNotFound, "selecting student")
	}
	return r.student(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	filter.Clean()
	var w where
	w.search(filter.Search, "name", "enrollment_no")
	if filter.CenterID != "" {
		w.add("center_id = ?", filter.CenterID)
	}
	if filter.CourseID != "" {
		w.add("course_id = ?", filter.CourseID)
	}

	var rows []studentRow
	q := repo.db.Rebind(studentSelect + w.String() + orderBy(ordering, studentColumns))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE students SET
	enrollment_no = :enrollment_no, name = :name, father_name = :father_name, date_of_birth = :date_of_birth,
	email = :email, phone = :phone, center_id = :center_id, course_id = :course_id, updated_at = :updated_at
	WHERE id = :id`, toStudentRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "students", ids)
}
