package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/marksheet"
)

type marksheetRepository struct {
	db *sqlx.DB
}

var _ marksheet.Repository = (*marksheetRepository)(nil)

var marksheetColumns = map[string]string{
	"serialNo":  "serial_no",
	"semester":  "semester",
	"year":      "year",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type (
	marksheetRow struct {
		ID        string      `db:"id"`
		SerialNo  string      `db:"serial_no"`
		StudentID string      `db:"student_id"`
		CourseID  string      `db:"course_id"`
		CenterID  string      `db:"center_id"`
		Semester  null.Int    `db:"semester"`
		Year      null.Int    `db:"year"`
		CreatedBy null.String `db:"created_by"`
		CreatedAt time.Time   `db:"created_at"`
		UpdatedAt time.Time   `db:"updated_at"`
	}

	subjectRow struct {
		ID          string      `db:"id"`
		MarksheetID string      `db:"marksheet_id"`
		Position    int         `db:"position"`
		SubjectName string      `db:"subject_name"`
		Marks       float64     `db:"marks"`
		Internal    float64     `db:"internal"`
		Total       float64     `db:"total"`
		MinMarks    float64     `db:"min_marks"`
		MaxMarks    float64     `db:"max_marks"`
		Grade       null.String `db:"grade"`
	}
)

const marksheetSelect = `SELECT id, serial_no, student_id, course_id, center_id, semester, year, created_by,
	created_at, updated_at FROM marksheets`

func NewMarksheetRepository(db *sqlx.DB) marksheet.Repository {
	return &marksheetRepository{db: db}
}

func nullInt(i int) null.Int {
	return null.NewInt(i, i != 0)
}

func toMarksheetRow(ms marksheet.Marksheet) marksheetRow {
	return marksheetRow{
		ID:        ms.ID,
		SerialNo:  ms.SerialNo,
		StudentID: ms.StudentID,
		CourseID:  ms.CourseID,
		CenterID:  ms.CenterID,
		Semester:  nullInt(ms.Semester),
		Year:      nullInt(ms.Year),
		CreatedBy: nullString(ms.CreatedBy),
		CreatedAt: ms.CreatedAt.UTC(),
		UpdatedAt: ms.UpdatedAt.UTC(),
	}
}

func (r marksheetRow) marksheet() marksheet.Marksheet {
	return marksheet.Marksheet{
		ID:        r.ID,
		SerialNo:  r.SerialNo,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		CenterID:  r.CenterID,
		Semester:  r.Semester.Int,
		Year:      r.Year.Int,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *marksheetRepository) CreateMarksheet(ctx context.Context, ms marksheet.Marksheet) (marksheet.Marksheet, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO marksheets
		(id, serial_no, student_id, course_id, center_id, semester, year, created_by, created_at, updated_at)
		VALUES (:id, :serial_no, :student_id, :course_id, :center_id, :semester, :year, :created_by, :created_at, :updated_at)`,
			toMarksheetRow(ms))
		if err != nil {
			return errors.Wrap(err, "inserting marksheet")
		}
		return insertSubjects(ctx, tx, ms)
	})
	if uniqueViolation(err, "marksheets_student_term_key") {
		return marksheet.Marksheet{}, marksheet.ErrTermExists
	}
	if err != nil {
		return marksheet.Marksheet{}, err
	}
	return ms, nil
}

func insertSubjects(ctx context.Context, tx *sqlx.Tx, ms marksheet.Marksheet) error {
	for i, subj := range ms.Subjects {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO marksheet_subjects
		(id, marksheet_id, position, subject_name, marks, internal, total, min_marks, max_marks, grade)
		VALUES (:id, :marksheet_id, :position, :subject_name, :marks, :internal, :total, :min_marks, :max_marks, :grade)`,
			subjectRow{
				ID:          subj.ID,
				MarksheetID: ms.ID,
				Position:    i,
				SubjectName: subj.SubjectName,
				Marks:       subj.Marks,
				Internal:    subj.Internal,
				Total:       subj.Total,
				MinMarks:    subj.MinMarks,
				MaxMarks:    subj.MaxMarks,
				Grade:       nullString(subj.Grade),
			})
		if err != nil {
			return errors.Wrap(err, "inserting marksheet subject")
		}
	}
	return nil
}

// NextSerial increments the sequence of year atomically.
func (repo *marksheetRepository) NextSerial(ctx context.Context, year int) (int, error) {
	var seq int
	err := repo.db.GetContext(ctx, &seq, `INSERT INTO marksheet_serials (year, last_seq) VALUES ($1, 1)
	ON CONFLICT (year) DO UPDATE SET last_seq = marksheet_serials.last_seq + 1
	RETURNING last_seq`, year)
	if err != nil {
		return 0, errors.Wrap(err, "incrementing serial sequence")
	}
	return seq, nil
}

func (repo *marksheetRepository) withSubjects(ctx context.Context, rows []marksheetRow) ([]marksheet.Marksheet, error) {
	sheets := make([]marksheet.Marksheet, 0, len(rows))
	if len(rows) == 0 {
		return sheets, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	q, args, err := sqlx.In(`SELECT id, marksheet_id, position, subject_name, marks, internal, total, min_marks, max_marks, grade
	FROM marksheet_subjects WHERE marksheet_id IN (?) ORDER BY marksheet_id, position`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building subjects query")
	}
	var subjRows []subjectRow
	if err = repo.db.SelectContext(ctx, &subjRows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting marksheet subjects")
	}

	subjects := make(map[string][]marksheet.SubjectRecord, len(rows))
	for _, s := range subjRows {
		subjects[s.MarksheetID] = append(subjects[s.MarksheetID], marksheet.SubjectRecord{
			ID:          s.ID,
			SubjectName: s.SubjectName,
			Marks:       s.Marks,
			Internal:    s.Internal,
			Total:       s.Total,
			MinMarks:    s.MinMarks,
			MaxMarks:    s.MaxMarks,
			Grade:       s.Grade.String,
		})
	}
	for _, r := range rows {
		ms := r.marksheet()
		ms.Subjects = subjects[r.ID]
		sheets = append(sheets, ms)
	}
	return sheets, nil
}

func (repo *marksheetRepository) getOne(ctx context.Context, cond string, arg interface{}) (marksheet.Marksheet, error) {
	var r marksheetRow
	if err := repo.db.GetContext(ctx, &r, marksheetSelect+" WHERE "+cond, arg); err != nil {
		return marksheet.Marksheet{}, notFound(err, marksheet.ErrNotFound, "selecting marksheet")
	}
	sheets, err := repo.withSubjects(ctx, []marksheetRow{r})
	if err != nil {
		return marksheet.Marksheet{}, err
	}
	return sheets[0], nil
}

func (repo *marksheetRepository) GetMarksheetByID(ctx context.Context, id string) (marksheet.Marksheet, error) {
	return repo.getOne(ctx, "id = $1", id)
}

func (repo *marksheetRepository) GetMarksheetBySerial(ctx context.Context, serialNo string) (marksheet.Marksheet, error) {
	return repo.getOne(ctx, "serial_no = $1", serialNo)
}

func (repo *marksheetRepository) QueryMarksheets(ctx context.Context, filter marksheet.QueryFilter, ordering []core.DBOrdering) ([]marksheet.Marksheet, error) {
	filter.Clean()
	var w where
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		w.add("course_id = ?", filter.CourseID)
	}
	if filter.CenterID != "" {
		w.add("center_id = ?", filter.CenterID)
	}
	if filter.Semester != 0 {
		w.add("semester = ?", filter.Semester)
	}
	if filter.Year != 0 {
		w.add("year = ?", filter.Year)
	}

	var rows []marksheetRow
	q := repo.db.Rebind(marksheetSelect + w.String() + orderBy(ordering, marksheetColumns))
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting marksheets")
	}
	return repo.withSubjects(ctx, rows)
}

func (repo *marksheetRepository) UpdateMarksheet(ctx context.Context, ms marksheet.Marksheet) (marksheet.Marksheet, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE marksheets SET updated_at = $2 WHERE id = $1", ms.ID, ms.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "updating marksheet")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return marksheet.ErrNotFound
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM marksheet_subjects WHERE marksheet_id = $1", ms.ID); err != nil {
			return errors.Wrap(err, "deleting marksheet subjects")
		}
		return insertSubjects(ctx, tx, ms)
	})
	if err != nil {
		return marksheet.Marksheet{}, err
	}
	return ms, nil
}

func (repo *marksheetRepository) DeleteMarksheetsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "marksheets", ids)
}
