package inmemdb

import (
	"context"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/student"
)

type studentRepository struct {
	db *table[student.Student]
}

var _ student.Repository = (*studentRepository)(nil)

var studentComparators = comparators[student.Student]{
	"enrollmentNo": func(a, b student.Student) int { return compareStrings(a.EnrollmentNo, b.EnrollmentNo) },
	"name":         func(a, b student.Student) int { return compareStrings(a.Name, b.Name) },
	"createdAt":    func(a, b student.Student) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows[s.ID] = s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.rows[id]; ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByEnrollmentNo(_ context.Context, enrollmentNo string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.find(func(s student.Student) bool { return s.EnrollmentNo == enrollmentNo }); ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	students := repo.db.filter(filter.Match)
	orderBy(students, ordering, studentComparators, func(s student.Student) time.Time { return s.CreatedAt })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.rows[s.ID] = s
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.delete(ids...)
	return nil
}
