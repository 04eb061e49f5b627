package inmemdb

import (
	"context"
	"time"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
)

type courseRepository struct {
	db *table[course.Course]
}

var _ course.Repository = (*courseRepository)(nil)

var courseComparators = comparators[course.Course]{
	"code":      func(a, b course.Course) int { return compareStrings(a.Code, b.Code) },
	"name":      func(a, b course.Course) int { return compareStrings(a.Name, b.Name) },
	"createdAt": func(a, b course.Course) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// subjects are copied in and out so callers never share the stored slice
func copyCourse(c course.Course) course.Course {
	c.Subjects = append([]course.CatalogueSubject(nil), c.Subjects...)
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.rows[c.ID] = copyCourse(c)
	return c, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return copyCourse(c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseByCode(_ context.Context, code string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.find(func(c course.Course) bool { return c.Code == code }); ok {
		return copyCourse(c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	courses := repo.db.filter(filter.Match)
	for i := range courses {
		courses[i] = copyCourse(courses[i])
	}
	orderBy(courses, ordering, courseComparators, func(c course.Course) time.Time { return c.CreatedAt })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.rows[c.ID] = copyCourse(c)
	return c, nil
}

func (repo *courseRepository) DeleteCoursesByID(_ context.Context, ids ...string) error {
	repo.db.delete(ids...)
	return nil
}
