package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
	"github.com/paramedico/console/storage/database/inmem"
)

// ResetDB drops all rows of db before a test.
func ResetDB(t *testing.T, db *inmemdb.DB) {
	t.Helper()
	db.Reset()
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd), "createUser()")
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err, "createUser()")
	return usr
}

// CreateCenterUser creates an active center account bound to centerID.
func CreateCenterUser(t *testing.T, repo user.Repository, uname, centerID string) user.User {
	t.Helper()
	usr := CreateUser(t, repo, "Center "+uname, uname, uname+"@test.in", "", []string{user.RoleCenter}, true)
	usr.CenterID = centerID
	usr, err := repo.UpdateUser(context.Background(), usr)
	require.NoError(t, err, "createCenterUser()")
	return usr
}

func CreateCenter(t *testing.T, repo center.Repository, code, name, city string, createdAt ...time.Time) center.Center {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCenter(context.Background(), center.Center{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		City:      city,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	require.NoError(t, err, "createCenter()")
	return c
}

// CreateCourse creates a course with the given catalogue subject names, each scored 30-100.
func CreateCourse(t *testing.T, repo course.Repository, code, name, termKind string, termCount int, subjects ...string) course.Course {
	t.Helper()

	now := time.Now().UTC()
	c := course.Course{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		TermKind:  termKind,
		TermCount: termCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, subj := range subjects {
		c.Subjects = append(c.Subjects, course.CatalogueSubject{ID: uuid.New().String(), Name: subj, MinMarks: 30, MaxMarks: 100})
	}
	c, err := repo.CreateCourse(context.Background(), c)
	require.NoError(t, err, "createCourse()")
	return c
}

func CreateStudent(t *testing.T, repo student.Repository, enrollmentNo, name, centerID, courseID string, createdAt ...time.Time) student.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	s, err := repo.CreateStudent(context.Background(), student.Student{
		ID:           uuid.New().String(),
		EnrollmentNo: enrollmentNo,
		Name:         name,
		CenterID:     centerID,
		CourseID:     courseID,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	require.NoError(t, err, "createStudent()")
	return s
}
