package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/suggest"
	"github.com/paramedico/console/core/user"
	"github.com/paramedico/console/tests"
)

func Test_courseApi(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@test.in", "", []string{user.RoleAdmin}, true)
	adminToken := env.getToken(t, admin)
	center := testutil.CreateCenter(t, env.centerRepo, "C01", "Pune Center", "Pune")
	centerToken := env.getToken(t, testutil.CreateCenterUser(t, env.usrRepo, "pune", center.ID))

	dmlt := testutil.CreateCourse(t, env.courseRepo, "DMLT", "Medical Lab Technology", course.TermSemester, 2, "Anatomy")
	dott := testutil.CreateCourse(t, env.courseRepo, "DOTT", "Operation Theatre Technology", course.TermYear, 2)

	newCourse := course.NewCourse{
		Code:      "decg",
		Name:      " ECG Technician ",
		TermKind:  "Semester",
		TermCount: 1,
		Subjects:  []course.CatalogueSubject{{Name: "Cardiology", MinMarks: 35, MaxMarks: 100}},
	}

	runHTTPTests(t, env, []httpTest{
		{name: "public list", path: "/v1/courses?ordering=code", wantCode: http.StatusOK, wantData: marchallList(t, dmlt, dott)},
		{name: "public search", path: "/v1/courses?search=theatre", wantCode: http.StatusOK, wantData: marchallList(t, dott)},
		{name: "public term filter", path: "/v1/courses?termKind=semester", wantCode: http.StatusOK, wantData: marchallList(t, dmlt)},
		{name: "public detail", path: "/v1/courses/" + dmlt.ID, wantCode: http.StatusOK, wantData: marchallObj(t, dmlt)},
		{
			name: "unknown", path: "/v1/courses/unknown",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()}),
		},
		{
			name: "suggest", path: "/v1/courses/suggest?q=tech&limit=1", wantCode: http.StatusOK,
			wantData: marchallObj(t, []suggest.Option{{ID: dmlt.ID, Label: "DMLT - Medical Lab Technology"}}),
		},
		{name: "create: auth required", method: http.MethodPost, path: "/v1/courses", body: marchallObj(t, newCourse), wantCode: http.StatusUnauthorized},
		{name: "create: admin required", method: http.MethodPost, path: "/v1/courses", token: centerToken, body: marchallObj(t, newCourse), wantCode: http.StatusForbidden},
		{name: "update: admin required", method: http.MethodPut, path: "/v1/courses/" + dmlt.ID, token: centerToken, body: []byte(`{}`), wantCode: http.StatusForbidden},
		{
			name: "create: invalid", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body: []byte(`{"code":"DECG","name":"ECG","termKind":"month","termCount":1}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "create: duplicate code", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body:     marchallObj(t, course.NewCourse{Code: "dmlt", Name: "Lab", TermKind: course.TermSemester, TermCount: 1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": course.ErrCodeExists.Error()}),
		},
	})

	var decg course.Course
	t.Run("create", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/courses", adminToken, marchallObj(t, newCourse))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarshal(t, rec, &decg)
		assert.Equal(t, "DECG", decg.Code)
		assert.Equal(t, "ECG Technician", decg.Name)
		assert.Equal(t, course.TermSemester, decg.TermKind)
		require.Len(t, decg.Subjects, 1)
		assert.NotEmpty(t, decg.Subjects[0].ID)
	})
	require.NotEmpty(t, decg.ID)

	t.Run("subjects", func(t *testing.T) {
		path := "/v1/courses/" + decg.ID + "/subjects"

		rec := env.do(http.MethodPost, path, adminToken, []byte(`{"name":" cardiology ","minMarks":30,"maxMarks":100}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": course.ErrSubjectExists.Error()}),
		}, rec)

		rec = env.do(http.MethodPost, path, adminToken, []byte(`{"name":"Physics","minMarks":50,"maxMarks":40}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		rec = env.do(http.MethodPost, path, adminToken, []byte(`{"name":"Physics","minMarks":30,"maxMarks":100}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var c course.Course
		unmarshal(t, rec, &c)
		require.Len(t, c.Subjects, 2)
		physics := c.Subjects[1]
		assert.Equal(t, "Physics", physics.Name)
		assert.NotEqual(t, decg.ID, physics.ID)

		rec = env.do(http.MethodDelete, path+"/"+physics.ID, adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &c)
		assert.Len(t, c.Subjects, 1)

		rec = env.do(http.MethodDelete, path+"/"+physics.ID, adminToken)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: course.ErrSubjectNotFound.Error()}),
		}, rec)
	})

	t.Run("update keeps blank fields", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/courses/"+decg.ID, adminToken, []byte(`{"termCount":2}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var c course.Course
		unmarshal(t, rec, &c)
		assert.Equal(t, "ECG Technician", c.Name)
		assert.Equal(t, course.TermSemester, c.TermKind)
		assert.Equal(t, 2, c.TermCount)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/courses/"+decg.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/courses/"+decg.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
