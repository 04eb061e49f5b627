package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/suggest"
	"github.com/paramedico/console/core/user"
	"github.com/paramedico/console/tests"
)

func Test_studentApi(t *testing.T) {
	env := setup(t)

	pune := testutil.CreateCenter(t, env.centerRepo, "C01", "Pune Center", "Pune")
	nagpur := testutil.CreateCenter(t, env.centerRepo, "C02", "Nagpur Center", "Nagpur")
	dmlt := testutil.CreateCourse(t, env.courseRepo, "DMLT", "Medical Lab Technology", course.TermSemester, 2)
	asha := testutil.CreateStudent(t, env.studentRepo, "PMI001", "Asha Patil", pune.ID, dmlt.ID)
	ravi := testutil.CreateStudent(t, env.studentRepo, "PMI002", "Ravi Kale", nagpur.ID, dmlt.ID)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@test.in", "", []string{user.RoleAdmin}, true)
	adminToken := env.getToken(t, admin)
	puneToken := env.getToken(t, testutil.CreateCenterUser(t, env.usrRepo, "pune", pune.ID))

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin sees all", path: "/v1/students?ordering=enrollmentNo", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, asha, ravi)},
		{name: "admin filters by center", path: "/v1/students?centerId=" + nagpur.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, ravi)},
		{name: "center sees its own", path: "/v1/students?centerId=" + nagpur.ID, token: puneToken, wantCode: http.StatusOK, wantData: marchallList(t, asha)},
		{name: "search", path: "/v1/students?search=pmi002", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, ravi)},
		{
			name: "suggest is scoped", path: "/v1/students/suggest?q=a", token: puneToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, []suggest.Option{{ID: asha.ID, Label: "Asha Patil (PMI001)"}}),
		},
		{name: "retrieve", path: "/v1/students/" + asha.ID, token: puneToken, wantCode: http.StatusOK, wantData: marchallObj(t, asha)},
		{
			name: "retrieve from another center", path: "/v1/students/" + ravi.ID, token: puneToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: student.ErrNotFound.Error()}),
		},
		{name: "center cannot delete", method: http.MethodDelete, path: "/v1/students/" + asha.ID, token: puneToken, wantCode: http.StatusForbidden},
		{
			name: "create: invalid", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body: []byte(`{"enrollmentNo":"PMI 003","name":" ","courseId":""}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "create: duplicate and unknown refs", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     marchallObj(t, student.NewStudent{EnrollmentNo: "pmi001", Name: "Asha", CenterID: "unknown", CourseID: "unknown"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"enrollmentNo": student.ErrEnrollmentNoExists.Error(),
				"centerId":     center.ErrNotFound.Error(),
				"courseId":     course.ErrNotFound.Error(),
			}),
		},
	})

	var meera student.Student
	t.Run("center enrolls into its own center", func(t *testing.T) {
		body := marchallObj(t, student.NewStudent{
			EnrollmentNo: "pmi003",
			Name:         " Meera Joshi ",
			DateOfBirth:  "2004-02-29",
			CenterID:     nagpur.ID,
			CourseID:     dmlt.ID,
		})
		rec := env.do(http.MethodPost, "/v1/students", puneToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarshal(t, rec, &meera)
		assert.Equal(t, "PMI003", meera.EnrollmentNo)
		assert.Equal(t, "Meera Joshi", meera.Name)
		assert.Equal(t, pune.ID, meera.CenterID)
	})
	require.NotEmpty(t, meera.ID)

	t.Run("update keeps blank fields", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/students/"+meera.ID, puneToken, []byte(`{"phone":"+91 98220 12345"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var s student.Student
		unmarshal(t, rec, &s)
		assert.Equal(t, "Meera Joshi", s.Name)
		assert.Equal(t, "2004-02-29", s.DateOfBirth)
		assert.Equal(t, "+91 98220 12345", s.Phone)
	})

	t.Run("update with unknown course", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/students/"+meera.ID, puneToken, []byte(`{"courseId":"unknown"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"courseId": course.ErrNotFound.Error()}),
		}, rec)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/students?id="+meera.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/students/"+meera.ID, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
