package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/paramedico/console/apps/api/echo"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/marksheet"
	"github.com/paramedico/console/core/user"
	"github.com/paramedico/console/tests"
)

func subject(name, marks, internal, total string) marksheet.SubjectDraft {
	return marksheet.SubjectDraft{SubjectName: name, Marks: marks, Internal: internal, Total: total, MinMarks: "30", MaxMarks: "100"}
}

func Test_marksheetApi(t *testing.T) {
	marksheet.NowFunc = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { marksheet.NowFunc = time.Now })

	env := setup(t)

	pune := testutil.CreateCenter(t, env.centerRepo, "C01", "Pune Center", "Pune")
	nagpur := testutil.CreateCenter(t, env.centerRepo, "C02", "Nagpur Center", "Nagpur")
	dmlt := testutil.CreateCourse(t, env.courseRepo, "DMLT", "Medical Lab Technology", course.TermSemester, 2, "Anatomy")
	asha := testutil.CreateStudent(t, env.studentRepo, "PMI001", "Asha Patil", pune.ID, dmlt.ID)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@test.in", "", []string{user.RoleAdmin}, true)
	adminToken := env.getToken(t, admin)
	puneToken := env.getToken(t, testutil.CreateCenterUser(t, env.usrRepo, "pune", pune.ID))
	nagpurToken := env.getToken(t, testutil.CreateCenterUser(t, env.usrRepo, "nagpur", nagpur.ID))

	newMarksheet := func(studentID string, semester int, subjects ...marksheet.SubjectDraft) []byte {
		return marchallObj(t, marksheet.NewMarksheet{StudentID: studentID, Semester: semester, Subjects: subjects})
	}

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/marksheets", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "total", method: http.MethodPost, path: "/v1/marksheets/total", token: puneToken,
			body:     marchallObj(t, TotalRequest{Marks: "55.5", Internal: "20"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, TotalResponse{Total: "75.5"}),
		},
		{
			name: "total of blank fields", method: http.MethodPost, path: "/v1/marksheets/total", token: puneToken,
			body:     marchallObj(t, TotalRequest{Marks: "", Internal: "abc"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, TotalResponse{Total: "0"}),
		},
		{
			name: "empty form", method: http.MethodPost, path: "/v1/marksheets", token: puneToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"studentId":   "Please select a student",
				"subjectName": "Please add at least one subject",
			}),
		},
		{
			name: "student of another center", method: http.MethodPost, path: "/v1/marksheets", token: nagpurToken,
			body:     newMarksheet(asha.ID, 1, subject("English", "60", "20", "80")),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"studentId": "Please select a student"}),
		},
		{
			name: "center ceiling and duplicates", method: http.MethodPost, path: "/v1/marksheets", token: puneToken,
			body: newMarksheet(asha.ID, 1,
				subject("English", "60", "20", "80"),
				subject("Anatomy", "70", "15", "85"),
				subject(" english ", "50", "10", "60"),
			),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"subjects[1].total":       "Total cannot exceed 80",
				"subjects[2].subjectName": "This subject has already been added",
			}),
		},
	})

	var created marksheet.Marksheet
	t.Run("create", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/marksheets", puneToken, newMarksheet(asha.ID, 1,
			subject("English", "60", "20", "80"),
			subject("Anatomy", "40", "10", "50"),
		))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarshal(t, rec, &created)
		assert.Equal(t, "PMI2026-000001", created.SerialNo)
		assert.Equal(t, pune.ID, created.CenterID)
		assert.Equal(t, dmlt.ID, created.CourseID)
		require.Len(t, created.Subjects, 2)
		assert.Equal(t, 80.0, created.Subjects[0].Total)
	})
	require.NotEmpty(t, created.ID)

	runHTTPTests(t, env, []httpTest{
		{
			name: "same term twice", method: http.MethodPost, path: "/v1/marksheets", token: adminToken,
			body:     newMarksheet(asha.ID, 1, subject("English", "60", "20", "80")),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"semester": marksheet.ErrTermExists.Error()}),
		},
		{name: "retrieve", path: "/v1/marksheets/" + created.ID, token: puneToken, wantCode: http.StatusOK, wantData: marchallObj(t, created)},
		{
			name: "retrieve from another center", path: "/v1/marksheets/" + created.ID, token: nagpurToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: marksheet.ErrNotFound.Error()}),
		},
		{name: "query", path: "/v1/marksheets?semester=1", token: puneToken, wantCode: http.StatusOK, wantData: marchallList(t, created)},
		{name: "query is scoped to the center", path: "/v1/marksheets", token: nagpurToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "center cannot delete", method: http.MethodDelete, path: "/v1/marksheets/" + created.ID, token: puneToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "unknown result", path: "/v1/results/PMI2026-999999",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: marksheet.ErrNotFound.Error()}),
		},
	})

	t.Run("public result", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/results/PMI2026-000001", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res marksheet.Result
		unmarshal(t, rec, &res)
		assert.Equal(t, "Asha Patil", res.StudentName)
		assert.Equal(t, "Medical Lab Technology", res.CourseName)
		assert.Equal(t, marksheet.Aggregate{
			SubjectCount: 2,
			TotalMarks:   130,
			MaxTotal:     200,
			AverageMarks: 65,
			Percentage:   65,
			Result:       marksheet.ResultPass,
		}, res.Aggregate)
	})

	t.Run("check subject", func(t *testing.T) {
		body := marchallObj(t, CheckSubjectRequest{
			Subject:  subject("anatomy", "70", "", ""),
			Subjects: created.Subjects,
		})
		rec := env.do(http.MethodPost, "/v1/marksheets/check-subject", puneToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var check marksheet.DraftCheck
		unmarshal(t, rec, &check)
		assert.Equal(t, "70", check.Total)
		assert.Equal(t, "This subject has already been added", check.Errors["subjectName"])
		assert.Contains(t, check.Errors, "internal")
	})

	t.Run("update replaces subjects", func(t *testing.T) {
		body := marchallObj(t, marksheet.UpdateMarksheet{Subjects: []marksheet.SubjectDraft{subject("Physiology", "45", "25", "70")}})
		rec := env.do(http.MethodPut, "/v1/marksheets/"+created.ID, puneToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var ms marksheet.Marksheet
		unmarshal(t, rec, &ms)
		assert.Equal(t, created.SerialNo, ms.SerialNo)
		require.Len(t, ms.Subjects, 1)
		assert.Equal(t, "Physiology", ms.Subjects[0].SubjectName)
	})

	t.Run("update keeps the subjects on error", func(t *testing.T) {
		body := marchallObj(t, marksheet.UpdateMarksheet{})
		rec := env.do(http.MethodPut, "/v1/marksheets/"+created.ID, puneToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/marksheets/"+created.ID, adminToken)
		var ms marksheet.Marksheet
		unmarshal(t, rec, &ms)
		assert.Len(t, ms.Subjects, 1)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/marksheets/"+created.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/results/"+created.SerialNo, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
