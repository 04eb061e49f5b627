package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/inquiry"
	"github.com/paramedico/console/core/user"
	emailsvc "github.com/paramedico/console/services/email"
	"github.com/paramedico/console/tests"
)

func Test_inquiryApi_submit(t *testing.T) {
	env := setup(t)
	dmlt := testutil.CreateCourse(t, env.courseRepo, "DMLT", "Medical Lab Technology", course.TermSemester, 2)

	runHTTPTests(t, env, []httpTest{
		{name: "empty body", method: http.MethodPost, path: "/v1/inquiries", body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{
			name: "blank name", method: http.MethodPost, path: "/v1/inquiries",
			body:     marchallObj(t, inquiry.NewInquiry{Name: "  ", Email: "asha@test.in", Source: inquiry.SourceHome}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field cannot be blank"}),
		},
		{
			name: "unknown course", method: http.MethodPost, path: "/v1/inquiries",
			body:     marchallObj(t, inquiry.NewInquiry{Name: "Asha", Phone: "+91 98220 12345", CourseID: "unknown", Source: inquiry.SourceProgram}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"courseId": course.ErrNotFound.Error()}),
		},
	})

	t.Run("submitted", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		body := marchallObj(t, inquiry.NewInquiry{
			Name:     " Asha Patil ",
			Email:    "Asha@Test.in",
			CourseID: dmlt.ID,
			Message:  "When does the next batch start?",
			Source:   "Contact",
		})
		rec := env.do(http.MethodPost, "/v1/inquiries", "", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var inq inquiry.Inquiry
		unmarshal(t, rec, &inq)
		assert.NotEmpty(t, inq.ID)
		assert.Equal(t, "Asha Patil", inq.Name)
		assert.Equal(t, "asha@test.in", inq.Email)
		assert.Equal(t, inquiry.SourceContact, inq.Source)
		assert.Equal(t, inquiry.StatusNew, inq.Status)

		sent := emailsvc.LastSentMessages(1)
		require.Len(t, sent, 1)
		assert.Equal(t, env.conf.Inquiry.NotifyEmail, sent[0].To[0].Address)
		assert.Equal(t, "New inquiry from Asha Patil", sent[0].Subject)
	})
}

func Test_inquiryApi_throttle(t *testing.T) {
	env := setup(t)
	body := marchallObj(t, inquiry.NewInquiry{Name: "Ravi", Phone: "9822012345", Source: inquiry.SourceHome})

	for i := 0; i < env.conf.Inquiry.RateLimit; i++ {
		rec := env.do(http.MethodPost, "/v1/inquiries", "", body)
		require.Equal(t, http.StatusCreated, rec.Code, fmt.Sprintf("submission %d: %s", i+1, rec.Body.String()))
	}

	rec := env.do(http.MethodPost, "/v1/inquiries", "", body)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusTooManyRequests,
		wantData: marchallObj(t, httpErr{Error: inquiry.ErrThrottled.Error()}),
	}, rec)
}

func Test_inquiryApi_throttleIgnoresForwardedFor(t *testing.T) {
	env := setup(t)
	body := marchallObj(t, inquiry.NewInquiry{Name: "Ravi", Phone: "9822012345", Source: inquiry.SourceHome})

	submit := func(remoteAddr, forwardedFor string) int {
		req, rec := newRequest(http.MethodPost, "/v1/inquiries", body)
		req.RemoteAddr = remoteAddr
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
		req.Header.Set(echo.HeaderXRealIP, forwardedFor)
		env.app.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < env.conf.Inquiry.RateLimit; i++ {
		require.Equal(t, http.StatusCreated, submit("203.0.113.7:5000", fmt.Sprintf("198.51.100.%d", i)))
	}
	assert.Equal(t, http.StatusTooManyRequests, submit("203.0.113.7:5001", "198.51.100.200"))
	assert.Equal(t, http.StatusCreated, submit("203.0.113.8:5000", "198.51.100.1"))
}

func Test_inquiryApi_admin(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@test.in", "", []string{user.RoleAdmin}, true)
	adminToken := env.getToken(t, admin)
	center := testutil.CreateCenter(t, env.centerRepo, "C01", "Pune Center", "Pune")
	centerToken := env.getToken(t, testutil.CreateCenterUser(t, env.usrRepo, "pune", center.ID))

	submit := func(ni inquiry.NewInquiry) inquiry.Inquiry {
		rec := env.do(http.MethodPost, "/v1/inquiries", "", marchallObj(t, ni))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var inq inquiry.Inquiry
		unmarshal(t, rec, &inq)
		return inq
	}
	asha := submit(inquiry.NewInquiry{Name: "Asha", Email: "asha@test.in", Source: inquiry.SourceHome})
	ravi := submit(inquiry.NewInquiry{Name: "Ravi", Phone: "9822012345", Source: inquiry.SourceProgram})

	runHTTPTests(t, env, []httpTest{
		{name: "auth required", path: "/v1/inquiries", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", path: "/v1/inquiries", token: centerToken, wantCode: http.StatusForbidden},
		{name: "search", path: "/v1/inquiries?search=982201", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, ravi)},
		{name: "source", path: "/v1/inquiries?source=home", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, asha)},
		{name: "retrieve", path: "/v1/inquiries/" + asha.ID, token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, asha)},
		{
			name: "unknown", path: "/v1/inquiries/unknown", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: inquiry.ErrNotFound.Error()}),
		},
		{
			name: "invalid status", method: http.MethodPut, path: "/v1/inquiries/" + asha.ID, token: adminToken,
			body: []byte(`{"status":"lost"}`), wantCode: http.StatusBadRequest,
		},
	})

	t.Run("update status", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/inquiries/"+asha.ID, adminToken, []byte(`{"status":"Contacted"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var inq inquiry.Inquiry
		unmarshal(t, rec, &inq)
		assert.Equal(t, inquiry.StatusContacted, inq.Status)

		rec = env.do(http.MethodGet, "/v1/inquiries?status=contacted", adminToken)
		var list []inquiry.Inquiry
		unmarshal(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, asha.ID, list[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/inquiries?id="+asha.ID+"&id="+ravi.ID, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(http.MethodGet, "/v1/inquiries", adminToken)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})
}
