package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/paramedico/console/apps/api/echo"
	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/inquiry"
	"github.com/paramedico/console/core/marksheet"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
	emailsvc "github.com/paramedico/console/services/email"
	logsvc "github.com/paramedico/console/services/logger"
	"github.com/paramedico/console/services/throttle"
	inmemdb "github.com/paramedico/console/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app         Server
	conf        *core.Config
	usrRepo     user.Repository
	centerRepo  center.Repository
	courseRepo  course.Repository
	studentRepo student.Repository
}

func setup(t *testing.T) testEnv {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewDiscardLogger()

	// set up DB & repos
	db := inmemdb.Open()
	env := testEnv{
		conf:        conf,
		usrRepo:     inmemdb.NewUserRepository(db),
		centerRepo:  inmemdb.NewCenterRepository(db),
		courseRepo:  inmemdb.NewCourseRepository(db),
		studentRepo: inmemdb.NewStudentRepository(db),
	}

	// set up services
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	limiter := throttle.NewMemoryLimiter(conf.Inquiry.RateLimit, conf.Inquiry.RateWindow)

	centerSvc := center.NewService(env.centerRepo)
	courseSvc := course.NewService(env.courseRepo)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	// set up server
	env.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DB:             db,
		DisableReqLogs: true,
		UserSvc:        user.NewService(env.usrRepo, mailSvc),
		CenterSvc:      centerSvc,
		CourseSvc:      courseSvc,
		StudentSvc:     student.NewService(env.studentRepo, centerSvc, courseSvc),
		MarksheetSvc:   marksheet.NewService(inmemdb.NewMarksheetRepository(db), env.studentRepo, courseSvc, conf),
		InquirySvc:     inquiry.NewService(inmemdb.NewInquiryRepository(db), limiter, courseSvc, mailSvc, conf),
		Validate:       validate,
		Translator:     translator,
	})
	return env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	require.NoError(t, err, "getToken()")
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marchallObj()")
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	require.NoError(t, err, "marchallList()")
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "unmarshal(%s)", rec.Body.String())
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, env.do(method, tt.path, tt.token, tt.body))
		})
	}
}
