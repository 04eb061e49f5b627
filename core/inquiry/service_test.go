package inquiry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/inquiry"
	"github.com/paramedico/console/services/email"
	"github.com/paramedico/console/services/logger"
	"github.com/paramedico/console/services/throttle"
	"github.com/paramedico/console/storage/database/inmem"
	"github.com/paramedico/console/tests"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestNewInquiry_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	tests := []struct {
		name    string
		ni      inquiry.NewInquiry
		wantErr core.FieldErrors
	}{
		{name: "valid with email", ni: inquiry.NewInquiry{Name: "Asha", Email: " ASHA@Test.in ", Source: "Home"}},
		{name: "valid with phone", ni: inquiry.NewInquiry{Name: "Asha", Phone: "+91 98765 43210", Source: "contact"}},
		{
			name: "empty",
			ni:   inquiry.NewInquiry{Name: "  "},
			wantErr: core.FieldErrors{
				"name":   "this field cannot be blank",
				"email":  "this field is required",
				"phone":  "this field is required",
				"source": "this field is required",
			},
		},
		{
			name:    "bad contact",
			ni:      inquiry.NewInquiry{Name: "Asha", Email: "asha", Phone: "12", Source: "program"},
			wantErr: core.FieldErrors{"email": "email must be a valid email address", "phone": "enter a valid phone number"},
		},
		{
			name:    "unknown source",
			ni:      inquiry.NewInquiry{Name: "Asha", Email: "asha@test.in", Source: "facebook"},
			wantErr: core.FieldErrors{"source": "source must be one of [home contact program]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ni.Validate(validate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Equal(t, tt.wantErr, core.TranslateErrors(verrs, translator))
		})
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	courseRepo := inmemdb.NewCourseRepository(db)
	dmlt := testutil.CreateCourse(t, courseRepo, "DMLT", "Medical Lab Technology", course.TermSemester, 2)

	inquiry.NowFunc = func() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }
	defer func() { inquiry.NowFunc = time.Now }()

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logsvc.NewDiscardLogger())
	svc := inquiry.NewService(
		inmemdb.NewInquiryRepository(db),
		throttle.NewMemoryLimiter(2, time.Hour),
		course.NewService(courseRepo),
		mailSvc,
		conf,
	)
	emailsvc.ResetSentMessages()

	inq, err := svc.Submit(ctx, "1.2.3.4", inquiry.NewInquiry{
		Name: "Asha", Email: "asha@test.in", CourseID: dmlt.ID, Message: "Fees?", Source: inquiry.SourceProgram,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inq.ID)
	assert.Equal(t, inquiry.StatusNew, inq.Status)

	sent := emailsvc.LastSentMessages(1)
	require.Len(t, sent, 1)
	assert.Equal(t, conf.Inquiry.NotifyEmail, sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Medical Lab Technology")
	assert.Contains(t, sent[0].TextContent, "Fees?")

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.Submit(ctx, "1.2.3.4", inquiry.NewInquiry{Name: "Ravi", Phone: "9876543210", CourseID: "nope", Source: inquiry.SourceHome})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []core.FieldError{{Field: "courseId", Error: course.ErrNotFound.Error()}}, verr.Fields)
	})

	t.Run("throttled", func(t *testing.T) {
		_, err := svc.Submit(ctx, "1.2.3.4", inquiry.NewInquiry{Name: "Ravi", Phone: "9876543210", Source: inquiry.SourceHome})
		assert.Equal(t, inquiry.ErrThrottled, err)

		_, err = svc.Submit(ctx, "5.6.7.8", inquiry.NewInquiry{Name: "Ravi", Phone: "9876543210", Source: inquiry.SourceHome})
		assert.NoError(t, err)
	})

	t.Run("limiter failure", func(t *testing.T) {
		svc := inquiry.NewService(inmemdb.NewInquiryRepository(db), failingLimiter{}, course.NewService(courseRepo), mailSvc, conf)
		_, err := svc.Submit(ctx, "1.2.3.4", inquiry.NewInquiry{Name: "Ravi", Phone: "9876543210", Source: inquiry.SourceHome})
		assert.Error(t, err)
	})

	t.Run("query & update", func(t *testing.T) {
		inquiries, err := svc.Query(ctx, inquiry.QueryFilter{Status: "NEW"}, nil)
		require.NoError(t, err)
		assert.Len(t, inquiries, 2)

		updated, err := svc.Update(ctx, inq, inquiry.UpdateInquiry{Status: inquiry.StatusContacted})
		require.NoError(t, err)
		assert.Equal(t, inquiry.StatusContacted, updated.Status)

		inquiries, err = svc.Query(ctx, inquiry.QueryFilter{Status: inquiry.StatusNew}, nil)
		require.NoError(t, err)
		assert.Len(t, inquiries, 1)

		require.NoError(t, svc.Delete(ctx, inq.ID))
		_, err = svc.GetByID(ctx, inq.ID)
		assert.Equal(t, inquiry.ErrNotFound, err)
	})
}
