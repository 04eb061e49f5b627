package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/paramedico/console/apps/api/echo"
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
	"github.com/paramedico/console/storage/database"
	inmemdb "github.com/paramedico/console/storage/database/inmem"
	sqlxrepos "github.com/paramedico/console/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB & repos
	repos, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	limiter := setUpLimiter(conf, logger)

	usrSvc := user.NewService(repos.users, mailSvc)
	centerSvc := center.NewService(repos.centers)
	courseSvc := course.NewService(repos.courses)
	studentSvc := student.NewService(repos.students, centerSvc, courseSvc)
	marksheetSvc := marksheet.NewService(repos.marksheets, repos.students, courseSvc, conf)
	inquirySvc := inquiry.NewService(repos.inquiries, limiter, courseSvc, mailSvc, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			DB:           repos.db,
			UserSvc:      usrSvc,
			CenterSvc:    centerSvc,
			CourseSvc:    courseSvc,
			StudentSvc:   studentSvc,
			MarksheetSvc: marksheetSvc,
			InquirySvc:   inquirySvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type repositories struct {
	db         core.DB
	users      user.Repository
	centers    center.Repository
	courses    course.Repository
	students   student.Repository
	marksheets marksheet.Repository
	inquiries  inquiry.Repository
}

// setUpDB opens Postgres, creating and migrating the database if needed, unless the in-memory store is configured.
func setUpDB(conf *core.Config) (repositories, error) {
	if conf.Database.InMemory {
		db := inmemdb.Open()
		return repositories{
			db:         db,
			users:      inmemdb.NewUserRepository(db),
			centers:    inmemdb.NewCenterRepository(db),
			courses:    inmemdb.NewCourseRepository(db),
			students:   inmemdb.NewStudentRepository(db),
			marksheets: inmemdb.NewMarksheetRepository(db),
			inquiries:  inmemdb.NewInquiryRepository(db),
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout*6)
	defer cancel()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return repositories{}, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, err
	}
	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	return repositories{
		db:         db,
		users:      sqlxrepos.NewUserRepository(db),
		centers:    sqlxrepos.NewCenterRepository(db),
		courses:    sqlxrepos.NewCourseRepository(db),
		students:   sqlxrepos.NewStudentRepository(db),
		marksheets: sqlxrepos.NewMarksheetRepository(db),
		inquiries:  sqlxrepos.NewInquiryRepository(db),
	}, nil
}

// setUpLimiter throttles with Redis, falling back to a per-process limiter when Redis is unreachable.
func setUpLimiter(conf *core.Config, logger core.Logger) inquiry.Limiter {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	client, err := throttle.OpenRedis(ctx, conf)
	if err != nil {
		logger.Warn(fmt.Sprintf("redis unavailable, throttling in memory: %v", err))
		return throttle.NewMemoryLimiter(conf.Inquiry.RateLimit, conf.Inquiry.RateWindow)
	}
	return throttle.NewRedisLimiter(client, conf.Inquiry.RateLimit, conf.Inquiry.RateWindow)
}
