package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/user"
	emailsvc "github.com/paramedico/console/services/email"
	logsvc "github.com/paramedico/console/services/logger"
	"github.com/paramedico/console/storage/database"
	sqlxrepos "github.com/paramedico/console/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	// start CLI
	cli := newCommandLine(
		db.DB,
		user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger)),
		center.NewService(sqlxrepos.NewCenterRepository(db)),
		course.NewService(sqlxrepos.NewCourseRepository(db)),
		validate,
		os.Stdout,
	)
	if err = cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err))
		}
		_ = db.Close()
		os.Exit(1)
	}
}
