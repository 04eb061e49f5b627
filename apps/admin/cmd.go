package main

import (
	"database/sql"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db        *sql.DB
	usrSvc    user.Service
	centerSvc center.Service
	courseSvc course.Service
	validate  *validator.Validate
	out       io.Writer
}

func newCommandLine(db *sql.DB, usrSvc user.Service, centerSvc center.Service, courseSvc course.Service, validate *validator.Validate, out io.Writer) *commandLine {
	vala.BeginValidation().Validate(
		vala.IsNotNil(usrSvc, "usrSvc"),
		vala.IsNotNil(centerSvc, "centerSvc"),
		vala.IsNotNil(courseSvc, "courseSvc"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(out, "out"),
	).CheckAndPanic()

	return &commandLine{db: db, usrSvc: usrSvc, centerSvc: centerSvc, courseSvc: courseSvc, validate: validate, out: out}
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Console administration tasks",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.seedCoursesCmd(),
	)
	return root
}

// run executes args, without the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label+": ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

// checkPassword applies the user password policy.
func checkPassword(pwd string, usr user.User) error {
	if tag := user.CheckPassword(pwd, usr.Name, usr.Username, usr.Email); tag != "" {
		return errors.New(user.PasswordPolicyText(tag))
	}
	return nil
}
