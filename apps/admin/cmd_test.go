package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/center"
	"github.com/paramedico/console/core/course"
	"github.com/paramedico/console/core/user"
	emailsvc "github.com/paramedico/console/services/email"
	logsvc "github.com/paramedico/console/services/logger"
	inmemdb "github.com/paramedico/console/storage/database/inmem"
	"github.com/paramedico/console/tests"
)

const testPwd = "Pass!w0rd.Console"

type cliEnv struct {
	cli        *commandLine
	out        *bytes.Buffer
	usrRepo    user.Repository
	centerRepo center.Repository
	courseRepo course.Repository
}

func setup(t *testing.T) cliEnv {
	t.Helper()

	conf := core.NewTestConfig()
	db := inmemdb.Open()
	env := cliEnv{
		out:        new(bytes.Buffer),
		usrRepo:    inmemdb.NewUserRepository(db),
		centerRepo: inmemdb.NewCenterRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	env.cli = newCommandLine(
		nil,
		user.NewService(env.usrRepo, emailsvc.NewConsoleServiceMock(conf, logsvc.NewDiscardLogger())),
		center.NewService(env.centerRepo),
		course.NewService(env.courseRepo),
		validate,
		env.out,
	)

	origReadPassword := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = origReadPassword })
	return env
}

// typePassword makes the password prompt return pwd.
func typePassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, env cliEnv, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typePassword(tt.pwd)
			err := env.cli.run(tt.args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_root(t *testing.T) {
	env := setup(t)
	runCLITests(t, env, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
	})
	assert.Contains(t, env.out.String(), "seedcourses")
}

func Test_commandLine_migrate(t *testing.T) {
	env := setup(t)

	origRun := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = origRun })
	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, env, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "marksheet_grades", "sql"}},
	})
}

func Test_commandLine_addUser(t *testing.T) {
	env := setup(t)
	pune := testutil.CreateCenter(t, env.centerRepo, "C01", "Pune Center", "Pune")

	runCLITests(t, env, []cliTest{
		{name: "no flags", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-u", "root"}, pwd: testPwd, wantErr: errAdminOrCenter},
		{name: "both roles", args: []string{"adduser", "-u", "root", "--admin", "--center", pune.ID}, pwd: testPwd, wantErr: errAdminOrCenter},
		{name: "no password", args: []string{"adduser", "-u", "root", "--admin"}, wantErr: errEmptyPassword},
		{name: "weak password", args: []string{"adduser", "-u", "root", "--admin"}, pwd: "12345678", wantErrStr: "password cannot be entirely numeric"},
		{name: "unknown center", args: []string{"adduser", "-u", "pune", "--center", "unknown"}, pwd: testPwd, wantErr: center.ErrNotFound},
		{name: "admin", args: []string{"adduser", "-u", "Root", "-e", "root@test.in", "-n", "Super User", "--admin"}, pwd: testPwd},
		{name: "center", args: []string{"adduser", "-e", "pune@test.in", "--center", pune.ID}, pwd: testPwd},
	})

	ctx := context.Background()
	root, err := env.usrRepo.GetUserByUsernameOrEmail(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, "Super User", root.Name)
	assert.True(t, root.IsActive)
	assert.Equal(t, []string{user.RoleAdmin}, root.Roles)
	assert.NoError(t, root.CheckPassword(testPwd))

	punUsr, err := env.usrRepo.GetUserByUsernameOrEmail(ctx, "pune@test.in")
	require.NoError(t, err)
	assert.Equal(t, "pune@test.in", punUsr.Username)
	assert.Equal(t, pune.ID, punUsr.CenterID)
	assert.Equal(t, []string{user.RoleCenter}, punUsr.Roles)

	t.Run("existing user is updated", func(t *testing.T) {
		typePassword("N3w!Password")
		require.NoError(t, env.cli.run([]string{"adduser", "-e", "pune@test.in", "--admin"}))

		usr, err := env.usrRepo.GetUserByID(ctx, punUsr.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleAdmin}, usr.Roles)
		assert.Empty(t, usr.CenterID)
		assert.NoError(t, usr.CheckPassword("N3w!Password"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "User", "awe", "awe@test.in", testPwd, nil, true)

	runCLITests(t, env, []cliTest{
		{name: "no flags", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "no password", args: []string{"resetpassword", "-u", usr.Username}, wantErr: errEmptyPassword},
		{name: "user not found", args: []string{"resetpassword", "-u", "lol"}, pwd: "N3w!Password", wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-u", usr.Username}, pwd: "short", wantErrStr: "at least 8 characters"},
		{name: "reset with username", args: []string{"resetpassword", "-u", usr.Username}, pwd: "N3w!Password"},
		{name: "reset with email", args: []string{"resetpassword", "--username", "AWE@test.in"}, pwd: "An0ther!Password"},
	})

	refreshed, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("An0ther!Password"))
}

func Test_commandLine_seedCourses(t *testing.T) {
	env := setup(t)
	testutil.CreateCourse(t, env.courseRepo, "DMLT", "Medical Lab", course.TermSemester, 2, "Anatomy")

	writeSeed := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "courses.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	valid := writeSeed(t, `
courses:
  - code: dmlt
    name: Diploma in Medical Lab Technology
    termKind: semester
    termCount: 2
    subjects:
      - {name: Anatomy, minMarks: 30, maxMarks: 100}
      - {name: Pathology, minMarks: 35, maxMarks: 100}
  - code: DOTT
    name: Diploma in Operation Theatre Technology
    termKind: Year
    termCount: 2
    subjects:
      - {name: Anaesthesia, minMarks: 40, maxMarks: 100}
`)
	invalid := writeSeed(t, `
courses:
  - code: DECG
    name: ECG Technician
    termKind: month
    termCount: 1
`)

	runCLITests(t, env, []cliTest{
		{name: "no file flag", args: []string{"seedcourses"}, wantErrStr: `required flag(s) "file" not set`},
		{name: "missing file", args: []string{"seedcourses", "-f", filepath.Join(t.TempDir(), "nope.yaml")}, wantErrStr: "reading seed file"},
		{name: "not yaml", args: []string{"seedcourses", "-f", writeSeed(t, "courses: [")}, wantErrStr: "parsing seed file"},
		{name: "invalid course", args: []string{"seedcourses", "-f", invalid}, wantErrStr: "courses[0]"},
		{name: "seeded", args: []string{"seedcourses", "-f", valid}},
	})
	assert.Contains(t, env.out.String(), "1 course(s) created, 1 updated")

	ctx := context.Background()
	dmlt, err := env.courseRepo.GetCourseByCode(ctx, "DMLT")
	require.NoError(t, err)
	assert.Equal(t, "Diploma in Medical Lab Technology", dmlt.Name)
	require.Len(t, dmlt.Subjects, 2)
	assert.Equal(t, "Pathology", dmlt.Subjects[1].Name)

	dott, err := env.courseRepo.GetCourseByCode(ctx, "DOTT")
	require.NoError(t, err)
	assert.Equal(t, course.TermYear, dott.TermKind)

	_, err = env.courseRepo.GetCourseByCode(ctx, "DECG")
	assert.Equal(t, course.ErrNotFound, err)
}
