package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/user"
)

var errAdminOrCenter = errors.New("exactly one of --admin or --center is required")

type addUserFlags struct {
	name     string
	username string
	email    string
	admin    bool
	centerID string
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var flags addUserFlags
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update an admin or center account. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.username == "" && flags.email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if flags.admin == (flags.centerID != "") {
				return errAdminOrCenter
			}
			pwd, err := cli.promptPassword("Enter password")
			if err != nil {
				return err
			}
			usr, err := cli.addUser(context.Background(), flags, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved user %s (%s)\n", usr.Username, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "Login username")
	cmd.Flags().StringVarP(&flags.email, "email", "e", "", "Email address")
	cmd.Flags().BoolVar(&flags.admin, "admin", false, "Grant the admin role")
	cmd.Flags().StringVar(&flags.centerID, "center", "", "Bind a center account to this center ID")
	return cmd
}

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, flags addUserFlags, pwd string) (user.User, error) {
	uname := core.CleanString(flags.username, true /* lower */)
	email := core.CleanString(flags.email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, lookup)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		if uname == "" {
			uname = email
		}
		if err = cli.usrSvc.CheckUniqueness(uname, email); err != nil {
			return user.User{}, err
		}
		usr = user.User{Username: uname, Email: email}
	}
	if name := core.CleanString(flags.name); name != "" {
		usr.Name = name
	}
	if usr.Name == "" {
		usr.Name = usr.Username
	}

	if flags.admin {
		usr.Roles = []string{user.RoleAdmin}
		usr.CenterID = ""
	} else {
		c, err := cli.centerSvc.GetByID(ctx, core.CleanString(flags.centerID))
		if err != nil {
			return user.User{}, errors.Wrap(err, "finding center")
		}
		usr.Roles = []string{user.RoleCenter}
		usr.CenterID = c.ID
	}
	usr.IsActive = true

	if err = checkPassword(pwd, usr); err != nil {
		return user.User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}
	return cli.usrSvc.UpdateOrCreate(ctx, usr)
}
