package main

import (
	"github.com/spf13/cobra"
	"github.com/trezcool/goose"

	"github.com/paramedico/console/fs"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) migrate(command string, args ...string) error {
	return gooseRunFunc(command, cli.db, appfs.FS, "migrations", args...)
}
