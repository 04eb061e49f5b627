package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/paramedico/console/core/course"
)

// courseSeed is the layout of a course catalogue file:
//
//	courses:
//	  - code: DMLT
//	    name: Diploma in Medical Lab Technology
//	    termKind: semester
//	    termCount: 2
//	    subjects:
//	      - {name: Anatomy, minMarks: 30, maxMarks: 100}
type courseSeed struct {
	Courses []course.NewCourse `yaml:"courses"`
}

func (cli *commandLine) seedCoursesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seedcourses",
		Short: "Create or update the courses of a YAML catalogue file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, updated, err := cli.seedCourses(context.Background(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d course(s) created, %d updated\n", created, updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML catalogue")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// seedCourses upserts every course of file by code. Nothing is saved if one of them is invalid.
func (cli *commandLine) seedCourses(ctx context.Context, file string) (created, updated int, err error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, 0, errors.Wrap(err, "reading seed file")
	}
	var seed courseSeed
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return 0, 0, errors.Wrap(err, "parsing seed file")
	}

	for i := range seed.Courses {
		if err = seed.Courses[i].Validate(cli.validate); err != nil {
			return 0, 0, errors.Wrapf(err, "courses[%d]", i)
		}
	}
	for _, nc := range seed.Courses {
		_, isNew, err := cli.courseSvc.Upsert(ctx, nc)
		if err != nil {
			return created, updated, errors.Wrapf(err, "saving course %s", nc.Code)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}
