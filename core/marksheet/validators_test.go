package marksheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
)

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name     string
		marks    string
		internal string
		want     string
	}{
		{name: "integers", marks: "60", internal: "20", want: "80"},
		{name: "decimals", marks: "45.5", internal: "12.25", want: "57.75"},
		{name: "blank marks", marks: "", internal: "20", want: "20"},
		{name: "both blank", want: "0"},
		{name: "non numeric", marks: "abc", internal: "5", want: "5"},
		{name: "numeric prefix", marks: "12abc", internal: "3", want: "15"},
		{name: "surrounding spaces", marks: " 7 ", internal: "3 ", want: "10"},
		{name: "negative", marks: "-5", internal: "10", want: "5"},
		{name: "exponent", marks: "1e1", internal: "0", want: "10"},
		{name: "large", marks: "1e21", internal: "0", want: "1e+21"},
		{name: "tiny", marks: "0.0000001", internal: "0", want: "1e-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateTotal(tt.marks, tt.internal))
		})
	}
}

func english() SubjectDraft {
	return SubjectDraft{SubjectName: "English", Marks: "60", Internal: "20", Total: "80", MinMarks: "30", MaxMarks: "100"}
}

func TestValidateSubject(t *testing.T) {
	maths := []SubjectRecord{{ID: "1", SubjectName: "Maths", Marks: 40, Internal: 20, Total: 60, MinMarks: 30, MaxMarks: 100}}
	with := func(mod func(d *SubjectDraft)) SubjectDraft {
		d := english()
		mod(&d)
		return d
	}

	tests := []struct {
		name     string
		draft    SubjectDraft
		existing []SubjectRecord
		role     string
		want     core.FieldErrors
	}{
		{name: "valid (admin)", draft: english(), role: user.RoleAdmin, want: core.FieldErrors{}},
		{name: "center boundary is inclusive", draft: english(), role: user.RoleCenter, want: core.FieldErrors{}},
		{
			name:  "all empty",
			draft: SubjectDraft{},
			role:  user.RoleAdmin,
			want: core.FieldErrors{
				FieldSubjectName: "Subject name is required",
				FieldMarks:       "Marks is required",
				FieldInternal:    "Internal is required",
				FieldMinMarks:    "Min Marks is required",
				FieldMaxMarks:    "Max Marks is required",
			},
		},
		{
			name:  "blank subject name",
			draft: with(func(d *SubjectDraft) { d.SubjectName = "   " }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldSubjectName: "Subject name is required"},
		},
		{
			name:  "non numeric marks",
			draft: with(func(d *SubjectDraft) { d.Marks = "sixty" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldMarks: "Marks must be a number"},
		},
		{
			name:  "marks out of range",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Total, d.MaxMarks = "101", "121", "200" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldMarks: "Marks must be between 0 and 100"},
		},
		{
			name:  "negative internal",
			draft: with(func(d *SubjectDraft) { d.Internal, d.Total, d.MinMarks = "-5", "55", "10" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldInternal: "Internal must be between 0 and 100"},
		},
		{
			name:  "negative min marks",
			draft: with(func(d *SubjectDraft) { d.MinMarks = "-1" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldMinMarks: "Min Marks cannot be negative"},
		},
		{
			name:  "center ceiling",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Internal, d.Total = "50", "40", "90" }),
			role:  user.RoleCenter,
			want:  core.FieldErrors{FieldTotal: "Total cannot exceed 80"},
		},
		{
			name:  "no ceiling for admin",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Internal, d.Total = "50", "40", "90" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{},
		},
		{
			name:  "stale total",
			draft: with(func(d *SubjectDraft) { d.Total = "75" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "blank total",
			draft: with(func(d *SubjectDraft) { d.Total = "" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "non numeric total",
			draft: with(func(d *SubjectDraft) { d.Total = "abc" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "total with trailing text",
			draft: with(func(d *SubjectDraft) { d.Total = "80abc" }),
			role:  user.RoleCenter,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "infinite total",
			draft: with(func(d *SubjectDraft) { d.Total = "Infinity" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "overflowing total",
			draft: with(func(d *SubjectDraft) { d.Total = "1e400" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
		{
			name:  "non numeric total with non numeric marks",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Total = "sixty", "abc" }),
			role:  user.RoleAdmin,
			want: core.FieldErrors{
				FieldMarks: "Marks must be a number",
				FieldTotal: "Total should equal Marks + Internal",
			},
		},
		{
			name:  "decimal total",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Internal, d.Total = "0.1", "0.2", "0.3" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total cannot be less than Min Marks"},
		},
		{
			name:  "total below min marks",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Internal, d.Total = "10", "5", "15" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldTotal: "Total cannot be less than Min Marks"},
		},
		{
			name:  "total above max marks is reported on maxMarks",
			draft: with(func(d *SubjectDraft) { d.MaxMarks = "50" }),
			role:  user.RoleAdmin,
			want:  core.FieldErrors{FieldMaxMarks: "Total cannot be greater than Max Marks"},
		},
		{
			name:  "min marks above max marks",
			draft: with(func(d *SubjectDraft) { d.MinMarks, d.MaxMarks = "90", "85" }),
			role:  user.RoleAdmin,
			want: core.FieldErrors{
				FieldTotal:    "Total cannot be less than Min Marks",
				FieldMinMarks: "Min Marks must be less than Max Marks",
			},
		},
		{
			name:  "equal bounds (admin)",
			draft: with(func(d *SubjectDraft) { d.MinMarks, d.MaxMarks = "60", "60" }),
			role:  user.RoleAdmin,
			want: core.FieldErrors{
				FieldMaxMarks: "Total cannot be greater than Max Marks",
				FieldMinMarks: "Min Marks and Max Marks cannot be equal",
			},
		},
		{
			name:  "equal bounds (center)",
			draft: with(func(d *SubjectDraft) { d.MinMarks, d.MaxMarks = "60", "60" }),
			role:  user.RoleCenter,
			want: core.FieldErrors{
				FieldMaxMarks: "Total cannot be greater than Max Marks",
				FieldMinMarks: "Min Marks and Max Marks cannot be equal",
			},
		},
		{
			name:     "duplicate ignores case and spaces",
			draft:    with(func(d *SubjectDraft) { d.SubjectName = " maths " }),
			existing: maths,
			role:     user.RoleAdmin,
			want:     core.FieldErrors{FieldSubjectName: "This subject has already been added"},
		},
		{
			name:     "other subject accepted",
			draft:    with(func(d *SubjectDraft) { d.SubjectName = "Physics" }),
			existing: maths,
			role:     user.RoleAdmin,
			want:     core.FieldErrors{},
		},
		{
			name:  "last rule on a field wins",
			draft: with(func(d *SubjectDraft) { d.Marks, d.Internal, d.Total = "10", "5", "90" }),
			role:  user.RoleCenter,
			want:  core.FieldErrors{FieldTotal: "Total should equal Marks + Internal"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSubject(tt.draft, tt.existing, tt.role))
		})
	}
}

func TestValidateMaxSubjects(t *testing.T) {
	assert.Empty(t, ValidateMaxSubjects(0))
	assert.Empty(t, ValidateMaxSubjects(6))
	assert.Equal(t, core.FieldErrors{FieldSubjectName: "Maximum 7 subjects are allowed"}, ValidateMaxSubjects(7))
	assert.True(t, ValidateMaxSubjects(8).Has(FieldSubjectName))
}

func TestValidateFormForSave(t *testing.T) {
	stu := &student.Student{ID: "s1"}
	subjects := []SubjectRecord{english().Record()}

	assert.Equal(t, core.FieldErrors{
		FieldStudentID:   "Please select a student",
		FieldSubjectName: "Please add at least one subject",
	}, ValidateFormForSave(nil, nil))
	assert.Equal(t, core.FieldErrors{FieldStudentID: "Please select a student"}, ValidateFormForSave(nil, subjects))
	assert.Equal(t, core.FieldErrors{FieldSubjectName: "Please add at least one subject"}, ValidateFormForSave(stu, nil))
	assert.Empty(t, ValidateFormForSave(stu, subjects))
}

func TestSubjectDraft_Record(t *testing.T) {
	d := english()
	d.SubjectName = "  English "
	d.Total = "999" // recomputed

	rec := d.Record()
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, "English", rec.SubjectName)
	assert.Equal(t, 60.0, rec.Marks)
	assert.Equal(t, 20.0, rec.Internal)
	assert.Equal(t, 80.0, rec.Total)
	assert.Equal(t, 30.0, rec.MinMarks)
	assert.Equal(t, 100.0, rec.MaxMarks)

	d.ID = rec.ID
	assert.Equal(t, rec.ID, d.Record().ID)
	assert.Equal(t, SubjectDraft{
		ID: rec.ID, SubjectName: "English", Marks: "60", Internal: "20", Total: "80", MinMarks: "30", MaxMarks: "100",
	}, rec.Draft())
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		subjects []SubjectRecord
		want     Aggregate
	}{
		{name: "no subjects", want: Aggregate{Result: ResultFail}},
		{
			name: "all passed",
			subjects: []SubjectRecord{
				{Total: 80, MinMarks: 30, MaxMarks: 100},
				{Total: 45, MinMarks: 40, MaxMarks: 50},
			},
			want: Aggregate{SubjectCount: 2, TotalMarks: 125, MaxTotal: 150, AverageMarks: 62.5, Percentage: 83.33, Result: ResultPass},
		},
		{
			name: "one failed",
			subjects: []SubjectRecord{
				{Total: 80, MinMarks: 30, MaxMarks: 100},
				{Total: 20, MinMarks: 40, MaxMarks: 100},
			},
			want: Aggregate{SubjectCount: 2, TotalMarks: 100, MaxTotal: 200, AverageMarks: 50, Percentage: 50, Result: ResultFail},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.subjects))
		})
	}
}
