package marksheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/paramedico/console/core"
	"github.com/paramedico/console/core/student"
	"github.com/paramedico/console/core/user"
)

const (
	// MaxSubjects is the maximum number of subjects a marksheet may hold.
	MaxSubjects = 7
	// CenterMaxTotal is the highest subject total a center may award.
	CenterMaxTotal = 80
	// ScoreCeiling bounds marks and internal marks.
	ScoreCeiling = 100

	// totals are sums of decimal inputs
	totalTolerance = 1e-9
)

var numericPrefixRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// CalculateTotal adds the leading numbers of marks and internal, counting unparsable or blank input as 0.
// It never fails and always returns a decimal string.
func CalculateTotal(marks, internal string) string {
	return formatNumber(leadingNumber(marks) + leadingNumber(internal))
}

// ValidateSubject checks a draft against the field constraints and the already committed subjects.
// role is the acting role: only user.RoleCenter is subject to the CenterMaxTotal ceiling.
// All violated rules are reported. When several rules target the same field, the last one listed below wins.
func ValidateSubject(draft SubjectDraft, existing []SubjectRecord, role string) core.FieldErrors {
	errs := make(core.FieldErrors)

	name := core.CleanString(draft.SubjectName)
	if name == "" {
		errs[FieldSubjectName] = "Subject name is required"
	}
	checkScore(errs, FieldMarks, "Marks", draft.Marks)
	checkScore(errs, FieldInternal, "Internal", draft.Internal)
	checkBound(errs, FieldMinMarks, "Min Marks", draft.MinMarks)
	checkBound(errs, FieldMaxMarks, "Max Marks", draft.MaxMarks)

	marks := fieldValue(draft.Marks)
	internal := fieldValue(draft.Internal)
	total := fieldValue(draft.Total)
	minMarks := fieldValue(draft.MinMarks)
	maxMarks := fieldValue(draft.MaxMarks)

	if role == user.RoleCenter && total > CenterMaxTotal {
		errs[FieldTotal] = fmt.Sprintf("Total cannot exceed %d", CenterMaxTotal)
	}
	if math.IsNaN(total) || (!anyNaN(marks, internal) && math.Abs(total-(marks+internal)) > totalTolerance) {
		errs[FieldTotal] = "Total should equal Marks + Internal"
	}
	if total > 0 && minMarks > 0 && total < minMarks {
		errs[FieldTotal] = "Total cannot be less than Min Marks"
	}
	// reported on maxMarks, unlike the min marks check above
	if total > 0 && maxMarks > 0 && total > maxMarks {
		errs[FieldMaxMarks] = "Total cannot be greater than Max Marks"
	}
	if minMarks > 0 && maxMarks > 0 {
		if minMarks > maxMarks {
			errs[FieldMinMarks] = "Min Marks must be less than Max Marks"
		} else if minMarks == maxMarks {
			errs[FieldMinMarks] = "Min Marks and Max Marks cannot be equal"
		}
	}

	if name != "" && isDuplicate(name, existing) {
		errs[FieldSubjectName] = "This subject has already been added"
	}
	return errs
}

// ValidateMaxSubjects rejects adding a subject to a marksheet that already holds count subjects.
func ValidateMaxSubjects(count int) core.FieldErrors {
	errs := make(core.FieldErrors)
	if count >= MaxSubjects {
		errs[FieldSubjectName] = fmt.Sprintf("Maximum %d subjects are allowed", MaxSubjects)
	}
	return errs
}

// ValidateFormForSave checks that a student is selected and at least one subject is committed.
func ValidateFormForSave(stu *student.Student, subjects []SubjectRecord) core.FieldErrors {
	errs := make(core.FieldErrors)
	if stu == nil {
		errs[FieldStudentID] = "Please select a student"
	}
	if len(subjects) == 0 {
		errs[FieldSubjectName] = "Please add at least one subject"
	}
	return errs
}

// Record converts a draft accepted by ValidateSubject into a SubjectRecord.
// The total is recomputed from marks and internal.
func (d SubjectDraft) Record() SubjectRecord {
	id := core.CleanString(d.ID)
	if id == "" {
		id = uuid.New().String()
	}
	marks, internal := fieldValue(d.Marks), fieldValue(d.Internal)
	return SubjectRecord{
		ID:          id,
		SubjectName: core.CleanString(d.SubjectName),
		Marks:       marks,
		Internal:    internal,
		Total:       marks + internal,
		MinMarks:    fieldValue(d.MinMarks),
		MaxMarks:    fieldValue(d.MaxMarks),
		Grade:       core.CleanString(d.Grade),
	}
}

// Draft turns a committed record back into raw input, for resubmission.
func (r SubjectRecord) Draft() SubjectDraft {
	return SubjectDraft{
		ID:          r.ID,
		SubjectName: r.SubjectName,
		Marks:       formatNumber(r.Marks),
		Internal:    formatNumber(r.Internal),
		Total:       formatNumber(r.Total),
		MinMarks:    formatNumber(r.MinMarks),
		MaxMarks:    formatNumber(r.MaxMarks),
		Grade:       r.Grade,
	}
}

func checkScore(errs core.FieldErrors, field, label, raw string) {
	val, ok := parseRequired(errs, field, label, raw)
	if ok && (val < 0 || val > ScoreCeiling) {
		errs[field] = fmt.Sprintf("%s must be between 0 and %d", label, ScoreCeiling)
	}
}

func checkBound(errs core.FieldErrors, field, label, raw string) {
	val, ok := parseRequired(errs, field, label, raw)
	if ok && val < 0 {
		errs[field] = label + " cannot be negative"
	}
}

func parseRequired(errs core.FieldErrors, field, label, raw string) (float64, bool) {
	if strings.TrimSpace(raw) == "" {
		errs[field] = label + " is required"
		return 0, false
	}
	val := fieldValue(raw)
	if math.IsNaN(val) {
		errs[field] = label + " must be a number"
		return 0, false
	}
	return val, true
}

// fieldValue parses a whole field as a finite number: blank is 0, anything else unparsable is NaN.
func fieldValue(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return math.NaN()
	}
	return val
}

// leadingNumber parses the longest numeric prefix of raw, or 0 if there is none.
func leadingNumber(raw string) float64 {
	match := numericPrefixRegex.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(val, 0) {
		return 0
	}
	return val
}

// formatNumber prints val in plain decimal notation, switching to exponent form
// below 1e-6 and from 1e21 up ("1e+21", "1e-7").
func formatNumber(val float64) string {
	if abs := math.Abs(val); abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(val, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func isDuplicate(name string, existing []SubjectRecord) bool {
	for _, rec := range existing {
		if strings.EqualFold(core.CleanString(rec.SubjectName), name) {
			return true
		}
	}
	return false
}
