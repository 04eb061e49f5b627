package course

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/paramedico/console/core"
)

var (
	termCountTag  = "termcount"
	termCountText = fmt.Sprintf("semester courses last 1 to %d terms, year courses 1 to %d", MaxSemesters, MaxYears)

	minMaxMarksText = "max marks must be greater than min marks"
)

// InitValidators registers the course validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(courseStructValidation, NewCourse{}, UpdateCourse{})
	core.RegisterCustomTranslation(validate, translator, termCountTag, termCountText)
	core.RegisterCustomTranslation(validate, translator, "gtfield", minMaxMarksText, true)
}

func courseStructValidation(sl validator.StructLevel) {
	switch c := sl.Current().Interface().(type) {
	case NewCourse:
		if !ValidTermCount(c.TermKind, c.TermCount) {
			sl.ReportError(c.TermCount, "termCount", "TermCount", termCountTag, "")
		}
	case UpdateCourse:
		if !ValidTermCount(c.TermKind, c.TermCount) {
			sl.ReportError(c.TermCount, "termCount", "TermCount", termCountTag, "")
		}
	}
}

// ValidTermCount checks count against the maximum of kind.
func ValidTermCount(kind string, count int) bool {
	switch kind {
	case TermSemester:
		return count >= 1 && count <= MaxSemesters
	case TermYear:
		return count >= 1 && count <= MaxYears
	default:
		return true // reported by `oneof`
	}
}
