package marksheet

import "math"

const (
	ResultPass = "PASS"
	ResultFail = "FAIL"
)

// Aggregate is derived from the subjects of a marksheet.
type Aggregate struct {
	SubjectCount int     `json:"subjectCount"`
	TotalMarks   float64 `json:"totalMarks"`
	MaxTotal     float64 `json:"maxTotal"`
	AverageMarks float64 `json:"averageMarks"` // 0 without subjects
	Percentage   float64 `json:"percentage"`   // of MaxTotal, rounded to 2 decimals
	Result       string  `json:"result"`       // PASS when every subject reaches its min marks
}

func Summarize(subjects []SubjectRecord) Aggregate {
	agg := Aggregate{SubjectCount: len(subjects), Result: ResultPass}
	for _, subj := range subjects {
		agg.TotalMarks += subj.Total
		agg.MaxTotal += subj.MaxMarks
		if !subj.Passed() {
			agg.Result = ResultFail
		}
	}
	if agg.SubjectCount == 0 {
		agg.Result = ResultFail
		return agg
	}
	agg.AverageMarks = agg.TotalMarks / float64(agg.SubjectCount)
	if agg.MaxTotal > 0 {
		agg.Percentage = math.Round(agg.TotalMarks/agg.MaxTotal*100*100) / 100
	}
	return agg
}
