package model

import (
	"fmt"
	"time"
)

// AdviceCategory classifies a question by its weighted score.
type AdviceCategory string

const (
	StartDoing AdviceCategory = "Start_Doing"
	DoMore     AdviceCategory = "Do_More"
	KeepDoing  AdviceCategory = "Keep_Doing"
)

// Phase is one of the report's top-level groupings.
type Phase string

const (
	PhaseProfitable Phase = "Profitable"
	PhaseRepeatable Phase = "Repeatable"
	PhaseScalable   Phase = "Scalable"
)

// CanonicalPhases is the fixed report order.
var CanonicalPhases = []Phase{PhaseProfitable, PhaseRepeatable, PhaseScalable}

// Known reports whether p is one of the canonical phases.
func (p Phase) Known() bool {
	for _, c := range CanonicalPhases {
		if p == c {
			return true
		}
	}
	return false
}

// Title returns the display heading, e.g. "Phase 1 (Profitable)".
func (p Phase) Title() string {
	for i, c := range CanonicalPhases {
		if p == c {
			return fmt.Sprintf("Phase %d (%s)", i+1, p)
		}
	}
	return string(p)
}

// GenerationFailedPrefix precedes the error message when advice could not be generated.
const GenerationFailedPrefix = "Advice generation failed: "

// Generation is the outcome of one generation call: either advice text or
// the error that prevented it.
type Generation struct {
	Text string
	Err  error
}

// Generated returns a successful Generation.
func Generated(text string) Generation { return Generation{Text: text} }

// GenerationFailed returns a failed Generation.
func GenerationFailed(err error) Generation { return Generation{Err: err} }

// OK reports whether generation succeeded.
func (g Generation) OK() bool { return g.Err == nil }

// Display renders the generation for user-facing output.
func (g Generation) Display() string {
	if g.Err != nil {
		return GenerationFailedPrefix + g.Err.Error()
	}
	return g.Text
}

// AdviceItem is the per-question output of the pipeline.
type AdviceItem struct {
	Phase          string
	CategoryLabel  string
	QuestionID     string
	Question       string
	WeightedScore  float64
	AdviceCategory AdviceCategory
	Result         Generation
}

// adviceItemJSON is the wire shape of AdviceItem.
type adviceItemJSON struct {
	Phase          string         `json:"catmapping"`
	CategoryLabel  string         `json:"category"`
	QuestionID     string         `json:"question_id"`
	Question       string         `json:"question"`
	WeightedScore  float64        `json:"new_score"`
	AdviceCategory AdviceCategory `json:"new_category"`
	Advice         string         `json:"advice"`
	Failed         bool           `json:"generation_failed,omitempty"`
}

// View returns the JSON presentation of the item.
func (a AdviceItem) View() any {
	return adviceItemJSON{
		Phase:          a.Phase,
		CategoryLabel:  a.CategoryLabel,
		QuestionID:     a.QuestionID,
		Question:       a.Question,
		WeightedScore:  a.WeightedScore,
		AdviceCategory: a.AdviceCategory,
		Advice:         a.Result.Display(),
		Failed:         !a.Result.OK(),
	}
}

// AdviceResult is the full output of one pipeline run.
type AdviceResult struct {
	Questions   []Question
	Items       []AdviceItem
	Report      *PhaseReport
	GeneratedAt time.Time
}

// Failures counts items whose generation failed.
func (r *AdviceResult) Failures() int {
	n := 0
	for _, it := range r.Items {
		if !it.Result.OK() {
			n++
		}
	}
	return n
}
