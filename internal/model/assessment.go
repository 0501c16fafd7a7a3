package model

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// ServiceOfferingKey is the submission section holding business-profile answers.
const ServiceOfferingKey = "serviceOffering"

// Question is a single assessment question as submitted, plus the fields the
// pipeline assigns during scoring.
type Question struct {
	Section       string  `json:"section"`
	Key           string  `json:"key"`
	Text          string  `json:"question"`
	BaseScore     float64 `json:"score"`
	CategoryLabel string  `json:"category"`
	PhaseTag      string  `json:"catmapping"`
	Answer        string  `json:"answer,omitempty"`

	QuestionID     string         `json:"question_id,omitempty"`
	WeightedScore  float64        `json:"new_score"`
	AdviceCategory AdviceCategory `json:"new_category,omitempty"`
}

// Section is one named group of questions in submission order.
type Section struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// BusinessProfile holds the free-text profile fields used to personalize prompts.
type BusinessProfile struct {
	Industry          string `json:"industry"`
	BusinessChallenge string `json:"business_challenge"`
	ServiceType       string `json:"service_type"`
	RevenueType       string `json:"revenue_type"`
}

// OfferingAnswer is a self-reported single-choice answer from the service
// offering section. Rule clauses match against these.
type OfferingAnswer struct {
	Key            string `json:"key"`
	QuestionName   string `json:"question_name"`
	SelectedOption string `json:"selected_option"`
}

// ServiceOffering is the parsed serviceOffering section.
type ServiceOffering struct {
	Profile BusinessProfile  `json:"profile"`
	Answers []OfferingAnswer `json:"answers"`
}

// Submission is a parsed assessment. Sections keep the order in which they
// appeared in the source document.
type Submission struct {
	Sections []Section      `json:"sections"`
	Offering ServiceOffering `json:"service_offering"`
}

// QuestionCount returns the number of questions across all sections.
func (s *Submission) QuestionCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Questions)
	}
	return n
}

// ValidationError reports a submission whose shape cannot be scored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s %s", e.Field, e.Reason)
}

// ParseSubmission parses the assessmentData document. Object key order in the
// JSON is the enumeration order for sections and questions. Missing question
// fields default to zero values; only structural problems are rejected.
func ParseSubmission(data []byte) (*Submission, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ValidationError{Field: "assessmentData", Reason: "is not valid JSON"}
	}
	root := gjson.ParseBytes(data)
	return SubmissionFromResult(root)
}

// SubmissionFromResult builds a Submission from an already-parsed gjson value.
func SubmissionFromResult(root gjson.Result) (*Submission, error) {
	if !root.Exists() {
		return nil, &ValidationError{Field: "assessmentData", Reason: "is required"}
	}
	if !root.IsObject() {
		return nil, &ValidationError{Field: "assessmentData", Reason: "must be an object"}
	}

	so := root.Get(gjson.Escape(ServiceOfferingKey))
	if !so.Exists() {
		return nil, &ValidationError{Field: ServiceOfferingKey, Reason: "is required"}
	}
	if !so.IsObject() {
		return nil, &ValidationError{Field: ServiceOfferingKey, Reason: "must be an object"}
	}

	sub := &Submission{Offering: parseOffering(so)}

	var verr *ValidationError
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == ServiceOfferingKey {
			return true
		}
		if !value.IsObject() {
			verr = &ValidationError{Field: name, Reason: "must be an object of questions"}
			return false
		}
		sec := Section{Name: name}
		value.ForEach(func(qk, qv gjson.Result) bool {
			if !qv.IsObject() {
				verr = &ValidationError{Field: name + "." + qk.String(), Reason: "must be an object"}
				return false
			}
			q := parseQuestion(name, qk.String(), qv)
			if math.IsInf(q.BaseScore, 0) || math.IsNaN(q.BaseScore) {
				verr = &ValidationError{Field: name + "." + qk.String() + ".score", Reason: "must be a finite number"}
				return false
			}
			sec.Questions = append(sec.Questions, q)
			return true
		})
		if verr != nil {
			return false
		}
		sub.Sections = append(sub.Sections, sec)
		return true
	})
	if verr != nil {
		return nil, verr
	}

	return sub, nil
}

func parseQuestion(section, key string, v gjson.Result) Question {
	return Question{
		Section:       section,
		Key:           key,
		Text:          v.Get("question").String(),
		BaseScore:     v.Get("score").Float(),
		CategoryLabel: v.Get("category").String(),
		PhaseTag:      v.Get("catmapping").String(),
		Answer:        firstString(v, "answer", "anwser"),
	}
}

func parseOffering(so gjson.Result) ServiceOffering {
	var out ServiceOffering
	so.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		text := value.Get("text").String()
		switch key.String() {
		case "industry":
			out.Profile.Industry = text
		case "business_challenge":
			out.Profile.BusinessChallenge = text
		case "service_type":
			out.Profile.ServiceType = text
		case "revenue_type":
			out.Profile.RevenueType = text
		}
		if name := value.Get("question_name"); name.Exists() {
			out.Answers = append(out.Answers, OfferingAnswer{
				Key:            key.String(),
				QuestionName:   name.String(),
				SelectedOption: firstString(value, "selected_option", "anwserselete"),
			})
		}
		return true
	})
	return out
}

// firstString returns the first present path among keys. Legacy clients send
// misspelled field names, so both spellings are accepted.
func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() {
			return r.String()
		}
	}
	return ""
}

// RuleTable maps a question id to its raw weighting-rule clauses in column order.
type RuleTable map[string][]string

// Clauses returns the raw clauses for a question id. Unknown ids have none.
func (t RuleTable) Clauses(questionID string) []string {
	return t[questionID]
}
