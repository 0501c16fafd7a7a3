// Package prompt builds the system and user prompts for advice generation.
package prompt

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/model"
)

// NotFoundText fills {retrieved_text} when the knowledge store has no
// template answer for a question.
const NotFoundText = "Knowledge base answer not found."

// DefaultSystemTemplate personalizes the consultant persona to the business.
const DefaultSystemTemplate = `You are an experienced B2B sales and marketing consultant working with a business in the {industry} industry.
Their main challenge is {business_challenge}. They deliver {service_type} services with a {revenue_type} revenue model.

You receive a short generic recommendation retrieved from a knowledge base. Rewrite it as one specific, actionable paragraph for this business:
- name concrete actions, tools, or workflows they can start on now
- include a timeline or a metric where it helps
- use the vocabulary and KPIs common in their industry
- no markdown, headings, or lists; at most 200 words`

// DefaultUserTemplate carries the question, the user's answer and the
// retrieved template answer.
const DefaultUserTemplate = `Business profile:
- industry: {industry}
- business_challenge: {business_challenge}
- service_type: {service_type}
- revenue_type: {revenue_type}

Original question: {original_question}
User answer: {user_answer}
Advice type: {advice_type}
Retrieved text from knowledge base: {retrieved_text}

Write a single recommendation paragraph for this business.`

// Templates holds the prompt templates. Placeholders are written as {name}.
type Templates struct {
	System   string `yaml:"system"`
	User     string `yaml:"user"`
	NotFound string `yaml:"not_found"`
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() Templates {
	return Templates{
		System:   DefaultSystemTemplate,
		User:     DefaultUserTemplate,
		NotFound: NotFoundText,
	}
}

// LoadTemplates reads template overrides from a YAML file. Fields missing
// from the file keep their built-in values. An empty path returns the
// defaults.
func LoadTemplates(path string) (Templates, error) {
	t := DefaultTemplates()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrap(err, "prompt: read templates")
	}

	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return t, eris.Wrap(err, "prompt: parse templates")
	}
	if strings.TrimSpace(override.System) != "" {
		t.System = override.System
	}
	if strings.TrimSpace(override.User) != "" {
		t.User = override.User
	}
	if strings.TrimSpace(override.NotFound) != "" {
		t.NotFound = override.NotFound
	}
	return t, nil
}

// Assembler fills the templates for one question at a time. It holds no
// mutable state and is safe for concurrent use.
type Assembler struct {
	templates Templates
}

// NewAssembler returns an Assembler over t.
func NewAssembler(t Templates) *Assembler {
	if t.NotFound == "" {
		t.NotFound = NotFoundText
	}
	return &Assembler{templates: t}
}

// NotFound returns the placeholder used when no template answer exists.
func (a *Assembler) NotFound() string {
	return a.templates.NotFound
}

// Build returns the system and user prompts. Missing values substitute as
// empty strings; unknown placeholders are left untouched.
func (a *Assembler) Build(profile model.BusinessProfile, q model.Question, category model.AdviceCategory, templateText string) (system, user string) {
	profileVals := []string{
		"{industry}", profile.Industry,
		"{business_challenge}", profile.BusinessChallenge,
		"{service_type}", profile.ServiceType,
		"{revenue_type}", profile.RevenueType,
	}

	system = strings.NewReplacer(profileVals...).Replace(a.templates.System)

	userVals := append(profileVals,
		"{original_question}", q.Text,
		"{query}", q.Text,
		"{user_answer}", q.Answer,
		"{advice_type}", string(category),
		"{category}", q.CategoryLabel,
		"{retrieved_text}", templateText,
	)
	user = strings.NewReplacer(userVals...).Replace(a.templates.User)

	return system, user
}
