package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/model"
)

var testProfile = model.BusinessProfile{
	Industry:          "Accounting",
	BusinessChallenge: "Lead flow",
	ServiceType:       "Advisory",
	RevenueType:       "Retainer",
}

func TestBuild_Defaults(t *testing.T) {
	a := NewAssembler(DefaultTemplates())
	q := model.Question{Text: "Do you track leads?", Answer: "Sometimes", CategoryLabel: "Pipeline"}

	system, user := a.Build(testProfile, q, model.DoMore, "Track every lead in a CRM.")

	assert.Contains(t, system, "Accounting industry")
	assert.Contains(t, system, "Lead flow")
	assert.Contains(t, system, "Advisory")
	assert.Contains(t, system, "Retainer")
	assert.NotContains(t, system, "{")

	assert.Contains(t, user, "Original question: Do you track leads?")
	assert.Contains(t, user, "User answer: Sometimes")
	assert.Contains(t, user, "Advice type: Do_More")
	assert.Contains(t, user, "Retrieved text from knowledge base: Track every lead in a CRM.")
	assert.Contains(t, user, "- industry: Accounting")
	assert.NotContains(t, user, "{")
}

func TestBuild_MissingValuesAreEmpty(t *testing.T) {
	a := NewAssembler(Templates{
		System: "[{industry}|{revenue_type}]",
		User:   "[{original_question}|{user_answer}|{retrieved_text}|{unknown}]",
	})

	system, user := a.Build(model.BusinessProfile{}, model.Question{}, "", "")
	assert.Equal(t, "[|]", system)
	assert.Equal(t, "[|||{unknown}]", user)
	assert.Equal(t, NotFoundText, a.NotFound())
}

func TestBuild_ValuesAreNotReexpanded(t *testing.T) {
	a := NewAssembler(Templates{System: "{industry}", User: "{original_question} / {industry}"})
	p := model.BusinessProfile{Industry: "{original_question}"}

	system, user := a.Build(p, model.Question{Text: "Q"}, model.KeepDoing, "")
	assert.Equal(t, "{original_question}", system)
	assert.Equal(t, "Q / {original_question}", user)
}

func TestBuild_NotFoundPlaceholder(t *testing.T) {
	a := NewAssembler(DefaultTemplates())
	_, user := a.Build(testProfile, model.Question{Text: "Q"}, model.StartDoing, a.NotFound())
	assert.Contains(t, user, NotFoundText)
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: |\n  Q={original_question}\nnot_found: none\n"), 0o644))

	tpl, err := LoadTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemTemplate, tpl.System)
	assert.Equal(t, "Q={original_question}\n", tpl.User)
	assert.Equal(t, "none", tpl.NotFound)
}

func TestLoadTemplates_EmptyPathAndErrors(t *testing.T) {
	tpl, err := LoadTemplates("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplates(), tpl)

	_, err = LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("system: [unclosed"), 0o644))
	_, err = LoadTemplates(bad)
	assert.Error(t, err)
}
