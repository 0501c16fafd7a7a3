package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/model"
)

func offering(pairs ...string) model.ServiceOffering {
	var so model.ServiceOffering
	for i := 0; i+1 < len(pairs); i += 2 {
		so.Answers = append(so.Answers, model.OfferingAnswer{QuestionName: pairs[i], SelectedOption: pairs[i+1]})
	}
	return so
}

func TestParseClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		ok      bool
		field   string
		options []string
	}{
		{"simple", "Size-small", true, "Size", []string{"small"}},
		{"disjunction", "Size-Small or Medium OR large", true, "Size", []string{"small", "medium", "large"}},
		{"spacing", "  Size -  very   small  or  medium ", true, "Size", []string{"very small", "medium"}},
		{"or inside word", "Type-Corporate or Vendor", true, "Type", []string{"corporate", "vendor"}},
		{"dash in option", "Stage-Pre-revenue or Growth", true, "Stage", []string{"pre-revenue", "growth"}},
		{"empty", "", false, "", nil},
		{"whitespace", "   ", false, "", nil},
		{"no separator", "Size small", false, "", nil},
		{"empty field", "-small", false, "", nil},
		{"no options", "Size-", false, "", nil},
		{"only or", "Size- or ", false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := ParseClause(tt.raw)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.field, c.Field)
			assert.Equal(t, tt.options, c.Options)
			assert.Equal(t, tt.raw, c.Raw)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "very small", Normalize("  Very   SMALL "))
	assert.Equal(t, "", Normalize(" \t "))
	assert.Equal(t, "strasse", Normalize("STRASSE"))
}

func TestCategorize_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  model.AdviceCategory
	}{
		{-1, model.DoMore},
		{1, model.DoMore},
		{0, model.DoMore},
		{-1.01, model.StartDoing},
		{1.01, model.KeepDoing},
		{-3, model.StartDoing},
		{2.5, model.KeepDoing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.score), "score %v", tt.score)
	}
}

func TestScore_NoSatisfiedClausesKeepsBase(t *testing.T) {
	t.Parallel()

	q := model.Question{BaseScore: -2}
	so := offering("Size", "large")

	for _, clauses := range [][]string{
		nil,
		{},
		{"", "garbage"},
		{"Size-small or medium"},
		{"Other-large"},
	} {
		for _, policy := range []Policy{PolicyCount, PolicyStrict} {
			r := Score(q, clauses, so, policy)
			assert.InDelta(t, -2.0, r.WeightedScore, 1e-9, "clauses %v policy %s", clauses, policy)
			assert.Equal(t, model.StartDoing, r.Category)
			assert.Zero(t, r.Satisfied)
		}
	}
}

func TestScore_CountPolicy(t *testing.T) {
	t.Parallel()

	so := offering("Size", "Small", "Model", " b2b ", "Region", "EU")

	tests := []struct {
		name    string
		base    float64
		clauses []string
		k       int
		want    float64
		cat     model.AdviceCategory
	}{
		{"one", 1, []string{"Size-small or medium"}, 1, 1.25, model.KeepDoing},
		{"two", -2, []string{"Size-small", "", "Model-B2B or B2C"}, 2, -3, model.StartDoing},
		{"three", 0.8, []string{"Size-small", "Model-b2b", "Region-eu or us"}, 3, 1.4, model.KeepDoing},
		{"mixed", 0.4, []string{"Size-small", "Model-b2c", "bad"}, 1, 0.5, model.DoMore},
		{"zero base", 0, []string{"Size-small"}, 1, 0, model.DoMore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := Score(model.Question{BaseScore: tt.base}, tt.clauses, so, PolicyCount)
			assert.Equal(t, tt.k, r.Satisfied)
			assert.InDelta(t, tt.base*(1+0.25*float64(tt.k)), r.WeightedScore, 1e-9)
			assert.InDelta(t, tt.want, r.WeightedScore, 1e-9)
			assert.Equal(t, tt.cat, r.Category)
		})
	}
}

func TestScore_StrictPolicy(t *testing.T) {
	t.Parallel()

	so := offering("Size", "small", "Model", "b2b")
	q := model.Question{BaseScore: 2}

	all := Score(q, []string{"Size-small", "Model-b2b", ""}, so, PolicyStrict)
	assert.InDelta(t, 2.5, all.WeightedScore, 1e-9)
	assert.Equal(t, 2, all.Clauses)

	partial := Score(q, []string{"Size-small", "Model-b2c"}, so, PolicyStrict)
	assert.InDelta(t, 2.0, partial.WeightedScore, 1e-9)

	none := Score(q, []string{"", "no separator"}, so, PolicyStrict)
	assert.InDelta(t, 2.0, none.WeightedScore, 1e-9, "no well-formed clause never weights")
}

func TestScore_DefaultPolicyIsCount(t *testing.T) {
	t.Parallel()
	so := offering("Size", "small", "Model", "b2b")
	r := Score(model.Question{BaseScore: 1}, []string{"Size-small", "Model-b2b"}, so, "")
	assert.InDelta(t, 1.5, r.WeightedScore, 1e-9)
}

func TestSatisfied_FieldMatchIsExact(t *testing.T) {
	t.Parallel()
	c, ok := ParseClause("CompanySize-small")
	require.True(t, ok)

	assert.True(t, Satisfied(c, offering(" CompanySize ", "SMALL")))
	assert.False(t, Satisfied(c, offering("companysize", "small")))
	assert.False(t, Satisfied(c, offering("CompanySize", "")))
	assert.True(t, Satisfied(c, offering("CompanySize", "large", "CompanySize", "small")))
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCount, p)

	p, err = ParsePolicy(" STRICT ")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("weighted")
	assert.Error(t, err)
}
