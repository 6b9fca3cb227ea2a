package classifier

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePosting = `Senior QA Tester
Acme Corp is hiring. About us: we build rockets.
Location: Remote
Salary: $90,000 a year
Job Type: Full-time
Benefits: health insurance, 401k
Requirements: Selenium, Python
Nice to have: Go
Education: Bachelor's degree
5+ years of experience in testing`

func TestClassify_Deterministic(t *testing.T) {
	first := Classify(samplePosting)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(samplePosting))
	}
}

func TestClassify_FullTimeJobType(t *testing.T) {
	text := "Great team\nThis is a full-time role in Atlanta\nApply now"
	got := Classify(text)

	require.Contains(t, got, JobType)
	assert.Equal(t, "full-time role in Atlanta", got[JobType])
}

func TestClassify_FullPosting(t *testing.T) {
	got := Classify(samplePosting)

	tests := []struct {
		category string
		want     string
	}{
		{Company, "About us: we build rockets."},
		{Location, "Location: Remote"},
		{Salary, "Salary: $90,000 a year"},
		{JobType, "Job Type: Full-time"},
		{Benefits, "Benefits: health insurance, 401k"},
		{RequiredSkills, "Requirements: Selenium, Python"},
		{PreferredSkills, "Nice to have: Go"},
		{Education, "Education: Bachelor's degree"},
		{Experience, "experience in testing"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, got[tt.category])
		})
	}

	// "position|role|seeking|looking for" never appear, so raw is kept.
	assert.NotContains(t, got, JobTitle)
	assert.Equal(t, samplePosting, got[RawKey])
}

func TestClassify_NoMatchesOnlyRaw(t *testing.T) {
	text := "lorem ipsum dolor sit amet"
	got := Classify(text)

	assert.Equal(t, map[string]string{RawKey: text}, got)
}

func TestClassify_EmptyText(t *testing.T) {
	got := Classify("")
	assert.Equal(t, map[string]string{RawKey: ""}, got)
}

func TestClassify_RawAppendedOnce(t *testing.T) {
	text := "Salary: $50 an hour"
	got := Classify(text)

	assert.Equal(t, text, got[RawKey])
	assert.Len(t, got, 2)
}

func TestClassify_FirstPatternWins(t *testing.T) {
	// Both alternatives match; the first listed pattern decides the line even
	// though the second pattern's hit appears earlier in the text.
	text := "we are looking for a tester\nPosition: QA"
	got := Classify(text)

	assert.Equal(t, "Position: QA", got[JobTitle])
}

func TestClassify_FallsBackToSecondPattern(t *testing.T) {
	text := "Intro\nWe are seeking a Go developer\nmore"
	got := Classify(text)

	assert.Equal(t, "We are seeking a Go developer", got[JobTitle])
}

func TestClassify_SalaryRange(t *testing.T) {
	got := Classify("Earn $20 - $30 per hour")
	assert.Equal(t, "$20 - $30 per hour", got[Salary])
}

func TestClassify_CategoriesIndependent(t *testing.T) {
	// "experience with" feeds required, preferred and experience at once.
	got := Classify("Strong experience with Kubernetes")

	assert.Equal(t, "experience with Kubernetes", got[RequiredSkills])
	assert.Equal(t, "experience with Kubernetes", got[PreferredSkills])
	assert.Equal(t, "experience with Kubernetes", got[Experience])
}

func TestClassifier_CustomRules(t *testing.T) {
	c := New([]Rule{{Category: "lang", Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)\bgolang\b`)}}})

	got := c.Classify("We write GoLang daily\nand more")
	assert.Equal(t, map[string]string{"lang": "GoLang daily"}, got)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{
		JobTitle, Company, Location, Salary, JobType,
		Benefits, RequiredSkills, PreferredSkills, Education, Experience,
	}, Categories())
}
