package classifier

import "regexp"

// Category names as they appear in the persisted field map.
const (
	JobTitle        = "job_title"
	Company         = "company"
	Location        = "location"
	Salary          = "salary"
	JobType         = "job_type"
	Benefits        = "benefits"
	RequiredSkills  = "required_skills"
	PreferredSkills = "preferred_skills"
	Education       = "education"
	Experience      = "experience"

	// RawKey holds the full posting text when at least one category found nothing.
	RawKey = "raw"
)

// Rule is one category and its patterns in priority order.
type Rule struct {
	Category string
	Patterns []*regexp.Regexp
}

func rule(category string, patterns ...string) Rule {
	r := Rule{Category: category}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(`(?i)`+p))
	}
	return r
}

var defaultRules = []Rule{
	rule(JobTitle,
		`\b(job title|position|role)\b`,
		`\b(we are looking for|we are seeking|seeking|looking for)\b`),
	rule(Company,
		`\b(company|organization|employer)\b`,
		`\b(about us|who we are)\b`),
	rule(Location,
		`\b(location|city|state|place)\b`,
		`\b(where)\b`),
	rule(Salary,
		`\b(salary|pay|compensation|wage)\b`,
		`\$\d+(\.\d+)?(\s+|\s*-\s*)\$\d+(\.\d+)?\b`),
	rule(JobType,
		`\b(job type|employment type)\b`,
		`\b(full[-\s]time|part[-\s]time|contract|temporary|permanent)\b`),
	rule(Benefits,
		`\b(benefits|perks)\b`,
		`\b(health insurance|dental insurance|401k|vacation|paid time off)\b`),
	rule(RequiredSkills,
		`\b(required skills|must have|requirements|qualifications)\b`,
		`\b(proficiency|experience|familiarity) with\b`),
	rule(PreferredSkills,
		`\b(preferred skills|nice to have|bonus|additional qualifications)\b`,
		`\b(knowledge of|experience with|familiarity with)\b`),
	rule(Education,
		`\b(education|degree|diploma)\b`,
		`\b(bachelor'?s|master'?s|phd|high school|college)\b`),
	rule(Experience,
		`\b(experience|years of experience)\b`,
		`\b(\d+(\+)?\s+years)\b`),
}

// Categories returns the category names in evaluation order.
func Categories() []string {
	names := make([]string, len(defaultRules))
	for i, r := range defaultRules {
		names[i] = r.Category
	}
	return names
}
