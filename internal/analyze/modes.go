package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"go-job-harvester/internal/classifier"
	"go-job-harvester/internal/corpus"
)

// NotMentioned fills full-mode columns the model did not answer.
const NotMentioned = "Not mentioned"

// Mode selects the prompt, the CSV layout and the token budget.
type Mode struct {
	Name      string
	MaxTokens int

	// recordColumns are copied from the corpus record; answerLabels come
	// from the model output.
	recordColumns []column
	answerLabels  []string
	missing       string
	rawHeader     string
	prompt        func(rec corpus.Record) string
}

type column struct {
	header string
	key    string
}

var postingColumns = []column{
	{"Job Title", classifier.JobTitle},
	{"Company Name", classifier.Company},
	{"Location", classifier.Location},
	{"Salary", classifier.Salary},
	{"Job Type", classifier.JobType},
	{"Job Description", classifier.RawKey},
}

// Questions asks six qualification questions about the classified fields.
var Questions = Mode{
	Name:          "questions",
	MaxTokens:     350,
	recordColumns: postingColumns,
	answerLabels: []string{
		"Experience Required",
		"Qualifications",
		"Security Clearance",
		"Job Location",
		"Position Type",
		"Programming Languages",
	},
	rawHeader: "Raw Output",
	prompt:    questionsPrompt,
}

// Full hands the model every field and has it extract eleven answers.
var Full = Mode{
	Name:      "full",
	MaxTokens: 500,
	answerLabels: []string{
		"Job Title",
		"Company Name",
		"Location",
		"Salary",
		"Job Type",
		"Job Description",
		"Experience Required",
		"Qualifications",
		"Security Clearance",
		"Job Location",
		"Programming Languages",
	},
	missing:   NotMentioned,
	rawHeader: "Raw Generated Output",
	prompt:    fullPrompt,
}

// ParseMode looks a mode up by name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Questions.Name:
		return Questions, nil
	case Full.Name:
		return Full, nil
	default:
		return Mode{}, fmt.Errorf("unknown analyze mode %q", name)
	}
}

// Header is the CSV header row.
func (m Mode) Header() []string {
	row := []string{"Job URL"}
	for _, c := range m.recordColumns {
		row = append(row, c.header)
	}
	row = append(row, m.answerLabels...)
	return append(row, m.rawHeader)
}

// Row builds one CSV row. With a nil answers map (model failure) every
// answer column is empty.
func (m Mode) Row(url string, rec corpus.Record, answers map[string]string, output string) []string {
	row := []string{url}
	for _, c := range m.recordColumns {
		row = append(row, rec[c.key])
	}
	for _, label := range m.answerLabels {
		v, ok := answers[label]
		if answers != nil && (!ok || v == "") {
			v = m.missing
		}
		row = append(row, v)
	}
	return append(row, output)
}

// Prompt renders the model prompt for one posting.
func (m Mode) Prompt(rec corpus.Record) string {
	return m.prompt(rec)
}

func orNoEntry(rec corpus.Record, key, label string) string {
	if v := rec[key]; v != "" {
		return v
	}
	return "No entry found for " + label
}

func questionsPrompt(rec corpus.Record) string {
	var b strings.Builder
	b.WriteString("Analyze the job details provided and generate a structured response to the following questions:\n")
	for _, c := range postingColumns {
		fmt.Fprintf(&b, "- %s: %s\n", c.header, orNoEntry(rec, c.key, c.header))
	}
	b.WriteString(`
Questions:
1. Does the job require experience? If yes, how many years?
2. Which qualifications are preferred and which are required?
3. Does it require security clearance or US citizenship?
4. Is the position on-site, hybrid, or remote?
5. What is the position type? (contract, temp-to-hire, full-time, part-time, etc.)
6. What programming languages should the candidate know?

Please respond in the format:
- Experience Required: [Yes/No, if yes, years required]
- Qualifications: [Preferred/Required: details]
- Security Clearance: [Yes/No, if yes, specifics]
- Job Location: [On-site/Hybrid/Remote]
- Position Type: [Contract/Temp-to-Hire/Full-Time/Part-Time]
- Programming Languages: [Languages required]
`)
	return b.String()
}

func fullPrompt(rec corpus.Record) string {
	details, err := json.Marshal(rec)
	if err != nil {
		details = []byte("{}")
	}
	return fmt.Sprintf(`Given the following job data:
%s
Please extract and respond with the specific details:
- What is the job title?
- What company is offering the job?
- Where is the job located?
- What is the salary range?
- What type of job is it (full-time, part-time, contract, etc.)?
- Provide a brief description of the job.
- Does the job require experience? If yes, how many years?
- Which qualifications are preferred and which are required?
- Is security clearance or US citizenship required?
- Is the position on-site, hybrid, or remote?
- What programming languages should the candidate know?
State '%s' for anything not specified.

Please respond in the format:
- Job Title: [title]
- Company Name: [company]
- Location: [location]
- Salary: [salary range]
- Job Type: [full-time/part-time/contract/...]
- Job Description: [one or two sentences]
- Experience Required: [Yes/No, if yes, years required]
- Qualifications: [Preferred/Required: details]
- Security Clearance: [Yes/No, if yes, specifics]
- Job Location: [On-site/Hybrid/Remote]
- Programming Languages: [Languages required]
`, details, NotMentioned)
}

// ParseAnswers splits "key: value" lines of model output. Keys are trimmed
// of a leading "- "; lines without a colon are ignored and a repeated key
// keeps its last value.
func ParseAnswers(output string) map[string]string {
	answers := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		answers[key] = strings.TrimSpace(value)
	}
	return answers
}
