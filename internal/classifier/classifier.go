// Package classifier turns raw posting text into a category -> snippet map
// using ordered regex rules.
package classifier

import "strings"

// Classifier applies a fixed rule table. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New returns a classifier over the given rules. Rules are evaluated in order.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default returns the classifier with the built-in job posting rules.
func Default() *Classifier {
	return New(defaultRules)
}

// Classify runs the default rule table over text.
func Classify(text string) map[string]string {
	return Default().Classify(text)
}

// Classify maps each category to the line holding its first pattern hit.
// When any category finds nothing the whole input is kept under RawKey, once.
func (c *Classifier) Classify(text string) map[string]string {
	fields := make(map[string]string, len(c.rules)+1)
	missing := false

	for _, r := range c.rules {
		snippet, ok := extract(text, r)
		if !ok {
			missing = true
			continue
		}
		fields[r.Category] = snippet
	}

	if missing {
		fields[RawKey] = text
	}
	return fields
}

// extract returns the text from the first matching pattern's start up to the
// next newline. Patterns are tried in order; the first that matches wins.
func extract(text string, r Rule) (string, bool) {
	for _, re := range r.Patterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		line := text[loc[0]:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
		}
		return strings.TrimSpace(line), true
	}
	return "", false
}
