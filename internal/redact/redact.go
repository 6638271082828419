// Package redact scrubs credential material from captured command output
// before it is persisted to the audit trail.
package redact

import (
	"regexp"
)

// Placeholder replaces every detected credential.
const Placeholder = "[REDACTED]"

var defaultPatterns = []*regexp.Regexp{
	// AWS access key id
	regexp.MustCompile(`(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`),
	// OpenAI keys, project and classic
	regexp.MustCompile(`sk-proj-[a-zA-Z0-9_\-]{32,}`),
	regexp.MustCompile(`sk-ant-api03-[a-zA-Z0-9_\-]{20,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),
	// Google API key
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// GitHub tokens
	regexp.MustCompile(`gh[po]_[a-zA-Z0-9]{36}`),
	// Slack tokens
	regexp.MustCompile(`xox[bp]-[0-9]{10,12}-[0-9]{10,12}-[a-zA-Z0-9\-]{24,}`),
	// PEM private key headers
	regexp.MustCompile(`-----BEGIN (?:RSA |OPENSSH |PGP |EC )?PRIVATE KEY(?: BLOCK)?-----`),
}

// Redactor applies a fixed set of credential patterns to text.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor returns a redactor with the default pattern set.
func NewRedactor() *Redactor {
	return &Redactor{patterns: defaultPatterns}
}

// AddPattern registers an extra pattern to redact.
func (r *Redactor) AddPattern(re *regexp.Regexp) {
	r.patterns = append(r.patterns, re)
}

// Apply returns the text with every credential match replaced by
// Placeholder, along with the number of replacements made.
func (r *Redactor) Apply(text string) (string, int) {
	total := 0
	for _, re := range r.patterns {
		text = re.ReplaceAllStringFunc(text, func(string) string {
			total++
			return Placeholder
		})
	}
	return text, total
}

// Contains reports whether the text matches any credential pattern.
func (r *Redactor) Contains(text string) bool {
	for _, re := range r.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
