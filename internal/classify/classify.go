// Package classify decides whether a message is an entry-level job posting.
package classify

import (
	"regexp"
	"strings"
)

// Policy is the immutable rule set a Classifier is built from. Instances are
// passed in explicitly so tests can run classifiers with different policies
// side by side.
type Policy struct {
	// JobIndicators are plain substrings; a message containing none of them
	// is not job-related at all and fails the cheap pre-filter.
	JobIndicators []string
	// ExcludePatterns match experienced/senior postings. Checked before
	// inclusion; a single hit rejects the message.
	ExcludePatterns []string
	// IncludePatterns match fresher/entry-level postings.
	IncludePatterns []string
}

// DefaultPolicy returns the built-in rule set targeting freshers and
// candidates with at most two years of experience.
func DefaultPolicy() Policy {
	return Policy{
		JobIndicators: []string{
			"hiring", "vacancy", "opening", "position", "requirement",
			"job", "opportunity", "recruitment", "walk-in", "walkin",
			"apply", "career", "placement", "interview",
		},
		ExcludePatterns: []string{
			`\b[3-9]\+?\s*years?\b`,
			`\b[1-9]\d+\s*years?\b`,
			`\b[3-9]-[0-9]+\s*years?\b`,
			`\bsenior\b`,
			`\blead\b`,
			`\bmanager\b`,
			`\bexperienced\b`,
			`\bexpert\b`,
			`\bsr\.`,
			`\bprincipal\b`,
			`\barchitect\b`,
		},
		IncludePatterns: []string{
			`\bfresher\b`,
			`\bfreshman\b`,
			`\b2025\s*batch\b`,
			`\b2024\s*batch\b`,
			`\b0-[12]\s*years?\b`,
			`\b1-2\s*years?\b`,
			`\bentry\s*level\b`,
			`\bcampus\b`,
			`\bgraduate\b`,
			`\bnew\s*grad\b`,
			`\bintern\b`,
			`\btrainee\b`,
			`\b0\s*years?\b`,
			`\b0\s*to\s*[12]\s*years?\b`,
		},
	}
}

// Classifier applies a compiled policy to message text. It holds no mutable
// state; IsRelevant is a pure function of the text.
type Classifier struct {
	indicators []string
	exclude    []*regexp.Regexp
	include    []*regexp.Regexp
}

// New compiles the policy. Pattern compilation errors surface here, once,
// instead of per message.
func New(policy Policy) (*Classifier, error) {
	c := &Classifier{indicators: make([]string, 0, len(policy.JobIndicators))}
	for _, ind := range policy.JobIndicators {
		c.indicators = append(c.indicators, strings.ToLower(ind))
	}

	for _, pattern := range policy.ExcludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		c.exclude = append(c.exclude, re)
	}
	for _, pattern := range policy.IncludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		c.include = append(c.include, re)
	}

	return c, nil
}

// IsRelevant reports whether text is an entry-level job posting. Matching is
// case-insensitive. The rule order is strict: job-indicator gate, then
// exclusion, then inclusion; exclusion always wins over inclusion, and a
// job-related message matching neither list is treated as not relevant
// (it is still persisted, to the uncategorized partition).
func (c *Classifier) IsRelevant(text string) bool {
	lower := strings.ToLower(text)

	if !c.hasJobIndicator(lower) {
		return false
	}

	for _, re := range c.exclude {
		if re.MatchString(lower) {
			return false
		}
	}

	for _, re := range c.include {
		if re.MatchString(lower) {
			return true
		}
	}

	return false
}

func (c *Classifier) hasJobIndicator(lower string) bool {
	for _, ind := range c.indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
