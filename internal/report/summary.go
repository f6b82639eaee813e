// Package report aggregates run results for operators and the dashboard.
package report

import (
	"fmt"
	"sort"
	"strings"

	"TelegramJobAgent/internal/domain"
)

// Summary captures the outcome of one pipeline run.
type Summary struct {
	Relevant      int
	Uncategorized int
	Duplicates    int
	SkippedShort  int
	FailedGroups  int
	KnownIDs      int
	Sources       map[string]int // relevant records per source group
}

// NewSummary returns an empty summary ready for accumulation.
func NewSummary() *Summary {
	return &Summary{Sources: map[string]int{}}
}

// Add counts a freshly built record.
func (s *Summary) Add(record domain.JobRecord) {
	if record.Category == domain.VerdictRelevant {
		s.Relevant++
		s.Sources[record.SourceGroup]++
		return
	}
	s.Uncategorized++
}

// Processed is the number of new records produced this run.
func (s *Summary) Processed() int {
	return s.Relevant + s.Uncategorized
}

// SuccessRate is the share of processed messages that were relevant.
func (s *Summary) SuccessRate() float64 {
	total := s.Processed()
	if total == 0 {
		return 0
	}
	return float64(s.Relevant) / float64(total) * 100
}

// TopSources returns up to n source groups ordered by relevant-record count.
func (s *Summary) TopSources(n int) []SourceCount {
	counts := make([]SourceCount, 0, len(s.Sources))
	for source, count := range s.Sources {
		counts = append(counts, SourceCount{Source: source, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Source < counts[j].Source
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// SourceCount pairs a source group with its relevant-record count.
type SourceCount struct {
	Source string
	Count  int
}

// String renders the operator-facing run report.
func (s *Summary) String() string {
	var b strings.Builder
	b.WriteString("job collection summary\n")
	fmt.Fprintf(&b, "  new messages processed: %d\n", s.Processed())
	fmt.Fprintf(&b, "  relevant jobs: %d\n", s.Relevant)
	fmt.Fprintf(&b, "  uncategorized: %d\n", s.Uncategorized)
	fmt.Fprintf(&b, "  duplicates skipped: %d\n", s.Duplicates)
	fmt.Fprintf(&b, "  too short, skipped: %d\n", s.SkippedShort)
	if s.FailedGroups > 0 {
		fmt.Fprintf(&b, "  failed groups: %d\n", s.FailedGroups)
	}
	if s.Processed() > 0 {
		fmt.Fprintf(&b, "  success rate: %.1f%%\n", s.SuccessRate())
	}
	if top := s.TopSources(5); len(top) > 0 {
		b.WriteString("  top sources:\n")
		for _, sc := range top {
			fmt.Fprintf(&b, "    %s: %d\n", sc.Source, sc.Count)
		}
	}
	return b.String()
}
