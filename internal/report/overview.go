package report

import (
	"sort"

	"TelegramJobAgent/internal/domain"
)

// Overview aggregates the persisted data for the dashboard read path.
type Overview struct {
	Total         int
	Relevant      int
	Uncategorized int
	FirstDate     string
	LastDate      string
	BySource      []SourceCount
	ByDate        []DateCount
}

// DateCount pairs a message date with its record count.
type DateCount struct {
	Date  string
	Count int
}

// RelevantShare is the percentage of records classified relevant.
func (o *Overview) RelevantShare() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.Relevant) / float64(o.Total) * 100
}

// BuildOverview computes summary analytics over both partitions.
func BuildOverview(relevant, uncategorized []domain.JobRecord) *Overview {
	overview := &Overview{
		Total:         len(relevant) + len(uncategorized),
		Relevant:      len(relevant),
		Uncategorized: len(uncategorized),
	}

	sources := map[string]int{}
	dates := map[string]int{}
	for _, record := range append(append([]domain.JobRecord{}, relevant...), uncategorized...) {
		sources[record.SourceGroup]++
		if !record.MessageDate.IsZero() {
			dates[record.MessageDate.Format("2006-01-02")]++
		}
	}

	for source, count := range sources {
		overview.BySource = append(overview.BySource, SourceCount{Source: source, Count: count})
	}
	sort.Slice(overview.BySource, func(i, j int) bool {
		if overview.BySource[i].Count != overview.BySource[j].Count {
			return overview.BySource[i].Count > overview.BySource[j].Count
		}
		return overview.BySource[i].Source < overview.BySource[j].Source
	})

	for date, count := range dates {
		overview.ByDate = append(overview.ByDate, DateCount{Date: date, Count: count})
	}
	sort.Slice(overview.ByDate, func(i, j int) bool {
		return overview.ByDate[i].Date > overview.ByDate[j].Date
	})

	if len(overview.ByDate) > 0 {
		overview.LastDate = overview.ByDate[0].Date
		overview.FirstDate = overview.ByDate[len(overview.ByDate)-1].Date
	}

	return overview
}
