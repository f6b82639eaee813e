package domain

import (
	"time"
	"unicode/utf8"
)

// Enrichment sentinel values. NotSpecified marks a field the extraction ran
// on but found nothing for; ParseFailed marks a field of a record whose
// enrichment failed entirely. The two states must stay distinguishable.
const (
	NotSpecified = "Not specified"
	ParseFailed  = "Error parsing"
)

// EnrichmentResult holds the six structured fields extracted from a posting.
type EnrichmentResult struct {
	Company    string
	Position   string
	Experience string
	Location   string
	Skills     string
	ApplyLink  string
}

// FailedEnrichment returns the all-"Error parsing" sentinel record.
func FailedEnrichment() EnrichmentResult {
	return EnrichmentResult{
		Company:    ParseFailed,
		Position:   ParseFailed,
		Experience: ParseFailed,
		Location:   ParseFailed,
		Skills:     ParseFailed,
		ApplyLink:  ParseFailed,
	}
}

// Failed reports whether the result is the total-failure sentinel.
func (e EnrichmentResult) Failed() bool {
	return e.Company == ParseFailed && e.Position == ParseFailed &&
		e.Experience == ParseFailed && e.Location == ParseFailed &&
		e.Skills == ParseFailed && e.ApplyLink == ParseFailed
}

// JobRecord is the persisted unit. Records are created once per processed
// message and never mutated; the store is append-only.
type JobRecord struct {
	MessageID   string
	DateAdded   time.Time
	MessageDate time.Time
	SourceGroup string
	Text        string
	Links       []string
	Category    Verdict
	Enrichment  *EnrichmentResult
}

// NewJobRecord assembles a persistable record from a raw message and the
// pipeline outputs. Text is capped at maxTextLen here, after classification
// has already run on the full text, so truncation never changes the verdict.
func NewJobRecord(msg RawMessage, verdict Verdict, links []string, enrichment *EnrichmentResult, maxTextLen int, now time.Time) JobRecord {
	text := msg.Text
	if maxTextLen > 0 && len(text) > maxTextLen {
		// Back up to a rune start so the cut never leaves invalid UTF-8.
		cut := maxTextLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	group := msg.Group.Title
	if group == "" {
		group = msg.Group.ShortName
	}

	return JobRecord{
		MessageID:   msg.UniqueID(),
		DateAdded:   now,
		MessageDate: msg.Date,
		SourceGroup: group,
		Text:        text,
		Links:       links,
		Category:    verdict,
		Enrichment:  enrichment,
	}
}
