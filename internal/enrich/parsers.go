package enrich

import (
	"encoding/json"
	"regexp"
	"strings"

	"TelegramJobAgent/internal/domain"
)

// Parser attempts to turn a raw completion into structured fields. A false
// second return means no match here, try the next strategy. Parsers never
// signal failure through errors.
type Parser func(response string) (domain.EnrichmentResult, bool)

// DefaultParsers is the standard fallback chain: an embedded JSON block
// first, then labeled-line extraction.
func DefaultParsers() []Parser {
	return []Parser{ParseJSONBlock, ParseLabeledLines}
}

// ParseJSONBlock locates the first {...} block in the response and decodes
// it. Models often wrap JSON in prose or code fences, so it scans rather
// than decoding the whole body.
func ParseJSONBlock(response string) (domain.EnrichmentResult, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return domain.EnrichmentResult{}, false
	}

	var parsed struct {
		Company    string `json:"company"`
		Position   string `json:"position"`
		Experience string `json:"experience"`
		Location   string `json:"location"`
		Skills     string `json:"skills"`
		ApplyLink  string `json:"apply_link"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return domain.EnrichmentResult{}, false
	}

	result := domain.EnrichmentResult{
		Company:    orNotSpecified(parsed.Company),
		Position:   orNotSpecified(parsed.Position),
		Experience: orNotSpecified(parsed.Experience),
		Location:   orNotSpecified(parsed.Location),
		Skills:     orNotSpecified(parsed.Skills),
		ApplyLink:  orNotSpecified(parsed.ApplyLink),
	}
	return result, true
}

// Field label variants seen in free-form completions ("Company" vs
// "Company Name", "Apply Link" vs "Application Link", markdown bold, etc.).
var lineExprs = map[string]*regexp.Regexp{
	"company":    regexp.MustCompile(`(?im)^\**\s*company(?:\s*name)?\s*\**\s*[:\-]\s*(.+)$`),
	"position":   regexp.MustCompile(`(?im)^\**\s*(?:position|role|job\s*title)\s*\**\s*[:\-]\s*(.+)$`),
	"experience": regexp.MustCompile(`(?im)^\**\s*experience(?:\s*(?:level|required))?\s*\**\s*[:\-]\s*(.+)$`),
	"location":   regexp.MustCompile(`(?im)^\**\s*location\s*\**\s*[:\-]\s*(.+)$`),
	"skills":     regexp.MustCompile(`(?im)^\**\s*(?:skills|skills\s*required|tech\s*stack)\s*\**\s*[:\-]\s*(.+)$`),
	"apply_link": regexp.MustCompile(`(?im)^\**\s*(?:apply\s*link|application\s*link|apply\s*at)\s*\**\s*[:\-]\s*(.+)$`),
}

// ParseLabeledLines extracts fields line by line. It succeeds if at least
// one field was found; missing fields take the "Not specified" sentinel.
func ParseLabeledLines(response string) (domain.EnrichmentResult, bool) {
	fields := map[string]string{}
	matched := false

	for name, re := range lineExprs {
		if m := re.FindStringSubmatch(response); m != nil {
			value := strings.Trim(strings.TrimSpace(m[1]), `*"`)
			if value != "" {
				fields[name] = value
				matched = true
			}
		}
	}
	if !matched {
		return domain.EnrichmentResult{}, false
	}

	result := domain.EnrichmentResult{
		Company:    orNotSpecified(fields["company"]),
		Position:   orNotSpecified(fields["position"]),
		Experience: orNotSpecified(fields["experience"]),
		Location:   orNotSpecified(fields["location"]),
		Skills:     orNotSpecified(fields["skills"]),
		ApplyLink:  orNotSpecified(fields["apply_link"]),
	}
	return result, true
}

func orNotSpecified(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.NotSpecified
	}
	return value
}
