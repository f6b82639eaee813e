// Package enrich extracts structured job fields from message text through an
// external text-understanding call with deterministic fallbacks.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/ports"
)

const promptTemplate = `Extract the following fields from the job posting below.
Answer "Not specified" for any field that is absent.
Respond with a JSON object only, no other text:
{
  "company": "...",
  "position": "...",
  "experience": "...",
  "location": "...",
  "skills": "...",
  "apply_link": "..."
}

Job posting:
%s`

// Adapter runs the enrichment call and the parser fallback chain. A failed
// call or an unparseable response degrades to the all-"Error parsing"
// sentinel; enrichment never aborts the batch.
type Adapter struct {
	completer ports.Completer
	parsers   []Parser
	logger    *slog.Logger
}

// NewAdapter wires a completer with the parser chain. A nil or empty parser
// list falls back to DefaultParsers.
func NewAdapter(completer ports.Completer, parsers []Parser, logger *slog.Logger) *Adapter {
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{completer: completer, parsers: parsers, logger: logger}
}

// Enrich returns the structured fields for text. The fallback order is
// fixed: completion call, then each parser in sequence against the raw
// response, then the failure sentinel.
func (a *Adapter) Enrich(ctx context.Context, text string) domain.EnrichmentResult {
	if a.completer == nil {
		return domain.FailedEnrichment()
	}

	prompt := fmt.Sprintf(promptTemplate, text)
	response, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("enrichment call failed", "error", err)
		return domain.FailedEnrichment()
	}

	for _, parse := range a.parsers {
		if result, ok := parse(response); ok {
			return result
		}
	}

	a.logger.Warn("enrichment response unparseable", "length", len(response))
	return domain.FailedEnrichment()
}
