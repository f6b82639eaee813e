package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TelegramJobAgent/internal/classify"
	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/extract"
	"TelegramJobAgent/internal/ports"
	"TelegramJobAgent/internal/report"
)

// Enricher produces structured fields for a message, degrading internally on
// failure; it never returns an error.
type Enricher interface {
	Enrich(ctx context.Context, text string) domain.EnrichmentResult
}

// Options bound the per-run behavior of the pipeline.
type Options struct {
	Groups        []string
	LookbackDays  int
	MinTextLength int
	MaxTextLength int
	FetchLimit    int
	GroupPause    time.Duration
	EnrichPause   time.Duration
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.MessageSource
	Store      ports.RecordStore
	Ledger     ports.DedupLedger
	Classifier *classify.Classifier
	Enricher   Enricher
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline drives the per-group fetch, filter, classify, enrich, partition,
// persist sequence. Groups are processed one at a time in configured order;
// the two partition appends at the end of the run are the unit of atomicity.
type Pipeline struct {
	source     ports.MessageSource
	store      ports.RecordStore
	ledger     ports.DedupLedger
	classifier *classify.Classifier
	enricher   Enricher
	notifier   ports.Notifier
	logger     *slog.Logger
	opts       Options
}

// NewPipeline constructs the orchestrator.
func NewPipeline(deps PipelineDeps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:     deps.Source,
		store:      deps.Store,
		ledger:     deps.Ledger,
		classifier: deps.Classifier,
		enricher:   deps.Enricher,
		notifier:   deps.Notifier,
		logger:     logger,
		opts:       opts,
	}
}

// Run executes one full collection pass. Store-level failures are fatal and
// returned; per-group failures are logged and the run continues.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (*report.Summary, error) {
	if err := p.store.EnsurePartitions(ctx); err != nil {
		return nil, fmt.Errorf("ensure partitions: %w", err)
	}
	if err := p.seedLedger(ctx); err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -p.opts.LookbackDays)
	summary := report.NewSummary()
	batches := map[domain.Partition][]domain.JobRecord{}
	var newIDs []string

	for i, ref := range p.opts.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p.logger.Info("processing group", "group", ref, "index", i+1, "total", len(p.opts.Groups))
		records, ids, err := p.processGroup(ctx, ref, since, now, summary)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			summary.FailedGroups++
			p.logger.Error("group failed, continuing", "group", ref, "error", err)
		}
		for _, record := range records {
			batches[domain.PartitionFor(record.Category)] = append(batches[domain.PartitionFor(record.Category)], record)
		}
		newIDs = append(newIDs, ids...)

		if i < len(p.opts.Groups)-1 {
			if err := pause(ctx, p.opts.GroupPause); err != nil {
				return nil, err
			}
		}
	}

	// Persist is batched: one append call per partition per run. Nothing is
	// written and no identifiers are recorded if a partition append fails.
	for _, partition := range domain.Partitions {
		records := batches[partition]
		if len(records) == 0 {
			continue
		}
		if err := p.store.AppendBatch(ctx, partition, records); err != nil {
			return nil, fmt.Errorf("append %q: %w", partition, err)
		}
		p.logger.Info("persisted batch", "partition", string(partition), "records", len(records))
	}

	for _, id := range newIDs {
		if err := p.ledger.Record(ctx, id); err != nil {
			p.logger.Warn("ledger record failed", "id", id, "error", err)
		}
	}

	p.logger.Info("run complete",
		"relevant", summary.Relevant,
		"uncategorized", summary.Uncategorized,
		"duplicates", summary.Duplicates,
		"skipped_short", summary.SkippedShort)

	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, summary.String()); err != nil {
			p.logger.Warn("summary notification failed", "error", err)
		}
	}

	return summary, nil
}

func (p *Pipeline) seedLedger(ctx context.Context) error {
	for _, partition := range domain.Partitions {
		ids, err := p.store.ReadIdentifiers(ctx, partition)
		if err != nil {
			return fmt.Errorf("read identifiers from %q: %w", partition, err)
		}
		if err := p.ledger.Seed(ctx, ids); err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) processGroup(ctx context.Context, ref string, since, now time.Time, summary *report.Summary) ([]domain.JobRecord, []string, error) {
	group, err := p.source.Resolve(ctx, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", ref, err)
	}

	messages, err := p.source.FetchMessages(ctx, group, since, p.opts.FetchLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	var (
		records  []domain.JobRecord
		ids      []string
		enriched int
	)
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// Too-short messages are excluded outright, not even recorded as
		// uncategorized.
		if len(msg.Text) <= p.opts.MinTextLength {
			summary.SkippedShort++
			continue
		}

		id := msg.UniqueID()
		seen, err := p.ledger.Contains(ctx, id)
		if err != nil {
			p.logger.Warn("ledger lookup failed, treating as new", "id", id, "error", err)
		}
		if seen {
			summary.Duplicates++
			continue
		}

		verdict := domain.VerdictUncategorized
		if p.classifier.IsRelevant(msg.Text) {
			verdict = domain.VerdictRelevant
		}
		links := extract.URLs(msg.Text)

		var enrichment *domain.EnrichmentResult
		if p.enricher != nil && verdict == domain.VerdictRelevant {
			if enriched > 0 {
				if err := pause(ctx, p.opts.EnrichPause); err != nil {
					return nil, nil, err
				}
			}
			result := p.enricher.Enrich(ctx, msg.Text)
			enrichment = &result
			enriched++
		}

		record := domain.NewJobRecord(msg, verdict, links, enrichment, p.opts.MaxTextLength, now)
		records = append(records, record)
		ids = append(ids, id)
		summary.Add(record)
	}

	p.logger.Info("group processed", "group", group.ShortName, "fetched", len(messages), "new", len(records))
	return records, ids, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
