package ports

import (
	"context"
	"time"

	"TelegramJobAgent/internal/domain"
)

// MessageSource pulls raw messages from a monitored chat group.
type MessageSource interface {
	Resolve(ctx context.Context, ref string) (domain.GroupHandle, error)
	// FetchMessages returns messages newest-first, stopping once a message
	// older than since is reached or max messages have been seen. A fresh
	// call re-fetches from "now"; the stream is not restartable mid-way.
	FetchMessages(ctx context.Context, group domain.GroupHandle, since time.Time, max int) ([]domain.RawMessage, error)
}

// RecordStore persists finished records and serves the read path.
type RecordStore interface {
	// EnsurePartitions bootstraps both partitions with the header schema
	// when the store is empty. Safe to call on every start.
	EnsurePartitions(ctx context.Context) error
	ReadIdentifiers(ctx context.Context, p domain.Partition) ([]string, error)
	AppendBatch(ctx context.Context, p domain.Partition, records []domain.JobRecord) error
	ReadRecords(ctx context.Context, p domain.Partition) ([]domain.JobRecord, error)
}

// Completer is the external text-understanding call used for enrichment.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DedupLedger is the set of already-processed message identifiers. It is the
// sole gate between candidate and processed messages.
type DedupLedger interface {
	Seed(ctx context.Context, ids []string) error
	Contains(ctx context.Context, id string) (bool, error)
	Record(ctx context.Context, id string) error
}

// Notifier delivers the end-of-run summary to an outside channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
