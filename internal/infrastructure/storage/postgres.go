// Package storage provides the record store backends.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS job_records (
	message_id      TEXT PRIMARY KEY,
	date_added      DATE NOT NULL,
	message_date    TIMESTAMPTZ NOT NULL,
	source_group    TEXT NOT NULL,
	full_message    TEXT NOT NULL,
	extracted_links TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL,
	company         TEXT NOT NULL DEFAULT '',
	position        TEXT NOT NULL DEFAULT '',
	experience      TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	skills          TEXT NOT NULL DEFAULT '',
	apply_link      TEXT NOT NULL DEFAULT ''
)`

var recordColumns = []string{
	"message_id", "date_added", "message_date", "source_group", "full_message",
	"extracted_links", "category", "company", "position", "experience",
	"location", "skills", "apply_link",
}

// PostgresStore keeps both partitions in a single job_records table; the
// partition is the category column.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore opens and pings the database.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsurePartitions creates the backing table when the store is empty.
func (s *PostgresStore) EnsurePartitions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create job_records: %w", err)
	}
	return nil
}

// ReadIdentifiers returns every stored message id for the partition.
func (s *PostgresStore) ReadIdentifiers(ctx context.Context, p domain.Partition) ([]string, error) {
	query, args, err := s.builder.
		Select("message_id").
		From("job_records").
		Where(sq.Eq{"category": categoryFor(p)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendBatch inserts the records in a single transaction. Identifiers that
// already exist are left untouched; the store is append-only.
func (s *PostgresStore) AppendBatch(ctx context.Context, p domain.Partition, records []domain.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	insert := s.builder.
		Insert("job_records").
		Columns(recordColumns...).
		Suffix("ON CONFLICT (message_id) DO NOTHING")

	for _, record := range records {
		enrichment := record.Enrichment
		if enrichment == nil {
			enrichment = &domain.EnrichmentResult{}
		}
		insert = insert.Values(
			record.MessageID,
			record.DateAdded.Format("2006-01-02"),
			record.MessageDate,
			record.SourceGroup,
			record.Text,
			strings.Join(record.Links, "\n"),
			string(record.Category),
			enrichment.Company,
			enrichment.Position,
			enrichment.Experience,
			enrichment.Location,
			enrichment.Skills,
			enrichment.ApplyLink,
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ReadRecords returns the partition's records, newest message first.
func (s *PostgresStore) ReadRecords(ctx context.Context, p domain.Partition) ([]domain.JobRecord, error) {
	query, args, err := s.builder.
		Select(recordColumns...).
		From("job_records").
		Where(sq.Eq{"category": categoryFor(p)}).
		OrderBy("message_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.JobRecord
	for rows.Next() {
		var (
			record     domain.JobRecord
			dateAdded  time.Time
			links      string
			category   string
			enrichment domain.EnrichmentResult
		)
		if err := rows.Scan(
			&record.MessageID, &dateAdded, &record.MessageDate,
			&record.SourceGroup, &record.Text, &links, &category,
			&enrichment.Company, &enrichment.Position, &enrichment.Experience,
			&enrichment.Location, &enrichment.Skills, &enrichment.ApplyLink,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record.DateAdded = dateAdded
		record.Category = domain.Verdict(category)
		if links != "" {
			record.Links = strings.Split(links, "\n")
		}
		if enrichment != (domain.EnrichmentResult{}) {
			record.Enrichment = &enrichment
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func categoryFor(p domain.Partition) string {
	if p == domain.PartitionRelevant {
		return string(domain.VerdictRelevant)
	}
	return string(domain.VerdictUncategorized)
}
