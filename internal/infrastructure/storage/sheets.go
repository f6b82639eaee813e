package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TelegramJobAgent/internal/config"
	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/ports"
)

var sheetHeaders = []string{
	"Date Added", "Message Date", "Message Time", "Message ID", "Source Group",
	"Full Message", "Extracted Links", "Category", "Company", "Position",
	"Experience", "Location", "Skills", "Apply Link",
}

// SheetsStore persists records into a Google spreadsheet, one worksheet per
// partition, via the Sheets REST API.
type SheetsStore struct {
	endpoint      string
	spreadsheetID string
	accessToken   string
	client        *http.Client
}

var _ ports.RecordStore = (*SheetsStore)(nil)

// NewSheetsStore builds a store from configuration.
func NewSheetsStore(cfg config.SheetsConfig) *SheetsStore {
	return &SheetsStore{
		endpoint:      strings.TrimSuffix(cfg.Endpoint, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		accessToken:   cfg.AccessToken,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// EnsurePartitions creates both worksheets with the header row when they do
// not exist yet. Safe to call on every start.
func (s *SheetsStore) EnsurePartitions(ctx context.Context) error {
	for _, partition := range domain.Partitions {
		if err := s.ensureWorksheet(ctx, partition); err != nil {
			return fmt.Errorf("ensure worksheet %q: %w", partition, err)
		}
	}
	return nil
}

// ReadIdentifiers returns the Message ID column of the partition worksheet.
func (s *SheetsStore) ReadIdentifiers(ctx context.Context, p domain.Partition) ([]string, error) {
	values, err := s.getValues(ctx, rangeRef(p, "D2:D"))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(values))
	for _, row := range values {
		if len(row) > 0 && row[0] != "" {
			ids = append(ids, row[0])
		}
	}
	return ids, nil
}

// AppendBatch appends all records in one values:append call.
func (s *SheetsStore) AppendBatch(ctx context.Context, p domain.Partition, records []domain.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, recordToRow(record))
	}

	path := fmt.Sprintf("/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		s.spreadsheetID, url.PathEscape(rangeRef(p, "A:N")))
	return s.post(ctx, path, map[string]any{"values": rows}, nil)
}

// ReadRecords returns the partition's rows decoded into records.
func (s *SheetsStore) ReadRecords(ctx context.Context, p domain.Partition) ([]domain.JobRecord, error) {
	values, err := s.getValues(ctx, rangeRef(p, "A2:N"))
	if err != nil {
		return nil, err
	}

	records := make([]domain.JobRecord, 0, len(values))
	for _, row := range values {
		record, ok := rowToRecord(row)
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (s *SheetsStore) ensureWorksheet(ctx context.Context, p domain.Partition) error {
	// addSheet fails with 400 when the worksheet already exists; that case
	// is expected on every run after the first.
	body := map[string]any{
		"requests": []map[string]any{
			{"addSheet": map[string]any{"properties": map[string]any{"title": string(p)}}},
		},
	}
	err := s.post(ctx, fmt.Sprintf("/spreadsheets/%s:batchUpdate", s.spreadsheetID), body, nil)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}

	header, err := s.getValues(ctx, rangeRef(p, "A1:N1"))
	if err != nil {
		return err
	}
	if len(header) > 0 && len(header[0]) > 0 {
		return nil
	}

	path := fmt.Sprintf("/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		s.spreadsheetID, url.PathEscape(rangeRef(p, "A1:N1")))
	return s.post(ctx, path, map[string]any{"values": [][]string{sheetHeaders}}, nil)
}

func (s *SheetsStore) getValues(ctx context.Context, rangeName string) ([][]string, error) {
	path := fmt.Sprintf("/spreadsheets/%s/values/%s", s.spreadsheetID, url.PathEscape(rangeName))
	var parsed struct {
		Values [][]string `json:"values"`
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return nil, err
	}
	return parsed.Values, nil
}

func (s *SheetsStore) post(ctx context.Context, path string, payload, v any) error {
	return s.do(ctx, http.MethodPost, path, payload, v)
}

func (s *SheetsStore) do(ctx context.Context, method, path string, payload, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheets error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func rangeRef(p domain.Partition, cells string) string {
	return fmt.Sprintf("'%s'!%s", string(p), cells)
}

func recordToRow(record domain.JobRecord) []string {
	enrichment := record.Enrichment
	if enrichment == nil {
		enrichment = &domain.EnrichmentResult{}
	}
	return []string{
		record.DateAdded.Format("2006-01-02"),
		record.MessageDate.Format("2006-01-02"),
		record.MessageDate.Format("15:04:05"),
		record.MessageID,
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
	}
}

func rowToRecord(row []string) (domain.JobRecord, bool) {
	col := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	if col(3) == "" || col(3) == "Message ID" {
		return domain.JobRecord{}, false
	}

	record := domain.JobRecord{
		MessageID:   col(3),
		SourceGroup: col(4),
		Text:        col(5),
		Category:    domain.Verdict(col(7)),
	}
	if added, err := time.Parse("2006-01-02", col(0)); err == nil {
		record.DateAdded = added
	}
	if stamp, err := time.Parse("2006-01-02 15:04:05", col(1)+" "+col(2)); err == nil {
		record.MessageDate = stamp
	}
	if col(6) != "" {
		record.Links = strings.Split(col(6), "\n")
	}

	enrichment := domain.EnrichmentResult{
		Company:    col(8),
		Position:   col(9),
		Experience: col(10),
		Location:   col(11),
		Skills:     col(12),
		ApplyLink:  col(13),
	}
	if enrichment != (domain.EnrichmentResult{}) {
		record.Enrichment = &enrichment
	}
	return record, true
}
