package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TelegramJobAgent/internal/config"
	"TelegramJobAgent/internal/domain"
)

func newTestSheetsStore(server *httptest.Server) *SheetsStore {
	store := NewSheetsStore(config.SheetsConfig{
		Endpoint:      server.URL,
		SpreadsheetID: "sid",
		AccessToken:   "token",
	})
	store.client = server.Client()
	return store
}

func TestSheetsEnsurePartitions(t *testing.T) {
	t.Parallel()

	var headerAppends []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing bearer token on %s", r.URL.Path)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			// Worksheets already exist; that is the steady-state answer.
			http.Error(w, `{"error": {"message": "A sheet with the name already exists"}}`, http.StatusBadRequest)
		case strings.Contains(r.URL.Path, "A1:N1") && r.Method == http.MethodGet:
			fmt.Fprint(w, `{}`)
		case strings.Contains(r.URL.Path, "A1:N1:append"):
			headerAppends = append(headerAppends, r.URL.Path)
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	store := newTestSheetsStore(server)
	if err := store.EnsurePartitions(context.Background()); err != nil {
		t.Fatalf("ensure partitions: %v", err)
	}
	if len(headerAppends) != 2 {
		t.Fatalf("expected header append for both worksheets, got %v", headerAppends)
	}
}

func TestSheetsAppendBatch(t *testing.T) {
	t.Parallel()

	var payload struct {
		Values [][]string `json:"values"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":append") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			t.Errorf("valueInputOption = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	record := domain.JobRecord{
		MessageID:   "gocareers_42_20250820",
		DateAdded:   time.Date(2025, time.August, 22, 1, 0, 0, 0, time.UTC),
		MessageDate: time.Date(2025, time.August, 20, 9, 30, 0, 0, time.UTC),
		SourceGroup: "Go Careers",
		Text:        "Fresher opening, apply now",
		Links:       []string{"https://x.co/job", "https://forms.gle/abc"},
		Category:    domain.VerdictRelevant,
	}

	store := newTestSheetsStore(server)
	if err := store.AppendBatch(context.Background(), domain.PartitionRelevant, []domain.JobRecord{record}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(payload.Values) != 1 {
		t.Fatalf("expected 1 row, got %d", len(payload.Values))
	}
	row := payload.Values[0]
	if len(row) != len(sheetHeaders) {
		t.Fatalf("row has %d cells, want %d", len(row), len(sheetHeaders))
	}
	if row[3] != "gocareers_42_20250820" || row[1] != "2025-08-20" || row[2] != "09:30:00" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[6] != "https://x.co/job\nhttps://forms.gle/abc" {
		t.Fatalf("links column wrong: %q", row[6])
	}
}

func TestSheetsAppendBatchEmptyIsNoop(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer server.Close()

	store := newTestSheetsStore(server)
	if err := store.AppendBatch(context.Background(), domain.PartitionRelevant, nil); err != nil {
		t.Fatalf("empty append must not call the API: %v", err)
	}
}

func TestSheetsReadIdentifiers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "D2:D") {
			t.Errorf("unexpected range in %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"values": [["a_1_20250819"], ["b_2_20250820"], [""]]}`)
	}))
	defer server.Close()

	store := newTestSheetsStore(server)
	ids, err := store.ReadIdentifiers(context.Background(), domain.PartitionUncategorized)
	if err != nil {
		t.Fatalf("read identifiers: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a_1_20250819" || ids[1] != "b_2_20250820" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestSheetsReadRecords(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"values": [
			["2025-08-22", "2025-08-20", "09:30:00", "gocareers_42_20250820", "Go Careers", "Fresher opening", "https://x.co/job", "Relevant", "TechCorp", "SDE", "0-1 years", "Remote", "Go", "Not specified"],
			["2025-08-22", "2025-08-20", "10:00:00", "gocareers_43_20250820", "Go Careers", "Greeting", "", "Uncategorized", "", "", "", "", "", ""],
			["", "", "", "", "", "", "", "", "", "", "", "", "", ""]
		]}`)
	}))
	defer server.Close()

	store := newTestSheetsStore(server)
	records, err := store.ReadRecords(context.Background(), domain.PartitionRelevant)
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (blank row dropped), got %d", len(records))
	}

	first := records[0]
	if first.MessageID != "gocareers_42_20250820" || first.Category != domain.VerdictRelevant {
		t.Fatalf("unexpected first record: %+v", first)
	}
	want := time.Date(2025, time.August, 20, 9, 30, 0, 0, time.UTC)
	if !first.MessageDate.Equal(want) {
		t.Fatalf("message date = %v, want %v", first.MessageDate, want)
	}
	if first.Enrichment == nil || first.Enrichment.Company != "TechCorp" {
		t.Fatalf("enrichment lost: %+v", first.Enrichment)
	}
	if records[1].Enrichment != nil {
		t.Fatalf("blank enrichment columns must decode to nil, got %+v", records[1].Enrichment)
	}
}

func TestSheetsErrorStatusSurfaces(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "The caller does not have permission"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	store := newTestSheetsStore(server)
	_, err := store.ReadIdentifiers(context.Background(), domain.PartitionRelevant)
	if err == nil || !strings.Contains(err.Error(), "permission") {
		t.Fatalf("expected permission error, got %v", err)
	}
}
