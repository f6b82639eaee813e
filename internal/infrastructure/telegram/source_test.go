package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TelegramJobAgent/internal/domain"
)

func messageHTML(group string, id int, datetime, text string) string {
	return fmt.Sprintf(`
<div class="tgme_widget_message" data-post="%s/%d">
  <div class="tgme_widget_message_text">%s</div>
  <a class="tgme_widget_message_date" href="https://t.me/%s/%d"><time datetime="%s"></time></a>
</div>`, group, id, text, group, id, datetime)
}

func pageHTML(title string, messages ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta property="og:title" content="OG Fallback"/></head><body>`)
	if title != "" {
		b.WriteString(`<div class="tgme_channel_info_header_title">` + title + `</div>`)
	}
	for _, m := range messages {
		b.WriteString(m)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestResolveExtractsTitle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/s/OceanOfJobs" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, pageHTML("Ocean Of Jobs"))
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group, err := source.Resolve(context.Background(), "https://t.me/OceanOfJobs")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if group.ShortName != "OceanOfJobs" || group.Title != "Ocean Of Jobs" {
		t.Fatalf("unexpected handle: %+v", group)
	}
}

func TestResolveFallsBackToOGTitle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, pageHTML(""))
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group, err := source.Resolve(context.Background(), "@gocareers")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if group.Title != "OG Fallback" {
		t.Fatalf("expected og:title fallback, got %q", group.Title)
	}
}

func TestFetchMessagesPagesBackwardUntilLookback(t *testing.T) {
	t.Parallel()

	// First page holds ids 101-103 inside the window; the second page,
	// requested with before=101, holds 99-100 where 99 is already older
	// than the lookback boundary.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("before") {
		case "":
			fmt.Fprint(w, pageHTML("Jobs",
				messageHTML("gocareers", 101, "2025-08-20T09:00:00+00:00", "Opening one, apply now, freshers welcome"),
				messageHTML("gocareers", 102, "2025-08-21T09:00:00+00:00", "Opening two, apply now, freshers welcome"),
				messageHTML("gocareers", 103, "2025-08-22T09:00:00+00:00", "Opening three, apply now, freshers welcome"),
			))
		case "101":
			fmt.Fprint(w, pageHTML("Jobs",
				messageHTML("gocareers", 99, "2025-08-10T09:00:00+00:00", "Too old to collect"),
				messageHTML("gocareers", 100, "2025-08-19T09:00:00+00:00", "Opening zero, apply now, freshers welcome"),
			))
		default:
			t.Errorf("unexpected before=%q", r.URL.Query().Get("before"))
			fmt.Fprint(w, pageHTML("Jobs"))
		}
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group := domain.GroupHandle{Ref: "https://t.me/gocareers", ShortName: "gocareers"}
	since := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)

	messages, err := source.FetchMessages(context.Background(), group, since, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages inside the window, got %d", len(messages))
	}
	// Newest first, and the pre-window message 99 must be absent.
	wantIDs := []int{103, 102, 101, 100}
	for i, want := range wantIDs {
		if messages[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, messages[i].ID, want)
		}
	}
}

func TestFetchMessagesHonorsMax(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, pageHTML("Jobs",
			messageHTML("gocareers", 11, "2025-08-20T09:00:00+00:00", "one"),
			messageHTML("gocareers", 12, "2025-08-21T09:00:00+00:00", "two"),
			messageHTML("gocareers", 13, "2025-08-22T09:00:00+00:00", "three"),
		))
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group := domain.GroupHandle{ShortName: "gocareers"}
	since := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	messages, err := source.FetchMessages(context.Background(), group, since, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected max to cap at 2, got %d", len(messages))
	}
}

func TestFetchMessagesSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "" {
			fmt.Fprint(w, pageHTML("Jobs"))
			return
		}
		fmt.Fprint(w, pageHTML("Jobs",
			`<div class="tgme_widget_message"><div class="tgme_widget_message_text">no data-post</div></div>`,
			messageHTML("gocareers", 7, "not-a-timestamp", "bad datetime"),
			messageHTML("gocareers", 8, "2025-08-21T09:00:00+00:00", "the only good one"),
		))
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group := domain.GroupHandle{ShortName: "gocareers"}
	since := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	messages, err := source.FetchMessages(context.Background(), group, since, 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != 8 {
		t.Fatalf("expected only the well-formed message, got %+v", messages)
	}
	if messages[0].Text != "the only good one" {
		t.Fatalf("unexpected text %q", messages[0].Text)
	}
}

func TestFetchMessagesErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "flood wait", http.StatusTooManyRequests)
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client(), nil)
	group := domain.GroupHandle{ShortName: "gocareers"}

	if _, err := source.FetchMessages(context.Background(), group, time.Now().Add(-time.Hour), 0); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}
