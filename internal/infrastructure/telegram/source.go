// Package telegram fetches group messages from the public t.me preview pages.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/ports"
)

const defaultBaseURL = "https://t.me"

// Source implements ports.MessageSource by scraping the t.me/s/<group> HTML
// preview and paging backward with the ?before=<id> parameter until it
// crosses the lookback boundary.
type Source struct {
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
	pageLimit int
}

var _ ports.MessageSource = (*Source)(nil)

// NewSource wires an HTTP client; baseURL defaults to https://t.me.
func NewSource(baseURL string, client *http.Client, logger *slog.Logger) *Source {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{baseURL: baseURL, client: client, logger: logger, pageLimit: 100}
}

// Resolve loads the group preview page and extracts its display title.
func (s *Source) Resolve(ctx context.Context, ref string) (domain.GroupHandle, error) {
	short := domain.ShortNameFromRef(ref)
	if short == "" {
		return domain.GroupHandle{}, fmt.Errorf("empty group reference %q", ref)
	}

	doc, err := s.fetchDocument(ctx, s.previewURL(short, 0))
	if err != nil {
		return domain.GroupHandle{}, fmt.Errorf("resolve %s: %w", short, err)
	}

	title := strings.TrimSpace(doc.Find(".tgme_channel_info_header_title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
	}

	return domain.GroupHandle{Ref: ref, ShortName: short, Title: strings.TrimSpace(title)}, nil
}

// FetchMessages walks the preview pages backward from "now" and returns
// messages newest-first. The walk stops at the first message older than
// since, after max messages, or when a page comes back empty.
func (s *Source) FetchMessages(ctx context.Context, group domain.GroupHandle, since time.Time, max int) ([]domain.RawMessage, error) {
	var collected []domain.RawMessage
	before := 0

	for page := 0; page < s.pageLimit; page++ {
		doc, err := s.fetchDocument(ctx, s.previewURL(group.ShortName, before))
		if err != nil {
			return nil, fmt.Errorf("fetch page for %s: %w", group.ShortName, err)
		}

		messages := s.extractMessages(doc, group)
		if len(messages) == 0 {
			break
		}

		// Pages list messages oldest-first; walk them newest-first.
		sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })

		crossed := false
		for _, msg := range messages {
			if msg.Date.Before(since) {
				crossed = true
				break
			}
			collected = append(collected, msg)
			if max > 0 && len(collected) >= max {
				return collected, nil
			}
		}
		if crossed {
			break
		}

		before = messages[len(messages)-1].ID
	}

	return collected, nil
}

func (s *Source) previewURL(shortName string, before int) string {
	u := fmt.Sprintf("%s/s/%s", s.baseURL, url.PathEscape(shortName))
	if before > 0 {
		u += "?before=" + strconv.Itoa(before)
	}
	return u
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TelegramJobAgent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

func (s *Source) extractMessages(doc *goquery.Document, group domain.GroupHandle) []domain.RawMessage {
	var messages []domain.RawMessage

	doc.Find(".tgme_widget_message").Each(func(_ int, sel *goquery.Selection) {
		msg, err := parseMessage(sel, group)
		if err != nil {
			s.logger.Debug("skipping malformed entry", "group", group.ShortName, "error", err)
			return
		}
		messages = append(messages, msg)
	})

	return messages
}

func parseMessage(sel *goquery.Selection, group domain.GroupHandle) (domain.RawMessage, error) {
	post, ok := sel.Attr("data-post")
	if !ok {
		return domain.RawMessage{}, fmt.Errorf("message without data-post")
	}

	idPart := post
	if idx := strings.LastIndex(post, "/"); idx >= 0 {
		idPart = post[idx+1:]
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return domain.RawMessage{}, fmt.Errorf("bad message id in %q: %w", post, err)
	}

	datetime, ok := sel.Find(".tgme_widget_message_date time").First().Attr("datetime")
	if !ok {
		return domain.RawMessage{}, fmt.Errorf("message %d without datetime", id)
	}
	date, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		return domain.RawMessage{}, fmt.Errorf("bad datetime %q: %w", datetime, err)
	}

	text := strings.TrimSpace(sel.Find(".tgme_widget_message_text").First().Text())

	return domain.RawMessage{
		ID:    id,
		Group: group,
		Date:  date.UTC(),
		Text:  text,
	}, nil
}
