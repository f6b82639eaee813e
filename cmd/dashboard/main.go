// Command dashboard serves summary analytics and a browsable listing over
// the collected job records.
package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"TelegramJobAgent/internal/app"
	"TelegramJobAgent/internal/config"
	"TelegramJobAgent/internal/domain"
	"TelegramJobAgent/internal/logging"
	"TelegramJobAgent/internal/ports"
	"TelegramJobAgent/internal/report"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head><title>Job Collection Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; max-width: 72em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; vertical-align: top; }
.stats span { margin-right: 2em; }
.message { white-space: pre-wrap; max-width: 40em; }
form input, form select { margin-right: 1em; }
</style>
</head>
<body>
<h1>Job Collection Dashboard</h1>
<div class="stats">
<span>Total: {{.Overview.Total}}</span>
<span>Relevant: {{.Overview.Relevant}} ({{printf "%.1f" .Overview.RelevantShare}}%)</span>
<span>Uncategorized: {{.Overview.Uncategorized}}</span>
{{if .Overview.FirstDate}}<span>Range: {{.Overview.FirstDate}} to {{.Overview.LastDate}}</span>{{end}}
</div>
<h2>Top sources</h2>
<table>
<tr><th>Source</th><th>Messages</th></tr>
{{range .Overview.BySource}}<tr><td>{{.Source}}</td><td>{{.Count}}</td></tr>{{end}}
</table>
<h2>Messages ({{len .Records}})</h2>
<form method="get">
<select name="category">
<option value="all" {{if eq .Category "all"}}selected{{end}}>All</option>
<option value="relevant" {{if eq .Category "relevant"}}selected{{end}}>Relevant</option>
<option value="uncategorized" {{if eq .Category "uncategorized"}}selected{{end}}>Uncategorized</option>
</select>
<input name="q" placeholder="search text" value="{{.Query}}">
<button>Filter</button>
</form>
<table>
<tr><th>Date</th><th>Source</th><th>Category</th><th>Message</th><th>Links</th></tr>
{{range .Records}}
<tr>
<td>{{.MessageDate.Format "2006-01-02 15:04"}}</td>
<td>{{.SourceGroup}}</td>
<td>{{.Category}}</td>
<td class="message">{{.Text}}</td>
<td>{{range .Links}}<a href="{{.}}">{{.}}</a><br>{{end}}</td>
</tr>
{{end}}
</table>
</body>
</html>`

type server struct {
	store    ports.RecordStore
	logger   *slog.Logger
	template *template.Template
}

type pageData struct {
	Overview *report.Overview
	Records  []domain.JobRecord
	Category string
	Query    string
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	relevant, err := s.store.ReadRecords(ctx, domain.PartitionRelevant)
	if err != nil {
		s.logger.Error("read relevant partition", "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}
	uncategorized, err := s.store.ReadRecords(ctx, domain.PartitionUncategorized)
	if err != nil {
		s.logger.Error("read uncategorized partition", "error", err)
		http.Error(w, "store unavailable", http.StatusBadGateway)
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		category = "all"
	}
	query := strings.ToLower(r.URL.Query().Get("q"))

	var records []domain.JobRecord
	switch category {
	case "relevant":
		records = relevant
	case "uncategorized":
		records = uncategorized
	default:
		records = append(append([]domain.JobRecord{}, relevant...), uncategorized...)
	}
	if query != "" {
		filtered := records[:0:0]
		for _, record := range records {
			if strings.Contains(strings.ToLower(record.Text), query) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	data := pageData{
		Overview: report.BuildOverview(relevant, uncategorized),
		Records:  records,
		Category: category,
		Query:    r.URL.Query().Get("q"),
	}
	if err := s.template.Execute(w, data); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		logger.Error("store setup failed", "error", err)
		os.Exit(1)
	}

	srv := &server{
		store:    store,
		logger:   logger,
		template: template.Must(template.New("dashboard").Parse(pageTemplate)),
	}

	addr := os.Getenv("DASHBOARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)

	logger.Info("dashboard listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}
