// Package logview serves a read-only HTML page over a structured log
// store, with level filtering and pagination. It is a consumer of the
// store's query surface; the logging core never imports it.
//
//	store, _ := sqlitestore.Open("logs/app.db")
//	http.Handle("/lg/", logview.Handler(store))
package logview

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/justlog/justlog"
)

const (
	defaultPerPage = 200
	maxPerPage     = 1000
)

// Querier is the read surface the viewer needs from a store.
// *sqlitestore.Store implements it.
type Querier interface {
	Query(minLevel justlog.Level, page, perPage int) ([]justlog.Entry, int, error)
}

var levelNames = []string{"debug", "info", "warning", "error", "critical"}

var page = template.Must(template.New("logview").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Log Viewer</title>
<style>
body { font-family: monospace; margin: 2em; }
.entry { padding: 0.3em 0; border-bottom: 1px solid #eee; }
.entry pre { margin: 0.2em 0 0 2em; white-space: pre-wrap; }
.ts { color: #666; }
.level-WARNING { color: #a60; }
.level-ERROR, .level-CRITICAL { color: #c00; }
nav a, nav span { margin-right: 1em; }
</style>
</head>
<body>
<h1>Log Viewer</h1>
<nav>
{{- $cur := .Level }}{{ $pp := .PerPage }}
{{- range .Levels }}
{{ if eq . $cur }}<span><b>{{ . }}</b></span>{{ else }}<a href="?level={{ . }}&per_page={{ $pp }}">{{ . }}</a>{{ end }}
{{- end }}
</nav>
<p>{{ .Total }} entries, page {{ .Page }} of {{ .TotalPages }}</p>
{{- range .Entries }}
<div class="entry">
<span class="ts">{{ .Time }}</span> <span class="level-{{ .Level }}">{{ .Level }}</span> {{ .Message }}
{{- if .Extras }}
<pre>{{ .Extras }}</pre>
{{- end }}
</div>
{{- else }}
<p>No log entries.</p>
{{- end }}
<nav>
{{ if gt .Page 1 }}<a href="?level={{ .Level }}&page={{ .PrevPage }}&per_page={{ .PerPage }}">&laquo; newer</a>{{ end }}
{{ if lt .Page .TotalPages }}<a href="?level={{ .Level }}&page={{ .NextPage }}&per_page={{ .PerPage }}">older &raquo;</a>{{ end }}
</nav>
</body>
</html>
`))

type entryView struct {
	Time    string
	Level   string
	Message string
	Extras  string
}

type pageView struct {
	Levels     []string
	Level      string
	Entries    []entryView
	Total      int
	Page       int
	TotalPages int
	PrevPage   int
	NextPage   int
	PerPage    int
}

// Handler returns the viewer page handler. Query parameters:
//
//	level    - minimum severity to show (default "info")
//	page     - page number, newest entries on page 1 (default 1)
//	per_page - entries per page (default 200, capped at 1000)
func Handler(q Querier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		levelName := r.URL.Query().Get("level")
		if levelName == "" {
			levelName = "info"
		}
		minLevel, err := justlog.ParseLevel(levelName)
		if err != nil || minLevel == justlog.Disabled {
			minLevel, levelName = justlog.INFO, "info"
		}

		pageNum := intParam(r, "page", 1)
		if pageNum < 1 {
			pageNum = 1
		}
		perPage := intParam(r, "per_page", defaultPerPage)
		if perPage < 1 {
			perPage = defaultPerPage
		}
		if perPage > maxPerPage {
			perPage = maxPerPage
		}

		entries, total, err := q.Query(minLevel, pageNum, perPage)
		if err != nil {
			http.Error(w, "failed to query log store", http.StatusInternalServerError)
			return
		}

		totalPages := (total + perPage - 1) / perPage
		if totalPages < 1 {
			totalPages = 1
		}

		view := pageView{
			Levels:     levelNames,
			Level:      levelName,
			Total:      total,
			Page:       pageNum,
			TotalPages: totalPages,
			PrevPage:   pageNum - 1,
			NextPage:   pageNum + 1,
			PerPage:    perPage,
		}
		for _, e := range entries {
			view.Entries = append(view.Entries, entryView{
				Time:    e.Time.Format("2006-01-02 15:04:05"),
				Level:   e.Level.String(),
				Message: e.Message,
				Extras:  renderExtras(e),
			})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, view); err != nil {
			http.Error(w, "failed to render page", http.StatusInternalServerError)
		}
	})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func renderExtras(e justlog.Entry) string {
	if len(e.Args) == 0 && len(e.Fields) == 0 {
		return ""
	}
	extras := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		extras[k] = v
	}
	if len(e.Args) > 0 {
		extras["args"] = e.Args
	}
	data, err := json.MarshalIndent(extras, "", "    ")
	if err != nil {
		return ""
	}
	return string(data)
}
