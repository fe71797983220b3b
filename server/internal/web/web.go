package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pingtools/jobtrack/server/internal/store"
)

//go:embed templates static
var assets embed.FS

const timeLayout = "2006-01-02 15:04:05"

var funcs = template.FuncMap{
	"when": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Local().Format(timeLayout)
	},
}

// Handler renders the listing page and its static assets.
type Handler struct {
	store     *store.Store
	refresh   time.Duration
	templates *template.Template
	static    http.Handler
}

type pageData struct {
	Title     string
	Jobs      []store.Record
	RefreshMS int64
	Generated string
}

// New creates a Handler over st. refresh is the page poll period.
func New(st *store.Store, refresh time.Duration) *Handler {
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(assets, "templates/*.html"))

	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err) // embedded directory is always present
	}

	return &Handler{
		store:     st,
		refresh:   refresh,
		templates: tmpl,
		static:    http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
	}
}

// RegisterRoutes mounts the page on / and the assets under /static/.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.index).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/static/").Handler(h.static).Methods(http.MethodGet, http.MethodHead)
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Title:     "Suivi des travaux",
		Jobs:      h.store.List(),
		RefreshMS: h.refresh.Milliseconds(),
		Generated: time.Now().Format(timeLayout),
	}

	// Render into a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		slog.Error("web: render listing", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck
}
