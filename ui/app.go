package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gostatsplot/adapters/report"
	"gostatsplot/app"
	"gostatsplot/domain/core"
	"gostatsplot/domain/run"
	"gostatsplot/internal"
	"gostatsplot/internal/errors"
	"gostatsplot/ports"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// DefaultPageSize is the number of runs listed when no limit is given
const DefaultPageSize = 50

// App is the read-only run gallery
type App struct {
	router    *chi.Mux
	runs      ports.RunStore
	templates *template.Template
	logger    *internal.Logger
	title     string
}

// page is the data of the layout template
type page struct {
	Title      string
	Operation  string
	Operations []string
	Body       template.HTML
}

// NewApp creates the gallery over runs
func NewApp(runs ports.RunStore, logger *internal.Logger) (*App, error) {
	if runs == nil {
		return nil, errors.InvalidInput("run store is required")
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		runs:      runs,
		templates: templates,
		logger:    logger,
		title:     "gostatsplot runs",
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	static, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		a.logger.Error("[Gallery] static files unavailable: %v", err)
		return
	}
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/report.md", a.handleMarkdown)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/images/{id}", a.handleImage)
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

// ServeHTTP makes the gallery an http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// filters reads operation, limit and offset from the query string
func filters(r *http.Request) (ports.RunFilters, error) {
	q := r.URL.Query()
	f := ports.RunFilters{Operation: q.Get("operation"), Limit: DefaultPageSize}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, core.NewInvalidOptionError(name, "must be a non-negative integer")
			}
			*dst = n
		}
	}
	return f, nil
}

func (a *App) newReport(title string, runs []*run.Run) *report.Report {
	rep := report.New(title, runs)
	rep.ImageURL = func(r *run.Run) string {
		if r.ImagePath == "" {
			return ""
		}
		return "/images/" + r.ID.String()
	}
	return rep
}

func (a *App) listRuns(w http.ResponseWriter, r *http.Request) ([]*run.Run, ports.RunFilters, bool) {
	f, err := filters(r)
	if err != nil {
		a.fail(w, err)
		return nil, f, false
	}
	runs, err := a.runs.List(r.Context(), f)
	if err != nil {
		a.fail(w, err)
		return nil, f, false
	}
	return runs, f, true
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, f, ok := a.listRuns(w, r)
	if !ok {
		return
	}
	title := a.title
	if f.Operation != "" {
		title += ": " + f.Operation
	}
	a.renderPage(w, page{
		Title:      title,
		Operation:  f.Operation,
		Operations: app.Operations(),
		Body:       template.HTML(a.newReport(title, runs).Fragment()),
	})
}

func (a *App) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	runs, _, ok := a.listRuns(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(report.New(a.title, runs).Markdown())
}

func (a *App) lookup(w http.ResponseWriter, r *http.Request) (*run.Run, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, errors.WithCode(errors.CodeInvalidInput, err))
		return nil, false
	}
	rn, err := a.runs.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return nil, false
	}
	return rn, true
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	rn, ok := a.lookup(w, r)
	if !ok {
		return
	}
	rep := a.newReport(rn.ID.String(), []*run.Run{rn})
	a.renderPage(w, page{
		Title:      rn.Operation,
		Operations: app.Operations(),
		Body:       template.HTML(rep.Fragment()),
	})
}

func (a *App) handleImage(w http.ResponseWriter, r *http.Request) {
	rn, ok := a.lookup(w, r)
	if !ok {
		return
	}
	if rn.ImagePath == "" {
		a.fail(w, core.NewNotFoundError("image", rn.ID.String()))
		return
	}
	http.ServeFile(w, r, rn.ImagePath)
}

// renderPage renders into a buffer first so template errors do not leave a
// half-written response
func (a *App) renderPage(w http.ResponseWriter, data page) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("[Gallery] template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (a *App) fail(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("[Gallery] %v", err)
	}
	http.Error(w, err.Error(), status)
}
