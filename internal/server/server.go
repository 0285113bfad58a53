package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/mfeller/sectordigest/internal/news"
	"github.com/mfeller/sectordigest/internal/pipeline"
	"github.com/mfeller/sectordigest/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server serves the latest final artifact as JSON and as an HTML digest, and
// accepts asynchronous pipeline triggers.
type Server struct {
	store  *store.Store
	runner *pipeline.Runner
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server.
func New(st *store.Store, runner *pipeline.Runner) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so it can carry its own
	// {{define "content"}} and {{define "title"}}.
	pageNames := []string{"digest.html", "sector.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{store: st, runner: runner, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleHealth)
	s.mux.HandleFunc("/api/news", s.handleNews)
	s.mux.HandleFunc("/api/trigger", s.handleTrigger)
	s.mux.HandleFunc("/digest", s.handleDigest)
	s.mux.HandleFunc("/digest/", s.handleSector)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintln(w, "sectordigest backend is running")
}

// handleNews returns the latest final artifact, or 503 while it has not been
// produced yet.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	content, err := s.loadContent()
	if err != nil {
		if errors.Is(err, store.ErrNotReady) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Data not ready. Please wait for processing to complete or trigger it manually.",
			})
			return
		}
		log.Printf("Error serving news: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve data"})
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// handleTrigger starts a pipeline run in the background and acknowledges
// immediately. A second trigger while a run is in flight is rejected rather
// than queued.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	if !s.runner.TryStart() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "A pipeline run is already in progress."})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "News processing pipeline triggered. Data will be updated shortly.",
	})
}

// sectorView pairs a sector name with its summary for template rendering.
type sectorView struct {
	Name    string
	Summary news.SectorSummary
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	content, err := s.loadContent()
	if err != nil {
		s.renderNotReady(w, err)
		return
	}

	// Fixed sector order, populated sectors first.
	var populated, empty []sectorView
	for _, name := range news.Sectors {
		v := sectorView{Name: name, Summary: content[name]}
		if len(v.Summary.Topics) > 0 {
			populated = append(populated, v)
		} else {
			empty = append(empty, v)
		}
	}

	s.render(w, "digest.html", map[string]any{
		"Sectors": append(populated, empty...),
	})
}

func (s *Server) handleSector(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/digest/")
	if name == "" {
		http.Redirect(w, r, "/digest", http.StatusFound)
		return
	}
	if !news.ValidSector(name) {
		http.NotFound(w, r)
		return
	}

	content, err := s.loadContent()
	if err != nil {
		s.renderNotReady(w, err)
		return
	}

	s.render(w, "sector.html", map[string]any{
		"Name":    name,
		"Summary": content[name],
	})
}

func (s *Server) loadContent() (map[string]news.SectorSummary, error) {
	var content map[string]news.SectorSummary
	if err := s.store.LoadJSON(store.ArtifactFinalContent, &content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Server) renderNotReady(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotReady) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "No digest yet. Trigger a pipeline run and check back shortly.")
		return
	}
	log.Printf("Error loading digest: %v", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(st *store.Store, runner *pipeline.Runner, port int) error {
	srv, err := New(st, runner)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
