// Package server is the local web UI for browsing reports and managing
// the vendor watchlist.
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/channelwatch/channelwatch/internal/database"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for serving reports.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":     renderMarkdown,
		"formatPeriod": database.FormatPeriodDisplay,
		"percent": func(score float64) int {
			return int(score * 100)
		},
		"join": strings.Join,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "report.html", "vendors.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/report/", s.handleReport)
	s.mux.HandleFunc("/vendors", s.handleVendors)
	s.mux.HandleFunc("/vendors/add", s.handleAddVendor)
	s.mux.HandleFunc("/vendors/", s.handleVendorAction)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	reports, err := s.db.GetAllReports()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Reports": reports,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	periodID := strings.TrimPrefix(r.URL.Path, "/report/")
	if periodID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	report, _ := s.db.GetReport(periodID)
	insights, _ := s.db.GetInsightsForPeriod(periodID)
	records, _ := s.db.GetSourceRecords(periodID)

	s.render(w, "report.html", map[string]any{
		"Report":   report,
		"Insights": insights,
		"Records":  records,
		"PeriodID": periodID,
	})
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	vendors, _ := s.db.GetAllVendors()
	s.render(w, "vendors.html", map[string]any{
		"Vendors": vendors,
	})
}

func (s *Server) handleAddVendor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/vendors", http.StatusFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	tier, err := strconv.Atoi(strings.TrimSpace(r.FormValue("tier")))
	if err != nil || tier < 1 || tier > 3 {
		tier = 3
	}

	if name != "" {
		if _, err := s.db.InsertVendor(name, tier, nil); err != nil {
			log.Warn().Err(err).Str("vendor", name).Msg("adding vendor failed")
		}
	}

	http.Redirect(w, r, "/vendors", http.StatusFound)
}

func (s *Server) handleVendorAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/vendors", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/vendors/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		http.Redirect(w, r, "/vendors", http.StatusFound)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Redirect(w, r, "/vendors", http.StatusFound)
		return
	}

	switch parts[1] {
	case "toggle":
		s.db.ToggleVendor(id)
	case "delete":
		s.db.DeleteVendor(id)
	case "tier":
		if tier, err := strconv.Atoi(strings.TrimSpace(r.FormValue("tier"))); err == nil && tier >= 1 && tier <= 3 {
			s.db.UpdateVendor(id, &tier, nil)
		}
	}

	http.Redirect(w, r, "/vendors", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("rendering template")
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
func Serve(db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Info().Str("addr", "http://"+addr).Msg("server listening")
	return http.ListenAndServe(addr, srv.Handler())
}
