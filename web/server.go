// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the dashboard, contact and interaction pages, graphs, and Prometheus metrics
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
	"github.com/harperreed/touchbase/viz"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

const contactSearchLimit = 100

type Server struct {
	svc       *crm.Service
	userID    uuid.UUID
	templates *template.Template
	generator *viz.GraphGenerator
	logger    *log.Logger
	loc       *time.Location
}

func NewServer(svc *crm.Service, userID uuid.UUID, logger *log.Logger, loc *time.Location) (*Server, error) {
	if loc == nil {
		loc = time.UTC
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"date": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"deref": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
		"typeName": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		svc:       svc,
		userID:    userID,
		templates: tmpl,
		generator: viz.NewGraphGenerator(svc.DB()),
		logger:    logger,
		loc:       loc,
	}, nil
}

// Routes returns the router for every page, partial, and the metrics endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleDashboard)
	r.Get("/contacts", s.handleContacts)
	r.Get("/contacts/{id}", s.handleContact)
	r.Post("/contacts/{id}/touch", s.handleTouch)
	r.Get("/interactions", s.handleInteractions)
	r.Get("/interactions/{id}", s.handleInteraction)
	r.Get("/graphs", s.handleGraphs)

	// Partials for HTMX
	r.Get("/partials/graph", s.handleGraphPartial)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "url", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	// The data map includes ContentTemplate to specify which content block layout.html renders
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) renderPage(w http.ResponseWriter, title, content string, data map[string]any) {
	data["Title"] = title
	data["ContentTemplate"] = content
	s.renderTemplate(w, "layout.html", data)
}

// serverError maps lookup failures to 404 and everything else to 500.
func (s *Server) serverError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	s.logger.Error("request failed", "err", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.Dashboard(r.Context(), s.userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	counts, err := db.ContactStatusCounts(r.Context(), s.svc.DB(), s.userID, s.svc.Now())
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.renderPage(w, "Dashboard", "dashboard-content", map[string]any{
		"Dashboard": dashboard,
		"Counts":    counts,
	})
}

// contactRow is one line of the contacts table.
type contactRow struct {
	ID      uuid.UUID
	Name    string
	Every   int
	Status  string
	Urgency int
	Due     *time.Time
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	statusParam := r.URL.Query().Get("status")

	var rows []contactRow
	var counts db.StatusCounts
	if query != "" {
		contacts, err := s.svc.FindContacts(r.Context(), s.userID, query, contactSearchLimit)
		if err != nil {
			s.serverError(w, err)
			return
		}
		for _, c := range contacts {
			row := contactRow{ID: c.ID, Name: c.Name}
			if c.FrequencyInDays != nil {
				row.Every = *c.FrequencyInDays
			}
			rows = append(rows, row)
		}
	} else {
		var status *models.ContactStatus
		if statusParam != "" {
			st, ok := models.ParseContactStatus(statusParam)
			if !ok {
				http.Error(w, "Invalid status", http.StatusBadRequest)
				return
			}
			status = &st
		}
		overview, err := s.svc.ContactOverview(r.Context(), s.userID, status)
		if err != nil {
			s.serverError(w, err)
			return
		}
		counts = overview.Counts
		for _, dc := range overview.Contacts {
			row := contactRow{
				ID:      dc.Contact.ID,
				Name:    dc.Contact.Name,
				Status:  dc.Status.String(),
				Urgency: dc.Urgency,
				Due:     dc.DueDate,
			}
			if dc.Contact.FrequencyInDays != nil {
				row.Every = *dc.Contact.FrequencyInDays
			}
			rows = append(rows, row)
		}
	}

	s.renderPage(w, "Contacts", "contacts-content", map[string]any{
		"Contacts":    rows,
		"Counts":      counts,
		"SearchQuery": query,
		"Status":      statusParam,
	})
}

func parseIDParam(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid "+what+" ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "contact")
	if !ok {
		return
	}

	detail, err := s.svc.ContactDetail(r.Context(), s.userID, id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.renderPage(w, detail.Contact.Name, "contact-content", map[string]any{
		"Detail": detail,
		"Notice": r.URL.Query().Get("notice"),
	})
}

func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "contact")
	if !ok {
		return
	}

	res, err := s.svc.AddTouchpoint(r.Context(), s.userID, id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/contacts/%s?notice=%s", id, url.QueryEscape(res.Notice)), http.StatusSeeOther)
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	interactions, err := s.svc.ListInteractions(r.Context(), s.userID)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.renderPage(w, "Interactions", "interactions-content", map[string]any{
		"Interactions": interactions,
	})
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "interaction")
	if !ok {
		return
	}

	view, err := s.svc.InteractionDetail(r.Context(), s.userID, id)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.renderPage(w, view.Interaction.Title, "interaction-content", map[string]any{
		"View": view,
	})
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "Graphs", "graphs-content", map[string]any{
		"ContactID": r.URL.Query().Get("contact_id"),
	})
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	var contactID *uuid.UUID
	if raw := r.URL.Query().Get("contact_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid contact ID", http.StatusBadRequest)
			return
		}
		contactID = &id
	}

	dot, err := s.generator.GenerateContactGraph(r.Context(), s.userID, contactID)
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.renderTemplate(w, "graph.html", map[string]any{
		"DOT": dot,
	})
}
