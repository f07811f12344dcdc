package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"apptime/query"
	"apptime/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

//go:embed static/*
var staticFS embed.FS

// Status is the tracker status plus the watched application state
type Status struct {
	tracker.Status
	AppRunning bool     `json:"app_running"`
	Apps       []string `json:"apps"`
}

// Controller runs tracker operations on the host loop
type Controller interface {
	Status(ctx context.Context) (Status, error)
	SetTracking(ctx context.Context, enabled bool) error
	SetThreshold(ctx context.Context, minutes int) error
	Save(ctx context.Context) error
}

type History interface {
	GetHistory(limit int) ([]query.SessionItem, error)
	GetSummaryBetween(startDate, endDate string) (query.Summary, error)
}

type Lists interface {
	Watched() []string
	Ignored() []string
	AddToWatched(name string) error
	RemoveFromWatched(name string) error
	AddToIgnored(name string) error
	RemoveFromIgnored(name string) error
}

type Server struct {
	ctrl Controller
	db   History
	lm   Lists
	now  func() time.Time
	srv  *http.Server
}

func NewServer(ctrl Controller, db History, lm Lists) *Server {
	return &Server{ctrl: ctrl, db: db, lm: lm, now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/settings", s.handleSettings)
		r.Post("/save", s.handleSave)
		r.Get("/history", s.handleHistory)
		r.Get("/summary", s.handleSummary)
		r.Get("/watch", s.handleLists)
		r.Post("/watch", s.handleListEdit(s.lm.AddToWatched))
		r.Post("/unwatch", s.handleListEdit(s.lm.RemoveFromWatched))
		r.Post("/ignore", s.handleListEdit(s.lm.AddToIgnored))
		r.Post("/unignore", s.handleListEdit(s.lm.RemoveFromIgnored))
	})
	return r
}

// Start binds addr then serves in the background
func (s *Server) Start(addr string) error {
	// Bind explicitly to localhost to avoid Windows Firewall prompts
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Msgf("Web UI disponible sur http://%v", ln.Addr())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Erreur serveur web")
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		log.Debug().Err(err).Msg("index page missing")
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("writing index page")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctrl.Status(r.Context())
	if err != nil { http.Error(w, err.Error(), http.StatusServiceUnavailable); return }
	writeJSON(w, st)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Tracking          *bool `json:"tracking"`
		InactivityMinutes *int  `json:"inactivity_minutes"`
	}
	var body req
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil { http.Error(w, "bad request", http.StatusBadRequest); return }
	if body.InactivityMinutes != nil {
		err := s.ctrl.SetThreshold(r.Context(), *body.InactivityMinutes)
		if errors.Is(err, tracker.ErrInvalidThreshold) { http.Error(w, err.Error(), http.StatusBadRequest); return }
		if err != nil { http.Error(w, err.Error(), http.StatusServiceUnavailable); return }
	}
	if body.Tracking != nil {
		if err := s.ctrl.SetTracking(r.Context(), *body.Tracking); err != nil { http.Error(w, err.Error(), http.StatusServiceUnavailable); return }
	}
	s.handleStatus(w, r)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Save(r.Context()); err != nil { http.Error(w, err.Error(), http.StatusInternalServerError); return }
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := strings.TrimSpace(r.URL.Query().Get("limit")); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 { http.Error(w, "bad limit", http.StatusBadRequest); return }
		limit = n
	}
	items, err := s.db.GetHistory(limit)
	if err != nil { http.Error(w, err.Error(), http.StatusInternalServerError); return }
	writeJSON(w, items)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" { period = "week" }
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		start, end = query.PeriodRange(period, s.now())
	}
	if _, err := time.Parse("2006-01-02", start); err != nil { http.Error(w, "bad start", http.StatusBadRequest); return }
	if _, err := time.Parse("2006-01-02", end); err != nil { http.Error(w, "bad end", http.StatusBadRequest); return }
	sum, err := s.db.GetSummaryBetween(start, end)
	if err != nil { http.Error(w, err.Error(), http.StatusInternalServerError); return }
	writeJSON(w, map[string]any{
		"start":    sum.Start,
		"end":      sum.End,
		"seconds":  sum.Seconds,
		"total":    tracker.PrettyTime(sum.Seconds),
		"sessions": sum.Sessions,
		"days":     sum.Days,
	})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"watched": s.lm.Watched(), "ignored": s.lm.Ignored()})
}

func (s *Server) handleListEdit(edit func(name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type req struct{ Name string `json:"name"` }
		var body req
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil { http.Error(w, "bad request", http.StatusBadRequest); return }
		name := strings.TrimSpace(body.Name)
		if name == "" { http.Error(w, "name empty", http.StatusBadRequest); return }
		if err := edit(name); err != nil { http.Error(w, err.Error(), http.StatusInternalServerError); return }
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Debug().Err(err).Msg("encoding json response")
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Debug().Err(err).Msg("writing json response")
	}
}
