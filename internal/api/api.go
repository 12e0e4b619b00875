// Package api serves camera planning and preference management over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/democam/internal/director"
	"github.com/ivlev/democam/internal/engine"
	"github.com/ivlev/democam/internal/events"
	"github.com/ivlev/democam/internal/intent"
	"github.com/ivlev/democam/internal/prefstore"
)

// maxBody bounds uploaded recordings.
const maxBody = 16 << 20

// Preferences is the part of the preference store the API needs.
type Preferences interface {
	LoadLearner(ctx context.Context, profile string) (*intent.Learner, error)
	SaveLearner(ctx context.Context, profile string, l *intent.Learner) error
	Delete(ctx context.Context, profile string) error
	Profiles(ctx context.Context) ([]string, error)
}

// Server exposes a Project. prefs may be nil, in which case planning runs
// with neutral bias and the preference routes answer 503.
type Server struct {
	project *engine.Project
	prefs   Preferences
	log     *slog.Logger
}

func New(project *engine.Project, prefs Preferences, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{project: project, prefs: prefs, log: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Get("/preferences", s.handleListPreferences)
		r.Get("/preferences/{profile}", s.handleGetPreferences)
		r.Put("/preferences/{profile}", s.handlePutPreferences)
		r.Delete("/preferences/{profile}", s.handleDeletePreferences)
	})
	return r
}

// PlanResponse is returned by POST /v1/plan.
type PlanResponse struct {
	Track     *director.Track `json:"track"`
	Stats     intent.Stats    `json:"stats"`
	Bias      intent.Bias     `json:"bias"`
	Discarded int             `json:"discarded"`
	Dropped   events.Report   `json:"dropped"`
	Learned   bool            `json:"learned"`
}

// PreferencesResponse is returned by the preference routes.
type PreferencesResponse struct {
	Profile string          `json:"profile"`
	Learner *intent.Learner `json:"learner"`
	Bias    intent.Bias     `json:"bias"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	rec, err := events.Decode(http.MaxBytesReader(w, r.Body, maxBody), events.JSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dropped := rec.Sanitize()

	profile := r.URL.Query().Get("profile")
	learn := r.URL.Query().Get("learn") == "true"

	learner := intent.NewLearner()
	if profile != "" && s.prefs != nil {
		learner, err = s.prefs.LoadLearner(r.Context(), profile)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	bias := learner.Biases()

	res, err := s.project.Plan(r.Context(), rec, bias)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	resp := PlanResponse{
		Track:     res.Track,
		Stats:     res.Stats,
		Bias:      bias,
		Discarded: res.Discarded,
		Dropped:   dropped,
	}
	if learn && profile != "" && s.prefs != nil {
		learner.Observe(res.Stats)
		if err := s.prefs.SaveLearner(r.Context(), profile, learner); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		resp.Learned = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	profiles, err := s.prefs.Profiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if profiles == nil {
		profiles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": profiles})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	profile := chi.URLParam(r, "profile")
	l, err := s.prefs.LoadLearner(r.Context(), profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferencesResponse{Profile: profile, Learner: l, Bias: l.Biases()})
}

// handlePutPreferences replaces a profile's learner with the uploaded blob.
func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	profile := chi.URLParam(r, "profile")

	var l intent.Learner
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode preferences: %w", err))
		return
	}
	if l.Version == 0 {
		l.Version = intent.BlobVersion
	}
	if l.Version != intent.BlobVersion {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported preference blob version %d", l.Version))
		return
	}
	if err := s.prefs.SaveLearner(r.Context(), profile, &l); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferencesResponse{Profile: profile, Learner: &l, Bias: l.Biases()})
}

func (s *Server) handleDeletePreferences(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	err := s.prefs.Delete(r.Context(), chi.URLParam(r, "profile"))
	switch {
	case errors.Is(err, prefstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

var errNoStore = errors.New("preference store not configured")

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			slog.String("id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
