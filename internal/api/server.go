package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/longnd/fixturewatch/internal/core/domain"
	"github.com/longnd/fixturewatch/internal/infra/csvstore"
	"github.com/longnd/fixturewatch/internal/infra/storage"
	"github.com/longnd/fixturewatch/internal/reliability"
)

// Server provides the HTTP API: fixture queries, snapshot listings,
// health endpoints and Prometheus metrics.
type Server struct {
	fixtures  storage.FixtureRepository
	snapshots storage.SnapshotRepository
	monitor   *Monitor
	manager   *reliability.Manager
	csv       *csvstore.Store // fallback read path when the database is down

	server *http.Server
}

// NewServer creates the API server on the given port. csv may be nil to
// disable the flat-file fallback.
func NewServer(
	port int,
	fixtures storage.FixtureRepository,
	snapshots storage.SnapshotRepository,
	monitor *Monitor,
	manager *reliability.Manager,
	csv *csvstore.Store,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		fixtures:  fixtures,
		snapshots: snapshots,
		monitor:   monitor,
		manager:   manager,
		csv:       csv,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/api/fixtures", s.handleFixtures)
	mux.HandleFunc("/api/leagues", s.handleLeagues)
	mux.HandleFunc("/api/snapshots", s.handleSnapshots)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("api server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// errorPayload is the envelope for all API errors.
type errorPayload struct {
	Error struct {
		Code      string    `json:"code"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var payload errorPayload
	payload.Error.Code = code
	payload.Error.Message = message
	payload.Error.Timestamp = time.Now().UTC()
	writeJSON(w, status, payload)
}

func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.FixtureFilter{
		League:   domain.LeagueID(q.Get("league")),
		Season:   q.Get("season"),
		Team:     q.Get("team"),
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
	}

	primary := func(ctx context.Context) (any, error) {
		return s.fixtures.Query(ctx, filter)
	}

	var result any
	var err error
	if s.csv != nil && filter.League != "" && filter.Season != "" {
		fallback := func(ctx context.Context) (any, error) {
			return s.csv.Read(filter.League, filter.Season)
		}
		result, err = s.manager.GracefulDegradation(r.Context(), "api:fixtures", primary, fallback)
	} else {
		result, err = s.manager.SafeExecute(r.Context(), "api:fixtures", primary)
	}
	if err != nil {
		slog.Error("fixture query failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "fixture data is temporarily unavailable")
		return
	}

	fixtures, ok := result.([]*domain.Fixture)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal", "unexpected query result")
		return
	}
	if fixtures == nil {
		fixtures = []*domain.Fixture{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

func (s *Server) handleLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.fixtures.Leagues(r.Context())
	if err != nil {
		slog.Error("league listing failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "league data is temporarily unavailable")
		return
	}
	if leagues == nil {
		leagues = []domain.LeagueID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leagues": leagues})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	snapshots, err := s.snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("snapshot listing failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "snapshot data is temporarily unavailable")
		return
	}
	if snapshots == nil {
		snapshots = []*domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := StatusHealthy

	// Aggregate status (worst case wins)
	for _, league := range report {
		if league.Status == StatusCritical {
			status = StatusCritical
			break
		}
		if league.Status == StatusDegraded {
			status = StatusDegraded
		}
	}

	code := http.StatusOK
	if status == StatusCritical {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"leagues":  report,
		"breakers": s.manager.BreakerStates(),
	})
}
