// Package api provides the LifeQuest HTTP JSON API over the tracker service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
	"github.com/levelup-labs/lifequest/internal/health"
	"github.com/levelup-labs/lifequest/internal/infra/metrics"
)

// Version is reported by /api/version.
const Version = "0.3.0"

// Options configures a Server. Zero values select defaults.
type Options struct {
	Logger         *zap.Logger
	CORSOrigins    []string
	WritesPerSec   float64 // 0 disables the write limiter
	WriteBurst     int
	MetricsEnabled bool
	Health         HealthReporter // nil reports ok
}

// HealthReporter is the subset of health.Checker the server reads.
type HealthReporter interface {
	Statuses() []health.Status
	IsHealthy() bool
}

// Server is the LifeQuest HTTP API server.
type Server struct {
	svc            *tracker.Service
	log            *zap.Logger
	origins        []string
	writes         *rate.Limiter
	metricsEnabled bool
	health         HealthReporter
}

// NewServer creates a new API server.
func NewServer(svc *tracker.Service, opts Options) *Server {
	s := &Server{
		svc:            svc,
		log:            opts.Logger,
		origins:        opts.CORSOrigins,
		metricsEnabled: opts.MetricsEnabled,
		health:         opts.Health,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if opts.WritesPerSec > 0 {
		burst := opts.WriteBurst
		if burst < 1 {
			burst = 1
		}
		s.writes = rate.NewLimiter(rate.Limit(opts.WritesPerSec), burst)
	}
	return s
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Get("/api/levels", s.handleLevelTable)
	r.Get("/api/users", s.handleListUsers)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		// Reads
		r.Get("/", s.handleState)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/level", s.handleLevel)
		r.Get("/records", s.handleListRecords)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/streaks", s.handleStreaks)
		r.Get("/consistency", s.handleConsistency)
		r.Get("/stats/total", s.handleTotal)
		r.Get("/stats/tasks", s.handleDistributionByTask)
		r.Get("/stats/weekdays", s.handleDistributionByWeekday)
		r.Get("/stats/rollup", s.handleRollup)
		r.Get("/stats/heatmap", s.handleHeatmap)
		r.Get("/goals", s.handleGoalProgress)
		r.Get("/high-goals", s.handleHighGoals)
		r.Get("/constellations/{taskID}", s.handleConstellation)
		r.Get("/pacts", s.handlePacts)
		r.Get("/breaches", s.handleBreaches)
		r.Get("/friends", s.handleLeaderboard)
		r.Get("/achievements", s.handleAchievements)
		r.Get("/xp", s.handleXPHistory)

		// Writes share one limiter.
		r.Group(func(r chi.Router) {
			r.Use(s.limitWrites)

			r.Post("/records", s.handleAddRecord)
			r.Put("/records/{recordID}", s.handleUpdateRecord)
			r.Delete("/records/{recordID}", s.handleDeleteRecord)

			r.Post("/tasks", s.handleCreateTask)
			r.Put("/tasks/{taskID}", s.handleUpdateTask)
			r.Delete("/tasks/{taskID}", s.handleDeleteTask)

			r.Post("/goals/evaluate", s.handleEvaluateAllGoals)
			r.Post("/goals/{taskID}/evaluate", s.handleEvaluateGoal)
			r.Post("/high-goals", s.handleCreateHighGoal)
			r.Put("/high-goals/{goalID}", s.handleUpdateHighGoal)
			r.Delete("/high-goals/{goalID}", s.handleDeleteHighGoal)

			r.Post("/skills/unlock", s.handleUnlock)
			r.Post("/constellations/{taskID}/{node}/unlock", s.handleUnlockNode)

			r.Post("/pacts", s.handleCreatePact)
			r.Put("/pacts/{pactID}", s.handleUpdatePact)
			r.Post("/pacts/{pactID}/toggle", s.handleTogglePact)
			r.Delete("/pacts/{pactID}", s.handleDeletePact)
			r.Post("/sweep", s.handleSweep)
			r.Post("/breaches/{breachID}/dare", s.handleAcceptDare)
			r.Post("/breaches/{breachID}/decline", s.handleDeclineDare)
			r.Post("/breaches/{breachID}/freeze", s.handleFreeze)

			r.Post("/friends", s.handleAddFriend)
			r.Delete("/friends/{friendID}", s.handleRemoveFriend)
			r.Put("/profile", s.handleProfile)

			r.Post("/achievements/check", s.handleCheckAchievements)
			r.Post("/bonus", s.handleBonus)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    http.StatusText(status),
		},
	})
}

// writeErr maps a service error onto its status code.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrHighGoalNotFound),
		errors.Is(err, domain.ErrPactNotFound),
		errors.Is(err, domain.ErrBreachNotFound),
		errors.Is(err, domain.ErrSkillNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPactLocked),
		errors.Is(err, tracker.ErrInsufficientPoints),
		errors.Is(err, tracker.ErrPrerequisiteLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for browser clients.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}

// observe records request count and latency per route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPLatency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// limitWrites rejects mutations beyond the configured rate.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.writes != nil && !s.writes.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "write rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}
