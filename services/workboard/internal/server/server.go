package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workboard/internal/metrics"
	"workboard/internal/ratelimit"
	"workboard/internal/util"
	"workboard/pkg/store"
	"workboard/services/workboard/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// WriteLimiter throttles POST requests per client IP. Nil disables it.
	WriteLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	// Metrics serves /metrics and counts throttled requests. Nil disables both.
	Metrics *metrics.Prometheus
}

// Server exposes the workboard HTTP API.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	proxies *util.TrustedProxies
	metrics metrics.Recorder
	mux     *http.ServeMux
	started time.Time
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	s := &Server{
		app:     cfg.App,
		limiter: cfg.WriteLimiter,
		proxies: cfg.TrustedProxies,
		metrics: metrics.Nop{},
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	if cfg.Metrics != nil {
		s.metrics = cfg.Metrics
		s.mux.Handle("/metrics", cfg.Metrics.Handler())
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("workboard", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/schema", s.handleSchema)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/roles", s.handleRoles)
	s.mux.HandleFunc("/users", s.handleUsers)
	s.mux.HandleFunc("/users/", s.handleUserByID)
	s.mux.HandleFunc("/projects", s.handleProjects)
	s.mux.HandleFunc("/projects/", s.handleProjectByID)
	s.mux.HandleFunc("/parts", s.handleParts)
	s.mux.HandleFunc("/parts/assign", s.handleAssign)
	s.mux.HandleFunc("/parts/", s.handlePartByID)
	s.mux.HandleFunc("/notifications", s.handleNotifications)
	s.mux.HandleFunc("/notifications/", s.handleNotificationsByUser)
	s.mux.HandleFunc("/insights/system", s.handleSystemInsights)
	s.mux.HandleFunc("/insights/user/", s.handleUserInsights)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "workboard",
		"message": "Project Management API running",
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": store.Collections})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	body := map[string]any{
		"status":         "ok",
		"store":          "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if err := s.app.Ping(ctx); err != nil {
		util.LoggerFromContext(r.Context()).Warn("store health check failed", "err", err)
		body["status"] = "degraded"
		body["store"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// allowWrite applies the write limiter keyed by route and client IP.
func (s *Server) allowWrite(w http.ResponseWriter, r *http.Request, route string) bool {
	if s.limiter == nil {
		return true
	}
	key := route + "|" + util.ClientIP(r, s.proxies)
	d, err := s.limiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("rate limiter unavailable", "route", route, "err", err)
	}
	if d.Allowed {
		return true
	}
	s.metrics.RecordRateLimited(route)
	retry := int(d.RetryAfter.Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeError(w, http.StatusTooManyRequests, "too many requests")
	return false
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeJSON reads a JSON object body. An empty body is an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid json body"
		if errors.Is(err, io.EOF) {
			msg = "request body required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// pathSegments splits the path after prefix into non-empty segments.
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
