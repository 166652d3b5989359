// Package probes serves the node's external health surface: liveness and
// readiness endpoints for orchestrator probes plus Prometheus metrics.
//
// Probe endpoints are unauthenticated, always answer with a structured JSON
// status, and never surface internal faults as errors - an unhealthy node
// reports 503 with diagnostics, not a failure page.
package probes

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studio-grid/kernel/clock"
	"github.com/studio-grid/kernel/gridctx"
	"github.com/studio-grid/kernel/health"
	"github.com/studio-grid/kernel/lifecycle"
	"github.com/studio-grid/kernel/observability"
)

// EventServeError is emitted when the probe listener fails after binding.
const EventServeError observability.EventType = "probes.serve.error"

const shutdownGrace = 5 * time.Second

// Server hosts the probe endpoints for one node:
//
//	GET /health/live   - liveness: is the process running?
//	GET /health/ready  - readiness: should the node receive new work?
//	GET /metrics       - Prometheus metrics
type Server struct {
	host     *lifecycle.Host
	node     gridctx.NodeContext
	mapper   gridctx.HTTPMapper
	clk      clock.Clock
	observer observability.Observer

	addr string
	srv  *http.Server
}

// NewServer creates a probe server listening on addr once started.
func NewServer(addr string, host *lifecycle.Host, node gridctx.NodeContext, mapper gridctx.HTTPMapper, clk clock.Clock, observer observability.Observer) *Server {
	if clk == nil {
		clk = clock.System{}
	}
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	s := &Server{
		host:     host,
		node:     node,
		mapper:   mapper,
		clk:      clk,
		observer: observer,
		addr:     addr,
	}
	s.srv = &http.Server{Addr: addr, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.gridContext)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

// gridContext maps every inbound request into an ambient GridContext so
// downstream handlers and observers see the request's correlation lineage.
func (s *Server) gridContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gc := s.mapper.Map(r)
		w.Header().Set(gridctx.HeaderCorrelationID, string(gc.CorrelationID))
		next.ServeHTTP(w, r.WithContext(gridctx.Activate(r.Context(), gc)))
	})
}

// Start binds the listener and begins serving in a background goroutine.
// It returns once the listener is bound, so a lifecycle startup hook can
// treat a bind failure as a hook failure.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.observer.OnEvent(context.WithoutCancel(ctx), observability.Event{
				Type:      EventServeError,
				Level:     observability.LevelError,
				Timestamp: s.clk.Now(),
				Source:    "probes.Server",
				Data:      map[string]any{"addr": s.addr, "error": err.Error()},
			})
		}
	}()
	return nil
}

// Shutdown drains in-flight probe requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	return s.srv.Shutdown(drainCtx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the probe routes for mounting on an existing server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

type livenessResponse struct {
	Node      string        `json:"node"`
	NodeID    gridctx.ID    `json:"node_id"`
	Instance  gridctx.ID    `json:"instance_id"`
	Phase     string        `json:"phase"`
	Result    health.Result `json:"result"`
	StartedAt string        `json:"started_at"`
	UptimeSec int64         `json:"uptime_sec"`
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	result := s.host.Liveness()

	status := http.StatusOK
	if result.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, livenessResponse{
		Node:      s.node.Name,
		NodeID:    s.node.NodeID,
		Instance:  s.node.InstanceID,
		Phase:     s.host.Phase().String(),
		Result:    result,
		StartedAt: s.node.StartedAt.UTC().Format(time.RFC3339),
		UptimeSec: int64(s.node.Uptime(s.clk).Seconds()),
	})
}

type readinessResponse struct {
	Node   string          `json:"node"`
	Phase  string          `json:"phase"`
	Status health.Status   `json:"status"`
	Checks []health.Result `json:"checks"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	agg := s.host.Readiness(r.Context())

	status := http.StatusOK
	if agg.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, readinessResponse{
		Node:   s.node.Name,
		Phase:  s.host.Phase().String(),
		Status: agg.Status,
		Checks: agg.Results,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
