package metrics

import (
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Timer metrics
	TimerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_timer_transitions_total",
			Help: "Total timer state transitions",
		},
		[]string{"transition"},
	)

	TimerInvalidTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_timer_invalid_transitions_total",
			Help: "Pause or resume requests rejected in the current state",
		},
		[]string{"transition"},
	)

	TimerActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tally_timer_active",
			Help: "1 while a timer session is running or paused",
		},
	)

	// Entry metrics
	EntriesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tally_entries_persisted_total",
			Help: "Total time entries saved on stop",
		},
	)

	EntryPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tally_entry_persist_failures_total",
			Help: "Time entries lost because the store rejected the write",
		},
	)

	TrackedSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tally_tracked_seconds_total",
			Help: "Seconds of tracked time persisted per activity",
		},
		[]string{"activity"},
	)

	// Cache metrics
	ActivityCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tally_activity_cache_hits_total",
			Help: "Activity cache hits",
		},
	)

	ActivityCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tally_activity_cache_misses_total",
			Help: "Activity cache misses",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		TimerTransitions,
		TimerInvalidTransitions,
		TimerActive,
		EntriesPersisted,
		EntryPersistFailures,
		TrackedSeconds,
		ActivityCacheHits,
		ActivityCacheMisses,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: Handler(),
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// Start binds the listen address and serves in the background. Bind errors
// are returned so the caller can report a port already in use.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
