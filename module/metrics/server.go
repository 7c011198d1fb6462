package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/module/component"
	"github.com/savings-vault/vault-cranker/module/irrecoverable"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/health"

	shutdownTimeout = 5 * time.Second
)

// HealthCheck returns nil while the cranker is able to do its work.
type HealthCheck func() error

var _ component.Component = (*Server)(nil)

// Server serves prometheus metrics and the health of the cranker over HTTP.
type Server struct {
	*component.ComponentManager

	log     zerolog.Logger
	address string
	server  *http.Server
}

// NewServer creates a server listening on port once started. A nil health check always reports healthy.
func NewServer(log zerolog.Logger, gatherer prometheus.Gatherer, port uint, health HealthCheck, enableProfiler bool) *Server {
	router := mux.NewRouter()
	router.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc(HealthPath, serveHealth(health)).Methods(http.MethodGet)
	if enableProfiler {
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	s := &Server{
		log:     log.With().Str("component", "metrics_server").Logger(),
		address: ":" + strconv.FormatUint(uint64(port), 10),
		server:  &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.serve).
		Build()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on metrics address %s: %w", s.address, err))
		return
	}
	s.log.Info().Str("address", listener.Addr().String()).Msg("metrics server started")
	ready()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("metrics server did not shut down gracefully")
		}
	case err := <-errCh:
		// metrics are not worth stopping the cranker for
		if !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("metrics server failed")
		}
	}
}

func serveHealth(health HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if health != nil {
			if err := health(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = fmt.Fprintln(w, err.Error())
				return
			}
		}
		_, _ = fmt.Fprintln(w, "ok")
	}
}
