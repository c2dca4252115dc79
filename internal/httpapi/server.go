package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/metrics"
)

type Server struct {
	log    zerolog.Logger
	server *http.Server
}

// NewServer routes the calendar endpoints, /healthz and, when gatherer is not
// nil, /metrics.
func NewServer(cfg config.Server, h *Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{log: logger}

	router := mux.NewRouter()

	calendar := m.Instrument(h)
	router.Handle("/calendar.ics", calendar).Methods(http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions)
	router.Handle("/api/calendar", calendar).Methods(http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		// Handler.Handle answers preflights so both entrypoints send the same headers.
		OptionsPassthrough: true,
	})

	s.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.requestLog(c.Handler(router)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the routed handler, CORS and request logging included.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) Serve() error                       { return s.server.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLog tags each request with an id and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		logger := s.log.With().Str("req_id", id).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
