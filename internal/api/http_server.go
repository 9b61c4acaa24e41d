package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rentline/internal/client"
	"rentline/internal/config"
	"rentline/internal/domain"
	"rentline/internal/export"
	"rentline/internal/health"
	"rentline/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the public REST surface: booking flow, equipment
// proxy, exports and health endpoints.
type HTTPServer struct {
	cfg      config.ServerConfig
	client   *client.Client
	bookings *service.BookingService
	exporter *export.Exporter
	checker  *health.Checker
	store    domain.Store
	logger   *zerolog.Logger
	server   *http.Server
}

func NewHTTPServer(
	cfg config.ServerConfig,
	upstream *client.Client,
	bookings *service.BookingService,
	exporter *export.Exporter,
	checker *health.Checker,
	store domain.Store,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		client:   upstream,
		bookings: bookings,
		exporter: exporter,
		checker:  checker,
		store:    store,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/health/readiness", srv.handleReadiness)
	mux.HandleFunc("/health/liveness", srv.handleLiveness)
	mux.HandleFunc("/api/v1/equipment", srv.handleEquipment)
	mux.HandleFunc("/api/v1/equipment/", srv.handleAvailability)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/export", srv.handleExport)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingStatus)

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(srv.securityHeadersMiddleware(srv.rateLimitMiddleware(mux))))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

// Handler exposes the middleware-wrapped mux, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
