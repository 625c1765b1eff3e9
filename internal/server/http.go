package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
	"github.com/DevRickLin/tg-resender/internal/service"
)

// StatusProvider reports the outcome of the last run
type StatusProvider interface {
	Status() service.Status
}

// HTTPServer serves metrics and health checks while the service polls
type HTTPServer struct {
	srv    *http.Server
	status StatusProvider
	log    *logrus.Entry
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(addr string, gatherer prometheus.Gatherer, status StatusProvider, logger logging.Logger) *HTTPServer {
	s := &HTTPServer{
		status: status,
		log:    logging.Component(logger, "http"),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler
func (s *HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens in the background
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("HTTP server stopped")
		}
	}()
	return nil
}

// Stop shuts the server down
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type healthResponse struct {
	Status    string     `json:"status"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Watermark int64      `json:"watermark,omitempty"`
	HeldAt    int64      `json:"held_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// handleHealthz answers 503 while the last run failed
func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	resp := healthResponse{Status: "starting"}
	code := http.StatusOK

	if !st.LastRunAt.IsZero() {
		resp.Status = "ok"
		resp.LastRunAt = &st.LastRunAt
		if st.LastReport != nil {
			resp.Watermark = st.LastReport.EndWatermark
			resp.HeldAt = st.LastReport.HeldAt
		}
		if st.LastError != nil {
			resp.Status = "error"
			resp.Error = st.LastError.Error()
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
