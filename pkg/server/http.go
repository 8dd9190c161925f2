package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/translatron"
)

// maxBodyBytes bounds webhook bodies. Twilio form posts are a few KiB.
const maxBodyBytes = 64 << 10

// EventHandler processes one inbound webhook event.
type EventHandler interface {
	Handle(ctx context.Context, event translatron.InboundEvent) (translatron.Response, error)
}

// HealthFunc reports whether the service can currently process messages.
type HealthFunc func(ctx context.Context) error

// HTTPServer serves the Twilio webhook along with health and metrics endpoints.
type HTTPServer struct {
	handler     EventHandler
	health      HealthFunc
	logger      *logrus.Logger
	port        int
	webhookPath string
	srv         *http.Server
}

// NewHTTPServer creates the webhook server. health may be nil.
func NewHTTPServer(handler EventHandler, health HealthFunc, logger *logrus.Logger, port int, webhookPath string) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	if webhookPath == "" {
		webhookPath = "/"
	}
	s := &HTTPServer{
		handler:     handler,
		health:      health,
		logger:      logger,
		port:        port,
		webhookPath: webhookPath,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing for all endpoints.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Registered last so that a "/" webhook path does not shadow the above.
	mux.HandleFunc(s.webhookPath, s.handleWebhook)

	return mux
}

// Start listens until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":         s.port,
		"webhook_path": s.webhookPath,
	}).Info("Starting HTTP server")

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.webhookPath {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read webhook body")
		http.Error(w, "Request body too large or unreadable", http.StatusBadRequest)
		return
	}

	resp, err := s.handler.Handle(r.Context(), EventFromRequest(r, body))
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"remote_addr": r.RemoteAddr,
			"path":        r.URL.Path,
		}).Error("Failed to process webhook")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, resp)
}

// EventFromRequest converts an HTTP request into an inbound event. Only the
// first value of each header is kept, and the Host header is taken from the
// request since net/http removes it from the header map.
func EventFromRequest(r *http.Request, body []byte) translatron.InboundEvent {
	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	headers["Host"] = r.Host

	return translatron.InboundEvent{
		Body:    string(body),
		Headers: headers,
	}
}

func writeResponse(w http.ResponseWriter, resp translatron.Response) {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}
