// Package webhook receives payment confirmation callbacks from OxaPay.
package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spinhall/deposit-bot/internal/deposit"
	"github.com/spinhall/deposit-bot/internal/oxapay"
)

// Server is the HTTP listener for processor callbacks. Every delivery is
// answered 200 "ok" no matter what happened internally, so the processor
// never enters a retry storm over events we chose to drop.
type Server struct {
	path     string
	verifier *oxapay.Verifier
	pipeline *deposit.Pipeline
	log      *slog.Logger

	server *http.Server
}

// NewServer creates a webhook server handling POSTs on the given path.
func NewServer(path string, verifier *oxapay.Verifier, pipeline *deposit.Pipeline, log *slog.Logger) *Server {
	return &Server{
		path:     path,
		verifier: verifier,
		pipeline: pipeline,
		log:      log,
	}
}

// Start runs the listener until the context is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("starting webhook server", "port", port, "path", s.path)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

// Handler returns the route mux. Split out so tests can drive it with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	// The processor always gets its "ok"; drops are logged server-side only.
	defer func() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}()

	if r.Method != http.MethodPost {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Warn("read webhook body", "error", err)
		return
	}

	if !s.verifier.Verify(raw) {
		s.log.Warn("webhook signature mismatch, ignoring")
		return
	}

	ev, err := oxapay.ParsePaymentEvent(raw)
	if err != nil {
		s.log.Warn("invalid webhook payload", "error", err)
		return
	}

	s.log.Info("webhook received",
		"status", ev.Status,
		"order_id", ev.OrderID,
		"track_id", ev.TrackID,
	)

	s.pipeline.ApplyPayment(r.Context(), ev)
}
