// Package server exposes the TV screen endpoints: the websocket feed, alert state and
// control, the leaderboard snapshot, clip files, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sales-leaderboard/internal/alerting"
	"sales-leaderboard/internal/leaderboard"
	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/service"
)

const wsPath = "/ws"

// ScreenHub serves websocket screens.
type ScreenHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
	ReadyCount() int
}

// AlertControl exposes the sequencer to operators.
type AlertControl interface {
	Snapshot() alerting.Snapshot
	Complete(id uint64) bool
}

// BoardSource returns the last built leaderboard.
type BoardSource interface {
	Latest() (leaderboard.Snapshot, bool)
}

// SaleHandler accepts sale events, normally the pipeline.
type SaleHandler interface {
	Handle(ctx context.Context, ev sales.RawSaleEvent) service.Outcome
}

// Deps are the components behind the routes. Nil members disable their routes.
type Deps struct {
	Screens ScreenHub
	Alerts  AlertControl
	Board   BoardSource
	Sales   SaleHandler
}

// Options configure the listener and static clips.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	AssetsDir         string
	PublicPrefix      string
	SyntheticPrefix   string
}

// Server is the HTTP front of the service.
type Server struct {
	opts    Options
	deps    Deps
	handler http.Handler
	logger  zerolog.Logger
}

// New builds the router.
func New(opts Options, deps Deps, logger zerolog.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: logger.With().Str("component", "http").Logger(),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(Recovery(s.logger))
	router.Use(Logging(s.logger))

	if s.deps.Screens != nil {
		router.HandleFunc(wsPath, s.deps.Screens.ServeWS)
	}

	api := router.PathPrefix("/api").Subrouter()
	if s.deps.Board != nil {
		api.HandleFunc("/leaderboard", s.getLeaderboard).Methods(http.MethodGet)
	}
	if s.deps.Alerts != nil {
		api.HandleFunc("/alerts/state", s.getAlertState).Methods(http.MethodGet)
		api.HandleFunc("/alerts/complete", s.postComplete).Methods(http.MethodPost)
	}
	if s.deps.Sales != nil {
		api.HandleFunc("/sales/simulate", s.postSimulate).Methods(http.MethodPost)
	}

	router.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if s.opts.AssetsDir != "" {
		prefix := "/" + strings.Trim(s.opts.PublicPrefix, "/") + "/"
		router.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.AssetsDir))))
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.deps.Screens != nil {
		body["screens"] = s.deps.Screens.ClientCount()
		body["ready"] = s.deps.Screens.ReadyCount()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.deps.Board.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) getAlertState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Alerts.Snapshot())
}

type completeRequest struct {
	PresentationID uint64 `json:"presentationId"`
}

func (s *Server) postComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PresentationID == 0 {
		writeError(w, http.StatusBadRequest, "presentationId is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": s.deps.Alerts.Complete(req.PresentationID)})
}

type simulateRequest struct {
	Value       *sales.RawValue `json:"value"`
	SellerName  string          `json:"sellerName"`
	ProcessType string          `json:"processType"`
}

type simulateResponse struct {
	EventID  string          `json:"eventId"`
	SellerID string          `json:"sellerId"`
	Outcome  service.Outcome `json:"outcome"`
}

func (s *Server) postSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Value == nil || req.Value.IsZero() {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	ev := sales.NewSyntheticEvent(s.opts.SyntheticPrefix, sales.SyntheticSale{
		SellerName:  req.SellerName,
		ProcessType: req.ProcessType,
		EntryValue:  *req.Value,
	})
	outcome := s.deps.Sales.Handle(r.Context(), ev)
	s.logger.Info().Str("event_id", ev.EventID).Str("outcome", string(outcome)).Msg("simulated sale submitted")

	status := http.StatusOK
	if outcome == service.OutcomeQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, simulateResponse{EventID: ev.EventID, SellerID: ev.SellerID, Outcome: outcome})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
