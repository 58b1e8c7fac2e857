package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bountyvault/contentref"
	"bountyvault/native/bounty"
	"bountyvault/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
)

const (
	codeBountyInvalidParams = -32021
	codeBountyNotFound      = -32022
	codeBountyForbidden     = -32023
	codeBountyConflict      = -32024
	codeBountyInternal      = -32025
)

// ServerConfig carries the listener and policy knobs for the JSON-RPC server.
type ServerConfig struct {
	Address      string
	AuthSecret   string
	AuthIssuer   string
	AuthAudience string
	RateLimit    float64
	RateBurst    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the bounty engine over JSON-RPC. Mutating instructions are
// serialised through a single mutex so concurrent submissions observe the
// same ordering guarantees as a sequential ledger.
type Server struct {
	cfg      ServerConfig
	engine   *bounty.Engine
	registry *contentref.Registry
	logger   *slog.Logger
	auth     *authenticator
	limiter  *requestLimiter
	metrics  *observability.RPCMetrics

	mu   sync.Mutex
	http *http.Server
}

func NewServer(cfg ServerConfig, engine *bounty.Engine, registry *contentref.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = contentref.NewRegistry()
	}
	return &Server{
		cfg:      cfg,
		engine:   engine,
		registry: registry,
		logger:   logger,
		auth:     newAuthenticator(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthAudience),
		limiter:  newRequestLimiter(cfg.RateLimit, cfg.RateBurst),
		metrics:  observability.Metrics(),
	}
}

// Router builds the HTTP mux used by Start. Exposed so tests can drive the
// server through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handle)
	return r
}

// Start runs the HTTP listener until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.http = srv
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc server listening", "address", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle parses the envelope and routes to the per-method handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.limiter.allow(r) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(rec, r, req)
	outcome := "ok"
	if rec.status >= http.StatusBadRequest {
		outcome = "error"
		s.metrics.ObserveError(req.Method, fmt.Sprintf("%d", rec.status))
	}
	s.metrics.ObserveRequest(req.Method, outcome, time.Since(start))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "bounty_createVault":
		s.mutating(w, r, req, s.handleCreateVault)
	case "bounty_fundVault":
		s.mutating(w, r, req, s.handleFundVault)
	case "bounty_toggleVaultStatus":
		s.mutating(w, r, req, s.handleToggleVaultStatus)
	case "bounty_updateRewardTiers":
		s.mutating(w, r, req, s.handleUpdateRewardTiers)
	case "bounty_deleteVault":
		s.mutating(w, r, req, s.handleDeleteVault)
	case "bounty_submitReport":
		s.mutating(w, r, req, s.handleSubmitReport)
	case "bounty_approveReport":
		s.mutating(w, r, req, s.handleApproveReport)
	case "bounty_rejectReport":
		s.mutating(w, r, req, s.handleRejectReport)
	case "bounty_executePayout":
		s.mutating(w, r, req, s.handleExecutePayout)
	case "bounty_mintReputation":
		s.mutating(w, r, req, s.handleMintReputation)
	case "bounty_registerContent":
		s.mutating(w, r, req, s.handleRegisterContent)
	case "bounty_getVault":
		s.handleGetVault(w, r, req)
	case "bounty_getReport":
		s.handleGetReport(w, r, req)
	case "bounty_getBadge":
		s.handleGetBadge(w, r, req)
	case "bounty_resolveContent":
		s.handleResolveContent(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}
}

// mutating gates state-changing methods behind auth and the instruction lock.
func (s *Server) mutating(w http.ResponseWriter, r *http.Request, req *RPCRequest, fn func(http.ResponseWriter, *http.Request, *RPCRequest)) {
	if err := s.auth.authorize(r); err != nil {
		s.logger.Warn("rpc auth rejected", "method", req.Method, "error", err)
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(w, r, req)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
