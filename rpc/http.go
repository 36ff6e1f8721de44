package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"swaplock/core"
	"swaplock/observability"
)

const (
	jsonRPCVersion     = "2.0"
	maxRequestBytes    = 1 << 20 // 1 MiB
	mutationsPerMinute = 30
	mutationBurst      = 10
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// AuthTokenEnv names the environment variable carrying the bearer token
// required for mutating methods.
const AuthTokenEnv = "SWAPLOCK_RPC_TOKEN"

type Server struct {
	node *core.Node

	mu           sync.Mutex
	rateLimiters map[string]*rate.Limiter
	authToken    string
}

func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv(AuthTokenEnv))
	return &Server{
		node:         node,
		rateLimiters: make(map[string]*rate.Limiter),
		authToken:    token,
	}
}

// Start serves the JSON-RPC endpoint, the websocket event stream and the
// metrics endpoint on addr. It blocks until the listener fails.
func (s *Server) Start(addr string) error {
	slog.Info("starting JSON-RPC server", "addr", addr)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEvents)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
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

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

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

	observability.CountRPCRequest(req.Method)

	switch req.Method {
	case "htlc_commit":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleCommit(w, r, req)
	case "htlc_lock":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleLock(w, r, req)
	case "htlc_lockCommit":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleLockCommit(w, r, req)
	case "htlc_addLock":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleAddLock(w, r, req)
	case "htlc_redeem":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleRedeem(w, r, req)
	case "htlc_uncommit":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleUncommit(w, r, req)
	case "htlc_unlock":
		if !s.gateMutation(w, r, req) {
			return
		}
		s.handleUnlock(w, r, req)
	case "htlc_getCommit":
		s.handleGetCommit(w, r, req)
	case "htlc_getLock":
		s.handleGetLock(w, r, req)
	case "htlc_getLockIdByCommitId":
		s.handleGetLockIDByCommitID(w, r, req)
	case "htlc_deriveId":
		s.handleDeriveID(w, r, req)
	case "swaplock_getBalance":
		s.handleGetBalance(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

// gateMutation applies authentication and the per-source rate limit to
// state-changing methods. It writes the error response itself and reports
// whether the request may proceed.
func (s *Server) gateMutation(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return false
	}
	source := clientSource(r)
	if !s.allowSource(source, time.Now()) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "request rate limit exceeded", source)
		return false
	}
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	slog.Info("rpc mutation", "method", req.Method, "source", source, "requestId", requestID)
	return true
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) allowSource(source string, now time.Time) bool {
	if source == "" {
		source = "unknown"
	}
	s.mu.Lock()
	limiter, ok := s.rateLimiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(mutationsPerMinute)/60, mutationBurst)
		s.rateLimiters[source] = limiter
	}
	s.mu.Unlock()
	return limiter.AllowN(now, 1)
}

func clientSource(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
