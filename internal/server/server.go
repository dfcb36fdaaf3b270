// Package server exposes the gateway over HTTP: dispatch, capability queries,
// document records, metrics, and liveness.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/homeroomhq/homeroom/internal/gateway"
	"github.com/homeroomhq/homeroom/internal/store"
	"github.com/homeroomhq/homeroom/pkg/schema"
)

// allowedHeaders mirrors the header set dashboard clients send.
const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// Deps holds the dependencies for the API server.
type Deps struct {
	Router  *gateway.Router
	Prober  *gateway.Prober
	Store   store.Store
	Metrics http.Handler
	Logger  *slog.Logger
	Version string
}

// Server is the gateway HTTP API.
type Server struct {
	deps    Deps
	started time.Time
}

// New creates the API server.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{deps: deps, started: time.Now()}
}

// Handler returns the HTTP handler with CORS applied to every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/dispatch", s.handleDispatch)
	mux.HandleFunc("POST /api/providers/{provider}/{action}", s.handleProviderAction)
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/capabilities", s.handleCapabilities)
	mux.HandleFunc("POST /api/capabilities/refresh", s.handleCapabilitiesRefresh)
	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleDocument)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics)
	}

	return corsMiddleware(mux)
}

// corsMiddleware answers preflight directly and stamps every response.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req schema.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, schema.Fail(schema.NewErrorf(schema.ErrCodeInvalidPayload,
			"invalid request body: %v", err)))
		return
	}
	writeResult(w, s.deps.Router.Dispatch(r.Context(), req))
}

// handleProviderAction mirrors the per-function endpoints: the path names the
// provider and action, the body is the payload plus agentId.
func (s *Server) handleProviderAction(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeResult(w, schema.Fail(schema.NewErrorf(schema.ErrCodeInvalidPayload,
				"invalid request body: %v", err)))
			return
		}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	agentID, _ := payload["agentId"].(string)
	delete(payload, "agentId")

	writeResult(w, s.deps.Router.Dispatch(r.Context(), schema.ActionRequest{
		Provider: schema.ProviderName(r.PathValue("provider")),
		Action:   r.PathValue("action"),
		AgentID:  agentID,
		Payload:  payload,
	}))
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": s.deps.Router.Providers(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Prober.CheckAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": snap})
}

func (s *Server) handleCapabilitiesRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Prober.Invalidate()
	snap := s.deps.Prober.CheckAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": snap, "refreshed": true})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	docs, err := s.deps.Store.ListDocuments(r.Context(), limit)
	if err != nil {
		s.deps.Logger.ErrorContext(r.Context(), "list documents failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Store.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		var gerr *schema.GatewayError
		if errors.As(err, &gerr) && gerr.Code == schema.ErrCodeNotFound {
			writeError(w, http.StatusNotFound, gerr.Message)
			return
		}
		s.deps.Logger.ErrorContext(r.Context(), "get document failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.deps.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}
