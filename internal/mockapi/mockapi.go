// Package mockapi serves the demo dataset as read-only JSON endpoints:
//
//	GET /api/customers
//	GET /api/members
//	GET /api/mails
//	GET /api/notifications
//	GET /health
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/logging"
	"github.com/abelbrown/panel/internal/store"
)

// Options tunes the mock server.
type Options struct {
	// Latency delays every /api response, to make loading states visible.
	Latency time.Duration
}

type server struct {
	store *store.Store
	opts  Options
}

// New returns the router for st.
func New(st *store.Store, opts Options) http.Handler {
	s := &server{store: st, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.delay)
		r.Get("/{resource}", s.handleList)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	res, err := dashboard.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	items, err := s.list(r.Context(), res)
	if err != nil {
		logging.Error("list failed", "resource", res, "request_id", middleware.GetReqID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *server) list(ctx context.Context, res dashboard.Resource) (any, error) {
	switch res {
	case dashboard.Customers:
		return s.store.Customers(ctx)
	case dashboard.Members:
		return s.store.Members(ctx)
	case dashboard.Mails:
		return s.store.Mails(ctx)
	default:
		return s.store.Notifications(ctx)
	}
}

// delay holds /api responses for Options.Latency or until the client leaves.
func (s *server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			t := time.NewTimer(s.opts.Latency)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request to the file logger at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
