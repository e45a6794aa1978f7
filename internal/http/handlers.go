package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"grants/internal/core"
	"grants/internal/dashboard"
	"grants/internal/log"
	"grants/internal/storage"
)

// handleIndex runs the request pipeline: load, pivot, render. Nothing is
// written until the page is complete.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := s.loadDashboard(ctx)
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}

	page := s.buildPage(d, nonceFromContext(ctx))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, page); err != nil {
		s.logger.LogError(ctx, "Dashboard render failed", err, log.ErrorTypeTemplate, log.ComponentTemplate, log.OpRender)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}

// handleCharts returns the chart configurations of the dashboard as JSON.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r.Context())
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Labels []string          `json:"labels"`
		Charts []dashboard.Chart `json:"charts"`
	}{
		Labels: d.Labels,
		Charts: s.buildPage(d, "").Charts(),
	})
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"timestamp":           time.Now().Format(time.RFC3339),
		"uptime":              time.Since(s.started).String(),
		"suspicious_requests": s.metrics.suspiciousRequests.Load(),
	})
}

// handleReady checks the templates and, when the loader supports it, the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.renderer == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if p, ok := s.loader.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "not_checked"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) loadDashboard(ctx context.Context) (core.Dashboard, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	d := core.BuildDashboard(ds)
	s.logger.LogDashboardLoaded(ctx, len(d.Labels), len(d.Summary.Categories), len(ds.Summary), len(ds.Education))
	return d, nil
}

func (s *Server) buildPage(d core.Dashboard, nonce string) dashboard.Page {
	return dashboard.BuildPage(d, dashboard.PageOptions{
		Title:          s.title,
		ChartScriptURL: s.chartURL,
		Nonce:          nonce,
	})
}

// loadFailed aborts the response with a plain-text diagnostic. The full
// error, which may carry file paths, only goes to the log.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	errorType, reason := log.ErrorTypeDatabase, "query failed"
	if errors.Is(err, storage.ErrConnect) {
		errorType, reason = log.ErrorTypeConnection, "connection failed"
	}
	s.logger.LogError(ctx, "Dashboard data load failed", err, errorType, log.ComponentStorage, log.OpLoad)

	msg := "dashboard data unavailable: " + reason
	if id := log.RequestID(ctx); id != "" {
		msg += " (request " + id + ")"
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
