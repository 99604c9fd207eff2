package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/aerial-hk/internal/choreography"
	"github.com/nerrad567/aerial-hk/internal/journal"
	"github.com/nerrad567/aerial-hk/internal/timeline"
)

// healthCheckTimeout bounds each component check.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.readOnlyMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/status", s.handleStatus)

		r.Route("/timelines", func(r chi.Router) {
			r.Get("/", s.handleListTimelines)
			r.Get("/{name}", s.handleGetTimeline)
		})

		r.Get("/runs", s.handleListRuns)
		r.Get("/commands", s.handleListCommands)
	})

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/api/v1/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	return r
}

// handleHealth runs every component check and reports the journal schema.
// A failed check or an unapplied migration makes the response 503 with
// status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.checks))
	healthy := true

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{
		"version":    s.version,
		"components": components,
	}
	if s.schema != nil {
		schema, ok := s.schemaHealth(r.Context())
		body["schema"] = schema
		healthy = healthy && ok
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	body["status"] = status
	writeJSON(w, code, body)
}

func (s *Server) schemaHealth(ctx context.Context) (map[string]any, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	st, err := s.schema.SchemaStatus(ctx)
	if err != nil {
		return map[string]any{"error": err.Error()}, false
	}
	pending := make([]string, 0, len(st.Pending))
	for _, m := range st.Pending {
		pending = append(pending, m.Version+"_"+m.Name)
	}
	return map[string]any{
		"version": st.Version(),
		"applied": len(st.Applied),
		"pending": pending,
	}, len(pending) == 0
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeUnavailable(w, "controller not running")
		return
	}
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func (s *Server) handleListTimelines(w http.ResponseWriter, _ *http.Request) {
	if s.timelines == nil {
		writeUnavailable(w, "timeline catalogue not loaded")
		return
	}
	list := s.timelines.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"timelines": list,
		"count":     len(list),
	})
}

// TimelineDetail is a catalogue summary with the timeline's events.
type TimelineDetail struct {
	choreography.Summary
	Entries []timeline.Event `json:"entries"`
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	if s.timelines == nil {
		writeUnavailable(w, "timeline catalogue not loaded")
		return
	}
	name := chi.URLParam(r, "name")

	tl, err := s.timelines.Get(name)
	if errors.Is(err, choreography.ErrTimelineNotFound) {
		writeNotFound(w, "timeline not found")
		return
	}
	if err != nil {
		writeInternalError(w, "failed to load timeline")
		return
	}

	detail := TimelineDetail{Entries: tl.Entries()}
	for _, sum := range s.timelines.List() {
		if sum.Name == name {
			detail.Summary = sum
			break
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal not configured")
		return
	}
	filter, ok := parsePage(w, r)
	if !ok {
		return
	}
	filter.Timeline = r.URL.Query().Get("timeline")
	filter.Status = r.URL.Query().Get("status")

	list, err := s.journal.ListRuns(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing runs", "error", err)
		writeInternalError(w, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "journal not configured")
		return
	}
	filter, ok := parsePage(w, r)
	if !ok {
		return
	}
	filter.Source = r.URL.Query().Get("source")

	list, err := s.journal.ListCommands(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing commands", "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// parsePage reads limit and offset, writing a 400 on malformed values.
func parsePage(w http.ResponseWriter, r *http.Request) (journal.Filter, bool) {
	var f journal.Filter
	q := r.URL.Query()
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, key+" must be a non-negative integer")
			return f, false
		}
		*dst = n
	}
	return f, true
}
