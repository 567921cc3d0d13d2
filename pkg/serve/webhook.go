// Package serve receives GitHub webhook deliveries over HTTP, normalizes
// them into event envelopes, deduplicates repeat deliveries, and hands
// each event to a handler. Every event, decision, and handler outcome is
// appended to NDJSON audit logs under the state directory.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	botlog "github.com/ombot-run/ombot/pkg/log"
)

// EventHandler processes a normalized webhook event
type EventHandler interface {
	HandleEvent(ctx context.Context, env EventEnvelope) error
}

// WebhookServer handles incoming GitHub webhook HTTP requests
type WebhookServer struct {
	server     *http.Server
	eventChan  chan []byte
	handler    EventHandler
	statePath  string
	eventsLog  *ndjsonWriter
	decLog     *ndjsonWriter
	actionsLog *ndjsonWriter
	state      persistentState
	now        func() time.Time
	mu         sync.RWMutex
}

// WebhookConfig configures the webhook server
type WebhookConfig struct {
	Port     int
	StateDir string
	Handler  EventHandler
}

type persistentState struct {
	LastEventID  string            `json:"last_event_id,omitempty"`
	ProcessedAt  map[string]string `json:"processed_at,omitempty"`
	ProcessedMax int               `json:"processed_max,omitempty"`
}

const defaultProcessedMax = 2000

// NewWebhookServer creates a new webhook server for GitHub events
func NewWebhookServer(cfg WebhookConfig) (*WebhookServer, error) {
	if cfg.Handler == nil {
		return nil, errors.New("event handler is required")
	}
	if cfg.StateDir == "" {
		return nil, errors.New("state dir is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	eventsLog, err := newNDJSONWriter(filepath.Join(cfg.StateDir, "events.ndjson"))
	if err != nil {
		return nil, err
	}
	decLog, err := newNDJSONWriter(filepath.Join(cfg.StateDir, "decisions.ndjson"))
	if err != nil {
		eventsLog.Close()
		return nil, err
	}
	actionsLog, err := newNDJSONWriter(filepath.Join(cfg.StateDir, "actions.ndjson"))
	if err != nil {
		eventsLog.Close()
		decLog.Close()
		return nil, err
	}

	ws := &WebhookServer{
		eventChan:  make(chan []byte, 100),
		handler:    cfg.Handler,
		statePath:  filepath.Join(cfg.StateDir, "serve-state.json"),
		eventsLog:  eventsLog,
		decLog:     decLog,
		actionsLog: actionsLog,
		now:        time.Now,
	}

	if err := ws.loadState(); err != nil {
		eventsLog.Close()
		decLog.Close()
		actionsLog.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", ws.handleWebhook)
	mux.HandleFunc("/health", ws.handleHealth)

	ws.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	return ws, nil
}

// Start begins accepting webhook requests and blocks until the context is
// canceled or the server fails
func (ws *WebhookServer) Start(ctx context.Context) error {
	botlog.Info("webhook server listening", "addr", ws.server.Addr, "path", "/webhook")

	go ws.processEvents(ctx)

	errChan := make(chan error, 1)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("webhook server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		botlog.Info("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ws.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Close closes the audit log files
func (ws *WebhookServer) Close() error {
	var firstErr error
	for _, w := range []*ndjsonWriter{ws.eventsLog, ws.decLog, ws.actionsLog} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (ws *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		botlog.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	headers := map[string]string{}
	if ghEvent := r.Header.Get("X-GitHub-Event"); ghEvent != "" {
		headers["x_github_event"] = ghEvent
	}
	if ghDelivery := r.Header.Get("X-GitHub-Delivery"); ghDelivery != "" {
		headers["x_github_delivery"] = ghDelivery
	}

	wrapped := wrapWithHeaders(body, headers)

	select {
	case ws.eventChan <- wrapped:
		w.WriteHeader(http.StatusAccepted)
		botlog.Debug("webhook accepted", "event", headers["x_github_event"], "delivery", headers["x_github_delivery"])
	default:
		botlog.Warn("webhook channel full, dropping event", "event", headers["x_github_event"])
		http.Error(w, "server busy", http.StatusServiceUnavailable)
	}
}

func (ws *WebhookServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   ws.now().UTC().Format(time.RFC3339Nano),
	})
}

// wrapWithHeaders folds the GitHub delivery headers into the JSON payload
// so normalization sees a single document
func wrapWithHeaders(body []byte, headers map[string]string) []byte {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		botlog.Error("failed to parse webhook body", "error", err)
		return body
	}

	for k, v := range headers {
		payload[k] = v
	}

	wrapped, err := json.Marshal(payload)
	if err != nil {
		botlog.Error("failed to marshal wrapped webhook", "error", err)
		return body
	}
	return wrapped
}

func (ws *WebhookServer) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-ws.eventChan:
			if err := ws.processOne(ctx, raw); err != nil {
				botlog.Error("failed to process event", "error", err)
			}
		}
	}
}

func (ws *WebhookServer) processOne(ctx context.Context, raw []byte) error {
	env, err := normalizeGitHubEvent(raw, ws.now)
	if err != nil {
		if errors.Is(err, ErrUnsupportedEvent) {
			botlog.Debug("ignoring event", "reason", err.Error())
			return nil
		}
		return fmt.Errorf("failed to normalize event: %w", err)
	}

	if err := ws.eventsLog.Write(env); err != nil {
		return err
	}

	decision := DecisionRecord{
		ID:        newID("decision", ws.now().UTC()),
		EventID:   env.ID,
		Type:      "forward_event",
		CreatedAt: ws.now().UTC(),
	}
	if env.DedupeKey != "" {
		ws.mu.RLock()
		_, exists := ws.state.ProcessedAt[env.DedupeKey]
		ws.mu.RUnlock()

		if exists {
			decision.Skipped = true
			decision.Reason = "duplicate dedupe_key"
			if err := ws.decLog.Write(decision); err != nil {
				return err
			}
			// Advance cursor state even for duplicates
			ws.updateCursor(env)
			return nil
		}
	}

	if err := ws.decLog.Write(decision); err != nil {
		return err
	}

	start := ws.now().UTC()
	result := ActionResult{
		ID:        newID("actres", start),
		EventID:   env.ID,
		StartedAt: start,
	}

	if err := ws.handler.HandleEvent(ctx, env); err != nil {
		if IsSkipEventError(err) {
			result.Status = "skipped"
		} else {
			result.Status = "failed"
		}
		result.Message = err.Error()
	} else {
		result.Status = "ok"
	}
	result.EndedAt = ws.now().UTC()

	if err := ws.actionsLog.Write(result); err != nil {
		return err
	}

	ws.updateCursor(env)
	return nil
}

func (ws *WebhookServer) updateCursor(env EventEnvelope) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if env.DedupeKey != "" {
		ws.state.ProcessedAt[env.DedupeKey] = ws.now().UTC().Format(time.RFC3339Nano)
	}
	ws.state.LastEventID = env.ID

	if len(ws.state.ProcessedAt) > ws.state.ProcessedMax {
		ws.compactStateLocked()
	}

	if err := ws.saveStateLocked(); err != nil {
		botlog.Error("failed to save serve state", "error", err)
	}
}

func (ws *WebhookServer) loadState() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	data, err := os.ReadFile(ws.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ws.state = persistentState{ProcessedAt: make(map[string]string), ProcessedMax: defaultProcessedMax}
			return nil
		}
		return fmt.Errorf("failed to read serve state: %w", err)
	}

	if err := json.Unmarshal(data, &ws.state); err != nil {
		return fmt.Errorf("failed to parse serve state: %w", err)
	}

	if ws.state.ProcessedAt == nil {
		ws.state.ProcessedAt = make(map[string]string)
	}
	if ws.state.ProcessedMax <= 0 {
		ws.state.ProcessedMax = defaultProcessedMax
	}
	return nil
}

func (ws *WebhookServer) saveStateLocked() error {
	data, err := json.MarshalIndent(ws.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal serve state: %w", err)
	}
	if err := os.WriteFile(ws.statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write serve state: %w", err)
	}
	return nil
}

// compactStateLocked keeps only the newest ProcessedMax dedupe entries
func (ws *WebhookServer) compactStateLocked() {
	type stateItem struct {
		key string
		at  time.Time
	}

	items := make([]stateItem, 0, len(ws.state.ProcessedAt))
	for k, v := range ws.state.ProcessedAt {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			t = time.Time{}
		}
		items = append(items, stateItem{key: k, at: t})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	for idx := ws.state.ProcessedMax; idx < len(items); idx++ {
		delete(ws.state.ProcessedAt, items[idx].key)
	}

	botlog.Info("compacted serve state", "entries", len(ws.state.ProcessedAt))
}
