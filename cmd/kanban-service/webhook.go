// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/kanban/lib/clock"
	"github.com/bureau-foundation/kanban/lib/kanban"
	"github.com/bureau-foundation/kanban/lib/netutil"
	"github.com/bureau-foundation/kanban/lib/reconcile"
	"github.com/bureau-foundation/kanban/lib/service"
	"github.com/bureau-foundation/kanban/lib/tracker"
)

// maxWebhookBodySize bounds an issues delivery. Issue payloads are a
// few kilobytes; 4 MB leaves room for very long bodies.
const maxWebhookBodySize = 4 * 1024 * 1024

// applier applies one tracker event to a project.
type applier interface {
	Apply(ctx context.Context, event reconcile.Event) reconcile.Outcome
}

// projectChecker reports whether a project exists.
type projectChecker interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// WebhookConfig configures a WebhookHandler.
type WebhookConfig struct {
	Engine   applier
	Projects projectChecker

	// MasterSecret derives each project's HMAC secret. Nil disables
	// signature verification.
	MasterSecret []byte

	// RequireSignature rejects deliveries without a signature header.
	RequireSignature bool

	// DeliveryWindow is how long processed delivery IDs are
	// remembered. Defaults to one hour.
	DeliveryWindow time.Duration

	// ApplyTimeout bounds the wait for the project slot and the
	// mutation. Defaults to 30 seconds.
	ApplyTimeout time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// WebhookHandler receives GitHub "issues" deliveries at
// POST /{projectID} and applies them through the reconciler. The
// response reports the outcome so the delivery log on GitHub shows
// what happened.
type WebhookHandler struct {
	engine           applier
	projects         projectChecker
	masterSecret     []byte
	requireSignature bool
	window           time.Duration
	applyTimeout     time.Duration
	clock            clock.Clock
	logger           *slog.Logger

	mu         sync.Mutex
	deliveries map[string]time.Time
}

// NewWebhookHandler creates a WebhookHandler. Panics if a required
// collaborator is missing.
func NewWebhookHandler(config WebhookConfig) *WebhookHandler {
	switch {
	case config.Engine == nil:
		panic("WebhookHandler: Engine is required")
	case config.Projects == nil:
		panic("WebhookHandler: Projects is required")
	case config.Clock == nil:
		panic("WebhookHandler: Clock is required")
	case config.Logger == nil:
		panic("WebhookHandler: Logger is required")
	case config.RequireSignature && len(config.MasterSecret) == 0:
		panic("WebhookHandler: RequireSignature needs a MasterSecret")
	}
	window := config.DeliveryWindow
	if window <= 0 {
		window = time.Hour
	}
	applyTimeout := config.ApplyTimeout
	if applyTimeout <= 0 {
		applyTimeout = 30 * time.Second
	}
	return &WebhookHandler{
		engine:           config.Engine,
		projects:         config.Projects,
		masterSecret:     config.MasterSecret,
		requireSignature: config.RequireSignature,
		window:           window,
		applyTimeout:     applyTimeout,
		clock:            config.Clock,
		logger:           config.Logger,
		deliveries:       make(map[string]time.Time),
	}
}

// ServeHTTP handles a single delivery.
func (h *WebhookHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}
	projectID := strings.Trim(request.URL.Path, "/")
	if projectID == "" || strings.Contains(projectID, "/") {
		http.NotFound(writer, request)
		return
	}

	body, err := netutil.ReadRequestBody(request.Body, maxWebhookBodySize)
	if err != nil {
		h.logger.Warn("webhook: reading body failed",
			"project_id", projectID,
			"error", err,
		)
		writeMessage(writer, http.StatusBadRequest, "invalid body")
		return
	}

	eventType := request.Header.Get("X-GitHub-Event")
	deliveryID := request.Header.Get("X-GitHub-Delivery")

	if !h.verifySignature(projectID, body, request.Header.Get(service.SignatureHeader)) {
		h.logger.Warn("webhook: signature verification failed",
			"project_id", projectID,
			"delivery_id", deliveryID,
			"remote_addr", request.RemoteAddr,
		)
		http.Error(writer, "", http.StatusUnauthorized)
		return
	}

	if eventType == "ping" {
		h.logger.Info("webhook: ping", "project_id", projectID, "delivery_id", deliveryID)
		writeJSON(writer, http.StatusOK, map[string]string{})
		return
	}

	// Only an explicit delivery ID marks a replay. A repeated
	// transition arrives with a byte-identical body and must be applied.
	if deliveryID != "" && !h.claim(deliveryID) {
		h.logger.Debug("webhook: duplicate delivery, ignoring",
			"project_id", projectID,
			"delivery_id", deliveryID,
		)
		writeJSON(writer, http.StatusOK, map[string]string{})
		return
	}

	// Deliveries outlive the sender's connection: a mutation that has
	// started is not abandoned because GitHub stopped waiting.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(request.Context()), h.applyTimeout)
	defer cancel()

	exists, err := h.projects.ProjectExists(ctx, projectID)
	if err != nil {
		h.logger.Error("webhook: checking project failed",
			"project_id", projectID,
			"error", err,
		)
		h.release(deliveryID)
		writeMessage(writer, http.StatusInternalServerError, "server error")
		return
	}
	if !exists {
		writeMessage(writer, http.StatusBadRequest, "project not found")
		return
	}

	event, err := translateDelivery(projectID, eventType, body)
	if err != nil {
		h.logger.Info("webhook: delivery not routed",
			"project_id", projectID,
			"event_type", eventType,
			"delivery_id", deliveryID,
			"error", err,
		)
		writeMessage(writer, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.engine.Apply(ctx, event)
	if outcome.StatusCode >= http.StatusInternalServerError {
		h.release(deliveryID)
	}
	h.logger.Info("webhook processed",
		"project_id", projectID,
		"event_type", string(event.Kind),
		"delivery_id", deliveryID,
		"tracker_number", event.Number,
		"status_code", outcome.StatusCode,
	)
	writeJSON(writer, outcome.StatusCode, outcome.Body())
}

// verifySignature checks the signature header against the
// project's derived secret. A missing header passes unless signatures
// are required.
func (h *WebhookHandler) verifySignature(projectID string, body []byte, signature string) bool {
	if len(h.masterSecret) == 0 {
		return true
	}
	if signature == "" {
		return !h.requireSignature
	}
	secret, err := service.ProjectWebhookSecret(h.masterSecret, projectID)
	if err != nil {
		h.logger.Error("webhook: deriving secret failed", "project_id", projectID, "error", err)
		return false
	}
	return service.VerifySignature([]byte(secret), body, signature) == nil
}

// claim reserves deliveryID for this request, pruning expired
// entries. It reports false when the ID was already claimed within the
// window, including by a request still in flight.
func (h *WebhookHandler) claim(deliveryID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	for id, receivedAt := range h.deliveries {
		if now.Sub(receivedAt) > h.window {
			delete(h.deliveries, id)
		}
	}
	if _, exists := h.deliveries[deliveryID]; exists {
		return false
	}
	h.deliveries[deliveryID] = now
	return true
}

// release gives up a claim after a server-side failure so GitHub's
// redelivery is applied.
func (h *WebhookHandler) release(deliveryID string) {
	if deliveryID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.deliveries, deliveryID)
}

// translateDelivery maps a delivery to a reconcile.Event. The error
// is the "routing not matched" message sent back to the sender.
func translateDelivery(projectID, eventType string, body []byte) (reconcile.Event, error) {
	if eventType != "issues" {
		// Only the action is wanted for the message; an undecodable
		// body leaves it empty.
		var payload ghActionPayload
		_ = json.Unmarshal(body, &payload)
		return reconcile.Event{}, routingError(eventType, payload.Action)
	}

	var payload ghIssuesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return reconcile.Event{}, fmt.Errorf("invalid issues payload: %v", err)
	}
	kind, ok := reconcile.KindForAction(payload.Action)
	if !ok {
		return reconcile.Event{}, routingError(eventType, payload.Action)
	}
	if payload.Issue.IsPullRequest() {
		return reconcile.Event{}, routingError("pull_request", payload.Action)
	}

	event := reconcile.Event{
		Kind:      kind,
		ProjectID: projectID,
		Number:    payload.Issue.Number,
		Issue:     tracker.FromGitHubIssue(&payload.Issue),
	}
	if payload.Assignee != nil {
		event.Assignee = payload.Assignee.Login
	}
	if payload.Label != nil {
		event.Label = &kanban.Label{Name: payload.Label.Name, Color: payload.Label.Color}
	}
	return event, nil
}

func routingError(eventType, action string) error {
	return fmt.Errorf("routing not matched: %s %s", eventType, action)
}

func writeMessage(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, map[string]string{"message": message})
}

func writeJSON(writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(body)
}
