// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/bureau-foundation/kanban/lib/board"
	"github.com/bureau-foundation/kanban/lib/netutil"
	"github.com/bureau-foundation/kanban/lib/presence"
	"github.com/bureau-foundation/kanban/lib/realtime"
	"github.com/bureau-foundation/kanban/lib/sessiontoken"
)

// writeTimeout bounds one frame write. A client that cannot accept a
// frame in this time is disconnected.
const writeTimeout = 10 * time.Second

// maxFrameSize bounds an inbound frame. The largest request is an
// issue body or a work history.
const maxFrameSize = 1 << 20

// ackQueueSize is the number of acks waiting for the writer. The
// reader handles one frame at a time, so this only absorbs bursts.
const ackQueueSize = 16

// inboundFrame is a client request.
type inboundFrame struct {
	Event string          `json:"event"`
	ID    json.RawMessage `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ackFrame answers an inboundFrame. Ack echoes the request ID.
type ackFrame struct {
	Ack  json.RawMessage `json:"ack"`
	Data board.Ack       `json:"data"`
}

// pushFrame carries a server event.
type pushFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// tokenVerifier verifies an encoded session token.
type tokenVerifier interface {
	Verify(encoded string) (*sessiontoken.Token, error)
}

// ChannelConfig configures a ChannelHandler.
type ChannelConfig struct {
	Hub      *realtime.Hub
	Verifier tokenVerifier

	// CookieName is the cookie browsers carry the session token in.
	CookieName string

	// AllowedOrigins restricts browser origins. Empty allows any.
	AllowedOrigins []string

	Logger *slog.Logger
}

// ChannelHandler upgrades GET /socket to a websocket and bridges its
// frames to a realtime.Connection. The socket reader handles one
// request at a time; a single writer goroutine sends acks and pushes.
type ChannelHandler struct {
	hub            *realtime.Hub
	verifier       tokenVerifier
	cookieName     string
	allowedOrigins []string
	logger         *slog.Logger
}

// NewChannelHandler creates a ChannelHandler. Panics if a required
// collaborator is missing.
func NewChannelHandler(config ChannelConfig) *ChannelHandler {
	switch {
	case config.Hub == nil:
		panic("ChannelHandler: Hub is required")
	case config.Verifier == nil:
		panic("ChannelHandler: Verifier is required")
	case config.Logger == nil:
		panic("ChannelHandler: Logger is required")
	}
	return &ChannelHandler{
		hub:            config.Hub,
		verifier:       config.Verifier,
		cookieName:     config.CookieName,
		allowedOrigins: config.AllowedOrigins,
		logger:         config.Logger,
	}
}

// ServeHTTP authenticates the request and upgrades it. A request
// without a valid token still gets a socket, but only to receive one
// "must be login" frame before it is closed.
func (h *ChannelHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	identity := h.authenticate(request)
	server := websocket.Server{
		Handshake: h.checkOrigin,
		Handler: func(socket *websocket.Conn) {
			if identity == nil {
				h.reject(socket)
				return
			}
			h.serve(socket, identity)
		},
	}
	server.ServeHTTP(writer, request)
}

// reject tells an unauthenticated client why and disconnects it
// without reading anything from it.
func (h *ChannelHandler) reject(socket *websocket.Conn) {
	defer socket.Close()
	data, _ := json.Marshal(board.UserFailure("must be login"))
	socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := websocket.JSON.Send(socket, pushFrame{Event: realtime.EventUnauthorized, Data: data}); err != nil && !netutil.IsExpectedCloseError(err) {
		h.logger.Warn("channel: writing login failure failed", "error", err)
	}
}

// authenticate reads the session token from the Authorization header,
// the session cookie, or the token query parameter, in that order.
func (h *ChannelHandler) authenticate(request *http.Request) *presence.Identity {
	encoded := bearerToken(request)
	if encoded == "" && h.cookieName != "" {
		if cookie, err := request.Cookie(h.cookieName); err == nil {
			encoded = cookie.Value
		}
	}
	if encoded == "" {
		encoded = request.URL.Query().Get("token")
	}
	if encoded == "" {
		return nil
	}

	token, err := h.verifier.Verify(encoded)
	if err != nil {
		h.logger.Info("channel: rejected session token",
			"remote_addr", request.RemoteAddr,
			"error", err,
		)
		return nil
	}
	return &presence.Identity{UserID: token.UserID, UserName: token.Subject}
}

func bearerToken(request *http.Request) string {
	header := request.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// checkOrigin is the websocket handshake hook. Non-browser clients
// send no Origin and are always accepted.
func (h *ChannelHandler) checkOrigin(config *websocket.Config, request *http.Request) error {
	origin := request.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return nil
	}
	if !slices.Contains(h.allowedOrigins, origin) {
		return fmt.Errorf("origin %q not allowed", origin)
	}
	return nil
}

func (h *ChannelHandler) serve(socket *websocket.Conn, identity *presence.Identity) {
	socket.MaxPayloadBytes = maxFrameSize
	connection := h.hub.Connect(identity)
	logger := h.logger.With("connection_id", connection.ID())

	// Cancelled when the socket ends, which abandons a request still
	// waiting for its project slot.
	ctx, cancel := context.WithCancel(context.Background())
	acks := make(chan ackFrame, ackQueueSize)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.write(socket, connection, acks, logger)
	}()

	defer func() {
		cancel()
		connection.Close(context.Background())
		<-writerDone
		socket.Close()
	}()

	for {
		var frame inboundFrame
		if err := websocket.JSON.Receive(socket, &frame); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				logger.Warn("channel: reading frame failed", "error", err)
			}
			return
		}
		if frame.Event == "" {
			frame.Event = "unknown"
		}

		ack := connection.Handle(ctx, frame.Event, frame.Data)
		select {
		case acks <- ackFrame{Ack: frameID(frame.ID), Data: ack}:
		case <-writerDone:
			return
		}
	}
}

// frameID echoes the request ID, null when the client sent none.
func frameID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// write sends acks and pushes until the connection closes or a write
// fails. Acks already queued when the connection closes are flushed.
func (h *ChannelHandler) write(socket *websocket.Conn, connection *realtime.Connection, acks <-chan ackFrame, logger *slog.Logger) {
	send := func(frame any) bool {
		socket.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := websocket.JSON.Send(socket, frame); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				logger.Warn("channel: writing frame failed", "error", err)
			}
			// Unblocks the reader.
			socket.Close()
			return false
		}
		return true
	}

	for {
		select {
		case frame := <-acks:
			if !send(frame) {
				return
			}
		case event := <-connection.Events():
			if connection.TakeResync() {
				logger.Warn("channel: client fell behind, requesting resync",
					"project_id", connection.ProjectID(),
				)
				resync, _ := json.Marshal(map[string]string{"projectId": connection.ProjectID()})
				if !send(pushFrame{Event: realtime.EventResync, Data: resync}) {
					return
				}
			}
			if !send(pushFrame{Event: event.Name, Data: event.Data}) {
				return
			}
		case <-connection.Done():
			for {
				select {
				case frame := <-acks:
					if !send(frame) {
						return
					}
				default:
					return
				}
			}
		}
	}
}
