package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	socket "github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/prabidush11/Web-Development/internal/live"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/store"
)

const (
	// SocketIOPath is where Socket.IO clients connect by default.
	SocketIOPath = "/socket.io"

	// EventMarkSeen lets a client mark one received message seen over the
	// live connection instead of the REST endpoint.
	EventMarkSeen = "markSeen"

	socketIOPingInterval = 25 * time.Second
	socketIOPingTimeout  = 20 * time.Second
)

var errSocketGone = errors.New("socket disconnected")

// SocketIOServer binds Socket.IO connections to the live connection manager.
type SocketIOServer struct {
	verifier TokenVerifier
	users    UserLookup
	marker   SeenMarker
	manager  *live.Manager
	server   *socket.Server
}

// NewSocketIOServer creates a Socket.IO server. marker may be nil, in which
// case markSeen events are rejected.
func NewSocketIOServer(verifier TokenVerifier, users UserLookup, marker SeenMarker, manager *live.Manager) *SocketIOServer {
	opts := socket.DefaultServerOptions()
	opts.SetPingInterval(socketIOPingInterval)
	opts.SetPingTimeout(socketIOPingTimeout)
	opts.SetPath(SocketIOPath)

	s := &SocketIOServer{
		verifier: verifier,
		users:    users,
		marker:   marker,
		manager:  manager,
		server:   socket.NewServer(nil, opts),
	}

	s.server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		s.handleConnection(client)
	})

	return s
}

func (s *SocketIOServer) handleConnection(client *socket.Socket) {
	socketID := string(client.Id())
	logger.Debugf("Socket.IO connection attempt (socket ID: %s)", socketID)

	// The disconnect handler goes in before any blocking work so a client
	// that drops during the handshake or Connect is still released.
	var bound atomic.Pointer[live.Conn]
	var gone atomic.Bool
	client.On("disconnect", func(data ...any) {
		gone.Store(true)
		reason := ""
		if len(data) > 0 {
			reason, _ = data[0].(string)
		}
		logger.Debugf("Socket.IO disconnect (socket %s, reason: %s)", socketID, reason)
		if conn := bound.Load(); conn != nil {
			s.manager.Disconnect(conn)
		}
	})

	handshake := client.Handshake()
	auth := handshakeFromRequest(handshake.Auth, handshake.Url)

	userID, err := ValidateHandshake(context.Background(), s.verifier, s.users, auth)
	if err != nil {
		message := err.Error()
		if isRejection(err) {
			logger.Warnf("Socket.IO handshake rejected (socket %s): %v", socketID, err)
		} else {
			logger.Errorf("Socket.IO handshake (socket %s): %v", socketID, err)
			message = "internal server error"
		}
		client.Emit("error", map[string]string{"message": message})
		client.Disconnect(true)
		return
	}
	if gone.Load() || !client.Connected() {
		logger.Debugf("Socket.IO client %s left during handshake", socketID)
		return
	}

	client.On(EventMarkSeen, func(data ...any) {
		payload, ack := getFirstAnyWithAck(data)
		s.handleMarkSeen(userID, payload, ack)
	})

	conn, err := s.manager.Connect(&socketTransport{socket: client}, userID)
	if err != nil {
		logger.Warnf("Socket.IO connect refused (socket %s): %v", socketID, err)
		client.Disconnect(true)
		return
	}
	bound.Store(conn)
	if gone.Load() || !client.Connected() {
		s.manager.Disconnect(conn)
	}
}

func (s *SocketIOServer) handleMarkSeen(userID string, payload any, ack func(...any)) {
	reply := func(v any) {
		if ack != nil {
			ack(v)
		}
	}
	if s.marker == nil {
		reply(map[string]any{"success": false, "message": "not supported"})
		return
	}

	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := decodeAny(payload, &req); err != nil || req.MessageID == "" {
		reply(map[string]any{"success": false, "message": "messageId is required"})
		return
	}

	changed, err := s.marker.MarkSeen(context.Background(), userID, req.MessageID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		reply(map[string]any{"success": false, "message": "Message not found"})
	case err != nil:
		logger.Errorf("Socket.IO markSeen %s for %s: %v", req.MessageID, userID, err)
		reply(map[string]any{"success": false, "message": "Internal server error"})
	default:
		reply(map[string]any{"success": true, "changed": changed})
	}
}

func getFirstAnyWithAck(data []any) (any, func(...any)) {
	var ack func(...any)
	if len(data) == 0 {
		return nil, nil
	}
	if cb, ok := data[len(data)-1].(func(...any)); ok {
		ack = cb
		data = data[:len(data)-1]
	} else if cb, ok := data[len(data)-1].(socket.Ack); ok {
		ack = func(args ...any) {
			cb(args, nil)
		}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ack
	}
	return data[0], ack
}

// HandleSocketIO creates a Gin handler for Socket.IO. CORS is handled by
// the router.
func (s *SocketIOServer) HandleSocketIO() gin.HandlerFunc {
	httpHandler := s.server.ServeHandler(nil)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		logger.Tracef("Socket.IO request: %s %s", c.Request.Method, c.Request.URL.Path)
		httpHandler.ServeHTTP(c.Writer, c.Request)
	}
}

// Close shuts down the Socket.IO server.
func (s *SocketIOServer) Close() error {
	s.server.Close(nil)
	return nil
}

// socketTransport adapts a Socket.IO socket to live.Transport.
type socketTransport struct {
	socket *socket.Socket
}

func (t *socketTransport) ID() string {
	return string(t.socket.Id())
}

func (t *socketTransport) Emit(event string, payload any) error {
	if !t.socket.Connected() {
		return errSocketGone
	}
	t.socket.Emit(event, payload)
	return nil
}

func (t *socketTransport) Close() {
	t.socket.Disconnect(true)
}
