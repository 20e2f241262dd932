package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/prabidush11/Web-Development/internal/live"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 << 10
	simplePrefixID = "ws-"
)

// SimpleServer is a plain WebSocket endpoint (not Socket.IO) for clients
// that prefer JSON frames of the form {"event": ..., "data": ...}.
type SimpleServer struct {
	verifier TokenVerifier
	users    UserLookup
	marker   SeenMarker
	manager  *live.Manager
	upgrader websocket.Upgrader
}

// NewSimpleServer creates a plain WebSocket server. An empty allowedOrigins
// accepts any origin.
func NewSimpleServer(verifier TokenVerifier, users UserLookup, marker SeenMarker, manager *live.Manager, allowedOrigins []string) *SimpleServer {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &SimpleServer{
		verifier: verifier,
		users:    users,
		marker:   marker,
		manager:  manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// HandleWebSocket authenticates the request, upgrades it and keeps the
// connection bound until the peer goes away.
func (s *SimpleServer) HandleWebSocket(c *gin.Context) {
	auth := HandshakeAuth{
		Token:  c.Query("token"),
		UserID: c.Query("userId"),
	}
	if auth.Token == "" {
		auth.Token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	userID, err := ValidateHandshake(c.Request.Context(), s.verifier, s.users, auth)
	if err != nil {
		if !isRejection(err) {
			logger.Errorf("WebSocket handshake: %v", err)
			c.JSON(http.StatusInternalServerError, types.ErrorResponse{Success: false, Message: "Internal server error"})
			return
		}
		logger.Warnf("WebSocket handshake rejected: %v", err)
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	transport := newWSTransport(ws)
	conn, err := s.manager.Connect(transport, userID)
	if err != nil {
		transport.Close()
		return
	}
	defer s.manager.Disconnect(conn)

	go transport.keepAlive()
	s.readLoop(userID, transport)
}

func (s *SimpleServer) readLoop(userID string, t *wsTransport) {
	t.ws.SetReadLimit(maxFrameSize)
	_ = t.ws.SetReadDeadline(time.Now().Add(pongWait))
	t.ws.SetPongHandler(func(string) error {
		return t.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := t.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("WebSocket read error (user %s): %v", userID, err)
			}
			return
		}

		switch frame.Event {
		case EventMarkSeen:
			s.handleMarkSeen(userID, frame.Data)
		default:
			logger.Tracef("WebSocket ignoring event %q from %s", frame.Event, userID)
		}
	}
}

func (s *SimpleServer) handleMarkSeen(userID string, data json.RawMessage) {
	if s.marker == nil {
		return
	}
	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.MessageID == "" {
		return
	}
	if _, err := s.marker.MarkSeen(context.Background(), userID, req.MessageID); err != nil {
		logger.Debugf("WebSocket markSeen %s for %s: %v", req.MessageID, userID, err)
	}
}

// wsTransport adapts a gorilla connection to live.Transport. Emit is only
// called from the connection's single writer goroutine; control frames may
// be written concurrently.
type wsTransport struct {
	id   string
	ws   *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSTransport(ws *websocket.Conn) *wsTransport {
	return &wsTransport{
		id:   simplePrefixID + ulid.Make().String(),
		ws:   ws,
		done: make(chan struct{}),
	}
}

func (t *wsTransport) ID() string {
	return t.id
}

func (t *wsTransport) Emit(event string, payload any) error {
	select {
	case <-t.done:
		return errSocketGone
	default:
	}
	if err := t.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.ws.WriteJSON(types.Frame{Event: event, Data: payload})
}

func (t *wsTransport) Close() {
	t.once.Do(func() {
		close(t.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = t.ws.Close()
	})
}

func (t *wsTransport) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := t.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					logger.Debugf("WebSocket ping failed (%s): %v", t.id, err)
				}
				t.Close()
				return
			}
		case <-t.done:
			return
		}
	}
}
