package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/clients/socket/v3"
	sio "github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/pkg/types"
)

const (
	socketIOPath  = "/socket.io"
	eventMarkSeen = "markSeen"
)

var errNotConnected = errors.New("not connected")

// Live is a Socket.IO connection that delivers newMessage and
// getOnlineUsers events.
type Live struct {
	serverURL string
	token     string
	userID    string

	mu        sync.RWMutex
	socket    *socket.Socket
	connected bool
	onMessage func(types.Message)
	onOnline  func([]string)
	closeOnce sync.Once
}

// NewLive prepares a live connection. userID is sent alongside the token and
// must match it.
func NewLive(serverURL, token, userID string) *Live {
	return &Live{
		serverURL: serverURL,
		token:     token,
		userID:    userID,
	}
}

// OnNewMessage registers the handler for pushed messages. It must be set
// before Connect.
func (l *Live) OnNewMessage(fn func(types.Message)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onMessage = fn
}

// OnOnlineUsers registers the handler for presence snapshots. It must be set
// before Connect.
func (l *Live) OnOnlineUsers(fn func([]string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onOnline = fn
}

// Connect starts the Socket.IO connection.
func (l *Live) Connect() error {
	opts := socket.DefaultOptions()
	opts.SetPath(socketIOPath)
	opts.SetTransports(sio.NewSet(socket.Polling, socket.WebSocket))
	opts.SetAuth(map[string]any{
		"token":  l.token,
		"userId": l.userID,
	})

	sock, err := socket.Connect(l.serverURL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	l.mu.Lock()
	l.socket = sock
	l.mu.Unlock()

	sock.On(sio.EventName("connect"), func(args ...any) {
		l.setConnected(true)
		logger.Debugf("live connected (socket %s)", sock.Id())
	})

	sock.On(sio.EventName("disconnect"), func(args ...any) {
		l.setConnected(false)
		reason := ""
		if len(args) > 0 {
			reason, _ = args[0].(string)
		}
		logger.Debugf("live disconnected: %s", reason)
	})

	sock.On(sio.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			logger.Warnf("live connection error: %v", args[0])
		}
	})

	sock.On(sio.EventName(types.EventNewMessage), func(args ...any) {
		if len(args) == 0 {
			return
		}
		var msg types.Message
		if err := decode(args[0], &msg); err != nil {
			logger.Warnf("live: bad %s payload: %v", types.EventNewMessage, err)
			return
		}
		l.mu.RLock()
		fn := l.onMessage
		l.mu.RUnlock()
		if fn != nil {
			fn(msg)
		}
	})

	sock.On(sio.EventName(types.EventOnlineUsers), func(args ...any) {
		if len(args) == 0 {
			return
		}
		var online []string
		if err := decode(args[0], &online); err != nil {
			logger.Warnf("live: bad %s payload: %v", types.EventOnlineUsers, err)
			return
		}
		l.mu.RLock()
		fn := l.onOnline
		l.mu.RUnlock()
		if fn != nil {
			fn(online)
		}
	})

	return nil
}

func (l *Live) setConnected(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = v
}

// IsConnected reports whether the socket is currently connected.
func (l *Live) IsConnected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// WaitForConnect waits for the socket to report connected or times out.
func (l *Live) WaitForConnect(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if l.IsConnected() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return l.IsConnected()
}

// MarkSeen marks a received message seen over the live connection and waits
// for the server's ack.
func (l *Live) MarkSeen(messageID string, timeout time.Duration) error {
	l.mu.RLock()
	sock := l.socket
	l.mu.RUnlock()
	if sock == nil {
		return errNotConnected
	}

	result := make(chan error, 1)
	sock.Emit(eventMarkSeen, map[string]any{"messageId": messageID}, func(args []any, err error) {
		if err != nil {
			result <- err
			return
		}
		var ack struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if len(args) == 0 || decode(args[0], &ack) != nil {
			result <- errors.New("missing ack")
			return
		}
		if !ack.Success {
			if ack.Message == "Message not found" {
				result <- ErrNotFound
				return
			}
			result <- fmt.Errorf("markSeen failed: %s", ack.Message)
			return
		}
		result <- nil
	})

	select {
	case err := <-result:
		return err
	case <-time.After(timeout):
		return errors.New("ack timeout")
	}
}

// Close disconnects the socket.
func (l *Live) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.socket != nil {
			l.socket.Disconnect()
			l.socket = nil
		}
		l.connected = false
	})
	return nil
}

func decode(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
