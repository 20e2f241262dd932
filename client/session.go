package client

import (
	"context"
	"errors"
	"time"

	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/pkg/types"
)

const markSeenTimeout = 10 * time.Second

// API is the part of the REST client a Session uses.
type API interface {
	Sidebar(ctx context.Context) (*types.SidebarResponse, error)
	History(ctx context.Context, peerID string) ([]types.Message, error)
	Send(ctx context.Context, receiverID string, req types.SendMessageRequest) (*types.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
}

// ErrNoConversation is returned when no conversation is open, or when the
// conversation being opened was switched away from.
var ErrNoConversation = errors.New("no conversation selected")

// Session ties the REST API, live events and the inbox together for one
// signed-in user.
type Session struct {
	api   API
	inbox *Inbox
}

// NewSession creates a session for selfID.
func NewSession(api API, selfID string) *Session {
	return &Session{
		api:   api,
		inbox: NewInbox(selfID),
	}
}

// Inbox returns the session's view state.
func (s *Session) Inbox() *Inbox {
	return s.inbox
}

// Attach routes live's events into the session. It must be called before
// live.Connect.
func (s *Session) Attach(live *Live) {
	live.OnNewMessage(s.HandleNewMessage)
	live.OnOnlineUsers(s.inbox.SetOnline)
}

// HandleNewMessage applies a pushed message and marks it seen when its
// conversation is open. The server call runs in the background so the live
// event loop is never held up by it. A missing message is not an error here.
func (s *Session) HandleNewMessage(msg types.Message) {
	if s.inbox.OnNewMessage(msg) != ActionMarkSeen {
		return
	}

	go s.markSeen(msg.ID)
}

func (s *Session) markSeen(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), markSeenTimeout)
	defer cancel()
	if err := s.api.MarkSeen(ctx, messageID); err != nil && !errors.Is(err, ErrNotFound) {
		logger.Warnf("mark %s seen: %v", messageID, err)
	}
}

// Refresh loads the sidebar and replaces the unseen counts.
func (s *Session) Refresh(ctx context.Context) ([]types.User, error) {
	resp, err := s.api.Sidebar(ctx)
	if err != nil {
		return nil, err
	}
	s.inbox.ReplaceUnseen(resp.UnseenMessages)
	return resp.Users, nil
}

// Open selects peerID and loads the conversation. Loading it marks the
// peer's messages seen on the server. ErrNoConversation is returned when
// another conversation was selected before the history arrived.
func (s *Session) Open(ctx context.Context, peerID string) ([]types.Message, error) {
	s.inbox.Select(peerID)
	messages, err := s.api.History(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if !s.inbox.SetHistory(peerID, messages) {
		return nil, ErrNoConversation
	}
	return s.inbox.Messages(), nil
}

// Send sends to the open conversation.
func (s *Session) Send(ctx context.Context, req types.SendMessageRequest) (*types.Message, error) {
	peerID := s.inbox.Selected()
	if peerID == "" {
		return nil, ErrNoConversation
	}
	msg, err := s.api.Send(ctx, peerID, req)
	if err != nil {
		return nil, err
	}
	s.inbox.AppendSent(*msg)
	return msg, nil
}
