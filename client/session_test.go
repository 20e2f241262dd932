package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prabidush11/Web-Development/pkg/types"
)

type fakeAPI struct {
	history   map[string][]types.Message
	onHistory func(peerID string)
	sidebar   *types.SidebarResponse
	markErr   error
	markGate  chan struct{}
	sent      []types.Message
	sendErr   error

	mu     sync.Mutex
	marked []string
}

func (f *fakeAPI) Sidebar(context.Context) (*types.SidebarResponse, error) {
	return f.sidebar, nil
}

func (f *fakeAPI) History(_ context.Context, peerID string) ([]types.Message, error) {
	if f.onHistory != nil {
		f.onHistory(peerID)
	}
	return f.history[peerID], nil
}

func (f *fakeAPI) Send(_ context.Context, receiverID string, req types.SendMessageRequest) (*types.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	m := types.Message{ID: "s1", SenderID: "bob", ReceiverID: receiverID, Text: req.Text}
	f.sent = append(f.sent, m)
	return &m, nil
}

func (f *fakeAPI) MarkSeen(_ context.Context, messageID string) error {
	if f.markGate != nil {
		<-f.markGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, messageID)
	return f.markErr
}

func (f *fakeAPI) markedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.marked...)
}

func requireMarked(t *testing.T, api *fakeAPI, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return equalIDs(api.markedIDs(), want)
	}, time.Second, 5*time.Millisecond)
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	got = append([]string(nil), got...)
	want = append([]string(nil), want...)
	sort.Strings(got)
	sort.Strings(want)
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSession_PushToOpenConversationCallsMarkSeen(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api, "bob")

	_, err := s.Open(context.Background(), "alice")
	require.NoError(t, err)

	s.HandleNewMessage(msg("m1", "alice", "bob"))
	requireMarked(t, api, "m1")

	s.HandleNewMessage(msg("m2", "carol", "bob"))
	require.Equal(t, int64(1), s.Inbox().Unseen("carol"))
	require.Never(t, func() bool {
		return len(api.markedIDs()) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSession_MarkSeenNotFoundIsTolerated(t *testing.T) {
	api := &fakeAPI{markErr: &APIError{Status: 404, Message: "Message not found"}}
	s := NewSession(api, "bob")
	s.Inbox().Select("alice")

	s.HandleNewMessage(msg("gone", "alice", "bob"))
	requireMarked(t, api, "gone")
	require.Len(t, s.Inbox().Messages(), 1)
}

func TestSession_HandleNewMessageDoesNotWaitForMarkSeen(t *testing.T) {
	api := &fakeAPI{markGate: make(chan struct{})}
	s := NewSession(api, "bob")
	s.Inbox().Select("alice")

	done := make(chan struct{})
	go func() {
		s.HandleNewMessage(msg("m1", "alice", "bob"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleNewMessage blocked on the mark-seen call")
	}
	require.Len(t, s.Inbox().Messages(), 1)

	close(api.markGate)
	requireMarked(t, api, "m1")
}

func TestSession_OpenKeepsMessagesPushedWhileLoading(t *testing.T) {
	api := &fakeAPI{
		history: map[string][]types.Message{
			"alice": {msg("m1", "alice", "bob"), msg("m2", "alice", "bob")},
		},
	}
	s := NewSession(api, "bob")
	api.onHistory = func(string) {
		// m2 is pushed and also in the loaded history; m3 arrives after the
		// server built the history.
		s.HandleNewMessage(msg("m2", "alice", "bob"))
		s.HandleNewMessage(msg("m3", "alice", "bob"))
	}

	messages, err := s.Open(context.Background(), "alice")
	require.NoError(t, err)
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"m1", "m2", "m3"}, ids)
	require.True(t, messages[2].Seen)
	requireMarked(t, api, "m2", "m3")
}

func TestSession_OpenSwitchedAwayReturnsNoConversation(t *testing.T) {
	api := &fakeAPI{
		history: map[string][]types.Message{
			"alice": {msg("m1", "alice", "bob")},
		},
	}
	s := NewSession(api, "bob")
	api.onHistory = func(peerID string) {
		if peerID == "alice" {
			s.Inbox().Select("carol")
		}
	}

	messages, err := s.Open(context.Background(), "alice")
	require.ErrorIs(t, err, ErrNoConversation)
	require.Nil(t, messages)
	require.Equal(t, "carol", s.Inbox().Selected())
	require.Empty(t, s.Inbox().Messages())
}

func TestSession_OpenLoadsHistoryAndResetsCount(t *testing.T) {
	api := &fakeAPI{
		history: map[string][]types.Message{
			"alice": {msg("m1", "alice", "bob"), msg("m2", "bob", "alice")},
		},
		sidebar: &types.SidebarResponse{
			Success:        true,
			Users:          []types.User{{ID: "alice"}},
			UnseenMessages: map[string]int64{"alice": 1},
		},
	}
	s := NewSession(api, "bob")

	users, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, int64(1), s.Inbox().Unseen("alice"))

	messages, err := s.Open(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, int64(0), s.Inbox().Unseen("alice"))
}

func TestSession_Send(t *testing.T) {
	api := &fakeAPI{}
	s := NewSession(api, "bob")

	_, err := s.Send(context.Background(), types.SendMessageRequest{Text: "hi"})
	require.ErrorIs(t, err, ErrNoConversation)

	s.Inbox().Select("alice")
	sent, err := s.Send(context.Background(), types.SendMessageRequest{Text: "hi"})
	require.NoError(t, err)
	require.Equal(t, "alice", sent.ReceiverID)
	require.Len(t, s.Inbox().Messages(), 1)

	api.sendErr = errors.New("offline")
	_, err = s.Send(context.Background(), types.SendMessageRequest{Text: "again"})
	require.Error(t, err)
	require.Len(t, s.Inbox().Messages(), 1)
}
