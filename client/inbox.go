package client

import (
	"sort"
	"sync"

	"github.com/prabidush11/Web-Development/pkg/types"
)

// Action tells the caller what to do after a pushed message was applied to
// the inbox.
type Action int

const (
	// ActionNone means the message needs no follow-up.
	ActionNone Action = iota
	// ActionMarkSeen means the conversation is open and the message should
	// be marked seen on the server.
	ActionMarkSeen
	// ActionCountedUnseen means the message was counted as unseen.
	ActionCountedUnseen
)

func (a Action) String() string {
	switch a {
	case ActionMarkSeen:
		return "mark-seen"
	case ActionCountedUnseen:
		return "counted-unseen"
	default:
		return "none"
	}
}

// Inbox is the recipient-side view state of one signed-in user: which
// conversation is open, its messages, unseen counts per sender and the
// online set. It is safe for concurrent use.
type Inbox struct {
	self string

	mu       sync.Mutex
	selected string
	messages []types.Message
	unseen   map[string]int64
	online   map[string]struct{}
}

// NewInbox creates the view state for selfID.
func NewInbox(selfID string) *Inbox {
	return &Inbox{
		self:   selfID,
		unseen: make(map[string]int64),
		online: make(map[string]struct{}),
	}
}

// Select opens the conversation with peerID. Its unseen count drops to zero
// immediately and the message list is cleared until SetHistory fills it.
func (in *Inbox) Select(peerID string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.selected = peerID
	in.messages = nil
	delete(in.unseen, peerID)
}

// Deselect closes the open conversation.
func (in *Inbox) Deselect() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.selected = ""
	in.messages = nil
}

// Selected returns the open conversation's peer, or "".
func (in *Inbox) Selected() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.selected
}

// SetHistory replaces the open conversation's messages. Messages pushed
// while the history was loading are kept after it unless the history already
// holds them. A history for a peer that is no longer selected is dropped and
// false is returned.
func (in *Inbox) SetHistory(peerID string, messages []types.Message) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if peerID != in.selected {
		return false
	}

	loaded := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		loaded[m.ID] = struct{}{}
	}
	merged := append([]types.Message(nil), messages...)
	for _, m := range in.messages {
		if _, ok := loaded[m.ID]; !ok {
			merged = append(merged, m)
		}
	}
	in.messages = merged
	delete(in.unseen, peerID)
	return true
}

// OnNewMessage applies a pushed message.
//
// A message in the open conversation is appended; when the peer sent it,
// it is shown as seen and ActionMarkSeen is returned. A message from anyone
// else to this user bumps that sender's unseen count by one.
func (in *Inbox) OnNewMessage(msg types.Message) Action {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.selected != "" && in.inOpenConversation(msg) {
		if msg.SenderID == in.selected {
			msg.Seen = true
			in.messages = append(in.messages, msg)
			return ActionMarkSeen
		}
		in.messages = append(in.messages, msg)
		return ActionNone
	}

	if msg.ReceiverID == in.self {
		in.unseen[msg.SenderID]++
		return ActionCountedUnseen
	}
	return ActionNone
}

func (in *Inbox) inOpenConversation(msg types.Message) bool {
	return (msg.SenderID == in.selected && msg.ReceiverID == in.self) ||
		(msg.SenderID == in.self && msg.ReceiverID == in.selected)
}

// AppendSent adds a message this user sent, if its conversation is open.
func (in *Inbox) AppendSent(msg types.Message) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if msg.SenderID == in.self && msg.ReceiverID == in.selected {
		in.messages = append(in.messages, msg)
	}
}

// Messages returns a copy of the open conversation's messages.
func (in *Inbox) Messages() []types.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]types.Message(nil), in.messages...)
}

// ReplaceUnseen replaces all unseen counts with the server's view. The open
// conversation stays at zero.
func (in *Inbox) ReplaceUnseen(counts map[string]int64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.unseen = make(map[string]int64, len(counts))
	for sender, n := range counts {
		if n > 0 && sender != in.selected {
			in.unseen[sender] = n
		}
	}
}

// Unseen returns the unseen count for senderID.
func (in *Inbox) Unseen(senderID string) int64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.unseen[senderID]
}

// UnseenCounts returns a copy of all non-zero unseen counts.
func (in *Inbox) UnseenCounts() map[string]int64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make(map[string]int64, len(in.unseen))
	for k, v := range in.unseen {
		out[k] = v
	}
	return out
}

// SetOnline replaces the online set with a presence snapshot.
func (in *Inbox) SetOnline(userIDs []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.online = make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		in.online[id] = struct{}{}
	}
}

// IsOnline reports whether userID was in the last presence snapshot.
func (in *Inbox) IsOnline(userID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.online[userID]
	return ok
}

// Online returns the last presence snapshot, sorted.
func (in *Inbox) Online() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]string, 0, len(in.online))
	for id := range in.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
