package types

import "time"

// Live event names

const (
	// EventNewMessage carries a Message to the receiver's live connection.
	EventNewMessage = "newMessage"
	// EventOnlineUsers carries the full list of online user ids.
	EventOnlineUsers = "getOnlineUsers"
)

// Records

// User is the public view of an account. The password hash never leaves the
// store.
type User struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Bio        string    `json:"bio"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Message is a persisted direct message. At least one of Text and Image is
// set.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Common response types

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Auth types

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success  bool   `json:"success"`
	UserData User   `json:"userData"`
	Token    string `json:"token"`
	Message  string `json:"message,omitempty"`
}

type UserResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
	// ProfilePic is a data URL or base64 image; empty keeps the current one.
	ProfilePic string `json:"profilePic,omitempty"`
}

// Message types

type SidebarResponse struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
	// UnseenMessages maps sender id to the number of unseen messages from
	// that sender. Senders with nothing unseen are omitted.
	UnseenMessages map[string]int64 `json:"unseenMessages"`
}

type HistoryResponse struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	Text string `json:"text,omitempty"`
	// Image is a data URL or base64 image.
	Image string `json:"image,omitempty"`
}

type SendMessageResponse struct {
	Success    bool    `json:"success"`
	NewMessage Message `json:"newMessage"`
}

// Live frames

// Frame is the envelope used by the plain WebSocket transport.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
