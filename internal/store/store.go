package store

import (
	"context"
	"errors"

	"github.com/prabidush11/Web-Development/pkg/types"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the caller.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when signing up with an email that is already
	// registered (compared case-insensitively).
	ErrEmailTaken = errors.New("email already registered")
	// ErrEmptyMessage is returned when a message has neither text nor image.
	ErrEmptyMessage = errors.New("message has no text or image")
)

// UserRecord is a user together with the stored password hash.
type UserRecord struct {
	types.User
	PasswordHash string
}

// NewUser holds the fields required to create an account.
type NewUser struct {
	FullName     string
	Email        string
	PasswordHash string
	Bio          string
}

// ProfileUpdate holds editable profile fields. A nil ProfilePic keeps the
// current picture.
type ProfileUpdate struct {
	FullName   string
	Bio        string
	ProfilePic *string
}

// DataStore defines the interface for persistent storage of users and
// messages. Both SQLiteStore and PostgresStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, u NewUser) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	ListUsersExcept(ctx context.Context, id string) ([]types.User, error)
	UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*types.User, error)

	// Message operations
	PersistMessage(ctx context.Context, senderID, receiverID, text, imageURL string) (*types.Message, error)
	// FetchHistory returns every message exchanged between a and b, oldest
	// first.
	FetchHistory(ctx context.Context, a, b string) ([]types.Message, error)
	// BulkMarkSeen marks every unseen message from senderID to receiverID as
	// seen and returns how many changed.
	BulkMarkSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	// MarkSeenByID marks one message seen. changed is false when it was
	// already seen. ErrNotFound is returned when the message does not exist
	// or receiverID is not its receiver.
	MarkSeenByID(ctx context.Context, id, receiverID string) (changed bool, err error)
	// CountUnseen returns unseen message counts per sender for receiverID.
	// Senders with no unseen messages are omitted.
	CountUnseen(ctx context.Context, receiverID string) (map[string]int64, error)
}
