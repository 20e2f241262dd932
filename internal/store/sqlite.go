package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/prabidush11/Web-Development/internal/database"
	"github.com/prabidush11/Web-Development/internal/models"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db      *database.DB
	queries *models.Queries
	seq     *sequencer
}

// NewSQLiteStore opens (and migrates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{
		db:      db,
		queries: models.New(db),
		seq:     newSequencer(),
	}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u NewUser) (*types.User, error) {
	now := time.Now().UnixMilli()
	row, err := s.queries.CreateUser(ctx, models.CreateUserParams{
		ID:           newUserID(),
		Email:        strings.TrimSpace(u.Email),
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user := userFromRow(row)
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user := userFromRow(row)
	return &user, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	row, err := s.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &UserRecord{User: userFromRow(row), PasswordHash: row.PasswordHash}, nil
}

func (s *SQLiteStore) ListUsersExcept(ctx context.Context, id string) ([]types.User, error) {
	rows, err := s.queries.ListUsersExcept(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]types.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userFromRow(row))
	}
	return users, nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*types.User, error) {
	row, err := s.queries.UpdateUserProfile(ctx, models.UpdateUserProfileParams{
		FullName:   u.FullName,
		Bio:        u.Bio,
		ProfilePic: u.ProfilePic,
		UpdatedAt:  time.Now().UnixMilli(),
		ID:         id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	user := userFromRow(row)
	return &user, nil
}

func (s *SQLiteStore) PersistMessage(ctx context.Context, senderID, receiverID, text, imageURL string) (*types.Message, error) {
	if text == "" && imageURL == "" {
		return nil, ErrEmptyMessage
	}
	id, createdAt := s.seq.next()
	row, err := s.queries.CreateMessage(ctx, models.CreateMessageParams{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       nullString(text),
		ImageUrl:   nullString(imageURL),
		CreatedAt:  createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	msg := messageFromRow(row)
	return &msg, nil
}

func (s *SQLiteStore) FetchHistory(ctx context.Context, a, b string) ([]types.Message, error) {
	rows, err := s.queries.ListConversation(ctx, models.ListConversationParams{UserA: a, UserB: b})
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	messages := make([]types.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageFromRow(row))
	}
	return messages, nil
}

func (s *SQLiteStore) BulkMarkSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	n, err := s.queries.MarkConversationSeen(ctx, models.MarkConversationSeenParams{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
	if err != nil {
		return 0, fmt.Errorf("bulk mark seen: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) MarkSeenByID(ctx context.Context, id, receiverID string) (bool, error) {
	n, err := s.queries.MarkMessageSeen(ctx, models.MarkMessageSeenParams{ID: id, ReceiverID: receiverID})
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	row, err := s.queries.GetMessageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("get message: %w", err)
	}
	if row.ReceiverID != receiverID {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *SQLiteStore) CountUnseen(ctx context.Context, receiverID string) (map[string]int64, error) {
	rows, err := s.queries.CountUnseenBySender(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("count unseen: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		if row.Unseen > 0 {
			counts[row.SenderID] = row.Unseen
		}
	}
	return counts, nil
}

func isSQLiteUnique(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func userFromRow(row models.User) types.User {
	return types.User{
		ID:         row.ID,
		Email:      row.Email,
		FullName:   row.FullName,
		Bio:        row.Bio,
		ProfilePic: row.ProfilePic,
		CreatedAt:  fromMillis(row.CreatedAt),
		UpdatedAt:  fromMillis(row.UpdatedAt),
	}
}

func messageFromRow(row models.Message) types.Message {
	return types.Message{
		ID:         row.ID,
		SenderID:   row.SenderID,
		ReceiverID: row.ReceiverID,
		Text:       row.Text.String,
		Image:      row.ImageUrl.String,
		Seen:       row.Seen != 0,
		CreatedAt:  fromMillis(row.CreatedAt),
	}
}

var _ DataStore = (*SQLiteStore)(nil)
