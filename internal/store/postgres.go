package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prabidush11/Web-Development/pkg/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	bio TEXT NOT NULL DEFAULT '',
	profile_pic TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	receiver_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text TEXT,
	image_url TEXT,
	seen BOOLEAN NOT NULL DEFAULT FALSE,
	created_at BIGINT NOT NULL,
	CHECK (text IS NOT NULL OR image_url IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (sender_id, receiver_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_unseen ON messages (receiver_id) WHERE NOT seen;
`

const (
	userColumns    = `id, email, full_name, password_hash, bio, profile_pic, created_at, updated_at`
	messageColumns = `id, sender_id, receiver_id, COALESCE(text, ''), COALESCE(image_url, ''), seen, created_at`
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
	seq  *sequencer
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// makes sure the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}

	return &PostgresStore{pool: pool, seq: newSequencer()}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u NewUser) (*types.User, error) {
	now := time.Now().UnixMilli()
	rec, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, bio, profile_pic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $6)
		RETURNING `+userColumns,
		newUserID(), strings.TrimSpace(u.Email), u.FullName, u.PasswordHash, u.Bio, now,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &rec.User, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	rec, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &rec.User, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*UserRecord, error) {
	rec, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListUsersExcept(ctx context.Context, id string) ([]types.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id <> $1 ORDER BY full_name, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, rec.User)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, u ProfileUpdate) (*types.User, error) {
	rec, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name = $1, bio = $2, profile_pic = COALESCE($3, profile_pic), updated_at = $4
		WHERE id = $5
		RETURNING `+userColumns,
		u.FullName, u.Bio, u.ProfilePic, time.Now().UnixMilli(), id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &rec.User, nil
}

func (s *PostgresStore) PersistMessage(ctx context.Context, senderID, receiverID, text, imageURL string) (*types.Message, error) {
	if text == "" && imageURL == "" {
		return nil, ErrEmptyMessage
	}
	id, createdAt := s.seq.next()
	msg, err := scanMessage(s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, text, image_url, seen, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), FALSE, $6)
		RETURNING `+messageColumns,
		id, senderID, receiverID, text, imageURL, createdAt,
	))
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) FetchHistory(ctx context.Context, a, b string) ([]types.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer rows.Close()

	messages := []types.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return messages, nil
}

func (s *PostgresStore) BulkMarkSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET seen = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND NOT seen
	`, senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("bulk mark seen: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) MarkSeenByID(ctx context.Context, id, receiverID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE messages SET seen = TRUE
		WHERE id = $1 AND receiver_id = $2 AND NOT seen
	`, id, receiverID)
	if err != nil {
		return false, fmt.Errorf("mark seen: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var owner string
	err = s.pool.QueryRow(ctx, `SELECT receiver_id FROM messages WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("get message: %w", err)
	}
	if owner != receiverID {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresStore) CountUnseen(ctx context.Context, receiverID string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sender_id, COUNT(*) FROM messages
		WHERE receiver_id = $1 AND NOT seen
		GROUP BY sender_id
	`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("count unseen: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var sender string
		var n int64
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, fmt.Errorf("scan unseen count: %w", err)
		}
		if n > 0 {
			counts[sender] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count unseen: %w", err)
	}
	return counts, nil
}

func scanUser(row pgx.Row) (*UserRecord, error) {
	var rec UserRecord
	var createdAt, updatedAt int64
	err := row.Scan(
		&rec.ID,
		&rec.Email,
		&rec.FullName,
		&rec.PasswordHash,
		&rec.Bio,
		&rec.ProfilePic,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return &rec, nil
}

func scanMessage(row pgx.Row) (*types.Message, error) {
	var msg types.Message
	var createdAt int64
	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&msg.Image,
		&msg.Seen,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = fromMillis(createdAt)
	return &msg, nil
}

var _ DataStore = (*PostgresStore)(nil)
