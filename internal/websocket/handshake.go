package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/pkg/types"
)

var (
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrIdentityMismatch = errors.New("claimed user does not match token")
	ErrUnknownUser      = errors.New("user not found")
)

// isRejection reports whether err refuses the client's credentials, as
// opposed to a server-side failure while checking them.
func isRejection(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrIdentityMismatch) ||
		errors.Is(err, ErrUnknownUser)
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*crypto.Claims, error)
}

// UserLookup confirms that a token subject still has an account.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
}

// SeenMarker marks a single received message as seen.
type SeenMarker interface {
	MarkSeen(ctx context.Context, viewerID, messageID string) (bool, error)
}

// HandshakeAuth is the credential payload a client presents when opening a
// live connection.
type HandshakeAuth struct {
	Token string `json:"token"`
	// UserID is optional. When present it must equal the token subject.
	UserID string `json:"userId"`
}

// ValidateHandshake verifies the token and returns the user id the
// connection may be bound to. The identity always comes from the token; a
// claimed user id is only cross-checked.
func ValidateHandshake(ctx context.Context, verifier TokenVerifier, users UserLookup, auth HandshakeAuth) (string, error) {
	if strings.TrimSpace(auth.Token) == "" {
		return "", ErrMissingToken
	}

	claims, err := verifier.VerifyToken(auth.Token)
	if err != nil {
		return "", ErrInvalidToken
	}
	userID := claims.Subject

	if auth.UserID != "" && auth.UserID != userID {
		return "", ErrIdentityMismatch
	}

	if users != nil {
		if _, err := users.GetUserByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", ErrUnknownUser
			}
			return "", fmt.Errorf("load user %s: %w", userID, err)
		}
	}
	return userID, nil
}

// handshakeFromRequest collects credentials from a decoded auth map and the
// request URL. Values in auth win over query parameters.
func handshakeFromRequest(authMap map[string]any, rawURL string) HandshakeAuth {
	var auth HandshakeAuth
	if len(authMap) > 0 {
		_ = decodeAny(authMap, &auth)
	}

	if u, err := url.Parse(rawURL); err == nil {
		query := u.Query()
		if auth.Token == "" {
			auth.Token = query.Get("token")
		}
		if auth.UserID == "" {
			auth.UserID = query.Get("userId")
		}
	}
	return auth
}

func decodeAny(input any, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
