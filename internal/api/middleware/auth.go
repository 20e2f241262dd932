package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// TokenCookie is the cookie a browser client may carry the token in.
const TokenCookie = "token"

const (
	userIDKey = "userID"
	userKey   = "user"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*crypto.Claims, error)
}

// UserGetter loads the account a token belongs to.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
}

// AuthMiddleware validates the request token and loads its user. The token is
// read from "Authorization: Bearer", the bare "token" header, or the token
// cookie, in that order.
func AuthMiddleware(verifier TokenVerifier, users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Not authorized, invalid token")
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				abort(c, http.StatusUnauthorized, "User not found")
				return
			}
			logger.Errorf("auth: load user %s: %v", claims.Subject, err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if token := c.GetHeader("token"); token != "" {
		return token
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, types.ErrorResponse{Success: false, Message: message})
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	return userID.(string), true
}

// GetUser returns the authenticated user loaded by AuthMiddleware.
func GetUser(c *gin.Context) (*types.User, bool) {
	user, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	return user.(*types.User), true
}
