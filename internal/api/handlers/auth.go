package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prabidush11/Web-Development/internal/api/middleware"
	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// UserStore is the subset of the store used by the auth endpoints.
type UserStore interface {
	CreateUser(ctx context.Context, u store.NewUser) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.UserRecord, error)
	UpdateProfile(ctx context.Context, id string, u store.ProfileUpdate) (*types.User, error)
}

// TokenIssuer signs tokens for users.
type TokenIssuer interface {
	CreateToken(userID string) (string, error)
}

type AuthHandler struct {
	users    UserStore
	tokens   TokenIssuer
	uploader assets.Uploader
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, uploader assets.Uploader) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		uploader: uploader,
	}
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req types.SignupRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.Password == "" || strings.TrimSpace(req.Bio) == "" {
		respondError(c, http.StatusBadRequest, "Missing Details")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		logger.Errorf("signup: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), store.NewUser{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Bio:          req.Bio,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "Account already exists")
			return
		}
		logger.Errorf("signup: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.tokens.CreateToken(user.ID)
	if err != nil {
		logger.Errorf("signup: issue token: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Infof("user %s signed up", user.ID)
	c.JSON(http.StatusCreated, types.AuthResponse{
		Success:  true,
		UserData: *user,
		Token:    token,
		Message:  "Account created successfully",
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if !bindJSON(c, &req, "Missing Details") {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "Missing Details")
		return
	}

	rec, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.Errorf("login: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok, err := crypto.CheckPassword(rec.PasswordHash, req.Password)
	if err != nil || !ok {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.CreateToken(rec.ID)
	if err != nil {
		logger.Errorf("login: issue token: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, types.AuthResponse{
		Success:  true,
		UserData: rec.User,
		Token:    token,
		Message:  "Login successful",
	})
}

// Check handles GET /api/auth/check
func (h *AuthHandler) Check(c *gin.Context) {
	user, _ := middleware.GetUser(c)
	c.JSON(http.StatusOK, types.UserResponse{Success: true, User: *user})
}

// UpdateProfile handles PUT /api/auth/update-profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req types.UpdateProfileRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		respondError(c, http.StatusBadRequest, "Full name is required")
		return
	}

	update := store.ProfileUpdate{FullName: req.FullName, Bio: req.Bio}
	if req.ProfilePic != "" {
		url, ok := uploadImage(c, h.uploader, req.ProfilePic)
		if !ok {
			return
		}
		update.ProfilePic = &url
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		if update.ProfilePic != nil {
			discardImage(context.WithoutCancel(c.Request.Context()), h.uploader, *update.ProfilePic)
		}
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		logger.Errorf("update profile %s: %v", userID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, types.UserResponse{Success: true, User: *user})
}
