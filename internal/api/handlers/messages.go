package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prabidush11/Web-Development/internal/api/middleware"
	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/delivery"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/metrics"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/pkg/types"
)

// MessageStore is the subset of the store used by the message endpoints.
type MessageStore interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	ListUsersExcept(ctx context.Context, id string) ([]types.User, error)
	PersistMessage(ctx context.Context, senderID, receiverID, text, imageURL string) (*types.Message, error)
}

// SeenReconciler owns the seen transitions.
type SeenReconciler interface {
	History(ctx context.Context, viewerID, peerID string) ([]types.Message, error)
	MarkSeen(ctx context.Context, viewerID, messageID string) (bool, error)
	UnseenCounts(ctx context.Context, viewerID string) (map[string]int64, error)
}

// Dispatcher delivers persisted messages to live connections.
type Dispatcher interface {
	Dispatch(msg types.Message) delivery.Outcome
}

type MessageHandler struct {
	store      MessageStore
	seen       SeenReconciler
	dispatcher Dispatcher
	uploader   assets.Uploader
}

func NewMessageHandler(store MessageStore, seen SeenReconciler, dispatcher Dispatcher, uploader assets.Uploader) *MessageHandler {
	return &MessageHandler{
		store:      store,
		seen:       seen,
		dispatcher: dispatcher,
		uploader:   uploader,
	}
}

// ListUsers handles GET /api/messages/users
func (h *MessageHandler) ListUsers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	ctx := c.Request.Context()

	users, err := h.store.ListUsersExcept(ctx, userID)
	if err != nil {
		logger.Errorf("list users for %s: %v", userID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	unseen, err := h.seen.UnseenCounts(ctx, userID)
	if err != nil {
		logger.Errorf("unseen counts for %s: %v", userID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if users == nil {
		users = []types.User{}
	}
	c.JSON(http.StatusOK, types.SidebarResponse{
		Success:        true,
		Users:          users,
		UnseenMessages: unseen,
	})
}

// GetMessages handles GET /api/messages/:id
//
// Opening a conversation marks everything the peer sent as seen.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	peerID := c.Param("id")

	messages, err := h.seen.History(c.Request.Context(), userID, peerID)
	if err != nil {
		logger.Errorf("history %s<->%s: %v", userID, peerID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if messages == nil {
		messages = []types.Message{}
	}
	c.JSON(http.StatusOK, types.HistoryResponse{Success: true, Messages: messages})
}

// MarkSeen handles PUT /api/messages/mark/:id
func (h *MessageHandler) MarkSeen(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	messageID := c.Param("id")

	if _, err := h.seen.MarkSeen(c.Request.Context(), userID, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Message not found")
			return
		}
		logger.Errorf("mark seen %s for %s: %v", messageID, userID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}

// SendMessage handles POST /api/messages/send/:id
//
// The message is stored first; only a committed message is dispatched.
// Delivery problems never fail the request.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, _ := middleware.GetUserID(c)
	receiverID := c.Param("id")
	ctx := c.Request.Context()

	var req types.SendMessageRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" && req.Image == "" {
		respondError(c, http.StatusBadRequest, "Message must have text or an image")
		return
	}

	if _, err := h.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Receiver not found")
			return
		}
		logger.Errorf("send: load receiver %s: %v", receiverID, err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	var imageURL string
	if req.Image != "" {
		url, ok := uploadImage(c, h.uploader, req.Image)
		if !ok {
			return
		}
		imageURL = url
	}

	msg, err := h.store.PersistMessage(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		logger.Errorf("send %s->%s: %v", senderID, receiverID, err)
		discardImage(context.WithoutCancel(ctx), h.uploader, imageURL)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	metrics.MessagesPersisted.Inc()

	h.dispatcher.Dispatch(*msg)

	c.JSON(http.StatusCreated, types.SendMessageResponse{Success: true, NewMessage: *msg})
}
