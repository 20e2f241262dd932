package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/pkg/types"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, types.ErrorResponse{Success: false, Message: message})
}

// bindJSON decodes the request body into out. On failure it writes the error
// response and returns false: 413 for a body over the router's cap and 400
// with message for anything else.
func bindJSON(c *gin.Context, out any, message string) bool {
	err := c.ShouldBindJSON(out)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	respondError(c, http.StatusBadRequest, message)
	return false
}

// discardImage removes an upload whose message or profile was never saved.
func discardImage(ctx context.Context, uploader assets.Uploader, url string) {
	if url == "" || uploader == nil {
		return
	}
	if err := uploader.Remove(ctx, url); err != nil {
		logger.Warnf("discard upload %s: %v", url, err)
	}
}

// uploadImage decodes and stores an inline image. On failure it writes the
// error response and returns false.
func uploadImage(c *gin.Context, uploader assets.Uploader, encoded string) (string, bool) {
	if uploader == nil {
		respondError(c, http.StatusServiceUnavailable, "Image uploads are disabled")
		return "", false
	}

	data, err := assets.DecodeImage(encoded)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid image data")
		return "", false
	}

	url, err := uploader.Upload(c.Request.Context(), data)
	switch {
	case errors.Is(err, assets.ErrUnsupportedType):
		respondError(c, http.StatusUnsupportedMediaType, "Only images can be uploaded")
		return "", false
	case errors.Is(err, assets.ErrTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Image is too large")
		return "", false
	case err != nil:
		logger.Errorf("image upload: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return "", false
	}
	return url, true
}
