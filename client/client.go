// Package client is a Go client for the chat server. It wraps the REST API,
// the Socket.IO live connection and the recipient-side inbox state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prabidush11/Web-Development/pkg/types"
)

// defaultHTTPTimeout is the per-request timeout of the REST client.
const defaultHTTPTimeout = 15 * time.Second

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client calls the REST API. It keeps the token returned by Signup or Login
// and sends it on later requests.
type Client struct {
	serverURL  string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	user  types.User
}

// NewClient creates a client for serverURL, e.g. "http://localhost:5000".
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// ServerURL returns the base URL without a trailing slash.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// SetToken replaces the token used for authenticated requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the account the client last authenticated as.
func (c *Client) User() types.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) Signup(ctx context.Context, req types.SignupRequest) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	c.remember(resp)
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	var resp types.AuthResponse
	req := types.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	c.remember(resp)
	return &resp, nil
}

func (c *Client) remember(resp types.AuthResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = resp.Token
	c.user = resp.UserData
}

// Check returns the account the current token belongs to.
func (c *Client) Check(ctx context.Context) (*types.User, error) {
	var resp types.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (*types.User, error) {
	var resp types.UserResponse
	if err := c.do(ctx, http.MethodPut, "/api/auth/update-profile", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Sidebar lists the other users and the unseen counts per sender.
func (c *Client) Sidebar(ctx context.Context) (*types.SidebarResponse, error) {
	var resp types.SidebarResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/users", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History loads the conversation with peerID, oldest first. The server marks
// everything peerID sent as seen.
func (c *Client) History(ctx context.Context, peerID string) ([]types.Message, error) {
	var resp types.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(peerID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Send stores a message for receiverID and returns it as persisted.
func (c *Client) Send(ctx context.Context, receiverID string, req types.SendMessageRequest) (*types.Message, error) {
	var resp types.SendMessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/messages/send/"+url.PathEscape(receiverID), req, &resp); err != nil {
		return nil, err
	}
	return &resp.NewMessage, nil
}

// MarkSeen marks one received message seen. Marking twice is not an error.
func (c *Client) MarkSeen(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPut, "/api/messages/mark/"+url.PathEscape(messageID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return err
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e types.ErrorResponse
		if json.Unmarshal(respBody, &e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(respBody))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
