package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/prabidush11/Web-Development/internal/api"
	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/delivery"
	"github.com/prabidush11/Web-Development/internal/live"
	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/internal/seen"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/pkg/types"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := store.NewSQLiteStore(filepath.Join(dir, "chat.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	jwt, err := crypto.NewJWTManager([]byte("client-test"), time.Hour)
	require.NoError(t, err)

	uploader, err := assets.NewLocalStore(filepath.Join(dir, "uploads"), "", 1<<20)
	require.NoError(t, err)

	manager := live.NewManager(presence.NewRegistry())
	t.Cleanup(manager.Shutdown)

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store:      db,
		JWT:        jwt,
		Uploader:   uploader,
		Seen:       seen.NewReconciler(db),
		Dispatcher: delivery.NewDispatcher(manager.Registry()),
		UploadDir:  uploader.Dir(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signup(t *testing.T, c *Client, name, email string) types.User {
	t.Helper()
	resp, err := c.Signup(context.Background(), types.SignupRequest{
		FullName: name,
		Email:    email,
		Password: "password1",
		Bio:      "bio",
	})
	require.NoError(t, err)
	require.Equal(t, resp.Token, c.Token())
	require.Equal(t, resp.UserData.ID, c.User().ID)
	return resp.UserData
}

func TestClient_OfflineMessageFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	aliceClient := NewClient(srv.URL + "/")
	bobClient := NewClient(srv.URL)
	alice := signup(t, aliceClient, "Alice", "alice@example.com")
	bob := signup(t, bobClient, "Bob", "bob@example.com")

	sent, err := aliceClient.Send(ctx, bob.ID, types.SendMessageRequest{Text: "hi"})
	require.NoError(t, err)
	require.False(t, sent.Seen)

	session := NewSession(bobClient, bob.ID)
	users, err := session.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, int64(1), session.Inbox().Unseen(alice.ID))

	messages, err := session.Open(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.True(t, messages[0].Seen)
	require.Equal(t, int64(0), session.Inbox().Unseen(alice.ID))

	_, err = session.Refresh(ctx)
	require.NoError(t, err)
	require.Empty(t, session.Inbox().UnseenCounts())
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	c := NewClient(srv.URL)
	_, err := c.Check(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	signup(t, c, "Alice", "alice@example.com")
	_, err = c.Login(ctx, "alice@example.com", "nope")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	require.ErrorIs(t, c.MarkSeen(ctx, "missing"), ErrNotFound)

	_, err = c.Send(ctx, "nobody", types.SendMessageRequest{Text: "hi"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_LoginAndProfile(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	signup(t, NewClient(srv.URL), "Alice", "alice@example.com")

	c := NewClient(srv.URL)
	resp, err := c.Login(ctx, "alice@example.com", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	user, err := c.Check(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice", user.FullName)

	user, err = c.UpdateProfile(ctx, types.UpdateProfileRequest{FullName: "Alice B", Bio: "updated"})
	require.NoError(t, err)
	require.Equal(t, "Alice B", user.FullName)
	require.Equal(t, "updated", user.Bio)
}
