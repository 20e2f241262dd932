package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/prabidush11/Web-Development/internal/live"
	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/pkg/types"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newSimpleTestServer(t *testing.T) (*httptest.Server, *live.Manager, func(user string) string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := newTestJWT(t)
	users := fakeUsers{known: map[string]bool{"alice": true, "bob": true}}
	manager := live.NewManager(presence.NewRegistry())
	marker := &fakeMarker{seen: map[string]bool{}}

	router := gin.New()
	router.GET("/ws", NewSimpleServer(jwt, users, marker, manager, nil).HandleWebSocket)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	tokenFor := func(user string) string {
		token, err := jwt.CreateToken(user)
		require.NoError(t, err)
		return token
	}
	return srv, manager, tokenFor
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readOnline(t *testing.T, ws *websocket.Conn) []string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wireFrame
	require.NoError(t, ws.ReadJSON(&frame))
	require.Equal(t, types.EventOnlineUsers, frame.Event)
	var online []string
	require.NoError(t, json.Unmarshal(frame.Data, &online))
	return online
}

func TestSimpleServer_PresenceOverWebSocket(t *testing.T) {
	srv, manager, tokenFor := newSimpleTestServer(t)

	alice := dialWS(t, srv, "token="+tokenFor("alice"))
	require.Equal(t, []string{"alice"}, readOnline(t, alice))

	bob := dialWS(t, srv, "token="+tokenFor("bob")+"&userId=bob")
	want := []string{"alice", "bob"}
	sort.Strings(want)
	require.Equal(t, want, readOnline(t, alice))
	require.Equal(t, want, readOnline(t, bob))

	require.NoError(t, bob.Close())
	require.Equal(t, []string{"alice"}, readOnline(t, alice))
	require.Eventually(t, func() bool {
		_, ok := manager.Registry().Lookup("bob")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSimpleServer_NewMessageFrame(t *testing.T) {
	srv, manager, tokenFor := newSimpleTestServer(t)

	bob := dialWS(t, srv, "token="+tokenFor("bob"))
	readOnline(t, bob)

	h, ok := manager.Registry().Lookup("bob")
	require.True(t, ok)
	msg := types.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	require.NoError(t, h.Push(types.EventNewMessage, msg))

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wireFrame
	require.NoError(t, bob.ReadJSON(&frame))
	require.Equal(t, types.EventNewMessage, frame.Event)

	var got types.Message
	require.NoError(t, json.Unmarshal(frame.Data, &got))
	require.Equal(t, msg, got)
}

func TestSimpleServer_RejectsBadHandshake(t *testing.T) {
	srv, _, tokenFor := newSimpleTestServer(t)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?"

	for _, query := range []string{
		"",
		"token=garbage",
		"token=" + tokenFor("alice") + "&userId=bob",
	} {
		_, resp, err := websocket.DefaultDialer.Dial(base+query, nil)
		require.Error(t, err, query)
		require.NotNil(t, resp, query)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, query)
	}
}

func TestSimpleServer_StoreFailureIsServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := newTestJWT(t)
	users := fakeUsers{err: errors.New("connection refused")}
	manager := live.NewManager(presence.NewRegistry())

	router := gin.New()
	router.GET("/ws", NewSimpleServer(jwt, users, nil, manager, nil).HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	token, err := jwt.CreateToken("alice")
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Zero(t, manager.Registry().Len())
}
