package presence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRedisMirror_Publish runs against a real server when TEST_REDIS_URL is
// set.
func TestRedisMirror_Publish(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	m, err := NewRedisMirror(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	sub := m.client.Subscribe(ctx, ChangedChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	m.Publish([]string{"alice", "bob"})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `["alice","bob"]`, msg.Payload)

	online, err := m.Online(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, online)

	m.Publish(nil)
	require.Eventually(t, func() bool {
		online, err := m.Online(ctx)
		return err == nil && len(online) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
