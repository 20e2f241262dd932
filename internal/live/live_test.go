package live

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/pkg/types"
)

type emitted struct {
	event   string
	payload any
}

type fakeTransport struct {
	id string

	mu     sync.Mutex
	events []emitted

	emitErr error
	// gate, when set, blocks Emit until it is closed. entered receives a
	// value each time Emit starts.
	gate    chan struct{}
	entered chan struct{}

	closed  atomic.Bool
	onClose func()
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{id: id}
}

func (f *fakeTransport) ID() string { return f.id }

func (f *fakeTransport) Emit(event string, payload any) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.emitErr != nil {
		return f.emitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{event: event, payload: payload})
	return nil
}

func (f *fakeTransport) Close() {
	if f.closed.CompareAndSwap(false, true) && f.onClose != nil {
		f.onClose()
	}
}

func (f *fakeTransport) snapshot() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emitted, len(f.events))
	copy(out, f.events)
	return out
}

func waitForEvents(t *testing.T, f *fakeTransport, n int) []emitted {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.snapshot()) >= n
	}, time.Second, 5*time.Millisecond)
	return f.snapshot()
}

func onlineLists(events []emitted) [][]string {
	var lists [][]string
	for _, ev := range events {
		if ev.event == types.EventOnlineUsers {
			lists = append(lists, ev.payload.([]string))
		}
	}
	return lists
}

func TestManager_ConnectBroadcastsToEveryone(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	ta := newFakeTransport("sa")
	tb := newFakeTransport("sb")

	_, err := m.Connect(ta, "alice")
	require.NoError(t, err)
	_, err = m.Connect(tb, "bob")
	require.NoError(t, err)

	require.Equal(t, [][]string{{"alice"}, {"alice", "bob"}}, onlineLists(waitForEvents(t, ta, 2)))
	require.Equal(t, [][]string{{"alice", "bob"}}, onlineLists(waitForEvents(t, tb, 1)))
}

func TestManager_DisconnectBroadcastsRemaining(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	ta := newFakeTransport("sa")
	tb := newFakeTransport("sb")

	_, err := m.Connect(ta, "alice")
	require.NoError(t, err)
	cb, err := m.Connect(tb, "bob")
	require.NoError(t, err)

	m.Disconnect(cb)
	require.True(t, tb.closed.Load())
	require.True(t, cb.Closed())

	lists := onlineLists(waitForEvents(t, ta, 3))
	require.Equal(t, []string{"alice"}, lists[2])
	require.Equal(t, []string{"alice"}, m.Registry().Snapshot())

	// A second disconnect of the same connection does nothing.
	m.Disconnect(cb)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, ta.snapshot(), 3)
}

func TestManager_TwoTabsStaleCloseKeepsUserOnline(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	watcher := newFakeTransport("sw")
	tab1 := newFakeTransport("tab1")
	tab2 := newFakeTransport("tab2")

	_, err := m.Connect(watcher, "alice")
	require.NoError(t, err)
	c1, err := m.Connect(tab1, "bob")
	require.NoError(t, err)
	c2, err := m.Connect(tab2, "bob")
	require.NoError(t, err)

	h, ok := m.Registry().Lookup("bob")
	require.True(t, ok)
	require.Equal(t, c2.ID(), h.ID())

	m.Disconnect(c1)

	h, ok = m.Registry().Lookup("bob")
	require.True(t, ok)
	require.Equal(t, "tab2", h.ID())

	// The stale close still broadcasts once, with an unchanged set.
	lists := onlineLists(waitForEvents(t, watcher, 4))
	require.Equal(t, [][]string{
		{"alice"},
		{"alice", "bob"},
		{"alice", "bob"},
		{"alice", "bob"},
	}, lists)

	// tab1 was displaced and gets nothing after its own connect broadcast.
	waitForEvents(t, tab1, 1)
	time.Sleep(20 * time.Millisecond)
	require.Len(t, tab1.snapshot(), 1)
	require.False(t, tab2.closed.Load())
}

func TestManager_ConcurrentChurnKeepsLatestHandles(t *testing.T) {
	m := NewManager(presence.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			var last *Conn
			for j := 0; j < 10; j++ {
				c, err := m.Connect(newFakeTransport(fmt.Sprintf("%s-%d", user, j)), user)
				if err != nil {
					return
				}
				if last != nil {
					m.Disconnect(last)
				}
				last = c
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 20, m.Registry().Len())
	for i := 0; i < 20; i++ {
		h, ok := m.Registry().Lookup(fmt.Sprintf("user-%d", i))
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("user-%d-9", i), h.ID())
	}
}

func TestManager_TransportCloseCallbackDoesNotDeadlock(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	tr := newFakeTransport("s1")

	c, err := m.Connect(tr, "alice")
	require.NoError(t, err)
	tr.onClose = func() { m.Disconnect(c) }

	done := make(chan struct{})
	go func() {
		m.Disconnect(c)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disconnect deadlocked")
	}
	require.Zero(t, m.Registry().Len())
}

func TestManager_MirrorReceivesSnapshots(t *testing.T) {
	var mu sync.Mutex
	var snapshots [][]string
	m := NewManager(presence.NewRegistry(), WithMirror(func(online []string) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, online)
	}))

	c, err := m.Connect(newFakeTransport("s1"), "alice")
	require.NoError(t, err)
	m.Disconnect(c)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, [][]string{{"alice"}, {}}, snapshots)
}

func TestManager_ShutdownRejectsConnects(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	tr := newFakeTransport("s1")
	_, err := m.Connect(tr, "alice")
	require.NoError(t, err)

	m.Shutdown()
	require.True(t, tr.closed.Load())
	require.Zero(t, m.Registry().Len())

	late := newFakeTransport("s2")
	_, err = m.Connect(late, "bob")
	require.ErrorIs(t, err, ErrClosed)
	require.True(t, late.closed.Load())
}

func TestConn_PushIsFIFO(t *testing.T) {
	tr := newFakeTransport("s1")
	c := newConn(tr, "alice", 128, nil)

	for i := 0; i < 100; i++ {
		require.NoError(t, c.Push(types.EventNewMessage, i))
	}

	events := waitForEvents(t, tr, 100)
	for i, ev := range events {
		require.Equal(t, i, ev.payload)
	}
}

func TestConn_PushReportsBackpressure(t *testing.T) {
	tr := newFakeTransport("s1")
	tr.gate = make(chan struct{})
	tr.entered = make(chan struct{}, 10)
	c := newConn(tr, "alice", 1, nil)

	require.NoError(t, c.Push("e", 1))
	<-tr.entered // writer is now blocked emitting the first event

	require.NoError(t, c.Push("e", 2))
	require.ErrorIs(t, c.Push("e", 3), ErrBackpressure)

	close(tr.gate)
	events := waitForEvents(t, tr, 2)
	require.Equal(t, 1, events[0].payload)
	require.Equal(t, 2, events[1].payload)
}

func TestConn_PushAfterCloseFails(t *testing.T) {
	tr := newFakeTransport("s1")
	c := newConn(tr, "alice", 4, nil)

	c.Close()
	c.Close()
	require.ErrorIs(t, c.Push("e", 1), ErrClosed)
	require.True(t, tr.closed.Load())
}

func TestConn_EmitErrorClosesConnection(t *testing.T) {
	tr := newFakeTransport("s1")
	tr.emitErr = errors.New("broken pipe")
	c := newConn(tr, "alice", 4, nil)

	require.NoError(t, c.Push("e", 1))
	require.Eventually(t, c.Closed, time.Second, 5*time.Millisecond)
	require.True(t, tr.closed.Load())
	require.ErrorIs(t, c.Push("e", 2), ErrClosed)
}

func TestManager_FailedEmitUnregistersSilentTransport(t *testing.T) {
	m := NewManager(presence.NewRegistry())
	alice := newFakeTransport("sa")
	_, err := m.Connect(alice, "alice")
	require.NoError(t, err)

	// A transport that is already gone: every emit fails and closing it
	// reports nothing back.
	bob := newFakeTransport("sb")
	bob.emitErr = errors.New("socket not connected")
	c, err := m.Connect(bob, "bob")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := m.Registry().Lookup("bob")
		return !ok
	}, time.Second, 5*time.Millisecond)
	require.True(t, c.Closed())
	require.True(t, bob.closed.Load())
	require.Equal(t, []string{"alice"}, m.Registry().Snapshot())

	events := waitForEvents(t, alice, 3)
	require.Equal(t, [][]string{{"alice"}, {"alice", "bob"}, {"alice"}}, onlineLists(events))

	// A later explicit disconnect is a no-op.
	m.Disconnect(c)
	require.Equal(t, []string{"alice"}, m.Registry().Snapshot())
}
