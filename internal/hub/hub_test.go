package hub

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/lobby"
	"github.com/DoyleJ11/lol-balancer/internal/store"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx)
	reply := make(chan *lobby.Lobby, 1)

	state := engine.NewEmptyState()
	h.Inbox() <- CreateLobby{Code: "ZED123", State: state, Reply: reply}
	lb1 := <-reply

	h.Inbox() <- GetLobby{Code: "ZED123", Reply: reply}
	lb2 := <-reply

	if lb1 == nil || lb2 == nil || lb1 != lb2 {
		t.Fatalf("expected same lobby pointer")
	}

	h.Inbox() <- GetLobby{Code: "NOPE", Reply: reply}
	assert.Nil(t, <-reply)
}

func TestHub_EnsureIgnoresStateForExistingLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)
	reply := make(chan *lobby.Lobby, 1)

	h.Inbox() <- EnsureLobby{Code: "A1", State: engine.NewEmptyState(), Reply: reply}
	lb := <-reply

	r := engine.NewRoster()
	require.NoError(t, r.Register(engine.NewParticipant("Alice", 5)))
	h.Inbox() <- EnsureLobby{Code: "A1", State: engine.NewState(r), Reply: reply}
	require.Same(t, lb, <-reply)

	view, err := lb.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Roster.Len())
}

func TestHub_LobbyOptionsReceiveRosterKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "rosters"))
	require.NoError(t, err)

	var keys []string
	h := NewHub(ctx, WithLobbyOptions(func(key string) []lobby.Option {
		keys = append(keys, key)
		return []lobby.Option{lobby.WithStore(fs, key)}
	}))

	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- CreateLobby{Code: "Q1", Key: "weekly", State: engine.NewEmptyState(), Reply: reply}
	lb := <-reply
	view, err := lb.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "weekly", view.Key)

	res, err := lb.Do(ctx, engine.Command{Type: engine.CmdRegisterParticipant, Participant: engine.NewParticipant("Alice", 6)})
	require.NoError(t, err)
	require.NoError(t, res.PersistErr)

	saved, err := fs.Load(ctx, "weekly")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, saved.Names())
	assert.Equal(t, []string{"weekly"}, keys)
}

func TestHub_RemoveAndList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)
	reply := make(chan *lobby.Lobby, 1)

	for _, code := range []string{"B2", "A1"} {
		h.Inbox() <- CreateLobby{Code: code, State: engine.NewEmptyState(), Reply: reply}
		<-reply
	}
	h.Inbox() <- GetLobby{Code: "A1", Reply: reply}
	removed := <-reply

	h.Inbox() <- RemoveLobby{Code: "A1"}

	list := make(chan []string, 1)
	h.Inbox() <- ListLobbies{Reply: list}
	codes := <-list
	sort.Strings(codes)
	assert.Equal(t, []string{"B2"}, codes)

	select {
	case <-removed.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("removed lobby still running")
	}
}

func TestHub_ShutdownStopsLobbies(t *testing.T) {
	h := NewHub(context.Background())
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- CreateLobby{Code: "Z9", State: engine.NewEmptyState(), Reply: reply}
	lb := <-reply

	h.Inbox() <- ShutdownHub{}

	for _, done := range []<-chan struct{}{h.Done(), lb.Done()} {
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("hub shutdown did not stop everything")
		}
	}
}

func TestHub_RequestsAfterShutdownReturnErrClosed(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx)
	lb, err := h.Ensure(ctx, "K1", "", engine.NewEmptyState())
	require.NoError(t, err)
	require.NotNil(t, lb)

	h.Inbox() <- ShutdownHub{}
	<-h.Done()

	_, err = h.Lookup(ctx, "K1")
	require.ErrorIs(t, err, ErrClosed)
	_, err = h.Ensure(ctx, "K2", "", engine.NewEmptyState())
	require.ErrorIs(t, err, ErrClosed)
}
