package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/hub"
	"github.com/DoyleJ11/lol-balancer/internal/lobby"
	"github.com/DoyleJ11/lol-balancer/internal/types"
)

func newLobbyServer(t *testing.T) (*httptest.Server, *lobby.Lobby) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx)
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.CreateLobby{Code: "WS1234", State: engine.NewEmptyState(), Reply: reply}
	lb := <-reply

	srv := httptest.NewServer(Handler(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, lb
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, srv.URL+"/?code="+code, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func sendMsg(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)))
}

func TestHandler_RejectsMissingOrUnknownLobby(t *testing.T) {
	srv, _ := newLobbyServer(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/?code=NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_RegisterAndAssignBroadcast(t *testing.T) {
	srv, _ := newLobbyServer(t)
	conn := dial(t, srv, "WS1234")

	first := readMsg(t, conn)
	require.Equal(t, "StateSnapshot", first.Type)
	assert.Equal(t, 0, first.Version)

	sendMsg(t, conn, `{"type":"Register","participant":{"name":"Alice","scores":{"TOP":8,"JUNGLE":5,"MID":5,"ADC":5,"SUPPORT":5}}}`)
	snap := readMsg(t, conn)
	assert.Equal(t, 1, snap.Version)
	require.Len(t, snap.State.Participants, 1)
	assert.Equal(t, 8, snap.State.Participants[0].Scores[engine.RoleTop])

	sendMsg(t, conn, `{"type":"Assign","role":"top","side":"red","name":"Alice"}`)
	snap = readMsg(t, conn)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, "Alice", snap.State.Board.Get(engine.RoleTop, engine.SideRed))
	assert.Equal(t, 8, snap.State.Report.RedPower)
}

func TestHandler_ErrorsGoBackToSender(t *testing.T) {
	srv, lb := newLobbyServer(t)
	conn := dial(t, srv, "WS1234")
	_ = readMsg(t, conn)

	sendMsg(t, conn, `not json`)
	assert.Equal(t, types.ServerMessage{Type: "Error", Error: "bad json"}, readMsg(t, conn))

	sendMsg(t, conn, `{"type":"Shout"}`)
	assert.Equal(t, "unknown type", readMsg(t, conn).Error)

	sendMsg(t, conn, `{"type":"RecordMatch","winner":"RED"}`)
	msg := readMsg(t, conn)
	assert.Equal(t, "Error", msg.Type)
	assert.Contains(t, msg.Error, engine.ErrNotRecordable.Error())

	view, err := lb.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, view.Version)
}

func TestToEngineCommand(t *testing.T) {
	p := engine.NewParticipant("Bob", 3)
	tests := []struct {
		name    string
		msg     types.ClientMessage
		want    engine.Command
		wantErr bool
	}{
		{"register", types.ClientMessage{Type: "Register", Participant: &p}, engine.Command{Type: engine.CmdRegisterParticipant, Participant: p}, false},
		{"register without participant", types.ClientMessage{Type: "Register"}, engine.Command{}, true},
		{"update", types.ClientMessage{Type: "Update", Name: "Bobby", Participant: &p}, engine.Command{Type: engine.CmdUpdateParticipant, Name: "Bobby", Participant: p}, false},
		{"remove", types.ClientMessage{Type: "Remove", Name: "Bob"}, engine.Command{Type: engine.CmdRemoveParticipant, Name: "Bob"}, false},
		{"assign", types.ClientMessage{Type: "Assign", Role: "Support", Side: "BLUE", Name: "Bob"}, engine.Command{Type: engine.CmdAssignSlot, Role: engine.RoleSupport, Side: engine.SideBlue, Name: "Bob"}, false},
		{"assign bad role", types.ClientMessage{Type: "Assign", Role: "bottom", Side: "RED"}, engine.Command{}, true},
		{"record", types.ClientMessage{Type: "RecordMatch", Winner: "red"}, engine.Command{Type: engine.CmdRecordMatch, Side: engine.SideRed}, false},
		{"record bad winner", types.ClientMessage{Type: "RecordMatch", Winner: "draw"}, engine.Command{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toEngineCommand(tc.msg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
