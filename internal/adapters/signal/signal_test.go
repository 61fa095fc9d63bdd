package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Poker/internal/app"
	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
)

// stubWS satisfies WSConn without a network socket.
type stubWS struct{}

func (stubWS) ReadMessage() (int, []byte, error) { return 0, nil, fmt.Errorf("eof") }
func (stubWS) WriteMessage(int, []byte) error    { return nil }
func (stubWS) SetReadLimit(int64)                {}
func (stubWS) SetWriteDeadline(time.Time) error  { return nil }
func (stubWS) Close() error                      { return nil }

func newTestController() *Controller {
	orch := &app.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRooms(),
		Policy:   app.KickSlowPolicy{},
	}
	return NewController(orch, nil)
}

func connect(ctl *Controller, sid core.SessionID) *Conn {
	conn := newConn(stubWS{}, 32)
	ctl.Orch.Registry.Bind(sid, conn, nil)
	return conn
}

// drain decodes everything queued on the connection's send channel.
func drain(t *testing.T, c *Conn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case data := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(data, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func lastOfType(t *testing.T, evs []map[string]any, typ string) map[string]any {
	t.Helper()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i]["type"] == typ {
			return evs[i]
		}
	}
	t.Fatalf("no %q event in %v", typ, evs)
	return nil
}

func TestController_CreateRoom(t *testing.T) {
	ctl := newTestController()
	conn := connect(ctl, "alice")

	ctl.dispatch("alice", conn, []byte(`{"type":"create-room","name":"Alice"}`))

	evs := drain(t, conn)
	created := lastOfType(t, evs, "room-created")
	roomID := created["room"].(string)
	assert.NotEmpty(t, roomID)

	parts := created["participants"].([]any)
	require.Len(t, parts, 1)
	p := parts[0].(map[string]any)
	assert.Equal(t, "Alice", p["name"])
	assert.Nil(t, p["estimate"])

	room, ok := ctl.Orch.Rooms.Get(domain.RoomID(roomID))
	require.True(t, ok)
	assert.Equal(t, core.SessionID("alice"), room.Facilitator())
}

func TestController_JoinRoom(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")
	bob := connect(ctl, "bob")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	roomID := lastOfType(t, drain(t, alice), "room-created")["room"].(string)

	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"join-room","room":%q,"name":"Bob"}`, roomID)))

	evs := drain(t, bob)
	res := lastOfType(t, evs, "join-result")
	assert.Equal(t, true, res["ok"])
	assert.Len(t, res["participants"].([]any), 2)

	// The existing member saw the membership broadcast.
	joined := lastOfType(t, drain(t, alice), "user-joined")
	assert.Len(t, joined["participants"].([]any), 2)
}

func TestController_JoinRoom_Unknown(t *testing.T) {
	ctl := newTestController()
	bob := connect(ctl, "bob")

	ctl.dispatch("bob", bob, []byte(`{"type":"join-room","room":"nope","name":"Bob"}`))

	res := lastOfType(t, drain(t, bob), "join-result")
	assert.Equal(t, false, res["ok"])
	_, ok := ctl.Orch.Registry.RoomOf("bob")
	assert.False(t, ok)
}

func TestController_EstimateFlow(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")
	bob := connect(ctl, "bob")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	roomID := lastOfType(t, drain(t, alice), "room-created")["room"].(string)
	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"join-room","room":%q,"name":"Bob"}`, roomID)))
	drain(t, bob)

	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"submit-estimate","room":%q,"value":"8"}`, roomID)))
	submitted := lastOfType(t, drain(t, alice), "estimate-submitted")
	parts := submitted["participants"].([]any)
	assert.Equal(t, "8", parts[1].(map[string]any)["estimate"])

	// Only the facilitator's reveal goes through.
	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"reveal-estimates","room":%q}`, roomID)))
	drain(t, alice)
	ctl.dispatch("alice", alice, []byte(fmt.Sprintf(`{"type":"reveal-estimates","room":%q}`, roomID)))
	revealed := lastOfType(t, drain(t, bob), "estimates-revealed")
	assert.Equal(t, true, revealed["revealed"])

	ctl.dispatch("alice", alice, []byte(fmt.Sprintf(`{"type":"reset-estimates","room":%q}`, roomID)))
	evs := drain(t, bob)
	cleared := lastOfType(t, evs, "estimate-submitted")
	assert.Nil(t, cleared["participants"].([]any)[0].(map[string]any)["estimate"])
	hidden := lastOfType(t, evs, "estimates-revealed")
	assert.Equal(t, false, hidden["revealed"])
}

func TestController_SubmitEstimate_RejectsUnknownCard(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	roomID := lastOfType(t, drain(t, alice), "room-created")["room"].(string)

	ctl.dispatch("alice", alice, []byte(fmt.Sprintf(`{"type":"submit-estimate","room":%q,"value":"7"}`, roomID)))
	assert.Empty(t, drain(t, alice))

	room, _ := ctl.Orch.Rooms.Get(domain.RoomID(roomID))
	assert.Nil(t, room.Snapshot()[0].Estimate)
}

func TestController_ChangeFacilitator(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")
	bob := connect(ctl, "bob")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	roomID := lastOfType(t, drain(t, alice), "room-created")["room"].(string)
	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"join-room","room":%q,"name":"Bob"}`, roomID)))
	drain(t, bob)

	ctl.dispatch("alice", alice, []byte(fmt.Sprintf(`{"type":"change-facilitator","room":%q,"target":"bob"}`, roomID)))
	changed := lastOfType(t, drain(t, bob), "facilitator-changed")
	assert.Equal(t, "bob", changed["facilitator"])
}

func TestController_Leave(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	drain(t, alice)

	ctl.dispatch("alice", alice, []byte(`{"type":"leave"}`))
	left := lastOfType(t, drain(t, alice), "left")
	assert.NotNil(t, left)
	assert.Equal(t, 0, ctl.Orch.Rooms.Len())
}

func TestController_PingAndWhoAmI(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")

	ctl.dispatch("alice", alice, []byte(`{"type":"ping"}`))
	pong := lastOfType(t, drain(t, alice), "pong")
	assert.NotNil(t, pong)

	ctl.dispatch("alice", alice, []byte(`{"type":"whoami"}`))
	who := lastOfType(t, drain(t, alice), "whoami")
	assert.Equal(t, "alice", who["id"])
}

func TestController_BadInputTolerated(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")

	ctl.dispatch("alice", alice, []byte(`not json`))
	ctl.dispatch("alice", alice, []byte(`{"type":"no-such-signal"}`))
	ctl.dispatch("alice", alice, []byte(`{"type":"reveal-estimates"}`))
	assert.Empty(t, drain(t, alice))
}

func TestController_CreateRoom_RateLimited(t *testing.T) {
	ctl := newTestController()
	ctl.Limiter = NewRateLimiter(1, time.Minute)
	alice := connect(ctl, "alice")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	drain(t, alice)
	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))

	errEv := lastOfType(t, drain(t, alice), "error")
	assert.Equal(t, "rate_limited", errEv["error"])
	assert.Equal(t, 1, ctl.Orch.Rooms.Len())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	assert.True(t, rl.Allow("s1"))
	assert.True(t, rl.Allow("s1"))
	assert.False(t, rl.Allow("s1"))

	// Independent sessions have independent windows.
	assert.True(t, rl.Allow("s2"))

	rl.Forget("s1")
	assert.True(t, rl.Allow("s1"))
}

// recordWS captures writes and close calls for pump tests.
type recordWS struct {
	mu     sync.Mutex
	types  []int
	closed bool
}

func (w *recordWS) ReadMessage() (int, []byte, error) { return 0, nil, fmt.Errorf("eof") }

func (w *recordWS) WriteMessage(mt int, _ []byte) error {
	w.mu.Lock()
	w.types = append(w.types, mt)
	w.mu.Unlock()
	return nil
}

func (w *recordWS) SetReadLimit(int64)               {}
func (w *recordWS) SetWriteDeadline(time.Time) error { return nil }

func (w *recordWS) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func (w *recordWS) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *recordWS) wrote(mt int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, got := range w.types {
		if got == mt {
			return true
		}
	}
	return false
}

func TestWritePump_CancelClosesSocket(t *testing.T) {
	ctl := newTestController()
	ws := &recordWS{}
	conn := newConn(ws, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctl.writePump(ctx, conn)

	// Cancellation must terminate the peer, not just stop writing:
	// closing the socket unblocks the read side so its cleanup runs.
	assert.True(t, ws.isClosed())
	assert.Error(t, conn.TrySend(core.Frame(`late`)))
}

func TestWritePump_SendsKeepalivePings(t *testing.T) {
	ctl := newTestController()
	ctl.PingPeriod = 5 * time.Millisecond
	ws := &recordWS{}
	conn := newConn(ws, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctl.writePump(ctx, conn)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return ws.wrote(websocket.PingMessage)
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.True(t, ws.isClosed())
}

func TestController_JoinRoom_BroadcastPrecedesAck(t *testing.T) {
	ctl := newTestController()
	alice := connect(ctl, "alice")
	bob := connect(ctl, "bob")

	ctl.dispatch("alice", alice, []byte(`{"type":"create-room","name":"Alice"}`))
	roomID := lastOfType(t, drain(t, alice), "room-created")["room"].(string)

	ctl.dispatch("bob", bob, []byte(fmt.Sprintf(`{"type":"join-room","room":%q,"name":"Bob"}`, roomID)))

	// The joiner's first frame is the membership broadcast; the ack
	// confirms afterwards. State rides the broadcast, not the ack.
	evs := drain(t, bob)
	require.NotEmpty(t, evs)
	assert.Equal(t, "user-joined", evs[0]["type"])
	assert.Equal(t, "join-result", evs[len(evs)-1]["type"])
}

func TestConn_TrySendBackpressure(t *testing.T) {
	c := newConn(stubWS{}, 1)
	require.NoError(t, c.TrySend(core.Frame(`a`)))
	assert.ErrorIs(t, c.TrySend(core.Frame(`b`)), ErrBackpressure)

	c.Close()
	assert.Error(t, c.TrySend(core.Frame(`c`)))
	// Close is idempotent.
	c.Close()
}
