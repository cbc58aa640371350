package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bridge/internal/engine"
	"bridge/internal/server"
	"bridge/internal/wire"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// recordingLogger keeps formatted lines and the fields they were logged with.
type recordingLogger struct {
	lines  *[]string
	fields map[string]interface{}
}

func (l recordingLogger) add(level, format string, v ...interface{}) {
	*l.lines = append(*l.lines, fmt.Sprintf("%s %s %v", level, fmt.Sprintf(format, v...), l.fields))
}

func (l recordingLogger) Debug(f string, v ...interface{}) { l.add("debug", f, v...) }
func (l recordingLogger) Info(f string, v ...interface{})  { l.add("info", f, v...) }
func (l recordingLogger) Warn(f string, v ...interface{})  { l.add("warn", f, v...) }
func (l recordingLogger) Error(f string, v ...interface{}) { l.add("error", f, v...) }
func (l recordingLogger) WithField(k string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{k: v})
}
func (l recordingLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := map[string]interface{}{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return recordingLogger{lines: l.lines, fields: merged}
}
func (l recordingLogger) Fields() map[string]interface{} {
	return l.fields
}

type sentMessage struct {
	opCode int64
	data   []byte
	to     []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.sent = append(md.sent, sentMessage{opCode: opCode, data: append([]byte(nil), data...), to: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

// lastFor decodes the latest message with opCode addressed to userId.
func (md *mockDispatcher) lastFor(t *testing.T, userId string, opCode int64) wire.ServerMessage {
	t.Helper()
	for i := len(md.sent) - 1; i >= 0; i-- {
		m := md.sent[i]
		if m.opCode != opCode || len(m.to) != 1 || m.to[0].GetUserId() != userId {
			continue
		}
		var out wire.ServerMessage
		require.NoError(t, json.Unmarshal(m.data, &out))
		return out
	}
	t.Fatalf("no message %d for %s", opCode, userId)
	return wire.ServerMessage{}
}

// firstSince decodes the first message with opCode addressed to userId sent
// at or after index since.
func (md *mockDispatcher) firstSince(t *testing.T, since int, userId string, opCode int64) wire.ServerMessage {
	t.Helper()
	for _, m := range md.sent[since:] {
		if m.opCode != opCode || len(m.to) != 1 || m.to[0].GetUserId() != userId {
			continue
		}
		var out wire.ServerMessage
		require.NoError(t, json.Unmarshal(m.data, &out))
		return out
	}
	t.Fatalf("no message %d for %s", opCode, userId)
	return wire.ServerMessage{}
}

// testPresence only answers the presence getters the handler uses.
type testPresence struct {
	runtime.Presence
	userId string
}

func (p testPresence) GetUserId() string    { return p.userId }
func (p testPresence) GetSessionId() string { return "session-" + p.userId }
func (p testPresence) GetUsername() string  { return p.userId }

type testMatchData struct {
	runtime.MatchData
	userId string
	opCode int64
	data   []byte
}

func (d testMatchData) GetUserId() string { return d.userId }
func (d testMatchData) GetOpCode() int64  { return d.opCode }
func (d testMatchData) GetData() []byte   { return d.data }

func initState(t *testing.T, params map[string]interface{}) *MatchState {
	t.Helper()
	state, rate, label := (&matchHandler{}).MatchInit(context.Background(), noopLogger{}, nil, nil, params)
	require.NotNil(t, state)
	require.Equal(t, tickRate, rate)
	require.NotEmpty(t, label)
	return state.(*MatchState)
}

func readLabel(t *testing.T, raw string) MatchLabel {
	t.Helper()
	var l MatchLabel
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	return l
}

func TestParseMatchParams(t *testing.T) {
	p, err := parseMatchParams(map[string]interface{}{
		"bots": "e,W", "bot_level": "normal", "seed": float64(12), "max_rounds": "2",
	})
	require.NoError(t, err)
	require.Equal(t, []engine.Seat{engine.East, engine.West}, p.Bots)
	require.Equal(t, "normal", p.BotLevel)
	require.Equal(t, int64(12), p.Seed)
	require.Equal(t, 2, p.MaxRounds)

	p, err = parseMatchParams(nil)
	require.NoError(t, err)
	require.Equal(t, 4, p.MaxRounds)
	require.Equal(t, "easy", p.BotLevel)

	_, err = parseMatchParams(map[string]interface{}{"bots": "N,X"})
	require.ErrorIs(t, err, engine.ErrMalformed)
	_, err = parseMatchParams(map[string]interface{}{"bots": "N,E,S,W"})
	require.ErrorIs(t, err, server.ErrNoPlayerSeat)
	_, err = parseMatchParams(map[string]interface{}{"max_rounds": -1})
	require.Error(t, err)
	_, err = parseMatchParams(map[string]interface{}{"seed": []int{1}})
	require.Error(t, err)
}

func TestMatchInit(t *testing.T) {
	state := initState(t, map[string]interface{}{"bots": "E,W", "seed": "7", "max_rounds": 2})
	_, _, label := (&matchHandler{}).MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{"bots": "E,W", "seed": "7"})
	l := readLabel(t, label)
	require.Equal(t, MatchLabel{Open: 2, Phase: "auction", Bots: 2}, l)
	require.Equal(t, 2, state.Table.State().Rules.MaxRounds)
	require.NotNil(t, state.Table.State().Rules.Scorer)

	bad, _, _ := (&matchHandler{}).MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{"bots": "Z"})
	require.Nil(t, bad)
}

func TestMatchJoinAssignsLowestFreeSeat(t *testing.T) {
	mh := &matchHandler{}
	state := initState(t, map[string]interface{}{"bots": "E,W", "seed": "7"})
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	u1, u2, u3 := testPresence{userId: "u1"}, testPresence{userId: "u2"}, testPresence{userId: "u3"}
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{u1, u2})

	require.Equal(t, [4]string{"u1", "", "u2", ""}, state.Seats)
	require.Equal(t, 0, state.GetOpenSeatsCount())
	require.Equal(t, 0, readLabel(t, dispatcher.lastLabel).Open)

	view := dispatcher.lastFor(t, "u2", OpState).State
	require.Equal(t, "S", view.Viewer)
	require.Len(t, view.Seats[engine.South].Hand, 13)
	require.Empty(t, view.Seats[engine.North].Hand)

	_, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, u3, nil)
	require.False(t, ok)
	require.Equal(t, "Match full", reason)
	_, ok, _ = mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 1, state, u1, nil)
	require.True(t, ok)

	// A rejoin keeps the seat.
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{u1})
	require.Equal(t, [4]string{"u1", "", "u2", ""}, state.Seats)
	require.Len(t, state.observers, 2)
}

// seatedMatch joins one user per free seat of a table with East and West bots.
func seatedMatch(t *testing.T) (*matchHandler, *MatchState, *mockDispatcher, map[engine.Seat]string) {
	t.Helper()
	mh := &matchHandler{}
	state := initState(t, map[string]interface{}{"bots": "E,W", "seed": "11"})
	dispatcher := &mockDispatcher{}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state,
		[]runtime.Presence{testPresence{userId: "north"}, testPresence{userId: "south"}})
	return mh, state, dispatcher, map[engine.Seat]string{engine.North: "north", engine.South: "south"}
}

func actionData(t *testing.T, id, call string) []byte {
	t.Helper()
	data, err := json.Marshal(wire.ClientMessage{Type: "player_action", ActionId: id, Action: &wire.ActionDTO{Type: "call", Call: call}})
	require.NoError(t, err)
	return data
}

func TestMatchLoopAppliesActions(t *testing.T) {
	mh, state, dispatcher, users := seatedMatch(t)
	actor, ok := engine.CurrentActor(state.Table.State())
	require.True(t, ok)
	user, human := users[actor]
	require.True(t, human, "bots should have played up to a human turn, got %s", actor)
	idle := users[actor.Partner()]
	calls := len(state.Table.State().Auction.Calls)

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{
		testMatchData{userId: idle, opCode: OpPlayerAction, data: actionData(t, "x1", "P")},
	})
	require.Equal(t, string(engine.KindOutOfTurn), dispatcher.lastFor(t, idle, OpError).Error.Code)
	require.Len(t, state.Table.State().Auction.Calls, calls)

	mark := len(dispatcher.sent)
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{
		testMatchData{userId: user, opCode: OpPlayerAction, data: []byte("{")},
		testMatchData{userId: user, opCode: OpPlayerAction, data: actionData(t, "a1", "P")},
		testMatchData{userId: user, opCode: OpPlayerAction, data: actionData(t, "a1", "P")},
	})
	require.Equal(t, wire.CodeBadRequest, dispatcher.lastFor(t, user, OpError).Error.Code)
	require.Greater(t, len(state.Table.State().Auction.Calls), calls)
	require.Equal(t, actor.String(), state.Table.State().Auction.Calls[calls].Seat.String())
	require.Equal(t, "call_made", dispatcher.firstSince(t, mark, idle, OpState).Events[0].Type)

	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{
		testMatchData{userId: user, opCode: OpRequestState},
	})
	require.Equal(t, actor.String(), dispatcher.lastFor(t, user, OpState).State.Viewer)
}

func TestMatchLoopRejectsUnseatedUsers(t *testing.T) {
	mh, state, dispatcher, _ := seatedMatch(t)
	before := len(dispatcher.sent)
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{
		testMatchData{userId: "stranger", opCode: OpPlayerAction, data: actionData(t, "", "P")},
		testMatchData{userId: "stranger", opCode: OpResetMatch},
		testMatchData{userId: "north", opCode: 99},
	})
	require.Len(t, dispatcher.sent, before)
}

func TestMatchLeaveFreesSeatAndTerminates(t *testing.T) {
	mh, state, dispatcher, _ := seatedMatch(t)
	ctx := context.Background()

	next := mh.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{testPresence{userId: "north"}})
	require.NotNil(t, next)
	require.Equal(t, [4]string{"", "", "south", ""}, state.Seats)
	require.Equal(t, 1, readLabel(t, dispatcher.lastLabel).Open)
	require.False(t, state.Table.View(wire.NoSeat).Seats[engine.North].Occupied)

	_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, testPresence{userId: "late"}, nil)
	require.True(t, ok)

	require.Nil(t, mh.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{testPresence{userId: "south"}}))
}

func TestMatchSignal(t *testing.T) {
	mh, state, dispatcher, _ := seatedMatch(t)
	seed := state.Table.State().Seed
	mark := len(dispatcher.sent)

	_, reply := mh.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, "reset")
	require.Equal(t, "ok", reply)
	require.NotEqual(t, seed, state.Table.State().Seed)
	require.Equal(t, "match_reset", dispatcher.firstSince(t, mark, "north", OpState).Events[0].Type)

	_, reply = mh.MatchSignal(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, "shuffle")
	require.Equal(t, "unknown signal", reply)
}

// fakeNakama answers MatchCreate and nothing else.
type fakeNakama struct {
	runtime.NakamaModule
	module string
	params map[string]interface{}
	err    error
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.module = module
	f.params = params
	if f.err != nil {
		return "", f.err
	}
	return "match-1", nil
}

func TestRpcCreateTable(t *testing.T) {
	nk := &fakeNakama{}
	out, err := RpcCreateTableFunc(context.Background(), noopLogger{}, nil, nk, `{"bots":["E","W"],"botLevel":"normal","seed":5,"maxRounds":2}`)
	require.NoError(t, err)
	require.JSONEq(t, `{"matchId":"match-1"}`, out)
	require.Equal(t, MatchNameBridge, nk.module)
	require.Equal(t, map[string]interface{}{"bots": "E,W", "bot_level": "normal", "seed": "5", "max_rounds": 2}, nk.params)

	// The params round-trip through MatchInit.
	state := initState(t, nk.params)
	require.Equal(t, int64(5), state.Table.State().Seed)
	require.Equal(t, 2, state.Table.State().Rules.MaxRounds)

	_, err = RpcCreateTableFunc(context.Background(), noopLogger{}, nil, nk, `{"bots":["Q"]}`)
	require.Error(t, err)
	_, err = RpcCreateTableFunc(context.Background(), noopLogger{}, nil, nk, `{"bots":["N","E","S","W"]}`)
	require.Error(t, err)
	_, err = RpcCreateTableFunc(context.Background(), noopLogger{}, nil, nk, `{`)
	require.Error(t, err)

	nk.err = errors.New("nakama down")
	_, err = RpcCreateTableFunc(context.Background(), noopLogger{}, nil, nk, "")
	require.Error(t, err)
}

func TestRuntimeCoreForwardsToNakamaLogger(t *testing.T) {
	var lines []string
	log := newZapLogger(recordingLogger{lines: &lines}).With(zap.String("table_id", "t1"))
	log.Info("seat claimed", zap.String("seat", "N"))
	log.Debug("command rejected")
	log.Error("auto deal failed")

	require.Len(t, lines, 3)
	require.Equal(t, "info seat claimed map[seat:N table_id:t1]", lines[0])
	require.Equal(t, "debug command rejected map[table_id:t1]", lines[1])
	require.Equal(t, "error auto deal failed map[table_id:t1]", lines[2])
}
