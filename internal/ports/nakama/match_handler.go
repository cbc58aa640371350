package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"bridge/internal/engine"
	"bridge/internal/server"
	"bridge/internal/wire"
)

// MatchState holds the runtime state for one bridge table hosted by Nakama.
type MatchState struct {
	Seats     [4]string                    `json:"seats"` // user ids, "" for a free or bot seat
	Tick      int64                        `json:"tick"`
	Presences map[string]runtime.Presence  `json:"-"`
	Table     *server.Table                `json:"-"`
	observers map[string]*presenceObserver `json:"-"`
	bots      map[engine.Seat]bool
}

// MatchLabel is the searchable label, e.g. "+label.open:>=1".
type MatchLabel struct {
	Open  int    `json:"open"`
	Phase string `json:"phase"`
	Bots  int    `json:"bots"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for i, userId := range ms.Seats {
		if userId == "" && !ms.bots[engine.Seat(i)] {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, userId := range ms.Seats {
		if userId != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userId string) (engine.Seat, bool) {
	for i, seatUserId := range ms.Seats {
		if seatUserId != "" && seatUserId == userId {
			return engine.Seat(i), true
		}
	}
	return wire.NoSeat, false
}

// lowestAvailableSeat returns the first seat neither held by a player nor by a bot.
func (ms *MatchState) lowestAvailableSeat() (engine.Seat, bool) {
	for _, seat := range engine.Seats {
		if ms.Seats[seat] == "" && !ms.bots[seat] {
			return seat, true
		}
	}
	return wire.NoSeat, false
}

func (ms *MatchState) label() string {
	b, _ := json.Marshal(MatchLabel{
		Open:  ms.GetOpenSeatsCount(),
		Phase: ms.Table.State().Phase.String(),
		Bots:  len(ms.bots),
	})
	return string(b)
}

// presenceObserver delivers table views to one connected user.
type presenceObserver struct {
	seat       engine.Seat
	presence   runtime.Presence
	dispatcher runtime.MatchDispatcher
}

func (o *presenceObserver) Seat() engine.Seat {
	return o.seat
}

func (o *presenceObserver) Send(msg wire.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return o.dispatcher.BroadcastMessage(OpState, data, []runtime.Presence{o.presence}, nil, true)
}

// matchParams are the options accepted by MatchCreate.
type matchParams struct {
	Bots      []engine.Seat
	BotLevel  string
	Seed      int64
	MaxRounds int
}

func parseMatchParams(params map[string]interface{}) (matchParams, error) {
	out := matchParams{BotLevel: "easy", MaxRounds: engine.StandardRules().MaxRounds}
	if v, ok := params["bots"].(string); ok && v != "" {
		for _, name := range strings.Split(v, ",") {
			seat, err := engine.ParseSeat(name)
			if err != nil {
				return out, err
			}
			out.Bots = append(out.Bots, seat)
		}
		if err := server.CheckBotSeats(out.Bots); err != nil {
			return out, err
		}
	}
	if v, ok := params["bot_level"].(string); ok && v != "" {
		out.BotLevel = v
	}
	if v, ok := params["seed"]; ok {
		n, err := toInt64(v)
		if err != nil {
			return out, fmt.Errorf("seed: %w", err)
		}
		out.Seed = n
	}
	if v, ok := params["max_rounds"]; ok {
		n, err := toInt64(v)
		if err != nil || n < 0 {
			return out, fmt.Errorf("max_rounds: invalid value %v", v)
		}
		out.MaxRounds = int(n)
	}
	return out, nil
}

// toInt64 accepts the number shapes Nakama hands through params.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	p, err := parseMatchParams(params)
	if err != nil {
		logger.Error("MatchInit: invalid params: %v", err)
		return nil, 0, ""
	}
	if p.Seed == 0 {
		p.Seed = time.Now().UnixNano()
	}

	matchId, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	if matchId == "" {
		matchId = uuid.NewString()
	}

	rules := engine.StandardRules()
	rules.MaxRounds = p.MaxRounds
	rules.Scorer = engine.PracticeScorer

	state := &MatchState{
		Presences: make(map[string]runtime.Presence),
		observers: make(map[string]*presenceObserver),
		bots:      make(map[engine.Seat]bool),
	}
	for _, seat := range p.Bots {
		state.bots[seat] = true
	}
	state.Table = server.NewTable(matchId, newZapLogger(logger), server.TableOptions{
		Rules:    rules,
		Seed:     p.Seed,
		Bots:     server.BotsFor(p.Bots, p.BotLevel, p.Seed),
		AutoDeal: true,
	})

	logger.Debug("MatchInit: table %s with %d bots.", matchId, len(p.Bots))
	return state, tickRate, state.label()
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	// Rejoin keeps the old seat.
	if _, seated := matchState.seatOf(presence.GetUserId()); seated {
		return state, true, ""
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userId := p.GetUserId()
		matchState.Presences[userId] = p

		seat, seated := matchState.seatOf(userId)
		if !seated {
			free, ok := matchState.lowestAvailableSeat()
			if !ok {
				logger.Warn("MatchJoin: User %s joined but no seat was available.", userId)
				continue
			}
			if _, err := matchState.Table.ClaimSeat(free); err != nil {
				logger.Warn("MatchJoin: seat %s for %s: %v", free, userId, err)
				continue
			}
			matchState.Seats[free] = userId
			seat = free
			logger.Debug("MatchJoin: User %s took seat %s.", userId, seat)
		}

		if old, ok := matchState.observers[userId]; ok {
			matchState.Table.Detach(old)
		}
		o := &presenceObserver{seat: seat, presence: p, dispatcher: dispatcher}
		matchState.observers[userId] = o
		matchState.Table.Attach(o)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userId := p.GetUserId()
		delete(matchState.Presences, userId)
		if o, ok := matchState.observers[userId]; ok {
			matchState.Table.Detach(o)
			delete(matchState.observers, userId)
		}
		if seat, seated := matchState.seatOf(userId); seated {
			matchState.Seats[seat] = ""
			matchState.Table.ReleaseSeat(seat)
			logger.Debug("MatchLeave: User %s left, seat %s freed.", userId, seat)
		}
	}

	if matchState.GetHumanPlayerCount() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	phase := matchState.Table.State().Phase
	for _, msg := range messages {
		mh.handleMessage(matchState, dispatcher, logger, msg.GetUserId(), msg.GetOpCode(), msg.GetData())
	}
	if matchState.Table.State().Phase != phase {
		mh.updateLabel(matchState, dispatcher, logger)
	}
	return matchState
}

func (mh *matchHandler) handleMessage(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userId string, opCode int64, data []byte) {
	seat, seated := state.seatOf(userId)
	switch opCode {
	case OpRequestState:
		if o, ok := state.observers[userId]; ok {
			_ = o.Send(wire.ServerMessage{Type: "state", State: state.Table.View(o.seat)})
		}
	case OpPlayerAction:
		if !seated {
			mh.sendError(state, dispatcher, userId, wire.NewError(wire.CodeUnauthorized, "not seated"))
			return
		}
		var msg wire.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			mh.sendError(state, dispatcher, userId, wire.NewError(wire.CodeBadRequest, "invalid json"))
			return
		}
		a, err := msg.Action.ToEngine()
		if err != nil {
			mh.sendError(state, dispatcher, userId, err)
			return
		}
		if _, err := state.Table.Submit(seat, msg.ActionId, a); err != nil {
			logger.Debug("handleMessage: %s rejected: %v", seat, err)
			mh.sendError(state, dispatcher, userId, err)
		}
	case OpResetMatch:
		if !seated {
			mh.sendError(state, dispatcher, userId, wire.NewError(wire.CodeUnauthorized, "not seated"))
			return
		}
		state.Table.Reset(time.Now().UnixNano())
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", opCode)
	}
}

func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, userId string, err error) {
	p, ok := state.Presences[userId]
	if !ok {
		return
	}
	data, _ := json.Marshal(wire.ServerMessage{Type: "error", Error: wire.ErrorFromErr(err)})
	_ = dispatcher.BroadcastMessage(OpError, data, []runtime.Presence{p}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(state.label()); err != nil {
		logger.Warn("updateLabel: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: grace period %d seconds", graceSeconds)
	return state
}

// MatchSignal accepts "reset" to start a new match at the same table.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, "state not found"
	}
	switch data {
	case "reset":
		matchState.Table.Reset(time.Now().UnixNano())
		mh.updateLabel(matchState, dispatcher, logger)
		return matchState, "ok"
	default:
		return matchState, "unknown signal"
	}
}
