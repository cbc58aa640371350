package server

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bridge/internal/bots"
	"bridge/internal/engine"
	"bridge/internal/wire"
)

// maxBotSteps bounds one bot run; a full deal needs well under this.
const maxBotSteps = 400

var (
	ErrSeatTaken      = wire.NewError(wire.CodeConflict, "seat already taken")
	ErrBotSeat        = wire.NewError(wire.CodeForbidden, "seat is played by a bot")
	ErrSeatNotClaimed = wire.NewError(wire.CodeForbidden, "seat is not claimed")
	ErrStaleClaim     = wire.NewError(wire.CodeForbidden, "seat is no longer held by this claim")
)

// Observer receives a view after every change. Seat returns wire.NoSeat for
// spectators.
type Observer interface {
	Seat() engine.Seat
	Send(msg wire.ServerMessage) error
}

// claimBound observers hold their seat through a claim id and see the
// spectator view once that claim is released.
type claimBound interface {
	ClaimID() string
}

type TableOptions struct {
	Rules engine.Rules
	Seed  int64
	Bots  map[engine.Seat]bots.Bot
	// AutoDeal advances through seating and dealing without waiting for a player.
	AutoDeal bool
}

// Table is one match and everything attached to it. All access to the match
// state goes through the table mutex, one command at a time.
type Table struct {
	mu         sync.Mutex
	id         string
	log        *zap.Logger
	state      engine.MatchState
	autoDeal   bool
	actionIds  map[string]bool
	claims     [4]string
	botPlayers map[engine.Seat]bots.Bot
	observers  map[Observer]struct{}
}

func NewTable(id string, log *zap.Logger, opts TableOptions) *Table {
	t := &Table{
		id:         id,
		log:        log.With(zap.String("table_id", id)),
		state:      engine.NewMatch(opts.Rules, opts.Seed),
		autoDeal:   opts.AutoDeal,
		actionIds:  map[string]bool{},
		botPlayers: map[engine.Seat]bots.Bot{},
		observers:  map[Observer]struct{}{},
	}
	for seat, b := range opts.Bots {
		if seat.Valid() && b != nil {
			t.botPlayers[seat] = b
		}
	}
	t.mu.Lock()
	t.autoAdvanceLocked()
	t.botAutoPlayLocked()
	t.mu.Unlock()
	return t
}

func (t *Table) ID() string {
	return t.id
}

// State returns a copy of the match state.
func (t *Table) State() engine.MatchState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

func (t *Table) View(viewer engine.Seat) *wire.TableView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked(viewer)
}

func (t *Table) viewLocked(viewer engine.Seat) *wire.TableView {
	return wire.BuildTableView(t.id, t.state, viewer, t.seatInfoLocked())
}

func (t *Table) seatInfoLocked() wire.SeatInfo {
	var info wire.SeatInfo
	for _, seat := range engine.Seats {
		_, isBot := t.botPlayers[seat]
		info.Bot[seat] = isBot
		info.Occupied[seat] = isBot || t.claims[seat] != ""
	}
	return info
}

// ClaimSeat reserves seat for one player and returns the claim id that
// proves it. Every claim of a seat gets a new id.
func (t *Table) ClaimSeat(seat engine.Seat) (string, error) {
	if !seat.Valid() {
		return "", wire.NewError(wire.CodeBadRequest, "unknown seat")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.botPlayers[seat]; ok {
		return "", ErrBotSeat
	}
	if t.claims[seat] != "" {
		return "", ErrSeatTaken
	}
	id := uuid.NewString()
	t.claims[seat] = id
	t.log.Info("seat claimed", zap.String("seat", seat.String()))
	t.broadcastLocked(nil)
	return id, nil
}

// CheckClaim reports whether claimID still holds seat.
func (t *Table) CheckClaim(seat engine.Seat, claimID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkClaimLocked(seat, claimID)
}

func (t *Table) checkClaimLocked(seat engine.Seat, claimID string) error {
	if !seat.Valid() || claimID == "" || t.claims[seat] != claimID {
		return ErrStaleClaim
	}
	return nil
}

// ReleaseSeat frees seat whoever holds it.
func (t *Table) ReleaseSeat(seat engine.Seat) {
	if !seat.Valid() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked(seat)
}

// ReleaseClaim frees seat only if claimID still holds it.
func (t *Table) ReleaseClaim(seat engine.Seat, claimID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkClaimLocked(seat, claimID); err != nil {
		return err
	}
	t.releaseLocked(seat)
	return nil
}

func (t *Table) releaseLocked(seat engine.Seat) {
	t.claims[seat] = ""
	t.log.Info("seat released", zap.String("seat", seat.String()))
	t.broadcastLocked(nil)
}

// Attach registers o and sends it the current state.
func (t *Table) Attach(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers[o] = struct{}{}
	t.sendLocked(o, nil)
}

func (t *Table) Detach(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.observers, o)
}

// Submit applies a command for actor, which must be a claimed seat. A
// repeated actionID is treated as already applied. On error the state is
// unchanged.
func (t *Table) Submit(actor engine.Seat, actionID string, a engine.Action) ([]wire.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, isBot := t.botPlayers[actor]; isBot {
		return nil, ErrBotSeat
	}
	if !actor.Valid() || t.claims[actor] == "" {
		return nil, ErrSeatNotClaimed
	}
	return t.submitLocked(actor, actionID, a)
}

// SubmitClaimed is Submit for a caller holding claimID. A released or
// re-claimed seat rejects the old claim.
func (t *Table) SubmitClaimed(actor engine.Seat, claimID, actionID string, a engine.Action) ([]wire.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, isBot := t.botPlayers[actor]; isBot {
		return nil, ErrBotSeat
	}
	if err := t.checkClaimLocked(actor, claimID); err != nil {
		return nil, err
	}
	return t.submitLocked(actor, actionID, a)
}

func (t *Table) submitLocked(actor engine.Seat, actionID string, a engine.Action) ([]wire.Event, error) {
	if actionID != "" && t.actionIds[actionID] {
		return nil, nil
	}

	prev := t.state.Clone()
	if err := engine.ApplyAction(&t.state, actor, a); err != nil {
		t.log.Debug("command rejected",
			zap.String("seat", actor.String()),
			zap.String("action", a.Type.String()),
			zap.String("code", string(engine.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}
	if actionID != "" {
		t.actionIds[actionID] = true
	}
	events := wire.BuildEvents(prev, t.state, actor, a)
	t.autoAdvanceLocked()
	t.broadcastLocked(events)
	t.botAutoPlayLocked()
	return events, nil
}

// Reset starts a new match with the same rules and seats.
func (t *Table) Reset(seed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	engine.ResetMatch(&t.state, seed)
	t.actionIds = map[string]bool{}
	t.log.Info("match reset", zap.Int64("seed", seed))
	t.autoAdvanceLocked()
	t.broadcastLocked([]wire.Event{{Type: "match_reset"}})
	t.botAutoPlayLocked()
}

func (t *Table) autoAdvanceLocked() {
	if !t.autoDeal {
		return
	}
	for t.state.Phase == engine.PhasePartnership || t.state.Phase == engine.PhaseDeal {
		if err := engine.AdvancePhase(&t.state); err != nil {
			t.log.Error("auto deal failed", zap.Error(err))
			return
		}
	}
}

func (t *Table) botAutoPlayLocked() {
	for i := 0; i < maxBotSteps; i++ {
		actor, ok := engine.CurrentActor(t.state)
		if !ok {
			return
		}
		bot, isBot := t.botPlayers[actor]
		if !isBot {
			return
		}
		prev := t.state.Clone()
		action := bot.ChooseAction(t.state, actor)
		if err := engine.ApplyAction(&t.state, actor, action); err != nil {
			t.log.Warn("bot action error", zap.String("seat", actor.String()), zap.Error(err))
			return
		}
		events := wire.BuildEvents(prev, t.state, actor, action)
		t.autoAdvanceLocked()
		t.broadcastLocked(events)
	}
	t.log.Warn("bot run stopped", zap.Int("steps", maxBotSteps))
}

func (t *Table) broadcastLocked(events []wire.Event) {
	for o := range t.observers {
		t.sendLocked(o, events)
	}
}

func (t *Table) sendLocked(o Observer, events []wire.Event) {
	msg := wire.ServerMessage{
		Type:   "state",
		State:  t.viewLocked(t.viewerLocked(o)),
		Events: events,
	}
	if err := o.Send(msg); err != nil {
		t.log.Warn("observer send failed", zap.String("seat", o.Seat().String()), zap.Error(err))
		delete(t.observers, o)
	}
}

// viewerLocked is the seat whose view o gets.
func (t *Table) viewerLocked(o Observer) engine.Seat {
	seat := o.Seat()
	if cb, ok := o.(claimBound); ok && seat.Valid() && t.checkClaimLocked(seat, cb.ClaimID()) != nil {
		return wire.NoSeat
	}
	return seat
}
