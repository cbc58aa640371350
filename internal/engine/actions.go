package engine

type ActionType int

const (
	ActionCall ActionType = iota
	ActionPlayCard
	ActionAdvance
)

func (t ActionType) String() string {
	switch t {
	case ActionCall:
		return "call"
	case ActionPlayCard:
		return "play"
	case ActionAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

// Action is one command against a match. Seat on a play names the hand the
// card comes from, which for dummy differs from the acting player.
type Action struct {
	Type ActionType
	Call *Call
	Card *Card
	Seat *Seat
}

// LegalActions lists what actor may do now, in a stable order: calls in
// ascending order, then plays in hand order.
func LegalActions(g MatchState, actor Seat) []Action {
	switch g.Phase {
	case PhasePartnership, PhaseDeal, PhaseScoring:
		return []Action{{Type: ActionAdvance}}
	case PhaseAuction:
		if g.Auction.Turn() != actor {
			return nil
		}
		out := []Action{}
		for _, k := range g.Auction.LegalCalls(actor) {
			if k == CallBid {
				continue
			}
			c := Call{Kind: k}
			out = append(out, Action{Type: ActionCall, Call: &c})
		}
		for _, b := range g.Auction.LegalBids(actor) {
			c := b
			out = append(out, Action{Type: ActionCall, Call: &c})
		}
		return out
	case PhasePlay:
		seat := g.Trick.Next()
		if !Controls(g, actor, seat) {
			return nil
		}
		cards := LegalPlays(g.Hands[seat], g.Trick)
		out := make([]Action, 0, len(cards))
		for i := range cards {
			c := cards[i]
			s := seat
			out = append(out, Action{Type: ActionPlayCard, Card: &c, Seat: &s})
		}
		return out
	default:
		return nil
	}
}

// CurrentPlayer returns the seat whose turn it is: the caller during the
// auction and the owner of the next card during play.
func CurrentPlayer(g MatchState) (Seat, bool) {
	switch g.Phase {
	case PhaseAuction:
		return g.Auction.Turn(), true
	case PhasePlay:
		return g.Trick.Next(), true
	default:
		return 0, false
	}
}

// CurrentActor is CurrentPlayer with dummy's turns handed to declarer.
func CurrentActor(g MatchState) (Seat, bool) {
	seat, ok := CurrentPlayer(g)
	if !ok {
		return 0, false
	}
	if g.Phase == PhasePlay && g.Contract != nil && seat == g.Contract.Dummy() {
		return g.Contract.Declarer, true
	}
	return seat, true
}

func ApplyAction(g *MatchState, actor Seat, a Action) error {
	if !actor.Valid() {
		return malformed("unknown seat")
	}
	switch a.Type {
	case ActionCall:
		if a.Call == nil {
			return malformed("call action without a call")
		}
		return MakeCall(g, actor, *a.Call)
	case ActionPlayCard:
		if a.Card == nil {
			return malformed("play action without a card")
		}
		if g.Phase != PhasePlay {
			return invalidPhase("cards are played only during play")
		}
		seat := g.Trick.Next()
		if a.Seat != nil {
			seat = *a.Seat
		}
		if !Controls(*g, actor, seat) {
			return outOfTurn(actor.Name() + " does not play for " + seat.Name())
		}
		return PlayCard(g, seat, *a.Card)
	case ActionAdvance:
		return AdvancePhase(g)
	default:
		return malformed("unknown action")
	}
}
