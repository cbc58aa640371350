package wire

import "bridge/internal/engine"

type EventPayload struct {
	Seat     string   `json:"seat,omitempty"`
	Call     string   `json:"call,omitempty"`
	Card     *CardDTO `json:"card,omitempty"`
	Contract string   `json:"contract,omitempty"`
	Trick    int      `json:"trick,omitempty"`
	Round    int      `json:"round,omitempty"`
	NS       int      `json:"ns,omitempty"`
	EW       int      `json:"ew,omitempty"`
}

// BuildEvents describes the step from prev to next caused by actor's action.
func BuildEvents(prev engine.MatchState, next engine.MatchState, actor engine.Seat, action engine.Action) []Event {
	events := []Event{}
	switch action.Type {
	case engine.ActionCall:
		if action.Call != nil {
			events = append(events, Event{Type: "call_made", Data: EventPayload{Seat: actor.String(), Call: action.Call.String()}})
		}
	case engine.ActionPlayCard:
		if action.Card != nil {
			seat := prev.Trick.Next()
			if action.Seat != nil {
				seat = *action.Seat
			}
			events = append(events, Event{Type: "card_played", Data: EventPayload{Seat: seat.String(), Card: CardFromEngine(*action.Card)}})
		}
	}

	if prev.Phase == engine.PhasePartnership && next.Phase == engine.PhaseDeal {
		events = append(events, Event{Type: "dealer_chosen", Data: EventPayload{Seat: next.Dealer.String()}})
	}
	if prev.Phase != engine.PhaseAuction && next.Phase == engine.PhaseAuction {
		events = append(events, Event{Type: "hands_dealt", Data: EventPayload{Seat: next.Dealer.String(), Round: next.Round}})
	}
	if prev.Contract == nil && next.Contract != nil {
		events = append(events, Event{Type: "contract_set", Data: EventPayload{Seat: next.Contract.Declarer.String(), Contract: next.Contract.String()}})
	}
	if prev.Phase == engine.PhaseAuction && next.Phase == engine.PhaseScoring && next.Contract == nil {
		events = append(events, Event{Type: "passed_out", Data: EventPayload{Round: next.Round}})
	}
	if !prev.DummyRevealed && next.DummyRevealed {
		if dummy, ok := next.Dummy(); ok {
			events = append(events, Event{Type: "dummy_revealed", Data: EventPayload{Seat: dummy.String()}})
		}
	}
	if len(next.Tricks) > len(prev.Tricks) && next.Contract != nil {
		last, _ := next.LastTrick()
		winner, _ := last.Winner(next.Contract.Strain)
		events = append(events, Event{Type: "trick_won", Data: EventPayload{Seat: winner.String(), Trick: len(next.Tricks)}})
	}
	if len(next.RoundScores) > len(prev.RoundScores) {
		rs := next.RoundScores[len(next.RoundScores)-1]
		events = append(events, Event{Type: "round_scored", Data: EventPayload{Round: rs.Round, NS: rs.NS, EW: rs.EW}})
	}
	if prev.Phase != engine.PhaseGameOver && next.Phase == engine.PhaseGameOver {
		events = append(events, Event{Type: "match_over", Data: EventPayload{NS: next.TotalScores[engine.SideNS], EW: next.TotalScores[engine.SideEW]}})
	}
	return events
}
