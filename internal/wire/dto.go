package wire

import (
	"fmt"

	"bridge/internal/engine"
)

type CardDTO struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// ActionDTO is a client command. Call uses the short form ("P", "X", "XX",
// "1NT"); Seat names the hand a card comes from and defaults to the seat on turn.
type ActionDTO struct {
	Type string   `json:"type"`
	Call string   `json:"call,omitempty"`
	Card *CardDTO `json:"card,omitempty"`
	Seat string   `json:"seat,omitempty"`
}

func (a *ActionDTO) ToEngine() (engine.Action, error) {
	if a == nil {
		return engine.Action{}, fmt.Errorf("%w: action missing", engine.ErrMalformed)
	}
	switch a.Type {
	case "call":
		c, err := engine.ParseCall(a.Call)
		if err != nil {
			return engine.Action{}, err
		}
		return engine.Action{Type: engine.ActionCall, Call: &c}, nil
	case "play":
		if a.Card == nil {
			return engine.Action{}, fmt.Errorf("%w: card required", engine.ErrMalformed)
		}
		card, err := a.Card.ToEngine()
		if err != nil {
			return engine.Action{}, err
		}
		out := engine.Action{Type: engine.ActionPlayCard, Card: &card}
		if a.Seat != "" {
			seat, err := engine.ParseSeat(a.Seat)
			if err != nil {
				return engine.Action{}, err
			}
			out.Seat = &seat
		}
		return out, nil
	case "advance":
		return engine.Action{Type: engine.ActionAdvance}, nil
	default:
		return engine.Action{}, fmt.Errorf("%w: unknown action type %q", engine.ErrMalformed, a.Type)
	}
}

func ActionFromEngine(a engine.Action) ActionDTO {
	switch a.Type {
	case engine.ActionCall:
		if a.Call == nil {
			return ActionDTO{Type: "call"}
		}
		return ActionDTO{Type: "call", Call: a.Call.String()}
	case engine.ActionPlayCard:
		out := ActionDTO{Type: "play"}
		if a.Card != nil {
			out.Card = CardFromEngine(*a.Card)
		}
		if a.Seat != nil {
			out.Seat = a.Seat.String()
		}
		return out
	case engine.ActionAdvance:
		return ActionDTO{Type: "advance"}
	default:
		return ActionDTO{Type: "unknown"}
	}
}

func (c CardDTO) ToEngine() (engine.Card, error) {
	s, err := engine.ParseSuit(c.Suit)
	if err != nil {
		return engine.Card{}, err
	}
	r, err := engine.ParseRank(c.Rank)
	if err != nil {
		return engine.Card{}, err
	}
	return engine.Card{Suit: s, Rank: r}, nil
}

func CardFromEngine(c engine.Card) *CardDTO {
	return &CardDTO{Suit: c.Suit.String(), Rank: c.Rank.String()}
}

func cards(cs []engine.Card) []CardDTO {
	out := make([]CardDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, *CardFromEngine(c))
	}
	return out
}
