package bots

import (
	"math/rand"

	"bridge/internal/engine"
)

// Bot picks an action for actor. Actions returned are always drawn from
// engine.LegalActions, so a bot never submits an illegal command.
type Bot interface {
	ChooseAction(state engine.MatchState, actor engine.Seat) engine.Action
}

type EasyBot struct {
	RNG *rand.Rand
}

func NewEasy(seed int64) *EasyBot {
	return &EasyBot{RNG: rand.New(rand.NewSource(seed))}
}

// ChooseAction passes most of the time in the auction and otherwise plays a
// random legal action.
func (b *EasyBot) ChooseAction(state engine.MatchState, actor engine.Seat) engine.Action {
	legal := engine.LegalActions(state, actor)
	if len(legal) == 0 {
		return engine.Action{Type: engine.ActionAdvance}
	}
	switch state.Phase {
	case engine.PhaseAuction:
		if b.RNG.Intn(4) > 0 {
			return legal[0]
		}
		n := len(legal)
		if n > 4 {
			n = 4
		}
		return legal[b.RNG.Intn(n)]
	case engine.PhasePlay:
		return legal[b.RNG.Intn(len(legal))]
	default:
		return legal[0]
	}
}

type NormalBot struct {
	RNG *rand.Rand
}

func NewNormal(seed int64) *NormalBot {
	return &NormalBot{RNG: rand.New(rand.NewSource(seed))}
}

func (b *NormalBot) ChooseAction(state engine.MatchState, actor engine.Seat) engine.Action {
	legal := engine.LegalActions(state, actor)
	if len(legal) == 0 {
		return engine.Action{Type: engine.ActionAdvance}
	}
	switch state.Phase {
	case engine.PhaseAuction:
		return bidByHeuristic(state, actor, legal)
	case engine.PhasePlay:
		return playHeuristic(state, legal)
	default:
		return legal[0]
	}
}

// bidByHeuristic opens or overcalls in the longest suit with 12 or more high
// card points and passes otherwise. It never doubles.
func bidByHeuristic(state engine.MatchState, actor engine.Seat, legal []engine.Action) engine.Action {
	pass := legal[0]
	hand := state.Hands[actor]
	points := engine.HCP(hand)
	if points < 12 {
		return pass
	}
	if high, ok := state.Auction.HighestBid(); ok && high.Seat.Side() == actor.Side() {
		return pass
	}

	counts := map[engine.Suit]int{}
	for _, c := range hand {
		counts[c.Suit]++
	}
	strain := engine.StrainClubs
	longest := -1
	for _, s := range engine.Suits {
		if counts[s] >= longest {
			longest = counts[s]
			strain = engine.Strain(s)
		}
	}
	if balanced(counts) && points >= 15 {
		strain = engine.StrainNoTrump
	}
	maxLevel := 1 + (points-12)/4
	for _, a := range legal {
		if a.Call == nil || !a.Call.IsBid() {
			continue
		}
		if a.Call.Strain == strain && a.Call.Level <= maxLevel {
			return a
		}
	}
	return pass
}

func balanced(counts map[engine.Suit]int) bool {
	doubletons := 0
	for _, s := range engine.Suits {
		switch {
		case counts[s] < 2:
			return false
		case counts[s] == 2:
			doubletons++
		}
	}
	return doubletons <= 1
}

// playHeuristic leads the highest card, wins as cheaply as possible when the
// partnership is not already winning, and otherwise sheds the lowest card.
func playHeuristic(state engine.MatchState, legal []engine.Action) engine.Action {
	trick := state.Trick
	seat := trick.Next()
	if trick.Empty() {
		best := legal[0]
		for _, a := range legal {
			if a.Card.Rank > best.Card.Rank {
				best = a
			}
		}
		return best
	}

	strain := state.Contract.Strain
	if leader, ok := trick.Leading(strain); ok && leader.Side() == seat.Side() {
		return lowest(legal)
	}

	var bestWinning *engine.Action
	for i := range legal {
		a := legal[i]
		if !winsIfPlayed(trick, seat, *a.Card, strain) {
			continue
		}
		if bestWinning == nil || cheaper(*a.Card, *bestWinning.Card, strain) {
			bestWinning = &a
		}
	}
	if bestWinning != nil {
		return *bestWinning
	}
	return lowest(legal)
}

func lowest(legal []engine.Action) engine.Action {
	low := legal[0]
	for _, a := range legal {
		if engine.RankStrength(a.Card.Rank) < engine.RankStrength(low.Card.Rank) {
			low = a
		}
	}
	return low
}

// cheaper prefers non-trumps, then lower ranks.
func cheaper(a, b engine.Card, strain engine.Strain) bool {
	trump, ok := strain.Trump()
	if ok && (a.Suit == trump) != (b.Suit == trump) {
		return b.Suit == trump
	}
	return engine.RankStrength(a.Rank) < engine.RankStrength(b.Rank)
}

func winsIfPlayed(trick engine.Trick, seat engine.Seat, card engine.Card, strain engine.Strain) bool {
	t := trick.Clone()
	t.Plays = append(t.Plays, engine.Play{Seat: seat, Card: card})
	winner, ok := t.Leading(strain)
	return ok && winner == seat
}
