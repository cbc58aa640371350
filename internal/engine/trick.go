package engine

const (
	TricksPerDeal = 13
	HandSize      = 13
)

type Play struct {
	Seat Seat
	Card Card
}

// Trick is the plays of one round, in the order they were made.
type Trick struct {
	Leader Seat
	Plays  []Play
}

func NewTrick(leader Seat) Trick {
	return Trick{Leader: leader}
}

// Next is the seat expected to play; undefined once the trick is complete.
func (t Trick) Next() Seat {
	return Seat((int(t.Leader) + len(t.Plays)) % 4)
}

func (t Trick) Complete() bool {
	return len(t.Plays) == 4
}

func (t Trick) Empty() bool {
	return len(t.Plays) == 0
}

// LedSuit returns the suit of the first card played, if any.
func (t Trick) LedSuit() (Suit, bool) {
	if len(t.Plays) == 0 {
		return 0, false
	}
	return t.Plays[0].Card.Suit, true
}

// Winner resolves a complete trick.
func (t Trick) Winner(strain Strain) (Seat, bool) {
	if !t.Complete() {
		return 0, false
	}
	return trickWinner(t.Plays, strain)
}

// Leading returns the seat currently winning a trick in progress.
func (t Trick) Leading(strain Strain) (Seat, bool) {
	return trickWinner(t.Plays, strain)
}

func (t Trick) Cards() []Card {
	out := make([]Card, 0, len(t.Plays))
	for _, p := range t.Plays {
		out = append(out, p.Card)
	}
	return out
}

func (t Trick) Clone() Trick {
	t.Plays = append([]Play(nil), t.Plays...)
	return t
}

// LegalPlays returns the cards of hand that may be played to trick:
// anything on the lead, otherwise the led suit when held, otherwise anything.
func LegalPlays(hand []Card, trick Trick) []Card {
	led, ok := trick.LedSuit()
	if !ok {
		return append([]Card(nil), hand...)
	}
	if hasSuit(hand, led) {
		return filterBySuit(hand, led)
	}
	return append([]Card(nil), hand...)
}

// checkPlay validates card for seat against hand and trick without mutating anything.
func checkPlay(hand []Card, trick Trick, seat Seat, card Card) error {
	if !card.Valid() {
		return malformed("unknown card")
	}
	if trick.Complete() || seat != trick.Next() {
		return outOfTurn("play turn belongs to " + trick.Next().Name())
	}
	if !containsCard(hand, card) {
		return ErrCardNotHeld
	}
	if led, ok := trick.LedSuit(); ok && card.Suit != led && hasSuit(hand, led) {
		return ErrRevoke
	}
	return nil
}

func hasSuit(cards []Card, suit Suit) bool {
	for _, c := range cards {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func filterBySuit(cards []Card, suit Suit) []Card {
	out := []Card{}
	for _, c := range cards {
		if c.Suit == suit {
			out = append(out, c)
		}
	}
	return out
}

func containsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// removeCard returns hand without card. The input slice is not modified.
func removeCard(hand []Card, card Card) ([]Card, bool) {
	for i, c := range hand {
		if c == card {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			return append(out, hand[i+1:]...), true
		}
	}
	return hand, false
}
