package engine

import "fmt"

type Suit int

type Rank int

const (
	SuitClubs Suit = iota
	SuitDiamonds
	SuitHearts
	SuitSpades
)

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
)

var (
	Suits = []Suit{SuitClubs, SuitDiamonds, SuitHearts, SuitSpades}
	Ranks = []Rank{Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA}
)

func (s Suit) String() string {
	switch s {
	case SuitClubs:
		return "C"
	case SuitDiamonds:
		return "D"
	case SuitHearts:
		return "H"
	case SuitSpades:
		return "S"
	default:
		return "?"
	}
}

func (s Suit) Valid() bool {
	return s >= SuitClubs && s <= SuitSpades
}

func (r Rank) String() string {
	switch r {
	case RankJ:
		return "J"
	case RankQ:
		return "Q"
	case RankK:
		return "K"
	case RankA:
		return "A"
	default:
		if r >= Rank2 && r <= Rank10 {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

func (r Rank) Valid() bool {
	return r >= Rank2 && r <= RankA
}

type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank.String(), c.Suit.String())
}

func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank.Valid()
}

// Strain is the denomination of a bid: a trump suit or no trump.
type Strain int

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	StrainNoTrump
)

var Strains = []Strain{StrainClubs, StrainDiamonds, StrainHearts, StrainSpades, StrainNoTrump}

func (s Strain) String() string {
	switch s {
	case StrainClubs:
		return "C"
	case StrainDiamonds:
		return "D"
	case StrainHearts:
		return "H"
	case StrainSpades:
		return "S"
	case StrainNoTrump:
		return "NT"
	default:
		return "?"
	}
}

func (s Strain) Valid() bool {
	return s >= StrainClubs && s <= StrainNoTrump
}

// Trump returns the trump suit of the strain; ok is false for no trump.
func (s Strain) Trump() (Suit, bool) {
	if s == StrainNoTrump || !s.Valid() {
		return 0, false
	}
	return Suit(s), true
}

type Seat int

const (
	North Seat = iota
	East
	South
	West
)

var Seats = [4]Seat{North, East, South, West}

func (s Seat) String() string {
	switch s {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

func (s Seat) Name() string {
	switch s {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

func (s Seat) Valid() bool {
	return s >= North && s <= West
}

// Next is the seat to the left, i.e. the next one clockwise.
func (s Seat) Next() Seat {
	return (s + 1) % 4
}

func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

func (s Seat) Side() Side {
	if s == North || s == South {
		return SideNS
	}
	return SideEW
}

// Side is a fixed partnership.
type Side int

const (
	SideNS Side = iota
	SideEW
)

func (s Side) String() string {
	if s == SideNS {
		return "NS"
	}
	return "EW"
}

func (s Side) Opponent() Side {
	return 1 - s
}

type Phase int

const (
	PhasePartnership Phase = iota
	PhaseDeal
	PhaseAuction
	PhasePlay
	PhaseScoring
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePartnership:
		return "partnership"
	case PhaseDeal:
		return "deal"
	case PhaseAuction:
		return "auction"
	case PhasePlay:
		return "play"
	case PhaseScoring:
		return "scoring"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

type DoubleState int

const (
	Undoubled DoubleState = iota
	Doubled
	Redoubled
)

func (d DoubleState) String() string {
	switch d {
	case Doubled:
		return "X"
	case Redoubled:
		return "XX"
	default:
		return ""
	}
}

type Contract struct {
	Level    int
	Strain   Strain
	Declarer Seat
	Doubled  DoubleState
}

func (c Contract) Dummy() Seat {
	return c.Declarer.Partner()
}

// Target is the number of tricks declarer's side needs to make the contract.
func (c Contract) Target() int {
	return 6 + c.Level
}

func (c Contract) String() string {
	return fmt.Sprintf("%d%s%s by %s", c.Level, c.Strain, c.Doubled, c.Declarer.Name())
}
