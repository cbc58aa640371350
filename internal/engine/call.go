package engine

import (
	"fmt"
	"strconv"
	"strings"
)

type CallKind int

const (
	CallPass CallKind = iota
	CallDouble
	CallRedouble
	CallBid
)

func (k CallKind) String() string {
	switch k {
	case CallPass:
		return "pass"
	case CallDouble:
		return "double"
	case CallRedouble:
		return "redouble"
	case CallBid:
		return "bid"
	default:
		return "unknown"
	}
}

const (
	MinLevel = 1
	MaxLevel = 7
)

// Call is one auction action. Level and Strain are only meaningful for CallBid.
type Call struct {
	Kind   CallKind
	Level  int
	Strain Strain
}

func Pass() Call     { return Call{Kind: CallPass} }
func Double() Call   { return Call{Kind: CallDouble} }
func Redouble() Call { return Call{Kind: CallRedouble} }

func Bid(level int, strain Strain) Call {
	return Call{Kind: CallBid, Level: level, Strain: strain}
}

func (c Call) IsBid() bool {
	return c.Kind == CallBid
}

func (c Call) Validate() error {
	switch c.Kind {
	case CallPass, CallDouble, CallRedouble:
		return nil
	case CallBid:
		if c.Level < MinLevel || c.Level > MaxLevel {
			return malformed(fmt.Sprintf("bid level %d out of range", c.Level))
		}
		if !c.Strain.Valid() {
			return malformed("unknown strain")
		}
		return nil
	default:
		return malformed("unknown call kind")
	}
}

func (c Call) String() string {
	switch c.Kind {
	case CallPass:
		return "Pass"
	case CallDouble:
		return "X"
	case CallRedouble:
		return "XX"
	case CallBid:
		return fmt.Sprintf("%d%s", c.Level, c.Strain)
	default:
		return "?"
	}
}

// Higher reports whether c is a bid that outranks other. Non-bids never outrank anything.
func (c Call) Higher(other Call) bool {
	return CompareCalls(c, other) > 0
}

// CompareCalls orders bids by level, then strain (C<D<H<S<NT).
// Pass, Double and Redouble carry no bid strength and compare as equal to anything.
func CompareCalls(a, b Call) int {
	if !a.IsBid() || !b.IsBid() {
		return 0
	}
	if a.Level != b.Level {
		if a.Level > b.Level {
			return 1
		}
		return -1
	}
	switch {
	case a.Strain > b.Strain:
		return 1
	case a.Strain < b.Strain:
		return -1
	default:
		return 0
	}
}

// ParseCall accepts "P"/"Pass", "X", "XX" and bids such as "1NT" or "4S".
func ParseCall(s string) (Call, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch u {
	case "P", "PASS":
		return Pass(), nil
	case "X", "DOUBLE":
		return Double(), nil
	case "XX", "REDOUBLE":
		return Redouble(), nil
	}
	if len(u) < 2 {
		return Call{}, malformed(fmt.Sprintf("invalid call %q", s))
	}
	level, err := strconv.Atoi(u[:1])
	if err != nil {
		return Call{}, malformed(fmt.Sprintf("invalid call %q", s))
	}
	strain, err := ParseStrain(u[1:])
	if err != nil {
		return Call{}, err
	}
	c := Bid(level, strain)
	if err := c.Validate(); err != nil {
		return Call{}, err
	}
	return c, nil
}

func ParseStrain(s string) (Strain, error) {
	switch strings.ToUpper(s) {
	case "C":
		return StrainClubs, nil
	case "D":
		return StrainDiamonds, nil
	case "H":
		return StrainHearts, nil
	case "S":
		return StrainSpades, nil
	case "NT", "N":
		return StrainNoTrump, nil
	default:
		return StrainClubs, malformed(fmt.Sprintf("invalid strain %q", s))
	}
}

// AuctionCall is one entry of the auction history.
type AuctionCall struct {
	Seat Seat
	Call Call
}

// ParseSeat accepts "N"/"North" and the other seats, in any case.
func ParseSeat(s string) (Seat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	default:
		return North, malformed(fmt.Sprintf("invalid seat %q", s))
	}
}

func ParseSuit(s string) (Suit, error) {
	switch strings.ToUpper(s) {
	case "C":
		return SuitClubs, nil
	case "D":
		return SuitDiamonds, nil
	case "H":
		return SuitHearts, nil
	case "S":
		return SuitSpades, nil
	default:
		return SuitClubs, malformed(fmt.Sprintf("invalid suit %q", s))
	}
}

func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "T":
		return Rank10, nil
	case "J":
		return RankJ, nil
	case "Q":
		return RankQ, nil
	case "K":
		return RankK, nil
	case "A":
		return RankA, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Rank(n).Valid() || n > 10 {
		return Rank2, malformed(fmt.Sprintf("invalid rank %q", s))
	}
	return Rank(n), nil
}

// ParseCard reads the Card.String form, rank then suit: "10H", "AS", "2c".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, malformed(fmt.Sprintf("invalid card %q", s))
	}
	suit, err := ParseSuit(s[len(s)-1:])
	if err != nil {
		return Card{}, err
	}
	rank, err := ParseRank(s[:len(s)-1])
	if err != nil {
		return Card{}, err
	}
	return Card{Suit: suit, Rank: rank}, nil
}
