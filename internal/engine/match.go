package engine

import "math/rand"

type Rules struct {
	// MaxRounds ends the match after that many deals; zero plays forever.
	MaxRounds int
	// DeclarerFirstNamed makes declarer the first player of the winning side
	// to bid the final strain, instead of the player who made the final bid.
	DeclarerFirstNamed bool
	Scorer             Scorer
	// Vulnerability is consulted once per deal. Nil leaves both sides not vulnerable.
	Vulnerability func(round int, dealer Seat) [2]bool
}

func StandardRules() Rules {
	return Rules{
		MaxRounds: 4,
	}
}

// MatchState is the authoritative state of one table.
type MatchState struct {
	Rules Rules
	Seed  int64
	Phase Phase
	Round int

	Dealer Seat
	Hands  [4][]Card

	Auction  Auction
	Contract *Contract

	Trick         Trick
	Tricks        []Trick
	TricksWon     [2]int
	DummyRevealed bool

	Vulnerable  [2]bool
	RoundScores []RoundScore
	TotalScores [2]int
}

func NewMatch(r Rules, seed int64) MatchState {
	return MatchState{
		Rules: r,
		Seed:  seed,
		Phase: PhasePartnership,
		Round: 1,
	}
}

// Clone returns a deep copy that shares no slices with g.
func (g MatchState) Clone() MatchState {
	out := g
	for i := range g.Hands {
		out.Hands[i] = append([]Card(nil), g.Hands[i]...)
	}
	out.Auction = g.Auction.Clone()
	if g.Contract != nil {
		c := *g.Contract
		out.Contract = &c
	}
	out.Trick = g.Trick.Clone()
	if g.Tricks != nil {
		out.Tricks = make([]Trick, len(g.Tricks))
		for i, t := range g.Tricks {
			out.Tricks[i] = t.Clone()
		}
	}
	out.RoundScores = append([]RoundScore(nil), g.RoundScores...)
	return out
}

func (g *MatchState) resetRound() {
	g.Phase = PhaseDeal
	g.Hands = [4][]Card{}
	g.Auction = NewAuction(g.Dealer)
	g.Contract = nil
	g.Trick = Trick{}
	g.Tricks = nil
	g.TricksWon = [2]int{}
	g.DummyRevealed = false
	g.Vulnerable = [2]bool{}
}

// Dummy returns the dummy seat once a contract exists.
func (g MatchState) Dummy() (Seat, bool) {
	if g.Contract == nil {
		return 0, false
	}
	return g.Contract.Dummy(), true
}

// Controls reports whether actor may act for seat. During play declarer
// plays dummy's cards and dummy plays none.
func Controls(g MatchState, actor, seat Seat) bool {
	if g.Phase == PhasePlay && g.Contract != nil && seat == g.Contract.Dummy() {
		return actor == g.Contract.Declarer
	}
	return actor == seat
}

// AdvancePhase moves the match past a phase that waits on an external trigger:
// seating, dealing, and the end of a scored deal.
func AdvancePhase(g *MatchState) error {
	switch g.Phase {
	case PhasePartnership:
		rng := rand.New(rand.NewSource(g.Seed))
		g.Dealer = Seats[rng.Intn(len(Seats))]
		g.resetRound()
		return nil
	case PhaseDeal:
		return DealRound(g)
	case PhaseScoring:
		if g.Rules.MaxRounds > 0 && g.Round >= g.Rules.MaxRounds {
			g.Phase = PhaseGameOver
			return nil
		}
		g.Round++
		g.Dealer = g.Dealer.Next()
		g.resetRound()
		return nil
	default:
		return invalidPhase("nothing to advance during " + g.Phase.String())
	}
}

// DealRound shuffles a deck from the match seed and opens the auction.
func DealRound(g *MatchState) error {
	if g.Phase != PhaseDeal {
		return invalidPhase("cards are dealt only in the deal phase")
	}
	deck := Shuffle(BuildDeck(), g.Seed+int64(g.Round))
	return DealHands(g, DealFrom(deck, g.Dealer))
}

// DealHands installs a prepared deal and opens the auction.
func DealHands(g *MatchState, hands [4][]Card) error {
	if g.Phase != PhaseDeal {
		return invalidPhase("cards are dealt only in the deal phase")
	}
	if err := ValidateDeal(hands); err != nil {
		return err
	}
	for i := range hands {
		g.Hands[i] = append([]Card(nil), hands[i]...)
	}
	g.Auction = NewAuction(g.Dealer)
	if g.Rules.Vulnerability != nil {
		g.Vulnerable = g.Rules.Vulnerability(g.Round, g.Dealer)
	}
	g.Phase = PhaseAuction
	return nil
}

// MakeCall applies call for seat and, when it ends the auction, moves to play
// or, for a passed-out deal, straight to scoring.
func MakeCall(g *MatchState, seat Seat, call Call) error {
	if g.Phase != PhaseAuction {
		return invalidPhase("calls are accepted only during the auction")
	}
	if !seat.Valid() {
		return malformed("unknown seat")
	}
	if err := g.Auction.Apply(seat, call); err != nil {
		return err
	}
	if g.Auction.Terminated() {
		finishAuction(g)
	}
	return nil
}

func finishAuction(g *MatchState) {
	c, ok := g.Auction.Contract(g.Rules.DeclarerFirstNamed)
	if !ok {
		g.Contract = nil
		scoreRound(g)
		g.Phase = PhaseScoring
		return
	}
	g.Contract = &c
	g.Trick = NewTrick(c.Declarer.Next())
	g.Phase = PhasePlay
}

// PlayCard plays card from seat's hand. seat is the owner of the card, so
// declarer's plays from dummy are submitted with seat set to dummy.
func PlayCard(g *MatchState, seat Seat, card Card) error {
	if g.Phase != PhasePlay || g.Contract == nil {
		return invalidPhase("cards are played only during play")
	}
	if !seat.Valid() {
		return malformed("unknown seat")
	}
	if err := checkPlay(g.Hands[seat], g.Trick, seat, card); err != nil {
		return err
	}

	g.Hands[seat], _ = removeCard(g.Hands[seat], card)
	g.Trick.Plays = append(g.Trick.Plays, Play{Seat: seat, Card: card})
	if len(g.Tricks) == 0 && len(g.Trick.Plays) == 1 {
		g.DummyRevealed = true
	}
	if g.Trick.Complete() {
		resolveTrick(g)
	}
	return nil
}

func resolveTrick(g *MatchState) {
	winner, _ := g.Trick.Winner(g.Contract.Strain)
	g.TricksWon[winner.Side()]++
	g.Tricks = append(g.Tricks, g.Trick)
	g.Trick = NewTrick(winner)
	if len(g.Tricks) == TricksPerDeal {
		scoreRound(g)
		g.Phase = PhaseScoring
	}
}

// LastTrick returns the most recently completed trick.
func (g MatchState) LastTrick() (Trick, bool) {
	if len(g.Tricks) == 0 {
		return Trick{}, false
	}
	return g.Tricks[len(g.Tricks)-1], true
}

// ResetMatch replaces the whole state, keeping the rules.
func ResetMatch(g *MatchState, seed int64) {
	*g = NewMatch(g.Rules, seed)
}
