package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// suitHands gives North all spades, East all hearts, South all diamonds
// and West all clubs.
func suitHands() [4][]Card {
	var hands [4][]Card
	owners := map[Suit]Seat{SuitSpades: North, SuitHearts: East, SuitDiamonds: South, SuitClubs: West}
	for _, card := range BuildDeck() {
		seat := owners[card.Suit]
		hands[seat] = append(hands[seat], card)
	}
	for i := range hands {
		SortHand(hands[i])
	}
	return hands
}

func dealtMatch(t *testing.T, r Rules, dealer Seat, hands [4][]Card) MatchState {
	t.Helper()
	g := NewMatch(r, 1)
	g.Phase = PhaseDeal
	g.Dealer = dealer
	require.NoError(t, DealHands(&g, hands))
	require.Equal(t, PhaseAuction, g.Phase)
	return g
}

func call(t *testing.T, g *MatchState, calls ...Call) {
	t.Helper()
	for _, cl := range calls {
		seat, ok := CurrentPlayer(*g)
		require.True(t, ok)
		require.NoError(t, ApplyAction(g, seat, Action{Type: ActionCall, Call: &cl}), "call %v", cl)
	}
}

func playFirstLegal(t *testing.T, g *MatchState) Action {
	t.Helper()
	actor, ok := CurrentActor(*g)
	require.True(t, ok)
	legal := LegalActions(*g, actor)
	require.NotEmpty(t, legal)
	require.NoError(t, ApplyAction(g, actor, legal[0]))
	return legal[0]
}

func TestOneNoTrumpContractStartsPlay(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Pass(), Pass(), Bid(1, StrainNoTrump), Pass(), Pass(), Pass())

	require.Equal(t, PhasePlay, g.Phase)
	require.NotNil(t, g.Contract)
	require.Equal(t, "1NT by South", g.Contract.String())
	dummy, ok := g.Dummy()
	require.True(t, ok)
	require.Equal(t, North, dummy)

	seat, ok := CurrentPlayer(g)
	require.True(t, ok)
	require.Equal(t, West, seat)
	require.False(t, g.DummyRevealed)
}

func TestPassedOutDealGoesToScoring(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Pass(), Pass(), Pass(), Pass())

	require.Equal(t, PhaseScoring, g.Phase)
	require.Nil(t, g.Contract)
	require.Equal(t, []RoundScore{{Round: 1, PassedOut: true}}, g.RoundScores)
	require.Equal(t, [2]int{}, g.TotalScores)
}

func TestDeclarerPlaysForDummy(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Pass(), Pass(), Bid(1, StrainNoTrump), Pass(), Pass(), Pass())

	lead := c(SuitClubs, RankA)
	require.NoError(t, ApplyAction(&g, West, Action{Type: ActionPlayCard, Card: &lead}))
	require.True(t, g.DummyRevealed)

	// North is dummy and may not play its own cards.
	spade := c(SuitSpades, Rank2)
	err := ApplyAction(&g, North, Action{Type: ActionPlayCard, Card: &spade})
	require.ErrorIs(t, err, ErrOutOfTurn)
	require.Empty(t, LegalActions(g, North))

	actor, ok := CurrentActor(g)
	require.True(t, ok)
	require.Equal(t, South, actor)
	require.Len(t, LegalActions(g, South), 13)
	require.NoError(t, ApplyAction(&g, South, Action{Type: ActionPlayCard, Card: &spade}))
	require.Len(t, g.Hands[North], 12)

	// Declarer cannot reach into an opponent's hand.
	heart := c(SuitHearts, Rank2)
	east := East
	err = ApplyAction(&g, South, Action{Type: ActionPlayCard, Card: &heart, Seat: &east})
	require.ErrorIs(t, err, ErrOutOfTurn)
}

func TestRejectedCommandLeavesStateUnchanged(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Bid(1, StrainClubs))
	before := g.Clone()

	low := Bid(1, StrainClubs)
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionCall, Call: &low}), ErrInsufficientBid)
	require.ErrorIs(t, ApplyAction(&g, West, Action{Type: ActionCall, Call: &low}), ErrOutOfTurn)
	xx := Redouble()
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionCall, Call: &xx}), ErrCannotRedouble)
	card := c(SuitHearts, RankA)
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionPlayCard, Card: &card}), ErrInvalidPhase)
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionAdvance}), ErrInvalidPhase)
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionCall}), ErrMalformed)
	require.Equal(t, before, g)

	call(t, &g, Pass(), Pass(), Pass())
	require.Equal(t, PhasePlay, g.Phase)
	// North declares clubs, East leads.
	before = g.Clone()
	notHeld := c(SuitSpades, RankA)
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionPlayCard, Card: &notHeld}), ErrCardNotHeld)
	require.ErrorIs(t, ApplyAction(&g, West, Action{Type: ActionPlayCard, Card: &card}), ErrOutOfTurn)
	pass := Pass()
	require.ErrorIs(t, ApplyAction(&g, East, Action{Type: ActionCall, Call: &pass}), ErrInvalidPhase)
	require.Equal(t, before, g)
}

func TestRevokeRejected(t *testing.T) {
	hands := DealFrom(BuildDeck(), North)
	g := dealtMatch(t, StandardRules(), North, hands)
	call(t, &g, Bid(1, StrainSpades), Pass(), Pass(), Pass())
	require.Equal(t, East, g.Contract.Declarer)

	// South leads; West must follow when able.
	lead := g.Hands[South][0]
	require.NoError(t, PlayCard(&g, South, lead))
	for _, card := range g.Hands[West] {
		if card.Suit != lead.Suit && hasSuit(g.Hands[West], lead.Suit) {
			require.ErrorIs(t, PlayCard(&g, West, card), ErrRevoke)
			return
		}
	}
}

func TestFullDealScoresAndRotates(t *testing.T) {
	r := StandardRules()
	r.MaxRounds = 2
	r.Scorer = ScorerFunc(func(in ScoreInput) (int, int) {
		if in.Contract.Declarer.Side() == SideNS {
			return in.DeclarerTricks, 0
		}
		return 0, in.DeclarerTricks
	})
	g := dealtMatch(t, r, West, suitHands())
	call(t, &g, Pass(), Pass(), Bid(1, StrainNoTrump), Pass(), Pass(), Pass())

	for g.Phase == PhasePlay {
		playFirstLegal(t, &g)
		require.LessOrEqual(t, len(g.Trick.Plays), 3)
	}
	require.Equal(t, PhaseScoring, g.Phase)
	require.Len(t, g.Tricks, TricksPerDeal)
	// West runs thirteen clubs.
	require.Equal(t, [2]int{0, 13}, g.TricksWon)
	for _, h := range g.Hands {
		require.Empty(t, h)
	}
	require.Len(t, g.RoundScores, 1)
	require.Equal(t, -7, g.RoundScores[0].Result())
	require.Equal(t, [2]int{0, 0}, g.TotalScores)

	last, ok := g.LastTrick()
	require.True(t, ok)
	require.Equal(t, West, last.Leader)

	require.NoError(t, AdvancePhase(&g))
	require.Equal(t, PhaseDeal, g.Phase)
	require.Equal(t, 2, g.Round)
	require.Equal(t, North, g.Dealer)
	require.Nil(t, g.Contract)
	require.Empty(t, g.Tricks)
	require.False(t, g.DummyRevealed)

	require.NoError(t, AdvancePhase(&g))
	require.Equal(t, PhaseAuction, g.Phase)
	require.Equal(t, East, g.Auction.Turn())
	call(t, &g, Pass(), Pass(), Pass(), Pass())
	require.Len(t, g.RoundScores, 2)

	require.NoError(t, AdvancePhase(&g))
	require.Equal(t, PhaseGameOver, g.Phase)
	require.ErrorIs(t, AdvancePhase(&g), ErrInvalidPhase)
	require.Equal(t, []Action(nil), LegalActions(g, North))
}

func TestPhaseMachineFromPartnership(t *testing.T) {
	r := StandardRules()
	r.Vulnerability = func(round int, dealer Seat) [2]bool {
		return [2]bool{dealer.Side() == SideNS, round%2 == 0}
	}
	g := NewMatch(r, 99)
	require.Equal(t, PhasePartnership, g.Phase)
	require.Equal(t, []Action{{Type: ActionAdvance}}, LegalActions(g, South))
	_, ok := CurrentPlayer(g)
	require.False(t, ok)

	require.NoError(t, ApplyAction(&g, South, Action{Type: ActionAdvance}))
	require.Equal(t, PhaseDeal, g.Phase)
	dealer := g.Dealer

	other := NewMatch(r, 99)
	require.NoError(t, AdvancePhase(&other))
	require.Equal(t, dealer, other.Dealer)

	require.NoError(t, AdvancePhase(&g))
	require.Equal(t, PhaseAuction, g.Phase)
	require.NoError(t, ValidateDeal(g.Hands))
	require.Equal(t, dealer.Next(), g.Auction.Turn())
	require.Equal(t, [2]bool{dealer.Side() == SideNS, false}, g.Vulnerable)

	require.NoError(t, AdvancePhase(&other))
	require.Equal(t, g.Hands, other.Hands)

	require.ErrorIs(t, DealHands(&g, suitHands()), ErrInvalidPhase)
}

func TestDealHandsRejectsBadDeal(t *testing.T) {
	g := NewMatch(StandardRules(), 1)
	g.Phase = PhaseDeal
	hands := suitHands()
	hands[0] = hands[0][:12]
	require.ErrorIs(t, DealHands(&g, hands), ErrDealIncomplete)
	require.Equal(t, PhaseDeal, g.Phase)
	require.Empty(t, g.Hands[1])
}

func TestLegalActionsAuctionOrder(t *testing.T) {
	g := dealtMatch(t, StandardRules(), East, suitHands())
	require.Nil(t, LegalActions(g, North))

	acts := LegalActions(g, South)
	require.Len(t, acts, 36)
	require.Equal(t, CallPass, acts[0].Call.Kind)
	require.Equal(t, Bid(1, StrainClubs), *acts[1].Call)
	require.Equal(t, Bid(7, StrainNoTrump), *acts[35].Call)

	call(t, &g, Bid(2, StrainHearts))
	acts = LegalActions(g, West)
	require.Equal(t, CallPass, acts[0].Call.Kind)
	require.Equal(t, CallDouble, acts[1].Call.Kind)
	require.Equal(t, Bid(2, StrainSpades), *acts[2].Call)
}

func TestResetMatch(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Pass(), Pass(), Pass(), Pass())
	ResetMatch(&g, 5)
	require.Equal(t, NewMatch(StandardRules(), 5), g)
}

func TestCloneIsIndependent(t *testing.T) {
	g := dealtMatch(t, StandardRules(), West, suitHands())
	call(t, &g, Pass(), Pass(), Bid(1, StrainNoTrump), Pass(), Pass(), Pass())
	cp := g.Clone()

	playFirstLegal(t, &g)
	require.Len(t, cp.Hands[West], 13)
	require.Empty(t, cp.Trick.Plays)
	require.False(t, cp.DummyRevealed)

	cp.Contract.Level = 7
	require.Equal(t, 1, g.Contract.Level)
}
