package sim

import (
	"fmt"
	"math/rand"

	"bridge/internal/engine"
)

type ActionRecord struct {
	Round int
	Step  int
	Phase engine.Phase
	P     engine.Seat
	A     engine.Action
}

// Report summarizes a finished self-play match.
type Report struct {
	Seed      int64
	Steps     int
	PassedOut int
	Scores    []engine.RoundScore
	Totals    [2]int
}

func RunSelfPlayRounds(seed int64, rounds int, maxStepsPerRound int) error {
	_, err := Run(seed, rounds, maxStepsPerRound)
	return err
}

// Run plays rounds deals with seeded random legal choices, checking the
// card and trick invariants after every step.
func Run(seed int64, rounds int, maxStepsPerRound int) (Report, error) {
	if rounds <= 0 {
		return Report{Seed: seed}, fmt.Errorf("rounds must be positive, got %d", rounds)
	}
	rules := engine.StandardRules()
	rules.MaxRounds = rounds
	rules.Scorer = engine.PracticeScorer
	state := engine.NewMatch(rules, seed)
	rng := rand.New(rand.NewSource(seed))
	report := Report{Seed: seed}

	if err := engine.AdvancePhase(&state); err != nil {
		return report, failure(seed, 0, 0, state.Phase, -1, nil, fmt.Sprintf("start: %v", err))
	}

	for r := 0; r < rounds; r++ {
		if err := engine.AdvancePhase(&state); err != nil {
			return report, failure(seed, r, 0, state.Phase, -1, nil, fmt.Sprintf("deal: %v", err))
		}

		records := []ActionRecord{}
		revealed := false
		for step := 0; state.Phase != engine.PhaseScoring; step++ {
			if step >= maxStepsPerRound {
				return report, failure(seed, r, step, state.Phase, -1, records, "step limit reached")
			}
			actor, ok := engine.CurrentActor(state)
			if !ok {
				return report, failure(seed, r, step, state.Phase, -1, records, "no current player")
			}
			legal := engine.LegalActions(state, actor)
			if len(legal) == 0 {
				return report, failure(seed, r, step, state.Phase, actor, records, "no legal actions")
			}
			action := chooseAction(rng, state, legal)
			phase := state.Phase
			if err := engine.ApplyAction(&state, actor, action); err != nil {
				return report, failure(seed, r, step, phase, actor, records, fmt.Sprintf("apply error: %v", err))
			}
			records = append(records, ActionRecord{
				Round: r,
				Step:  step,
				Phase: phase,
				P:     actor,
				A:     action,
			})
			report.Steps++
			if revealed && !state.DummyRevealed {
				return report, failure(seed, r, step, state.Phase, actor, records, "dummy hidden again")
			}
			revealed = state.DummyRevealed
			if err := checkInvariants(state); err != nil {
				return report, failure(seed, r, step, state.Phase, actor, records, err.Error())
			}
		}

		if state.Contract == nil {
			report.PassedOut++
		}
		if err := engine.AdvancePhase(&state); err != nil {
			return report, failure(seed, r, 0, state.Phase, -1, records, fmt.Sprintf("next round: %v", err))
		}
	}
	if state.Phase != engine.PhaseGameOver {
		return report, failure(seed, rounds, 0, state.Phase, -1, nil, "match did not end")
	}
	report.Scores = state.RoundScores
	report.Totals = state.TotalScores
	return report, nil
}

// chooseAction passes often enough that auctions end, and otherwise picks a
// low bid or any legal card.
func chooseAction(rng *rand.Rand, state engine.MatchState, legal []engine.Action) engine.Action {
	if state.Phase != engine.PhaseAuction {
		return legal[rng.Intn(len(legal))]
	}
	if rng.Intn(10) < 6 {
		return legal[0]
	}
	n := len(legal)
	if n > 5 {
		n = 5
	}
	return legal[rng.Intn(n)]
}

func checkInvariants(state engine.MatchState) error {
	if state.Phase == engine.PhaseDeal || state.Phase == engine.PhaseGameOver {
		return nil
	}
	total, dup := countCards(state)
	if total != engine.DeckSize {
		return fmt.Errorf("card count mismatch: %d", total)
	}
	if dup {
		return fmt.Errorf("duplicate card detected")
	}
	if len(state.Trick.Plays) > 3 {
		return fmt.Errorf("invalid trick size: %d", len(state.Trick.Plays))
	}
	if state.TricksWon[0]+state.TricksWon[1] != len(state.Tricks) {
		return fmt.Errorf("trick count mismatch: %v vs %d", state.TricksWon, len(state.Tricks))
	}
	for _, h := range state.Hands {
		if len(h) > engine.HandSize {
			return fmt.Errorf("hand size too large: %d", len(h))
		}
	}
	if state.Contract != nil {
		high, ok := state.Auction.HighestBid()
		if !ok {
			return fmt.Errorf("contract without a bid")
		}
		if high.Seat.Side() != state.Contract.Declarer.Side() {
			return fmt.Errorf("declarer %v is not on the side of the final bid", state.Contract.Declarer)
		}
	}
	if state.Phase == engine.PhasePlay {
		played := len(state.Tricks)*4 + len(state.Trick.Plays)
		if played > 0 && !state.DummyRevealed {
			return fmt.Errorf("dummy not revealed after the opening lead")
		}
	}
	return nil
}

func countCards(state engine.MatchState) (int, bool) {
	seen := map[engine.Card]bool{}
	total := 0
	dup := false
	add := func(c engine.Card) {
		total++
		if seen[c] {
			dup = true
		}
		seen[c] = true
	}
	for _, h := range state.Hands {
		for _, c := range h {
			add(c)
		}
	}
	for _, t := range state.Tricks {
		for _, c := range t.Cards() {
			add(c)
		}
	}
	for _, c := range state.Trick.Cards() {
		add(c)
	}
	return total, dup
}

func failure(seed int64, round int, step int, phase engine.Phase, player engine.Seat, records []ActionRecord, reason string) error {
	start := 0
	if len(records) > 20 {
		start = len(records) - 20
	}
	log := ""
	for _, r := range records[start:] {
		log += fmt.Sprintf("[r%d s%d %v %v] %s\n", r.Round, r.Step, r.P, r.Phase, describe(r.A))
	}
	return fmt.Errorf("seed=%d round=%d step=%d phase=%v player=%v reason=%s\nlast actions:\n%s",
		seed, round, step, phase, player, reason, log)
}

func describe(a engine.Action) string {
	switch {
	case a.Call != nil:
		return a.Call.String()
	case a.Card != nil && a.Seat != nil:
		return fmt.Sprintf("%v from %v", *a.Card, *a.Seat)
	case a.Card != nil:
		return a.Card.String()
	default:
		return a.Type.String()
	}
}
