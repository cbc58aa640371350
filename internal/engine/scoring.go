package engine

// ScoreInput is what an external scorer needs to price a finished deal.
type ScoreInput struct {
	Contract       Contract
	DeclarerTricks int
	Vulnerable     bool
}

// Scorer prices a played contract. The returned scores are signed, per side.
type Scorer interface {
	Score(in ScoreInput) (ns, ew int)
}

type ScorerFunc func(in ScoreInput) (ns, ew int)

func (f ScorerFunc) Score(in ScoreInput) (int, int) {
	return f(in)
}

// PracticeScorer is a flat scorer for casual tables: the declaring side gets
// 20 per contracted trick plus 10 per overtrick, the defenders 50 per
// undertrick. Doubling multiplies both, and vulnerable undertricks count double.
var PracticeScorer = ScorerFunc(func(in ScoreInput) (int, int) {
	mult := 1
	switch in.Contract.Doubled {
	case Doubled:
		mult = 2
	case Redoubled:
		mult = 4
	}
	diff := in.DeclarerTricks - in.Contract.Target()
	var declarer, defenders int
	if diff >= 0 {
		declarer = (20*in.Contract.Level + 10*diff) * mult
	} else {
		defenders = 50 * -diff * mult
		if in.Vulnerable {
			defenders *= 2
		}
	}
	var out [2]int
	side := in.Contract.Declarer.Side()
	out[side] = declarer
	out[side.Opponent()] = defenders
	return out[SideNS], out[SideEW]
})

// RoundScore is the history entry written when a deal reaches scoring.
type RoundScore struct {
	Round     int
	Contract  *Contract
	Made      int
	PassedOut bool
	NS        int
	EW        int
}

// Result is tricks over (positive) or under (negative) the contract target.
func (r RoundScore) Result() int {
	if r.Contract == nil {
		return 0
	}
	return r.Made - r.Contract.Target()
}

func scoreRound(g *MatchState) {
	entry := RoundScore{Round: g.Round}
	if g.Contract == nil {
		entry.PassedOut = true
		g.RoundScores = append(g.RoundScores, entry)
		return
	}
	c := *g.Contract
	side := c.Declarer.Side()
	entry.Contract = &c
	entry.Made = g.TricksWon[side]
	if g.Rules.Scorer != nil {
		entry.NS, entry.EW = g.Rules.Scorer.Score(ScoreInput{
			Contract:       c,
			DeclarerTricks: entry.Made,
			Vulnerable:     g.Vulnerable[side],
		})
	}
	g.TotalScores[SideNS] += entry.NS
	g.TotalScores[SideEW] += entry.EW
	g.RoundScores = append(g.RoundScores, entry)
}
