package engine

// RankStrength orders ranks within a suit, 2 lowest and A highest.
func RankStrength(r Rank) int {
	if !r.Valid() {
		return 0
	}
	return int(r)
}

// HCP is the Milton Work high-card point value of a card.
func (c Card) HCP() int {
	switch c.Rank {
	case RankA:
		return 4
	case RankK:
		return 3
	case RankQ:
		return 2
	case RankJ:
		return 1
	default:
		return 0
	}
}

func HCP(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.HCP()
	}
	return total
}

// trickWinner returns the seat that wins plays under strain. The highest trump
// wins when any trump was played, otherwise the highest card of the led suit.
func trickWinner(plays []Play, strain Strain) (Seat, bool) {
	if len(plays) == 0 {
		return 0, false
	}
	trump, hasTrump := strain.Trump()
	leadSuit := plays[0].Card.Suit
	bestIdx := 0
	for i := 1; i < len(plays); i++ {
		c := plays[i].Card
		best := plays[bestIdx].Card

		if hasTrump {
			if c.Suit == trump && best.Suit != trump {
				bestIdx = i
				continue
			}
			if c.Suit != trump && best.Suit == trump {
				continue
			}
		}

		if c.Suit == best.Suit {
			if RankStrength(c.Rank) > RankStrength(best.Rank) {
				bestIdx = i
			}
			continue
		}

		if best.Suit != leadSuit && c.Suit == leadSuit {
			bestIdx = i
		}
	}
	return plays[bestIdx].Seat, true
}
