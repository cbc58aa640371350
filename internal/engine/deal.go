package engine

import (
	"math/rand"
	"sort"
)

const DeckSize = 52

func BuildDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

func Shuffle(deck []Card, seed int64) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// DealFrom hands out deck one card at a time starting at the dealer's left.
func DealFrom(deck []Card, dealer Seat) [4][]Card {
	var hands [4][]Card
	seat := dealer.Next()
	for _, c := range deck {
		hands[seat] = append(hands[seat], c)
		seat = seat.Next()
	}
	for i := range hands {
		SortHand(hands[i])
	}
	return hands
}

// SortHand orders a hand by suit (spades first) then rank, high to low.
func SortHand(hand []Card) {
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit > hand[j].Suit
		}
		return hand[i].Rank > hand[j].Rank
	})
}

// ValidateDeal checks that four hands of 13 cards are disjoint and make up the deck.
func ValidateDeal(hands [4][]Card) error {
	seen := make(map[Card]bool, DeckSize)
	for _, h := range hands {
		if len(h) != HandSize {
			return ErrDealIncomplete
		}
		for _, c := range h {
			if !c.Valid() || seen[c] {
				return ErrDealIncomplete
			}
			seen[c] = true
		}
	}
	if len(seen) != DeckSize {
		return ErrDealIncomplete
	}
	return nil
}
