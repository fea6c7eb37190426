package service

import (
	"math/rand"

	"updown-game-server/internal/core/domain"
)

// RandomCardSource implements ports.CardSource with uniform draws from
// the abstract 52-card deck. Draws are independent: the same card can
// appear twice in a row, which is what makes a full tie (push) possible.
type RandomCardSource struct{}

// NewRandomCardSource creates a new RandomCardSource.
func NewRandomCardSource() *RandomCardSource {
	return &RandomCardSource{}
}

// Draw returns a uniformly random card. Safe for concurrent use.
func (s *RandomCardSource) Draw() domain.Card {
	return domain.CardFromDraw(rand.Intn(domain.DeckSize) + 1)
}
