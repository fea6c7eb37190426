package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a resolved guess.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomePush Outcome = "push"
)

// Round is the immutable record of one resolved guess.
type Round struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	CurrentCard Card      `json:"currentCard"`
	NextCard    Card      `json:"nextCard"`
	Outcome     Outcome   `json:"outcome"`
	StakeAmount float64   `json:"stakeAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Bet is the player's call on a round, one-to-one with it.
type Bet struct {
	ID           uuid.UUID `json:"id"`
	RoundID      uuid.UUID `json:"roundId"`
	UserID       uuid.UUID `json:"userId"`
	Choice       Choice    `json:"choice"`
	Amount       float64   `json:"amount"`
	Won          bool      `json:"won"`
	PayoutAmount float64   `json:"payoutAmount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Jackpot is the append-only record of a jackpot payout.
type Jackpot struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"userId"`
	RoundIDs     []uuid.UUID `json:"roundIds"`
	PayoutAmount float64     `json:"payoutAmount"`
	CreatedAt    time.Time   `json:"createdAt"`
}
