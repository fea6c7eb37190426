package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a player's table session.
type SessionState string

const (
	SessionIdle    SessionState = "IDLE"
	SessionPlaying SessionState = "PLAYING"
)

// PlayerSession is the per-user table session. One per user.
// Invariant: State == SessionPlaying implies CardHistory is non-empty.
type PlayerSession struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"userId"`
	State         SessionState `json:"state"`
	TableStake    float64      `json:"tableStake"`
	CardHistory   []Card       `json:"cardHistory"`
	WinStreak     int          `json:"winStreak"`
	LastBetAmount float64      `json:"lastBetAmount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewPlayerSession returns a fresh idle session for the user.
func NewPlayerSession(userID uuid.UUID) *PlayerSession {
	now := time.Now().UTC()
	return &PlayerSession{
		ID:          uuid.New(),
		UserID:      userID,
		State:       SessionIdle,
		CardHistory: []Card{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsPlaying reports whether a round streak is in progress.
func (s *PlayerSession) IsPlaying() bool {
	return s.State == SessionPlaying
}

// CurrentCard returns the card the next guess is compared against.
// Only meaningful while playing.
func (s *PlayerSession) CurrentCard() (Card, bool) {
	if len(s.CardHistory) == 0 {
		return Card{}, false
	}
	return s.CardHistory[len(s.CardHistory)-1], true
}

// ResetToIdle clears the streak and returns the session to idle.
func (s *PlayerSession) ResetToIdle() {
	s.State = SessionIdle
	s.CardHistory = []Card{}
	s.WinStreak = 0
	s.TableStake = 0
}

// Clone returns a deep copy, so cached sessions are never aliased by callers.
func (s *PlayerSession) Clone() *PlayerSession {
	cp := *s
	cp.CardHistory = make([]Card, len(s.CardHistory))
	copy(cp.CardHistory, s.CardHistory)
	return &cp
}
