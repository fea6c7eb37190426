package ports

import (
	"context"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
)

// CardSource draws uniformly random cards. Implementations must be safe
// for concurrent use; tests inject deterministic sources.
type CardSource interface {
	Draw() domain.Card
}

// SessionStore is the single source of truth for per-user session state.
// It fronts the session repository with a write-through in-memory cache:
// Save persists first and only then makes the new state visible.
type SessionStore interface {
	// Ensure returns the user's session, loading or lazily creating it.
	Ensure(ctx context.Context, userID uuid.UUID) (*domain.PlayerSession, error)
	// Save persists the session and, on success, publishes it to the cache.
	Save(ctx context.Context, session *domain.PlayerSession) error
	// Publish updates only the cache. Callers use it after the session row
	// was already persisted inside a committed transaction.
	Publish(session *domain.PlayerSession)
	// Forget drops the cached entry.
	Forget(userID uuid.UUID)
}

// DepositResult reports the balances after a wallet -> table transfer.
type DepositResult struct {
	TableBalance  float64 `json:"tableBalance"`
	UserBalance   float64 `json:"userBalance"`
	DepositAmount float64 `json:"depositAmount"`
}

// WithdrawResult reports the outcome of cashing the table stake out.
type WithdrawResult struct {
	Session        *domain.PlayerSession `json:"session"`
	UserBalance    float64               `json:"userBalance"`
	WithdrawAmount float64               `json:"withdrawAmount"`
}

// LedgerService owns every wallet <-> table-stake transfer. These are the
// only code paths allowed to mutate the wallet balance.
type LedgerService interface {
	Deposit(ctx context.Context, userID uuid.UUID, amount float64) (*DepositResult, error)
	Withdraw(ctx context.Context, userID uuid.UUID) (*WithdrawResult, error)
}

// StartResult is the response to starting a session.
type StartResult struct {
	CurrentCard  domain.Card           `json:"currentCard"`
	Session      *domain.PlayerSession `json:"session"`
	TableBalance float64               `json:"tableBalance"`
	BetAmount    float64               `json:"betAmount"`
	NextWin      domain.NextWinPreview `json:"nextWinPreview"`
}

// GuessResult is the response to a resolved guess, manual or automatic.
type GuessResult struct {
	Result       domain.Outcome         `json:"result"`
	Round        *domain.Round          `json:"round"`
	Bet          *domain.Bet            `json:"bet"`
	Session      *domain.PlayerSession  `json:"session"`
	Multiplier   float64                `json:"multiplier"`
	TableBalance float64                `json:"tableBalance"`
	WinAmount    float64                `json:"winAmount"`
	NextWin      *domain.NextWinPreview `json:"nextWinPreview"`
	Jackpot      *domain.Jackpot        `json:"jackpot,omitempty"`
}

// GameService is the round engine: the session state machine and the
// guess resolution path. Start and Guess are serialized per user.
type GameService interface {
	Start(ctx context.Context, userID uuid.UUID) (*StartResult, error)
	Guess(ctx context.Context, userID uuid.UUID, choice domain.Choice) (*GuessResult, error)
}

// SessionStats aggregates a user's lifetime play.
type SessionStats struct {
	TotalRounds   int64   `json:"totalRounds"`
	TotalWins     int64   `json:"totalWins"`
	TotalJackpots int64   `json:"totalJackpots"`
	TotalWinnings float64 `json:"totalWinnings"`
	WinRate       string  `json:"winRate"`
}

// StatsResult is the response to a stats query.
type StatsResult struct {
	Session      *domain.PlayerSession `json:"session"`
	UserBalance  float64               `json:"userBalance"`
	TableBalance float64               `json:"tableBalance"`
	Stats        SessionStats          `json:"stats"`
}

// StatsService reports aggregate play statistics.
type StatsService interface {
	Stats(ctx context.Context, userID uuid.UUID) (*StatsResult, error)
}

// TokenService resolves connection credentials to a user identity.
type TokenService interface {
	Generate(userID uuid.UUID) (string, error)
	Validate(token string) (uuid.UUID, error)
}

// RateLimiter throttles inbound messages per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
