package ports

import (
	"context"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for wallet owners.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance float64) error
}

// SessionRepository defines persistence operations for player sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.PlayerSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PlayerSession, error)
	Update(ctx context.Context, session *domain.PlayerSession) error
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PlayerSession, error)
	CreateTx(ctx context.Context, tx pgx.Tx, session *domain.PlayerSession) error
	UpdateTx(ctx context.Context, tx pgx.Tx, session *domain.PlayerSession) error
}

// RoundRepository persists immutable round records.
type RoundRepository interface {
	Create(ctx context.Context, tx pgx.Tx, round *domain.Round) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountWinsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// BetRepository persists bets, one-to-one with rounds.
type BetRepository interface {
	Create(ctx context.Context, tx pgx.Tx, bet *domain.Bet) error
	SumWinningsByUser(ctx context.Context, userID uuid.UUID) (float64, error)
}

// JackpotRepository persists the append-only jackpot ledger.
type JackpotRepository interface {
	Create(ctx context.Context, tx pgx.Tx, jackpot *domain.Jackpot) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
