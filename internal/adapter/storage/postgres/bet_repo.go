package postgres

import (
	"context"
	"fmt"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BetRepo implements ports.BetRepository.
type BetRepo struct {
	pool Pool
}

// NewBetRepo creates a new BetRepo.
func NewBetRepo(pool Pool) *BetRepo {
	return &BetRepo{pool: pool}
}

// Create inserts a bet within a database transaction, in the same
// transaction as its round.
func (r *BetRepo) Create(ctx context.Context, tx pgx.Tx, b *domain.Bet) error {
	query := `INSERT INTO bets (id, round_id, user_id, choice, amount, won, payout_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		b.ID, b.RoundID, b.UserID, b.Choice, b.Amount, b.Won, b.PayoutAmount, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// SumWinningsByUser totals the payouts of the user's winning bets.
func (r *BetRepo) SumWinningsByUser(ctx context.Context, userID uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(payout_amount), 0) FROM bets WHERE user_id = $1 AND won = TRUE`

	var total float64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum winnings: %w", err)
	}
	return total, nil
}
