package postgres

import (
	"context"
	"fmt"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoundRepo implements ports.RoundRepository. Rounds are write-once:
// there is deliberately no update method.
type RoundRepo struct {
	pool Pool
}

// NewRoundRepo creates a new RoundRepo.
func NewRoundRepo(pool Pool) *RoundRepo {
	return &RoundRepo{pool: pool}
}

// Create inserts a round within a database transaction.
func (r *RoundRepo) Create(ctx context.Context, tx pgx.Tx, round *domain.Round) error {
	query := `INSERT INTO rounds (id, user_id, current_value, current_suit_group,
		next_value, next_suit_group, outcome, stake_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		round.ID, round.UserID,
		round.CurrentCard.Value, round.CurrentCard.SuitGroup,
		round.NextCard.Value, round.NextCard.SuitGroup,
		round.Outcome, round.StakeAmount, round.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// CountByUser returns how many rounds the user has played.
func (r *RoundRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM rounds WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rounds: %w", err)
	}
	return count, nil
}

// CountWinsByUser returns how many rounds the user has won.
func (r *RoundRepo) CountWinsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM rounds WHERE user_id = $1 AND outcome = $2`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID, domain.OutcomeWin).Scan(&count); err != nil {
		return 0, fmt.Errorf("count won rounds: %w", err)
	}
	return count, nil
}
