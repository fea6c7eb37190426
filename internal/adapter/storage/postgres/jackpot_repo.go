package postgres

import (
	"context"
	"fmt"
	"strings"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JackpotRepo implements ports.JackpotRepository. The jackpot ledger is
// append-only.
type JackpotRepo struct {
	pool Pool
}

// NewJackpotRepo creates a new JackpotRepo.
func NewJackpotRepo(pool Pool) *JackpotRepo {
	return &JackpotRepo{pool: pool}
}

// Create inserts a jackpot record within a database transaction.
func (r *JackpotRepo) Create(ctx context.Context, tx pgx.Tx, j *domain.Jackpot) error {
	ids := make([]string, len(j.RoundIDs))
	for i, id := range j.RoundIDs {
		ids[i] = id.String()
	}

	query := `INSERT INTO jackpots (id, user_id, round_ids, payout_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query,
		j.ID, j.UserID, strings.Join(ids, ","), j.PayoutAmount, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert jackpot: %w", err)
	}
	return nil
}

// CountByUser returns how many jackpots the user has hit.
func (r *JackpotRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM jackpots WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jackpots: %w", err)
	}
	return count, nil
}
