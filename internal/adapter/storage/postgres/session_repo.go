package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SessionRepo implements ports.SessionRepository. The card history is
// stored as a JSONB column; everything else maps to plain columns.
type SessionRepo struct {
	pool Pool
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(pool Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// execer is satisfied by both the pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const sessionColumns = `id, user_id, state, table_stake, card_history, win_streak, last_bet_amount, created_at, updated_at`

// Create inserts a new player session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.PlayerSession) error {
	return r.insert(ctx, r.pool, s)
}

// CreateTx inserts a new player session within a transaction.
func (r *SessionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *domain.PlayerSession) error {
	return r.insert(ctx, tx, s)
}

func (r *SessionRepo) insert(ctx context.Context, ex execer, s *domain.PlayerSession) error {
	history, err := json.Marshal(s.CardHistory)
	if err != nil {
		return fmt.Errorf("marshal card history: %w", err)
	}

	query := `INSERT INTO player_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = ex.Exec(ctx, query,
		s.ID, s.UserID, s.State, s.TableStake, history,
		s.WinStreak, s.LastBetAmount, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByUserID fetches a session by user id (non-locking read).
func (r *SessionRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PlayerSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM player_sessions WHERE user_id = $1`
	return r.scanSession(r.pool.QueryRow(ctx, query, userID))
}

// GetByUserIDForUpdate fetches a session with pessimistic locking.
// This MUST be called within a transaction.
func (r *SessionRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PlayerSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM player_sessions WHERE user_id = $1 FOR UPDATE`
	return r.scanSession(tx.QueryRow(ctx, query, userID))
}

// Update persists all mutable session fields.
func (r *SessionRepo) Update(ctx context.Context, s *domain.PlayerSession) error {
	return r.update(ctx, r.pool, s)
}

// UpdateTx persists all mutable session fields within a transaction.
func (r *SessionRepo) UpdateTx(ctx context.Context, tx pgx.Tx, s *domain.PlayerSession) error {
	return r.update(ctx, tx, s)
}

func (r *SessionRepo) update(ctx context.Context, ex execer, s *domain.PlayerSession) error {
	history, err := json.Marshal(s.CardHistory)
	if err != nil {
		return fmt.Errorf("marshal card history: %w", err)
	}

	query := `UPDATE player_sessions
		SET state = $1, table_stake = $2, card_history = $3, win_streak = $4,
			last_bet_amount = $5, updated_at = NOW()
		WHERE user_id = $6`

	tag, err := ex.Exec(ctx, query,
		s.State, s.TableStake, history, s.WinStreak, s.LastBetAmount, s.UserID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session not found for user: %s", s.UserID)
	}
	return nil
}

func (r *SessionRepo) scanSession(row pgx.Row) (*domain.PlayerSession, error) {
	s := &domain.PlayerSession{}
	var history []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.State, &s.TableStake, &history,
		&s.WinStreak, &s.LastBetAmount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := json.Unmarshal(history, &s.CardHistory); err != nil {
		return nil, fmt.Errorf("unmarshal card history: %w", err)
	}
	return s, nil
}
