package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *domain.PlayerSession {
	s := domain.NewPlayerSession(uuid.New())
	s.State = domain.SessionPlaying
	s.TableStake = 250
	s.CardHistory = []domain.Card{{Value: 7, SuitGroup: 2}, {Value: 12, SuitGroup: 4}}
	s.WinStreak = 1
	s.LastBetAmount = 50
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.CreatedAt = now
	s.UpdatedAt = now
	return s
}

func sessionCols() []string {
	return []string{
		"id", "user_id", "state", "table_stake", "card_history",
		"win_streak", "last_bet_amount", "created_at", "updated_at",
	}
}

func sessionRow(t *testing.T, s *domain.PlayerSession) *pgxmock.Rows {
	t.Helper()
	history, err := json.Marshal(s.CardHistory)
	require.NoError(t, err)
	return pgxmock.NewRows(sessionCols()).AddRow(
		s.ID, s.UserID, s.State, s.TableStake, history,
		s.WinStreak, s.LastBetAmount, s.CreatedAt, s.UpdatedAt,
	)
}

func TestSessionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)
	s := newTestSession()
	history, err := json.Marshal(s.CardHistory)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO player_sessions").
		WithArgs(s.ID, s.UserID, s.State, s.TableStake, history,
			s.WinStreak, s.LastBetAmount, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)
	s := newTestSession()

	mock.ExpectQuery("SELECT .+ FROM player_sessions WHERE user_id").
		WithArgs(s.UserID).
		WillReturnRows(sessionRow(t, s))

	result, err := repo.GetByUserID(context.Background(), s.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.State, result.State)
	assert.Equal(t, s.TableStake, result.TableStake)
	assert.Equal(t, s.CardHistory, result.CardHistory, "card history should round-trip through JSONB")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByUserID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM player_sessions WHERE user_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(sessionCols()))

	result, err := repo.GetByUserID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByUserIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)
	s := newTestSession()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM player_sessions WHERE user_id .+ FOR UPDATE").
		WithArgs(s.UserID).
		WillReturnRows(sessionRow(t, s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByUserIDForUpdate(context.Background(), tx, s.UserID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.WinStreak, result.WinStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)
	s := newTestSession()
	history, err := json.Marshal(s.CardHistory)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE player_sessions").
		WithArgs(s.State, s.TableStake, history, s.WinStreak, s.LastBetAmount, s.UserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Update(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_UpdateTx_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSessionRepo(mock)
	s := newTestSession()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE player_sessions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateTx(context.Background(), tx, s)
	assert.Error(t, err)
}
