package postgres

import (
	"context"
	"testing"
	"time"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJackpotRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJackpotRepo(mock)
	rounds := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	jackpot := &domain.Jackpot{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		RoundIDs:     rounds,
		PayoutAmount: 105000,
		CreatedAt:    time.Now().UTC(),
	}
	joined := rounds[0].String() + "," + rounds[1].String() + "," +
		rounds[2].String() + "," + rounds[3].String()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO jackpots").
		WithArgs(jackpot.ID, jackpot.UserID, joined, jackpot.PayoutAmount, jackpot.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, jackpot)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJackpotRepo_CountByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewJackpotRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
