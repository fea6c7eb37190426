package service

import (
	"context"
	"testing"

	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports/mocks"
	"updown-game-server/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type statsTestDeps struct {
	svc         *StatsServiceImpl
	userRepo    *mocks.MockUserRepository
	store       *mocks.MockSessionStore
	roundRepo   *mocks.MockRoundRepository
	betRepo     *mocks.MockBetRepository
	jackpotRepo *mocks.MockJackpotRepository
	ctrl        *gomock.Controller
}

func setupStatsService(t *testing.T) *statsTestDeps {
	ctrl := gomock.NewController(t)
	d := &statsTestDeps{
		userRepo:    mocks.NewMockUserRepository(ctrl),
		store:       mocks.NewMockSessionStore(ctrl),
		roundRepo:   mocks.NewMockRoundRepository(ctrl),
		betRepo:     mocks.NewMockBetRepository(ctrl),
		jackpotRepo: mocks.NewMockJackpotRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewStatsService(d.userRepo, d.store, d.roundRepo, d.betRepo, d.jackpotRepo, zerolog.Nop())
	return d
}

func TestStatsService_Stats(t *testing.T) {
	d := setupStatsService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	user := &domain.User{ID: userID, Balance: 420}
	session := domain.NewPlayerSession(userID)
	session.TableStake = 80

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(user, nil)
	d.store.EXPECT().Ensure(ctx, userID).Return(session, nil)
	d.roundRepo.EXPECT().CountByUser(ctx, userID).Return(int64(8), nil)
	d.roundRepo.EXPECT().CountWinsByUser(ctx, userID).Return(int64(3), nil)
	d.jackpotRepo.EXPECT().CountByUser(ctx, userID).Return(int64(1), nil)
	d.betRepo.EXPECT().SumWinningsByUser(ctx, userID).Return(1280.0, nil)

	result, err := d.svc.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 420.0, result.UserBalance)
	assert.Equal(t, 80.0, result.TableBalance)
	assert.Equal(t, int64(8), result.Stats.TotalRounds)
	assert.Equal(t, int64(3), result.Stats.TotalWins)
	assert.Equal(t, int64(1), result.Stats.TotalJackpots)
	assert.Equal(t, 1280.0, result.Stats.TotalWinnings)
	assert.Equal(t, "37.50%", result.Stats.WinRate)
}

func TestStatsService_Stats_NoRounds(t *testing.T) {
	d := setupStatsService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(&domain.User{ID: userID}, nil)
	d.store.EXPECT().Ensure(ctx, userID).Return(domain.NewPlayerSession(userID), nil)
	d.roundRepo.EXPECT().CountByUser(ctx, userID).Return(int64(0), nil)
	d.roundRepo.EXPECT().CountWinsByUser(ctx, userID).Return(int64(0), nil)
	d.jackpotRepo.EXPECT().CountByUser(ctx, userID).Return(int64(0), nil)
	d.betRepo.EXPECT().SumWinningsByUser(ctx, userID).Return(0.0, nil)

	result, err := d.svc.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "0.00%", result.Stats.WinRate)
}

func TestStatsService_Stats_UserNotFound(t *testing.T) {
	d := setupStatsService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(nil, nil)

	_, err := d.svc.Stats(ctx, userID)
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "GAME_004", appErr.Code)
}
