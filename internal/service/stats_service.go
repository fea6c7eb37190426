package service

import (
	"context"
	"fmt"

	"updown-game-server/internal/core/ports"
	"updown-game-server/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatsServiceImpl implements ports.StatsService by aggregating over
// the round, bet and jackpot ledgers.
type StatsServiceImpl struct {
	userRepo    ports.UserRepository
	store       ports.SessionStore
	roundRepo   ports.RoundRepository
	betRepo     ports.BetRepository
	jackpotRepo ports.JackpotRepository
	log         zerolog.Logger
}

// NewStatsService creates a new StatsServiceImpl.
func NewStatsService(
	userRepo ports.UserRepository,
	store ports.SessionStore,
	roundRepo ports.RoundRepository,
	betRepo ports.BetRepository,
	jackpotRepo ports.JackpotRepository,
	log zerolog.Logger,
) *StatsServiceImpl {
	return &StatsServiceImpl{
		userRepo:    userRepo,
		store:       store,
		roundRepo:   roundRepo,
		betRepo:     betRepo,
		jackpotRepo: jackpotRepo,
		log:         log,
	}
}

// Stats returns the user's current balances and lifetime play aggregates.
func (s *StatsServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*ports.StatsResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	session, err := s.store.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	rounds, err := s.roundRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count rounds: %w", err))
	}
	wins, err := s.roundRepo.CountWinsByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count wins: %w", err))
	}
	jackpots, err := s.jackpotRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count jackpots: %w", err))
	}
	winnings, err := s.betRepo.SumWinningsByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum winnings: %w", err))
	}

	winRate := "0.00%"
	if rounds > 0 {
		winRate = fmt.Sprintf("%.2f%%", float64(wins)/float64(rounds)*100)
	}

	return &ports.StatsResult{
		Session:      session,
		UserBalance:  user.Balance,
		TableBalance: session.TableStake,
		Stats: ports.SessionStats{
			TotalRounds:   rounds,
			TotalWins:     wins,
			TotalJackpots: jackpots,
			TotalWinnings: winnings,
			WinRate:       winRate,
		},
	}, nil
}
