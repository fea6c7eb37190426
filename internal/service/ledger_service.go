package service

import (
	"context"
	"fmt"

	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"
	"updown-game-server/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. Every wallet <->
// table-stake transfer runs inside one database transaction with the
// user row and session row locked FOR UPDATE, so the two balances move
// together or not at all.
type LedgerServiceImpl struct {
	userRepo    ports.UserRepository
	sessionRepo ports.SessionRepository
	store       ports.SessionStore
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	userRepo ports.UserRepository,
	sessionRepo ports.SessionRepository,
	store ports.SessionStore,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		store:       store,
		transactor:  transactor,
		log:         log,
	}
}

// Deposit moves amount from the wallet onto the table stake.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, amount float64) (*ports.DepositResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock & get user
	user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	// Lock & get session, lazily creating it inside the same transaction
	session, err := s.sessionRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock session: %w", err))
	}
	if session == nil {
		session = domain.NewPlayerSession(userID)
		if err := s.sessionRepo.CreateTx(ctx, tx, session); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create session: %w", err))
		}
	}

	// Business rules
	if session.IsPlaying() {
		return nil, apperror.ErrDepositWhilePlaying()
	}
	if user.Balance < amount {
		return nil, apperror.ErrInsufficientBalance()
	}

	user.Balance -= amount
	session.TableStake += amount

	if err := s.userRepo.UpdateBalance(ctx, tx, userID, user.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.sessionRepo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update session: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.store.Publish(session)

	s.log.Info().
		Str("user_id", userID.String()).
		Float64("amount", amount).
		Float64("table_stake", session.TableStake).
		Msg("deposit completed")

	return &ports.DepositResult{
		TableBalance:  session.TableStake,
		UserBalance:   user.Balance,
		DepositAmount: amount,
	}, nil
}

// Withdraw moves the entire table stake back to the wallet and resets
// the session to idle. Withdrawing an empty stake is a no-op, not an error.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID) (*ports.WithdrawResult, error) {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}

	session, err := s.sessionRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock session: %w", err))
	}
	if session == nil {
		return nil, apperror.ErrNotFound("session")
	}

	amount := session.TableStake
	user.Balance += amount
	session.ResetToIdle()

	if err := s.userRepo.UpdateBalance(ctx, tx, userID, user.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.sessionRepo.UpdateTx(ctx, tx, session); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update session: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	s.store.Publish(session)

	s.log.Info().
		Str("user_id", userID.String()).
		Float64("amount", amount).
		Msg("table stake withdrawn")

	return &ports.WithdrawResult{
		Session:        session,
		UserBalance:    user.Balance,
		WithdrawAmount: amount,
	}, nil
}
