package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"updown-game-server/config"
	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"
	"updown-game-server/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GameServiceImpl implements ports.GameService: the session state
// machine and the guess resolution path. Start and Guess take a
// per-user mutex, so a manual guess and an expiring countdown can never
// resolve against the same card concurrently.
type GameServiceImpl struct {
	store       ports.SessionStore
	sessionRepo ports.SessionRepository
	roundRepo   ports.RoundRepository
	betRepo     ports.BetRepository
	jackpotRepo ports.JackpotRepository
	transactor  ports.DBTransactor
	cards       ports.CardSource
	cfg         config.GameConfig
	log         zerolog.Logger

	locks *userLocks

	// Round ids of the current win run, per user. Consulted when the
	// jackpot predicate fires to link the payout to its rounds.
	runMu sync.Mutex
	runs  map[uuid.UUID][]uuid.UUID
}

// NewGameService creates a new GameServiceImpl.
func NewGameService(
	store ports.SessionStore,
	sessionRepo ports.SessionRepository,
	roundRepo ports.RoundRepository,
	betRepo ports.BetRepository,
	jackpotRepo ports.JackpotRepository,
	transactor ports.DBTransactor,
	cards ports.CardSource,
	cfg config.GameConfig,
	log zerolog.Logger,
) *GameServiceImpl {
	return &GameServiceImpl{
		store:       store,
		sessionRepo: sessionRepo,
		roundRepo:   roundRepo,
		betRepo:     betRepo,
		jackpotRepo: jackpotRepo,
		transactor:  transactor,
		cards:       cards,
		cfg:         cfg,
		log:         log,
		locks:       newUserLocks(),
		runs:        make(map[uuid.UUID][]uuid.UUID),
	}
}

// Start begins a round streak: requires an idle session with a funded
// table stake, draws the opening card and locks the stake in as the bet.
func (s *GameServiceImpl) Start(ctx context.Context, userID uuid.UUID) (*ports.StartResult, error) {
	lock := s.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.IsPlaying() {
		return nil, apperror.ErrSessionAlreadyPlaying()
	}
	if session.TableStake <= 0 {
		return nil, apperror.ErrEmptyTableStake()
	}

	card := s.cards.Draw()
	session.State = domain.SessionPlaying
	session.CardHistory = []domain.Card{card}
	session.WinStreak = 0
	session.LastBetAmount = session.TableStake

	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	s.clearRun(userID)

	s.log.Info().
		Str("user_id", userID.String()).
		Int("card_value", card.Value).
		Float64("bet", session.TableStake).
		Msg("session started")

	return &ports.StartResult{
		CurrentCard:  card,
		Session:      session,
		TableBalance: session.TableStake,
		BetAmount:    session.TableStake,
		NextWin:      domain.PreviewNextWin(card, session.TableStake),
	}, nil
}

// Guess resolves one over/under call against a fresh draw. It persists
// the round, its bet and any jackpot in one database transaction, then
// publishes the mutated session to the cache.
func (s *GameServiceImpl) Guess(ctx context.Context, userID uuid.UUID, choice domain.Choice) (*ports.GuessResult, error) {
	if !choice.Valid() {
		return nil, apperror.ErrInvalidChoice()
	}

	lock := s.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !session.IsPlaying() {
		return nil, apperror.ErrSessionNotPlaying()
	}
	current, ok := session.CurrentCard()
	if !ok {
		return nil, apperror.ErrSessionNotPlaying()
	}

	next := s.cards.Draw()
	firstGuess := session.WinStreak == 0
	res := domain.Resolve(current, next, choice, firstGuess)
	stake := session.TableStake

	now := time.Now().UTC()
	round := &domain.Round{
		ID:          uuid.New(),
		UserID:      userID,
		CurrentCard: current,
		NextCard:    next,
		Outcome:     res.Outcome,
		StakeAmount: stake,
		CreatedAt:   now,
	}
	bet := &domain.Bet{
		ID:        uuid.New(),
		RoundID:   round.ID,
		UserID:    userID,
		Choice:    choice,
		Amount:    stake,
		CreatedAt: now,
	}

	var winAmount float64
	var jackpot *domain.Jackpot

	switch res.Outcome {
	case domain.OutcomeWin:
		payout := stake * res.Multiplier
		bet.Won = true
		bet.PayoutAmount = payout
		winAmount = payout - stake
		session.TableStake = payout
		session.CardHistory = append(session.CardHistory, next)
		session.WinStreak++
		session.LastBetAmount = stake

		if domain.IsJackpot(session.CardHistory) {
			jackpot = s.buildJackpot(userID, round.ID, session, now)
		} else {
			s.recordRun(userID, round.ID)
		}

	case domain.OutcomeLose:
		// The stake is forfeit and the streak is over.
		session.ResetToIdle()
		s.clearRun(userID)

	case domain.OutcomePush:
		// Full tie: the draw is discarded and nothing moves.
	}
	session.UpdatedAt = now

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.roundRepo.Create(ctx, tx, round); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record round: %w", err))
	}
	if err := s.betRepo.Create(ctx, tx, bet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record bet: %w", err))
	}
	if jackpot != nil {
		if err := s.jackpotRepo.Create(ctx, tx, jackpot); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record jackpot: %w", err))
		}
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
		Str("choice", string(choice)).
		Str("outcome", string(res.Outcome)).
		Float64("multiplier", res.Multiplier).
		Float64("table_stake", session.TableStake).
		Bool("jackpot", jackpot != nil).
		Msg("guess resolved")

	result := &ports.GuessResult{
		Result:       res.Outcome,
		Round:        round,
		Bet:          bet,
		Session:      session,
		Multiplier:   res.Multiplier,
		TableBalance: session.TableStake,
		WinAmount:    winAmount,
		Jackpot:      jackpot,
	}
	if session.IsPlaying() {
		if card, ok := session.CurrentCard(); ok {
			preview := domain.PreviewNextWin(card, session.TableStake)
			result.NextWin = &preview
		}
	}
	return result, nil
}

// buildJackpot pays the jackpot into the stake and restarts the streak
// on the card that completed the run. The session stays playing.
func (s *GameServiceImpl) buildJackpot(userID, roundID uuid.UUID, session *domain.PlayerSession, now time.Time) *domain.Jackpot {
	payout := s.cfg.JackpotBase + session.LastBetAmount*s.cfg.JackpotPerBet

	s.runMu.Lock()
	roundIDs := append(s.runs[userID], roundID)
	if len(roundIDs) > domain.JackpotRunLength {
		roundIDs = roundIDs[len(roundIDs)-domain.JackpotRunLength:]
	}
	delete(s.runs, userID)
	s.runMu.Unlock()

	session.TableStake += payout
	session.WinStreak = 0
	last := session.CardHistory[len(session.CardHistory)-1]
	session.CardHistory = []domain.Card{last}

	s.log.Info().
		Str("user_id", userID.String()).
		Float64("payout", payout).
		Msg("jackpot hit")

	return &domain.Jackpot{
		ID:           uuid.New(),
		UserID:       userID,
		RoundIDs:     roundIDs,
		PayoutAmount: payout,
		CreatedAt:    now,
	}
}

func (s *GameServiceImpl) recordRun(userID, roundID uuid.UUID) {
	s.runMu.Lock()
	run := append(s.runs[userID], roundID)
	if len(run) > domain.JackpotRunLength {
		run = run[len(run)-domain.JackpotRunLength:]
	}
	s.runs[userID] = run
	s.runMu.Unlock()
}

func (s *GameServiceImpl) clearRun(userID uuid.UUID) {
	s.runMu.Lock()
	delete(s.runs, userID)
	s.runMu.Unlock()
}
