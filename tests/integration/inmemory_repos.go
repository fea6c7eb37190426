package integration

import (
	"context"
	"fmt"
	"sync"

	"updown-game-server/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Serializing Transactor ---

// memTransactor emulates the database's pessimistic locking: every
// transaction holds one global lock from Begin until Commit/Rollback,
// so transactional sections run strictly one at a time.
type memTransactor struct {
	mu sync.Mutex
}

func newMemTransactor() *memTransactor {
	return &memTransactor{}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &memTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// memTx releases the transactor lock exactly once, on whichever of
// Commit/Rollback runs first.
type memTx struct {
	pgx.Tx
	once    sync.Once
	release func()
}

func (t *memTx) Commit(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryUserRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.Balance = balance
	return nil
}

// --- In-Memory Session Repo ---

type inMemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.PlayerSession // keyed by user id
}

func newInMemorySessionRepo() *inMemorySessionRepo {
	return &inMemorySessionRepo{sessions: make(map[uuid.UUID]*domain.PlayerSession)}
}

func (r *inMemorySessionRepo) Create(ctx context.Context, s *domain.PlayerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.UserID]; ok {
		return fmt.Errorf("session already exists for user: %s", s.UserID)
	}
	r.sessions[s.UserID] = s.Clone()
	return nil
}

func (r *inMemorySessionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *domain.PlayerSession) error {
	return r.Create(ctx, s)
}

func (r *inMemorySessionRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PlayerSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *inMemorySessionRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.PlayerSession, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *inMemorySessionRepo) Update(ctx context.Context, s *domain.PlayerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.UserID]; !ok {
		return fmt.Errorf("session not found for user: %s", s.UserID)
	}
	r.sessions[s.UserID] = s.Clone()
	return nil
}

func (r *inMemorySessionRepo) UpdateTx(ctx context.Context, tx pgx.Tx, s *domain.PlayerSession) error {
	return r.Update(ctx, s)
}

// --- In-Memory Round Repo ---

type inMemoryRoundRepo struct {
	mu     sync.RWMutex
	rounds []*domain.Round
}

func newInMemoryRoundRepo() *inMemoryRoundRepo {
	return &inMemoryRoundRepo{}
}

func (r *inMemoryRoundRepo) Create(ctx context.Context, tx pgx.Tx, round *domain.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *round
	r.rounds = append(r.rounds, &cp)
	return nil
}

func (r *inMemoryRoundRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, round := range r.rounds {
		if round.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryRoundRepo) CountWinsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, round := range r.rounds {
		if round.UserID == userID && round.Outcome == domain.OutcomeWin {
			n++
		}
	}
	return n, nil
}

// --- In-Memory Bet Repo ---

type inMemoryBetRepo struct {
	mu   sync.RWMutex
	bets []*domain.Bet
}

func newInMemoryBetRepo() *inMemoryBetRepo {
	return &inMemoryBetRepo{}
}

func (r *inMemoryBetRepo) Create(ctx context.Context, tx pgx.Tx, b *domain.Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bets = append(r.bets, &cp)
	return nil
}

func (r *inMemoryBetRepo) SumWinningsByUser(ctx context.Context, userID uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	for _, b := range r.bets {
		if b.UserID == userID && b.Won {
			total += b.PayoutAmount
		}
	}
	return total, nil
}

// --- In-Memory Jackpot Repo ---

type inMemoryJackpotRepo struct {
	mu       sync.RWMutex
	jackpots []*domain.Jackpot
}

func newInMemoryJackpotRepo() *inMemoryJackpotRepo {
	return &inMemoryJackpotRepo{}
}

func (r *inMemoryJackpotRepo) Create(ctx context.Context, tx pgx.Tx, j *domain.Jackpot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jackpots = append(r.jackpots, &cp)
	return nil
}

func (r *inMemoryJackpotRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, j := range r.jackpots {
		if j.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- Scripted Card Source ---

// scriptedCards deals a fixed sequence, then repeats the last card.
// Tests use it to force specific outcomes through the real game service.
type scriptedCards struct {
	mu   sync.Mutex
	deck []domain.Card
}

func newScriptedCards(deck ...domain.Card) *scriptedCards {
	return &scriptedCards{deck: deck}
}

func (s *scriptedCards) Draw() domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	card := s.deck[0]
	if len(s.deck) > 1 {
		s.deck = s.deck[1:]
	}
	return card
}
