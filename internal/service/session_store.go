package service

import (
	"context"
	"fmt"
	"sync"

	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"
	"updown-game-server/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionStoreImpl implements ports.SessionStore: a write-through
// in-memory cache over the session repository. The cache holds at most
// one session per user; Save persists first and publishes only on
// success, so the cache never gets ahead of the database.
type SessionStoreImpl struct {
	repo ports.SessionRepository
	log  zerolog.Logger

	mu    sync.RWMutex
	cache map[uuid.UUID]*domain.PlayerSession
}

// NewSessionStore creates a new SessionStoreImpl.
func NewSessionStore(repo ports.SessionRepository, log zerolog.Logger) *SessionStoreImpl {
	return &SessionStoreImpl{
		repo:  repo,
		cache: make(map[uuid.UUID]*domain.PlayerSession),
		log:   log,
	}
}

// Ensure returns the user's session, loading it from the database or
// lazily creating an idle one. Callers receive a copy they own.
func (s *SessionStoreImpl) Ensure(ctx context.Context, userID uuid.UUID) (*domain.PlayerSession, error) {
	s.mu.RLock()
	cached, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	session, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load session: %w", err))
	}
	if session == nil {
		session = domain.NewPlayerSession(userID)
		if err := s.repo.Create(ctx, session); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create session: %w", err))
		}
		s.log.Info().Str("user_id", userID.String()).Msg("player session created")
	}

	s.Publish(session)
	return session.Clone(), nil
}

// Save persists the session and, on success, publishes it to the cache.
func (s *SessionStoreImpl) Save(ctx context.Context, session *domain.PlayerSession) error {
	if err := s.repo.Update(ctx, session); err != nil {
		return apperror.InternalError(fmt.Errorf("save session: %w", err))
	}
	s.Publish(session)
	return nil
}

// Publish replaces the cached copy. The caller must have persisted the
// session already, typically inside a committed transaction.
func (s *SessionStoreImpl) Publish(session *domain.PlayerSession) {
	s.mu.Lock()
	s.cache[session.UserID] = session.Clone()
	s.mu.Unlock()
}

// Forget drops the cached entry. The next Ensure reloads from the database.
func (s *SessionStoreImpl) Forget(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}
