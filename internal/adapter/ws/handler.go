package ws

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"updown-game-server/config"
	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"
	"updown-game-server/internal/metrics"
	"updown-game-server/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the websocket endpoint: authentication, the connection
// hub, message dispatch and the per-user guess countdown.
type Handler struct {
	hub        *Hub
	countdowns *Countdowns
	ledger     ports.LedgerService
	game       ports.GameService
	stats      ports.StatsService
	tokens     ports.TokenService
	limiter    ports.RateLimiter
	metrics    *metrics.Metrics
	cfg        config.GameConfig
	log        zerolog.Logger
}

// NewHandler creates a websocket handler.
func NewHandler(
	hub *Hub,
	countdowns *Countdowns,
	ledger ports.LedgerService,
	game ports.GameService,
	stats ports.StatsService,
	tokens ports.TokenService,
	limiter ports.RateLimiter,
	m *metrics.Metrics,
	cfg config.GameConfig,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		hub:        hub,
		countdowns: countdowns,
		ledger:     ledger,
		game:       game,
		stats:      stats,
		tokens:     tokens,
		limiter:    limiter,
		metrics:    m,
		cfg:        cfg,
		log:        log,
	}
}

// HandleWS upgrades the request and serves the connection until it drops.
// The token travels as a query parameter; a bad token gets a policy
// violation close right after the upgrade.
func (h *Handler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID, err := h.tokens.Validate(c.Query("token"))
	if err != nil {
		client := NewClient(uuid.Nil, conn)
		client.Close(websocket.ClosePolicyViolation, "invalid token")
		return
	}

	client := NewClient(userID, conn)
	h.hub.Register(client)
	// Registering displaces any previous connection for this user; a
	// countdown that connection armed dies with it. Rearming is this
	// connection's job, on its own start or guess.
	h.countdowns.Cancel(userID)
	h.metrics.ActiveConnections.Inc()

	h.log.Info().Str("user_id", userID.String()).Msg("player connected")

	defer func() {
		// A displaced connection must not cancel the countdown its
		// replacement may have armed in the meantime.
		if current, ok := h.hub.Get(userID); ok && current == client {
			h.countdowns.Cancel(userID)
		}
		h.hub.Unregister(client)
		h.metrics.ActiveConnections.Dec()
		conn.Close() //nolint:errcheck
		h.log.Info().Str("user_id", userID.String()).Msg("player disconnected")
	}()

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	h.readLoop(c.Request.Context(), client)
}

func (h *Handler) readLoop(ctx context.Context, client *Client) {
	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("user_id", client.UserID.String()).Msg("read failed")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(client, "", apperror.New("VAL_003", "Malformed message", http.StatusBadRequest))
			continue
		}

		allowed, err := h.limiter.Allow(ctx, client.UserID.String())
		if err != nil {
			h.log.Warn().Err(err).Msg("rate limiter unavailable, letting message through")
		} else if !allowed {
			h.sendError(client, msg.T, apperror.ErrRateLimitExceeded())
			continue
		}

		h.dispatch(ctx, client, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, msg Message) {
	switch msg.T {
	case EventDeposit:
		h.handleDeposit(ctx, client, msg)
	case EventStart:
		h.handleStart(ctx, client)
	case EventGuess:
		h.handleGuess(ctx, client, msg)
	case EventEndSession:
		h.handleEndSession(ctx, client)
	case EventGetStats:
		h.handleGetStats(ctx, client)
	default:
		h.sendError(client, msg.T, apperror.New("VAL_004", "Unknown event", http.StatusBadRequest))
	}
}

func (h *Handler) handleDeposit(ctx context.Context, client *Client, msg Message) {
	var req DepositRequest
	if err := json.Unmarshal(msg.D, &req); err != nil {
		h.sendError(client, msg.T, apperror.ErrInvalidAmount())
		return
	}

	result, err := h.ledger.Deposit(ctx, client.UserID, req.Amount)
	if err != nil {
		h.sendError(client, msg.T, err)
		return
	}
	h.metrics.DepositsTotal.Inc()
	h.send(client, successMessage(EventDepositSuccess, result))
}

func (h *Handler) handleStart(ctx context.Context, client *Client) {
	result, err := h.game.Start(ctx, client.UserID)
	if err != nil {
		h.sendError(client, EventStart, err)
		return
	}
	h.send(client, successMessage(EventSessionStarted, result))
	h.armCountdown(client)
}

func (h *Handler) handleGuess(ctx context.Context, client *Client, msg Message) {
	var req GuessRequest
	if err := json.Unmarshal(msg.D, &req); err != nil || !req.Choice.Valid() {
		h.sendError(client, msg.T, apperror.ErrInvalidChoice())
		return
	}

	// The manual guess owns the round from here: the countdown must be
	// dead before resolution starts.
	h.countdowns.Cancel(client.UserID)
	h.send(client, successMessage(EventGuessReceived, GuessRequest{Choice: req.Choice}))

	result, err := h.game.Guess(ctx, client.UserID, req.Choice)
	if err != nil {
		h.sendError(client, msg.T, err)
		return
	}
	h.metrics.RoundsTotal.WithLabelValues(string(result.Result)).Inc()
	h.send(client, successMessage(EventRoundResult, GuessResponse{
		Auto:        false,
		Choice:      req.Choice,
		GuessResult: result,
	}))

	if result.Session.IsPlaying() {
		h.armCountdown(client)
	}
}

func (h *Handler) handleEndSession(ctx context.Context, client *Client) {
	h.countdowns.Cancel(client.UserID)

	result, err := h.ledger.Withdraw(ctx, client.UserID)
	if err != nil {
		h.sendError(client, EventEndSession, err)
		return
	}
	h.send(client, successMessage(EventSessionEnded, result))
}

func (h *Handler) handleGetStats(ctx context.Context, client *Client) {
	result, err := h.stats.Stats(ctx, client.UserID)
	if err != nil {
		h.sendError(client, EventGetStats, err)
		return
	}
	h.send(client, successMessage(EventStats, result))
}

// armCountdown starts (or restarts) the guess countdown for the client.
// Expiry plays a uniformly random choice on the player's behalf. Arming
// is skipped for a client the hub no longer considers live, so an
// auto-guess chain dies with its connection.
func (h *Handler) armCountdown(client *Client) {
	if current, ok := h.hub.Get(client.UserID); !ok || current != client {
		return
	}
	h.countdowns.Arm(client.UserID,
		func(remaining int) {
			h.send(client, successMessage(EventGuessTimer, TimerTick{
				UserID:   client.UserID,
				TimeLeft: remaining,
			}))
		},
		func() {
			h.autoGuess(client)
		},
	)
}

func (h *Handler) autoGuess(client *Client) {
	choice := domain.ChoiceOver
	if rand.Intn(2) == 1 {
		choice = domain.ChoiceUnder
	}

	// The connection's request context is long gone by the time a
	// countdown expires; the auto-guess runs on its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h.log.Info().
		Str("user_id", client.UserID.String()).
		Str("choice", string(choice)).
		Msg("countdown expired, guessing automatically")

	result, err := h.game.Guess(ctx, client.UserID, choice)
	if err != nil {
		h.sendError(client, EventAutoGuess, err)
		return
	}
	h.metrics.AutoGuessesTotal.Inc()
	h.metrics.RoundsTotal.WithLabelValues(string(result.Result)).Inc()
	h.send(client, successMessage(EventAutoGuess, GuessResponse{
		Auto:        true,
		Choice:      choice,
		GuessResult: result,
	}))

	if result.Session.IsPlaying() {
		h.armCountdown(client)
	}
}

func (h *Handler) send(client *Client, msg OutMessage) {
	if err := client.Send(msg); err != nil {
		h.log.Debug().Err(err).Str("user_id", client.UserID.String()).Str("event", msg.T).Msg("send failed")
	}
}

// sendError maps an error to a game:error frame. Internal causes are
// logged and masked; the connection stays up.
func (h *Handler) sendError(client *Client, srcEvent string, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}
	if appErr.Err != nil {
		h.log.Error().Err(appErr.Err).Str("user_id", client.UserID.String()).Str("event", srcEvent).Msg("internal error")
	}
	h.send(client, errorMessage(srcEvent, &ErrorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
	}))
}
