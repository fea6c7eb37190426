package ws

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"updown-game-server/config"
	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"
	"updown-game-server/internal/core/ports/mocks"
	"updown-game-server/internal/metrics"
	"updown-game-server/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type wsTestDeps struct {
	server  *httptest.Server
	hub     *Hub
	ledger  *mocks.MockLedgerService
	game    *mocks.MockGameService
	stats   *mocks.MockStatsService
	tokens  *mocks.MockTokenService
	limiter *mocks.MockRateLimiter
	ctrl    *gomock.Controller
}

func setupWSServer(t *testing.T, gameCfg config.GameConfig) *wsTestDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := &wsTestDeps{
		hub:     NewHub(zerolog.Nop()),
		ledger:  mocks.NewMockLedgerService(ctrl),
		game:    mocks.NewMockGameService(ctrl),
		stats:   mocks.NewMockStatsService(ctrl),
		tokens:  mocks.NewMockTokenService(ctrl),
		limiter: mocks.NewMockRateLimiter(ctrl),
		ctrl:    ctrl,
	}
	if gameCfg.MaxMessageBytes == 0 {
		gameCfg.MaxMessageBytes = 4096
	}
	if gameCfg.CountdownTicks == 0 {
		// Long enough that no countdown fires unless a test wants it to.
		gameCfg.CountdownTicks = 1000
		gameCfg.TickInterval = time.Second
	}

	m := metrics.New(prometheus.NewRegistry())
	handler := NewHandler(
		d.hub, NewCountdowns(gameCfg.CountdownTicks, gameCfg.TickInterval),
		d.ledger, d.game, d.stats, d.tokens, d.limiter,
		m, gameCfg, zerolog.Nop(),
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", handler.HandleWS)
	d.server = httptest.NewServer(r)
	t.Cleanup(d.server.Close)
	return d
}

func (d *wsTestDeps) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(d.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, body any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{T: event, D: data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) OutMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	var msg OutMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandler_RejectsInvalidToken(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	d.tokens.EXPECT().Validate("bad").Return(uuid.Nil, apperror.ErrInvalidToken())

	conn := d.dial(t, "bad")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected a close frame, got %v", err)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestHandler_Deposit(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()
	d.ledger.EXPECT().Deposit(gomock.Any(), userID, 100.0).Return(&ports.DepositResult{
		TableBalance:  100,
		UserBalance:   900,
		DepositAmount: 100,
	}, nil)

	conn := d.dial(t, "tok")
	writeEvent(t, conn, EventDeposit, DepositRequest{Amount: 100})

	msg := readEvent(t, conn)
	assert.Equal(t, EventDepositSuccess, msg.T)
	assert.Equal(t, 1, msg.D.OK)
	assert.Nil(t, msg.D.E)
}

func TestHandler_DomainErrorKeepsConnectionAlive(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()
	d.ledger.EXPECT().Deposit(gomock.Any(), userID, 5000.0).
		Return(nil, apperror.ErrInsufficientBalance())
	d.ledger.EXPECT().Deposit(gomock.Any(), userID, 50.0).Return(&ports.DepositResult{
		TableBalance:  50,
		UserBalance:   0,
		DepositAmount: 50,
	}, nil)

	conn := d.dial(t, "tok")

	writeEvent(t, conn, EventDeposit, DepositRequest{Amount: 5000})
	msg := readEvent(t, conn)
	assert.Equal(t, EventError, msg.T)
	assert.Equal(t, 0, msg.D.OK)
	require.NotNil(t, msg.D.E)
	assert.Equal(t, "GAME_001", msg.D.E.Code)
	assert.Equal(t, EventDeposit, msg.D.E.Event)

	// Same connection still works after the rejection.
	writeEvent(t, conn, EventDeposit, DepositRequest{Amount: 50})
	msg = readEvent(t, conn)
	assert.Equal(t, EventDepositSuccess, msg.T)
}

func TestHandler_GuessFlow(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	playing := domain.NewPlayerSession(userID)
	playing.State = domain.SessionPlaying
	playing.TableStake = 160
	playing.CardHistory = []domain.Card{{Value: 9, SuitGroup: 2}}

	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()
	d.game.EXPECT().Start(gomock.Any(), userID).Return(&ports.StartResult{
		CurrentCard:  domain.Card{Value: 5, SuitGroup: 1},
		Session:      playing,
		TableBalance: 100,
		BetAmount:    100,
	}, nil)
	d.game.EXPECT().Guess(gomock.Any(), userID, domain.ChoiceOver).Return(&ports.GuessResult{
		Result:       domain.OutcomeWin,
		Session:      playing,
		Multiplier:   1.6,
		TableBalance: 160,
		WinAmount:    60,
	}, nil)

	conn := d.dial(t, "tok")

	writeEvent(t, conn, EventStart, struct{}{})
	msg := readEvent(t, conn)
	assert.Equal(t, EventSessionStarted, msg.T)

	writeEvent(t, conn, EventGuess, GuessRequest{Choice: domain.ChoiceOver})
	msg = readEvent(t, conn)
	assert.Equal(t, EventGuessReceived, msg.T)

	msg = readEvent(t, conn)
	assert.Equal(t, EventRoundResult, msg.T)
	assert.Equal(t, 1, msg.D.OK)
}

func TestHandler_InvalidChoice(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()

	conn := d.dial(t, "tok")
	writeEvent(t, conn, EventGuess, map[string]string{"choice": "sideways"})

	msg := readEvent(t, conn)
	assert.Equal(t, EventError, msg.T)
	require.NotNil(t, msg.D.E)
	assert.Equal(t, "VAL_002", msg.D.E.Code)
}

func TestHandler_RateLimited(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(false, nil)

	conn := d.dial(t, "tok")
	writeEvent(t, conn, EventGetStats, struct{}{})

	msg := readEvent(t, conn)
	assert.Equal(t, EventError, msg.T)
	require.NotNil(t, msg.D.E)
	assert.Equal(t, "RATE_001", msg.D.E.Code)
}

func TestHandler_SecondConnectionEvictsFirst(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{})
	defer d.ctrl.Finish()

	userID := uuid.New()
	d.tokens.EXPECT().Validate("tok").Return(userID, nil).Times(2)

	first := d.dial(t, "tok")
	second := d.dial(t, "tok")

	first.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, _, err := first.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	require.True(t, ok, "expected a close frame, got %v", err)
	assert.Equal(t, CloseReplaced, closeErr.Code)

	// The replacement connection is the live one.
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil)
	d.stats.EXPECT().Stats(gomock.Any(), userID).Return(&ports.StatsResult{
		Session: domain.NewPlayerSession(userID),
	}, nil)
	writeEvent(t, second, EventGetStats, struct{}{})
	msg := readEvent(t, second)
	assert.Equal(t, EventStats, msg.T)
}

func TestHandler_CountdownAutoGuesses(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{
		CountdownTicks: 2,
		TickInterval:   20 * time.Millisecond,
	})
	defer d.ctrl.Finish()

	userID := uuid.New()
	playing := domain.NewPlayerSession(userID)
	playing.State = domain.SessionPlaying
	playing.TableStake = 100
	playing.CardHistory = []domain.Card{{Value: 5, SuitGroup: 1}}

	idle := domain.NewPlayerSession(userID)

	d.tokens.EXPECT().Validate("tok").Return(userID, nil)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()
	d.game.EXPECT().Start(gomock.Any(), userID).Return(&ports.StartResult{
		CurrentCard: domain.Card{Value: 5, SuitGroup: 1},
		Session:     playing,
	}, nil)
	// Expiry resolves through the exact same guess path; the session
	// comes back idle so the countdown is not rearmed.
	d.game.EXPECT().Guess(gomock.Any(), userID, gomock.Any()).Return(&ports.GuessResult{
		Result:  domain.OutcomeLose,
		Session: idle,
	}, nil)

	conn := d.dial(t, "tok")
	writeEvent(t, conn, EventStart, struct{}{})

	msg := readEvent(t, conn)
	require.Equal(t, EventSessionStarted, msg.T)

	msg = readEvent(t, conn)
	require.Equal(t, EventGuessTimer, msg.T)

	// The final tick arrives before the auto guess.
	msg = readEvent(t, conn)
	require.Equal(t, EventGuessTimer, msg.T)
	tick, ok := msg.D.D.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.0, tick["timeLeft"])
	assert.Equal(t, userID.String(), tick["userId"])

	msg = readEvent(t, conn)
	require.Equal(t, EventAutoGuess, msg.T)
	assert.Equal(t, 1, msg.D.OK)
}

func TestHandler_DisplacementKillsCountdown(t *testing.T) {
	d := setupWSServer(t, config.GameConfig{
		CountdownTicks: 3,
		TickInterval:   20 * time.Millisecond,
	})
	defer d.ctrl.Finish()

	userID := uuid.New()
	playing := domain.NewPlayerSession(userID)
	playing.State = domain.SessionPlaying
	playing.TableStake = 100
	playing.CardHistory = []domain.Card{{Value: 5, SuitGroup: 1}}

	d.tokens.EXPECT().Validate("tok").Return(userID, nil).Times(2)
	d.limiter.EXPECT().Allow(gomock.Any(), userID.String()).Return(true, nil).AnyTimes()
	d.game.EXPECT().Start(gomock.Any(), userID).Return(&ports.StartResult{
		CurrentCard: domain.Card{Value: 5, SuitGroup: 1},
		Session:     playing,
	}, nil)
	// The countdown dies with the displaced connection: no auto guess
	// may resolve the round behind the replacement's back.
	d.game.EXPECT().Guess(gomock.Any(), userID, gomock.Any()).Times(0)

	first := d.dial(t, "tok")
	writeEvent(t, first, EventStart, struct{}{})
	msg := readEvent(t, first)
	require.Equal(t, EventSessionStarted, msg.T)

	second := d.dial(t, "tok")

	first.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	for {
		_, _, err := first.ReadMessage()
		if err == nil {
			continue // timer ticks sent before the displacement landed
		}
		closeErr, ok := err.(*websocket.CloseError)
		require.True(t, ok, "expected a close frame, got %v", err)
		assert.Equal(t, CloseReplaced, closeErr.Code)
		break
	}

	// Well past where the old countdown would have expired: the live
	// connection sees nothing it never asked for.
	second.SetReadDeadline(time.Now().Add(150 * time.Millisecond)) //nolint:errcheck
	_, _, err := second.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr, "expected a read timeout, got %v", err)
	assert.True(t, netErr.Timeout())
}
