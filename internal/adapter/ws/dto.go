package ws

import (
	"encoding/json"

	"updown-game-server/internal/core/domain"
	"updown-game-server/internal/core/ports"

	"github.com/google/uuid"
)

// Inbound event names.
const (
	EventDeposit    = "game:deposit"
	EventStart      = "game:start"
	EventGuess      = "game:guess"
	EventEndSession = "game:end_session"
	EventGetStats   = "game:get_stats"
)

// Outbound event names.
const (
	EventDepositSuccess = "game:deposit_success"
	EventSessionStarted = "game:session_started"
	EventGuessReceived  = "game:guess_received"
	EventRoundResult    = "game:round_result"
	EventAutoGuess      = "game:auto_guess"
	EventGuessTimer     = "game:guess_timer"
	EventSessionEnded   = "game:session_ended"
	EventStats          = "game:stats"
	EventError          = "game:error"
)

// Message is the wire envelope in both directions: an event tag and a payload.
type Message struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Payload is the outbound body: ok flag, data on success, error otherwise.
type Payload struct {
	OK int        `json:"ok"`
	D  any        `json:"d"`
	E  *ErrorBody `json:"e"`
}

// ErrorBody is the client-facing error shape. Internal causes never
// leave the server.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"` // inbound event that failed
}

// OutMessage is a fully rendered outbound frame.
type OutMessage struct {
	T string  `json:"t"`
	D Payload `json:"d"`
}

func successMessage(event string, data any) OutMessage {
	return OutMessage{T: event, D: Payload{OK: 1, D: data}}
}

func errorMessage(srcEvent string, body *ErrorBody) OutMessage {
	body.Event = srcEvent
	return OutMessage{T: EventError, D: Payload{OK: 0, E: body}}
}

// DepositRequest is the body of game:deposit. The user identity comes
// from the authenticated connection, never from the payload.
type DepositRequest struct {
	Amount float64 `json:"amount"`
}

// GuessRequest is the body of game:guess.
type GuessRequest struct {
	Choice domain.Choice `json:"choice"`
}

// TimerTick is the body of game:guess_timer. The zero tick is sent
// right before the auto-guess fires.
type TimerTick struct {
	UserID   uuid.UUID `json:"userId"`
	TimeLeft int       `json:"timeLeft"`
}

// GuessResponse decorates a resolved guess with how it was issued.
type GuessResponse struct {
	Auto   bool          `json:"auto"`
	Choice domain.Choice `json:"choice"`
	*ports.GuessResult
}
