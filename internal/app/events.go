package app

import "ludi/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted   EventKind = "game_started"
	EventDiceRolled    EventKind = "dice_rolled"
	EventPieceReleased EventKind = "piece_released"
	EventPieceMoved    EventKind = "piece_moved"
	EventPieceCaptured EventKind = "piece_captured"
	EventPieceFinished EventKind = "piece_finished"
	EventTurnSkipped   EventKind = "turn_skipped"
	EventTurnChanged   EventKind = "turn_changed"
	EventGameOver      EventKind = "game_over"
)

// Event is a single domain/app event carried inside a Delta.
type Event struct {
	Kind    EventKind
	Payload any
}

type GameStartedPayload struct {
	FirstTurn   domain.Color
	PlayerCount int
}

type DiceRolledPayload struct {
	Color domain.Color
	Dice  []int
}

type PieceReleasedPayload struct {
	Color      domain.Color
	PieceIndex int
	Cell       int
}

type PieceMovedPayload struct {
	Color      domain.Color
	PieceIndex int
	Die        int
	FromCell   int
	ToCell     int // -1 when the piece entered the goal
}

type PieceCapturedPayload struct {
	Color      domain.Color
	PieceIndex int
	ByColor    domain.Color
}

type PieceFinishedPayload struct {
	Color      domain.Color
	PieceIndex int
}

type TurnSkippedPayload struct {
	Color domain.Color
	Dice  []int
}

type TurnChangedPayload struct {
	TurnIndex int
	Color     domain.Color
}

// StandingEntry ranks one player in the final result.
type StandingEntry struct {
	UserID   string
	Color    domain.Color
	Rank     int
	Finished int
}

type GameOverPayload struct {
	Winner    domain.Color
	Standings []StandingEntry
}
