package app

import "errors"

// Rejection errors for client intents. None of these mutate game state; the
// nakama port maps them to targeted error events.
var (
	ErrNotActivePlayer  = errors.New("actor is not the active player")
	ErrStaleVersion     = errors.New("intent references a stale state version")
	ErrIllegalMove      = errors.New("move is not in the legal move set")
	ErrInvalidRollState = errors.New("intent does not match the current turn phase")
	ErrUnknownPiece     = errors.New("piece not found")
	ErrGameOver         = errors.New("game is over")
	ErrControllerBusy   = errors.New("controller cannot change while a move selection is pending")
	ErrTooFewPlayers    = errors.New("not enough players to start")
)
