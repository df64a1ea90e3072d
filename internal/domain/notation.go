package domain

import (
	"fmt"
	"strings"
)

// The turn log uses a compact token-per-action notation, one string per turn:
//
//	" 2:" turn start   " 6/" die rolled   " A6+" release   " B3." move
//	" A4!" finish      " B4x3A" capture   " #" game over
//
// It is broadcast in snapshots and archived when the game ends, so spectators
// and replays can reconstruct a game without the full delta stream.

// LogEventType classifies a single log token.
type LogEventType int

const (
	LogTurnStart LogEventType = iota + 1
	LogDiceRolled
	LogPieceRelease
	LogPieceFinish
	LogPieceMove
	LogPieceCapture
	LogGameOver
)

const gameOverSymbol = "#"

// LogTurnStart opens a new log line for the active player.
func (g *GameState) LogTurnStart() {
	g.Log = append(g.Log, fmt.Sprintf(" %s:", g.ActivePlayer().Name()))
}

// LogRoll appends a rolled die to the current turn line.
func (g *GameState) LogRoll(die int) {
	g.appendToken(fmt.Sprintf(" %d/", die))
}

// LogRelease records a piece leaving its base.
func (g *GameState) LogRelease(piece *Piece, die int) {
	g.appendToken(fmt.Sprintf(" %s%d+", piece.Name(), die))
}

// LogMove records a plain track move.
func (g *GameState) LogMove(piece *Piece, die int) {
	g.appendToken(fmt.Sprintf(" %s%d.", piece.Name(), die))
}

// LogFinish records a piece reaching the goal.
func (g *GameState) LogFinish(piece *Piece, die int) {
	g.appendToken(fmt.Sprintf(" %s%d!", piece.Name(), die))
}

// LogCapture records a capturing move with every displaced piece.
func (g *GameState) LogCapture(piece *Piece, die int, captured []*Piece) {
	token := fmt.Sprintf(" %s%d", piece.Name(), die)
	for _, cap := range captured {
		token += fmt.Sprintf("x%d%s", int(cap.Owner)+1, cap.Name())
	}
	g.appendToken(token)
}

// LogGameOver closes the log with the terminal marker.
func (g *GameState) LogGameOver() {
	g.appendToken(" " + gameOverSymbol)
}

func (g *GameState) appendToken(token string) {
	if len(g.Log) == 0 {
		g.LogTurnStart()
	}
	g.Log[len(g.Log)-1] += token
}

// ClassifyToken identifies the event type of a single log token.
func ClassifyToken(word string) (LogEventType, error) {
	original := word
	word = strings.TrimSpace(word)
	switch {
	case word == gameOverSymbol:
		return LogGameOver, nil
	case strings.HasSuffix(word, ":"):
		return LogTurnStart, nil
	case strings.HasSuffix(word, "/"):
		return LogDiceRolled, nil
	case strings.HasSuffix(word, "."):
		return LogPieceMove, nil
	case strings.Contains(word, "x"):
		return LogPieceCapture, nil
	case strings.HasSuffix(word, "+"):
		return LogPieceRelease, nil
	case strings.Contains(word, "!"):
		return LogPieceFinish, nil
	}
	return 0, fmt.Errorf("unrecognized log token %q", original)
}

// ClassifyTurn tokenizes one turn line into its event types.
func ClassifyTurn(line string) ([]LogEventType, error) {
	var out []LogEventType
	for _, word := range strings.Fields(line) {
		evt, err := ClassifyToken(word)
		if err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, nil
}
