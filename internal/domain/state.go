package domain

import (
	"sort"

	"ludi/internal/config"
)

// ControllerKind selects who supplies intents for a color.
type ControllerKind string

const (
	ControllerHuman ControllerKind = "human"
	ControllerBot   ControllerKind = "bot"
)

// TurnPhase is the state of the turn machine.
type TurnPhase string

const (
	// PhaseAwaitingRoll waits for a roll request from the active player.
	PhaseAwaitingRoll TurnPhase = "awaiting_roll"
	// PhaseAwaitingMove waits for a move selection consuming a pending die.
	PhaseAwaitingMove TurnPhase = "awaiting_move"
	// PhaseGameOver is terminal; only a reset from the session layer applies.
	PhaseGameOver TurnPhase = "game_over"
)

// Player holds one participant's color, controller and pieces.
type Player struct {
	UserID     string         `json:"user_id"`
	Color      Color          `json:"color"`
	Controller ControllerKind `json:"controller"`
	Pieces     []*Piece       `json:"pieces"`
}

// NewPlayer creates a player with all pieces in the home base.
func NewPlayer(userID string, color Color, controller ControllerKind, homeSlots int) *Player {
	pieces := make([]*Piece, homeSlots)
	for i := range pieces {
		pieces[i] = &Piece{Index: i, Owner: color}
	}
	return &Player{
		UserID:     userID,
		Color:      color,
		Controller: controller,
		Pieces:     pieces,
	}
}

// Name returns the player's number used in the turn log.
func (p *Player) Name() string {
	return string(rune('1' + int(p.Color)))
}

// Progress returns the player's normalized total track progress in 0..1.
func (p *Player) Progress(trackLength int) float64 {
	total := 0
	for _, piece := range p.Pieces {
		total += piece.Progress
	}
	return float64(total) / float64(trackLength) / float64(len(p.Pieces))
}

// FinishedCount returns the number of pieces in the goal.
func (p *Player) FinishedCount() int {
	n := 0
	for _, piece := range p.Pieces {
		if piece.Area == AreaGoal {
			n++
		}
	}
	return n
}

// HasWon reports whether all of the player's pieces reached the goal.
func (p *Player) HasWon() bool {
	return p.FinishedCount() == len(p.Pieces)
}

// GameState is the authoritative aggregate for one game instance. It is owned
// by a single match loop; nothing here is safe for concurrent mutation.
type GameState struct {
	Rules   *config.Ruleset `json:"rules"`
	Board   *Board          `json:"-"`
	Players []*Player       `json:"players"`

	TurnIndex   int       `json:"turn_index"`
	Phase       TurnPhase `json:"phase"`
	PendingDice []int     `json:"pending_dice"`
	// ExtraTurnEarned accumulates across the moves of one turn; the player
	// rolls again instead of passing the turn when it is set.
	ExtraTurnEarned bool `json:"extra_turn_earned"`
	// Version strictly increases with every applied mutation; deltas and
	// resync ordering key off it.
	Version uint64   `json:"version"`
	Winner  Color    `json:"winner"`
	Log     []string `json:"log"`
}

// NewGameState assembles a fresh game with the given players in turn order.
func NewGameState(rules *config.Ruleset, players []*Player) *GameState {
	return &GameState{
		Rules:   rules,
		Board:   NewBoard(rules),
		Players: players,
		Phase:   PhaseAwaitingRoll,
	}
}

// ActivePlayer returns the player whose turn it is.
func (g *GameState) ActivePlayer() *Player {
	return g.Players[g.TurnIndex]
}

// PlayerByColor finds a player by color.
func (g *GameState) PlayerByColor(c Color) (*Player, bool) {
	for _, pl := range g.Players {
		if pl.Color == c {
			return pl, true
		}
	}
	return nil, false
}

// PieceOf returns the piece with the given index for a color.
func (g *GameState) PieceOf(c Color, index int) (*Piece, bool) {
	pl, ok := g.PlayerByColor(c)
	if !ok || index < 0 || index >= len(pl.Pieces) {
		return nil, false
	}
	return pl.Pieces[index], true
}

// AdvanceTurn moves the turn index to the next player still in the game and
// resets the phase to awaiting a roll.
func (g *GameState) AdvanceTurn() {
	for i := 1; i <= len(g.Players); i++ {
		next := (g.TurnIndex + i) % len(g.Players)
		if !g.Players[next].HasWon() {
			g.TurnIndex = next
			break
		}
	}
	g.PendingDice = nil
	g.ExtraTurnEarned = false
	g.Phase = PhaseAwaitingRoll
}

// Clone returns a deep copy, used by bots to simulate candidate moves.
func (g *GameState) Clone() *GameState {
	players := make([]*Player, len(g.Players))
	for i, pl := range g.Players {
		pieces := make([]*Piece, len(pl.Pieces))
		for j, piece := range pl.Pieces {
			copied := *piece
			pieces[j] = &copied
		}
		players[i] = &Player{
			UserID:     pl.UserID,
			Color:      pl.Color,
			Controller: pl.Controller,
			Pieces:     pieces,
		}
	}
	return &GameState{
		Rules:           g.Rules,
		Board:           g.Board,
		Players:         players,
		TurnIndex:       g.TurnIndex,
		Phase:           g.Phase,
		PendingDice:     append([]int(nil), g.PendingDice...),
		ExtraTurnEarned: g.ExtraTurnEarned,
		Version:         g.Version,
		Winner:          g.Winner,
		Log:             append([]string(nil), g.Log...),
	}
}

// Standings ranks players by finished pieces, then total progress, then color.
func (g *GameState) Standings() []*Player {
	out := append([]*Player(nil), g.Players...)
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i].FinishedCount(), out[j].FinishedCount()
		if fi != fj {
			return fi > fj
		}
		pi := out[i].Progress(g.Board.TrackLength())
		pj := out[j].Progress(g.Board.TrackLength())
		if pi != pj {
			return pi > pj
		}
		return out[i].Color < out[j].Color
	})
	return out
}
