package domain

import (
	"sort"

	"ludi/internal/config"
)

// Board holds the static geometry of the track: cell count, per-color start
// offsets and the safe-cell set. Piece occupancy lives on GameState; the board
// only answers spatial questions.
type Board struct {
	trackLength int
	safe        map[int]bool
}

// NewBoard derives board geometry from the ruleset.
func NewBoard(rules *config.Ruleset) *Board {
	return &Board{
		trackLength: rules.TrackLength,
		safe:        rules.SafeCells(),
	}
}

// TrackLength returns the number of cells on the circular track.
func (b *Board) TrackLength() int {
	return b.trackLength
}

// StartCell returns the absolute cell where the given color enters the track.
func (b *Board) StartCell(c Color) int {
	return int(c) * b.trackLength / config.MaxPlayers
}

// IsSafe reports whether the absolute cell index is a safe cell.
func (b *Board) IsSafe(cell int) bool {
	return b.safe[cell]
}

// SafeCellList returns the safe cells in ascending order.
func (b *Board) SafeCellList() []int {
	out := make([]int, 0, len(b.safe))
	for cell := range b.safe {
		out = append(out, cell)
	}
	sort.Ints(out)
	return out
}

// CellOf returns the absolute track cell a piece occupies. The second return
// is false for pieces in base or goal.
func (b *Board) CellOf(p *Piece) (int, bool) {
	if p.Area != AreaTrack {
		return 0, false
	}
	return b.cellFor(p.Owner, p.Progress), true
}

// cellFor maps a color's progress onto an absolute track cell.
func (b *Board) cellFor(c Color, progress int) int {
	return (b.StartCell(c) + progress) % b.trackLength
}

// DistanceToGoal returns how many steps the piece still needs to finish.
// Pieces in base count the full track plus the entry step.
func (b *Board) DistanceToGoal(p *Piece) int {
	switch p.Area {
	case AreaGoal:
		return 0
	case AreaBase:
		return b.trackLength + 1
	default:
		return b.trackLength - p.Progress
	}
}

// PiecesAt returns all pieces occupying the given absolute track cell, in
// player then piece order.
func (g *GameState) PiecesAt(cell int) []*Piece {
	var out []*Piece
	for _, pl := range g.Players {
		for _, p := range pl.Pieces {
			if c, ok := g.Board.CellOf(p); ok && c == cell {
				out = append(out, p)
			}
		}
	}
	return out
}

// ApplyMove relocates the piece to the destination and returns the opposing
// pieces displaced from the landing cell. It only updates location
// bookkeeping; the caller applies the capture consequences (ReturnToBase) and
// emits events.
func (g *GameState) ApplyMove(p *Piece, dest Destination) []*Piece {
	var displaced []*Piece
	if dest.Area == AreaTrack {
		cell := g.Board.cellFor(p.Owner, dest.Progress)
		if !g.Board.IsSafe(cell) {
			for _, occ := range g.PiecesAt(cell) {
				if occ.Owner != p.Owner {
					displaced = append(displaced, occ)
				}
			}
		}
	}

	p.Area = dest.Area
	p.Progress = dest.Progress
	if dest.Area == AreaGoal {
		p.Progress = g.Board.TrackLength()
	}
	return displaced
}

// ReturnToBase resets a captured piece to its home base.
func (g *GameState) ReturnToBase(p *Piece) {
	p.Area = AreaBase
	p.Progress = 0
}
