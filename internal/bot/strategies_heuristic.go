package bot

import "ludi/internal/domain"

// HeuristicBrain simulates each legal move on a cloned state and keeps the
// option whose resulting position scores highest. Strictly-greater comparison
// keeps the earliest option on ties, so the result is deterministic.
type HeuristicBrain struct {
	Weights Weights
}

func (b *HeuristicBrain) SelectMove(game *domain.GameState, color domain.Color, options []domain.MoveOption) (domain.MoveOption, error) {
	best := options[0]
	bestScore := b.simulate(game, color, best)
	for _, opt := range options[1:] {
		if score := b.simulate(game, color, opt); score > bestScore {
			best, bestScore = opt, score
		}
	}
	return best, nil
}

func (b *HeuristicBrain) simulate(game *domain.GameState, color domain.Color, opt domain.MoveOption) float64 {
	sim := game.Clone()
	piece, ok := sim.PieceOf(color, opt.PieceIndex)
	if !ok {
		return 0
	}
	for _, captured := range sim.ApplyMove(piece, opt.Dest) {
		sim.ReturnToBase(captured)
	}
	return b.evaluate(sim, color)
}

func (b *HeuristicBrain) evaluate(g *domain.GameState, color domain.Color) float64 {
	pl, ok := g.PlayerByColor(color)
	if !ok {
		return 0
	}

	pieceCount := float64(len(pl.Pieces))
	finished, spawned, safe := 0, 0, 0
	for _, piece := range pl.Pieces {
		switch piece.Area {
		case domain.AreaGoal:
			finished++
		case domain.AreaBase:
			spawned++
		default:
			if cell, ok := g.Board.CellOf(piece); ok && g.Board.IsSafe(cell) {
				safe++
			}
		}
	}

	enemyProgress := 0.0
	enemies := 0
	for _, other := range g.Players {
		if other.Color == color {
			continue
		}
		enemyProgress += other.Progress(g.Board.TrackLength())
		enemies++
	}
	if enemies > 0 {
		enemyProgress /= float64(enemies)
	}

	return float64(finished)/pieceCount*b.Weights.Finish +
		float64(safe)/pieceCount*b.Weights.Safe +
		float64(spawned)/pieceCount*b.Weights.Spawn +
		pl.Progress(g.Board.TrackLength())*b.Weights.Progress +
		enemyProgress*b.Weights.EnemyProgress
}
