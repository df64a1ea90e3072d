package bot

import "ludi/internal/domain"

// GreedyBrain applies a fixed preference order: capturing moves first, then
// advancing the piece closest to the goal, then releasing a piece from base.
// Ties break on the lowest piece index, then the lowest die index, so the
// choice is fully deterministic.
type GreedyBrain struct{}

func (b *GreedyBrain) SelectMove(game *domain.GameState, color domain.Color, options []domain.MoveOption) (domain.MoveOption, error) {
	best := options[0]
	bestScore := b.score(game, color, best)
	for _, opt := range options[1:] {
		if s := b.score(game, color, opt); b.better(s, bestScore) {
			best, bestScore = opt, s
		}
	}
	return best, nil
}

type greedyScore struct {
	category int // 0 capture, 1 advance, 2 release
	distance int // pre-move distance to goal; lower is better
	piece    int
	die      int
}

func (b *GreedyBrain) score(game *domain.GameState, color domain.Color, opt domain.MoveOption) greedyScore {
	piece, _ := game.PieceOf(color, opt.PieceIndex)
	category := 1
	switch {
	case opt.Captures:
		category = 0
	case piece.Area == domain.AreaBase:
		category = 2
	}
	return greedyScore{
		category: category,
		distance: game.Board.DistanceToGoal(piece),
		piece:    opt.PieceIndex,
		die:      opt.DieIndex,
	}
}

func (b *GreedyBrain) better(a, c greedyScore) bool {
	if a.category != c.category {
		return a.category < c.category
	}
	if a.distance != c.distance {
		return a.distance < c.distance
	}
	if a.piece != c.piece {
		return a.piece < c.piece
	}
	return a.die < c.die
}
