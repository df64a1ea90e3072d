package bot

import "ludi/internal/domain"

// Brain is the interface that all bot strategies must implement. A brain only
// consumes the same legal-move set a human client sees; it must be
// deterministic for identical inputs.
type Brain interface {
	SelectMove(game *domain.GameState, color domain.Color, options []domain.MoveOption) (domain.MoveOption, error)
}

// BotLevel selects a strategy strength.
type BotLevel int

const (
	BotLevelGreedy BotLevel = iota
	BotLevelHeuristic
)
