package bot

import (
	"fmt"

	"ludi/internal/domain"
)

// Agent represents an autonomous bot player occupying a seat.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// SelectMove asks the agent to choose among the legal moves for its color.
func (a *Agent) SelectMove(game *domain.GameState, color domain.Color, options []domain.MoveOption) (domain.MoveOption, error) {
	if len(options) == 0 {
		return domain.MoveOption{}, fmt.Errorf("no legal moves to select from")
	}
	return a.Strategy.SelectMove(game, color, options)
}
