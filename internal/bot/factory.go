package bot

import "fmt"

// NewBrain creates a strategy for the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelGreedy:
		return &GreedyBrain{}, nil
	case BotLevelHeuristic:
		return &HeuristicBrain{Weights: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}

// NewAgent builds an agent for a provisioned bot user id, using the identity's
// configured difficulty.
func NewAgent(userID string) (*Agent, error) {
	identity, ok := IdentityFor(userID)
	if !ok {
		return nil, fmt.Errorf("unknown bot user id: %s", userID)
	}
	brain, err := NewBrain(identity.Level())
	if err != nil {
		return nil, err
	}
	return &Agent{ID: identity.UserID, Name: identity.DisplayName, Strategy: brain}, nil
}
