package ports

import "context"

// PlayerResult captures one player's final ranking in a finished game.
type PlayerResult struct {
	UserID   string
	Rank     int
	Finished int
	Bot      bool
}

// ResultsPort records the outcome of a finished game: standings for the
// leaderboard and the turn log for the match archive.
type ResultsPort interface {
	RecordResult(ctx context.Context, matchID string, results []PlayerResult, matchLog []string) error
}
