package bot

// Weights tune the heuristic evaluation of a simulated position.
type Weights struct {
	Finish        float64
	Safe          float64
	Spawn         float64
	Progress      float64
	EnemyProgress float64
}

// DefaultTuning favors finishing and overall progress, mildly rewards parking
// on safe cells, and penalizes pieces stuck in base and enemy advancement.
var DefaultTuning = Weights{
	Finish:        20,
	Safe:          5,
	Spawn:         -5,
	Progress:      20,
	EnemyProgress: -20,
}
