package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// MaxPlayers is the number of board quadrants; seats and colors are indexed 0..MaxPlayers-1.
const MaxPlayers = 4

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = 2

// Ruleset holds every rule knob consumed at game-instance creation.
// A nil SafeCellPositions derives the classic layout: each color's start cell
// plus the star cell eight steps ahead of it.
type Ruleset struct {
	TrackLength        int   `json:"track_length"`
	HomeSlotsPerPlayer int   `json:"home_slots_per_player"`
	DiceCount          int   `json:"dice_count"`
	DiceMin            int   `json:"dice_min"`
	DiceMax            int   `json:"dice_max"`
	SafeCellPositions  []int `json:"safe_cell_positions"`
	StackingAllowed    bool  `json:"stacking_allowed"`
	ExtraTurnOnMaxRoll bool  `json:"extra_turn_on_max_roll"`
	ExtraTurnOnCapture bool  `json:"extra_turn_on_capture"`
	// ExitRollThreshold is the minimum roll that releases a piece from its home base.
	ExitRollThreshold int `json:"exit_roll_threshold"`
	// AllowOvershoot clamps a past-the-goal destination onto the goal instead of
	// excluding the move.
	AllowOvershoot bool `json:"allow_overshoot"`
	// OpeningRelease places each player's first piece on the track at game start
	// with a turn-order handicap distance.
	OpeningRelease bool `json:"opening_release"`
	// ResyncReplayWindow bounds how many deltas are kept for incremental resync.
	ResyncReplayWindow int `json:"resync_replay_window"`
	// StaleVersionTolerance is how far behind the current state version an
	// intent may be before it is rejected.
	StaleVersionTolerance uint64 `json:"stale_version_tolerance"`
	TurnTimeoutSeconds    int    `json:"turn_timeout_seconds"`
}

// DefaultRuleset returns the standard 52-cell four-player configuration.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		TrackLength:        52,
		HomeSlotsPerPlayer: 4,
		DiceCount:          1,
		DiceMin:            1,
		DiceMax:            6,
		StackingAllowed:    false,
		ExtraTurnOnMaxRoll: true,
		ExtraTurnOnCapture: true,
		ExitRollThreshold:  6,
		AllowOvershoot:     false,
		OpeningRelease:     true,
		ResyncReplayWindow: 32,
		TurnTimeoutSeconds: 30,
	}
}

// StartCell returns the absolute track cell where the given seat enters the track.
func (r *Ruleset) StartCell(seat int) int {
	return seat * r.TrackLength / MaxPlayers
}

// SafeCells returns the safe-cell set, deriving the classic layout when none is configured.
func (r *Ruleset) SafeCells() map[int]bool {
	safe := make(map[int]bool)
	if r.SafeCellPositions != nil {
		for _, cell := range r.SafeCellPositions {
			safe[cell%r.TrackLength] = true
		}
		return safe
	}
	for seat := 0; seat < MaxPlayers; seat++ {
		start := r.StartCell(seat)
		safe[start] = true
		safe[(start+8)%r.TrackLength] = true
	}
	return safe
}

// Validate reports whether the ruleset is internally consistent.
func (r *Ruleset) Validate() error {
	if r.TrackLength < MaxPlayers {
		return fmt.Errorf("track length %d too small", r.TrackLength)
	}
	if r.HomeSlotsPerPlayer < 1 {
		return fmt.Errorf("home slots per player %d too small", r.HomeSlotsPerPlayer)
	}
	if r.DiceCount < 1 {
		return fmt.Errorf("dice count %d too small", r.DiceCount)
	}
	if r.DiceMin < 1 || r.DiceMax < r.DiceMin {
		return fmt.Errorf("dice range %d..%d invalid", r.DiceMin, r.DiceMax)
	}
	if r.ExitRollThreshold < r.DiceMin || r.ExitRollThreshold > r.DiceMax {
		return fmt.Errorf("exit roll threshold %d outside dice range %d..%d", r.ExitRollThreshold, r.DiceMin, r.DiceMax)
	}
	if r.ResyncReplayWindow < 1 {
		return fmt.Errorf("resync replay window %d too small", r.ResyncReplayWindow)
	}
	return nil
}

var (
	fileRuleset *Ruleset
	loadOnce    sync.Once
	loadErr     error
)

// LoadRuleset loads rule overrides from the given JSON file, once per process.
func LoadRuleset(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read ruleset: %w", err)
			return
		}

		rs := DefaultRuleset()
		if err := json.Unmarshal(data, rs); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal ruleset: %w", err)
			return
		}
		if err := rs.Validate(); err != nil {
			loadErr = fmt.Errorf("invalid ruleset: %w", err)
			return
		}
		fileRuleset = rs
	})
	return loadErr
}

// ActiveRuleset returns a copy of the file-loaded ruleset, or the defaults
// when no file was loaded.
func ActiveRuleset() *Ruleset {
	if fileRuleset != nil {
		clone := *fileRuleset
		clone.SafeCellPositions = append([]int(nil), fileRuleset.SafeCellPositions...)
		return &clone
	}
	return DefaultRuleset()
}

// ApplyParams overlays match-creation params onto the ruleset. Unknown keys are
// ignored; numeric params arrive as float64 through Nakama's param map.
func (r *Ruleset) ApplyParams(params map[string]interface{}) {
	if v, ok := paramInt(params, "track_length"); ok {
		r.TrackLength = v
	}
	if v, ok := paramInt(params, "home_slots_per_player"); ok {
		r.HomeSlotsPerPlayer = v
	}
	if v, ok := paramInt(params, "dice_count"); ok {
		r.DiceCount = v
	}
	if v, ok := paramInt(params, "dice_min"); ok {
		r.DiceMin = v
	}
	if v, ok := paramInt(params, "dice_max"); ok {
		r.DiceMax = v
	}
	if v, ok := paramInt(params, "exit_roll_threshold"); ok {
		r.ExitRollThreshold = v
	}
	if v, ok := paramInt(params, "resync_replay_window"); ok {
		r.ResyncReplayWindow = v
	}
	if v, ok := paramInt(params, "turn_timeout_seconds"); ok {
		r.TurnTimeoutSeconds = v
	}
	if v, ok := paramInt(params, "stale_version_tolerance"); ok {
		r.StaleVersionTolerance = uint64(v)
	}
	if v, ok := paramBool(params, "stacking_allowed"); ok {
		r.StackingAllowed = v
	}
	if v, ok := paramBool(params, "extra_turn_on_max_roll"); ok {
		r.ExtraTurnOnMaxRoll = v
	}
	if v, ok := paramBool(params, "extra_turn_on_capture"); ok {
		r.ExtraTurnOnCapture = v
	}
	if v, ok := paramBool(params, "allow_overshoot"); ok {
		r.AllowOvershoot = v
	}
	if v, ok := paramBool(params, "opening_release"); ok {
		r.OpeningRelease = v
	}
}

func paramInt(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func paramBool(params map[string]interface{}, key string) (bool, bool) {
	v, ok := params[key].(bool)
	return v, ok
}
