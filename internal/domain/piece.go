package domain

// Color identifies a player seat on the board; it doubles as the turn-order index
// the seat would have in a full four-player game.
type Color int

const (
	ColorBlue Color = iota
	ColorGreen
	ColorYellow
	ColorRed
)

var colorNames = [...]string{"blue", "green", "yellow", "red"}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return "unknown"
	}
	return colorNames[c]
}

// Area is the coarse location class of a piece.
type Area int

const (
	// AreaBase is the home base; the piece has not entered the track.
	AreaBase Area = iota
	// AreaTrack means the piece is on the shared circular track.
	AreaTrack
	// AreaGoal means the piece finished; it can no longer move.
	AreaGoal
)

var areaNames = [...]string{"base", "track", "goal"}

func (a Area) String() string {
	if a < 0 || int(a) >= len(areaNames) {
		return "unknown"
	}
	return areaNames[a]
}

// pieceNames label pieces in the turn log, by piece index.
const pieceNames = "ABCDEFGHIJ"

// Piece is a single unit owned by one color. Progress counts steps travelled
// along the track from the owner's start cell; it is only meaningful on the
// track (and equals the track length once the piece reaches the goal).
type Piece struct {
	Index    int   `json:"index"`
	Owner    Color `json:"owner"`
	Area     Area  `json:"area"`
	Progress int   `json:"progress"`
}

// Name returns the piece's letter used in the turn log.
func (p *Piece) Name() string {
	if p.Index < 0 || p.Index >= len(pieceNames) {
		return "?"
	}
	return string(pieceNames[p.Index])
}

// Destination is a location a piece may move to. For AreaTrack, Progress is
// the piece's new step count along the track; for AreaGoal it equals the track
// length.
type Destination struct {
	Area     Area `json:"area"`
	Progress int  `json:"progress"`
}
