package nakama

import (
	"fmt"

	"ludi/internal/app"
	"ludi/internal/config"
	"ludi/internal/domain"
)

// The wire schema is plain JSON over opcodes. Intents carry the state version
// the client believes is current; outbound deltas and snapshots carry the
// authoritative version.

type rollRequest struct {
	Version uint64 `json:"version"`
}

type moveSelectRequest struct {
	Version    uint64 `json:"version"`
	PieceIndex int    `json:"piece_index"`
	Area       string `json:"area"`
	Progress   int    `json:"progress"`
}

type resyncRequest struct {
	LastVersion uint64 `json:"last_version"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wirePiece struct {
	Index    int    `json:"index"`
	Area     string `json:"area"`
	Progress int    `json:"progress"`
	Cell     int    `json:"cell"` // absolute track cell, -1 off track
}

type wirePlayer struct {
	UserID      string      `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Color       int         `json:"color"`
	Controller  string      `json:"controller"`
	Pieces      []wirePiece `json:"pieces"`
}

type wireSnapshot struct {
	Version     uint64          `json:"version"`
	TurnIndex   int             `json:"turn_index"`
	Phase       string          `json:"phase"`
	PendingDice []int           `json:"pending_dice"`
	Winner      int             `json:"winner"`
	Rules       *config.Ruleset `json:"rules"`
	SafeCells   []int           `json:"safe_cells"`
	Players     []wirePlayer    `json:"players"`
	Log         []string        `json:"log"`
}

type wireStanding struct {
	UserID   string `json:"user_id"`
	Color    int    `json:"color"`
	Rank     int    `json:"rank"`
	Finished int    `json:"finished"`
}

// wireEvent flattens every event payload into one shape; which fields are
// meaningful depends on Kind.
type wireEvent struct {
	Kind       string         `json:"kind"`
	Color      int            `json:"color"`
	PieceIndex int            `json:"piece_index"`
	Die        int            `json:"die"`
	Dice       []int          `json:"dice,omitempty"`
	FromCell   int            `json:"from_cell"`
	ToCell     int            `json:"to_cell"`
	Cell       int            `json:"cell"`
	ByColor    int            `json:"by_color"`
	TurnIndex  int            `json:"turn_index"`
	Winner     int            `json:"winner"`
	Standings  []wireStanding `json:"standings,omitempty"`
}

type wireDelta struct {
	Version   uint64      `json:"version"`
	TurnIndex int         `json:"turn_index"`
	Events    []wireEvent `json:"events"`
}

func snapshotToWire(g *domain.GameState) wireSnapshot {
	players := make([]wirePlayer, 0, len(g.Players))
	for _, pl := range g.Players {
		players = append(players, playerToWire(g, pl))
	}
	return wireSnapshot{
		Version:     g.Version,
		TurnIndex:   g.TurnIndex,
		Phase:       string(g.Phase),
		PendingDice: append([]int(nil), g.PendingDice...),
		Winner:      int(g.Winner),
		Rules:       g.Rules,
		SafeCells:   g.Board.SafeCellList(),
		Players:     players,
		Log:         append([]string(nil), g.Log...),
	}
}

func playerToWire(g *domain.GameState, pl *domain.Player) wirePlayer {
	pieces := make([]wirePiece, 0, len(pl.Pieces))
	for _, piece := range pl.Pieces {
		cell := -1
		if c, ok := g.Board.CellOf(piece); ok {
			cell = c
		}
		pieces = append(pieces, wirePiece{
			Index:    piece.Index,
			Area:     piece.Area.String(),
			Progress: piece.Progress,
			Cell:     cell,
		})
	}
	return wirePlayer{
		UserID:     pl.UserID,
		Color:      int(pl.Color),
		Controller: string(pl.Controller),
		Pieces:     pieces,
	}
}

// snapshotToState rebuilds a client-side projection from a snapshot. The
// server never consumes it; it exists so tests can prove snapshot application
// converges a stale projection onto the authoritative state.
func snapshotToState(snap wireSnapshot) (*domain.GameState, error) {
	players := make([]*domain.Player, 0, len(snap.Players))
	for _, wp := range snap.Players {
		pl := domain.NewPlayer(wp.UserID, domain.Color(wp.Color), domain.ControllerKind(wp.Controller), len(wp.Pieces))
		for i, wpc := range wp.Pieces {
			area, err := parseArea(wpc.Area)
			if err != nil {
				return nil, err
			}
			pl.Pieces[i].Area = area
			pl.Pieces[i].Progress = wpc.Progress
		}
		players = append(players, pl)
	}

	g := domain.NewGameState(snap.Rules, players)
	g.Version = snap.Version
	g.TurnIndex = snap.TurnIndex
	g.Phase = domain.TurnPhase(snap.Phase)
	g.PendingDice = append([]int(nil), snap.PendingDice...)
	g.Winner = domain.Color(snap.Winner)
	g.Log = append([]string(nil), snap.Log...)
	return g, nil
}

func parseArea(s string) (domain.Area, error) {
	switch s {
	case domain.AreaBase.String():
		return domain.AreaBase, nil
	case domain.AreaTrack.String():
		return domain.AreaTrack, nil
	case domain.AreaGoal.String():
		return domain.AreaGoal, nil
	}
	return 0, fmt.Errorf("unknown area %q", s)
}

func deltaToWire(d app.Delta) wireDelta {
	events := make([]wireEvent, 0, len(d.Events))
	for _, ev := range d.Events {
		events = append(events, eventToWire(ev))
	}
	return wireDelta{Version: d.Version, TurnIndex: d.TurnIndex, Events: events}
}

func eventToWire(ev app.Event) wireEvent {
	out := wireEvent{Kind: string(ev.Kind)}
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		out.Color = int(p.FirstTurn)
		out.TurnIndex = 0
	case app.DiceRolledPayload:
		out.Color = int(p.Color)
		out.Dice = p.Dice
	case app.PieceReleasedPayload:
		out.Color = int(p.Color)
		out.PieceIndex = p.PieceIndex
		out.Cell = p.Cell
	case app.PieceMovedPayload:
		out.Color = int(p.Color)
		out.PieceIndex = p.PieceIndex
		out.Die = p.Die
		out.FromCell = p.FromCell
		out.ToCell = p.ToCell
	case app.PieceCapturedPayload:
		out.Color = int(p.Color)
		out.PieceIndex = p.PieceIndex
		out.ByColor = int(p.ByColor)
	case app.PieceFinishedPayload:
		out.Color = int(p.Color)
		out.PieceIndex = p.PieceIndex
	case app.TurnSkippedPayload:
		out.Color = int(p.Color)
		out.Dice = p.Dice
	case app.TurnChangedPayload:
		out.TurnIndex = p.TurnIndex
		out.Color = int(p.Color)
	case app.GameOverPayload:
		out.Winner = int(p.Winner)
		for _, st := range p.Standings {
			out.Standings = append(out.Standings, wireStanding{
				UserID:   st.UserID,
				Color:    int(st.Color),
				Rank:     st.Rank,
				Finished: st.Finished,
			})
		}
	}
	return out
}
