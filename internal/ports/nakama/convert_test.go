package nakama

import (
	"encoding/json"
	"math/rand"
	"testing"

	"ludi/internal/app"
	"ludi/internal/config"
	"ludi/internal/domain"
)

// A stale client applying a snapshot must converge exactly onto the
// authoritative state, regardless of how far behind it fell.
func TestSnapshotRoundTripConverges(t *testing.T) {
	svc := app.NewService(rand.New(rand.NewSource(3)))
	game, _, err := svc.StartGame(config.DefaultRuleset(), []string{"u1", "u2", "", ""}, func(string) domain.ControllerKind {
		return domain.ControllerHuman
	})
	if err != nil {
		t.Fatalf("start game error: %v", err)
	}

	// Advance the game a few mutations past the initial state.
	if _, err := svc.RollDice(game, domain.ColorBlue, game.Version); err != nil {
		t.Fatalf("roll error: %v", err)
	}
	if game.Phase == domain.PhaseAwaitingMove {
		options := domain.LegalMoves(game, domain.ColorBlue)
		if len(options) == 0 {
			t.Fatalf("no legal moves after roll")
		}
		if _, err := svc.SelectMove(game, domain.ColorBlue, game.Version, options[0].PieceIndex, options[0].Dest); err != nil {
			t.Fatalf("move error: %v", err)
		}
	}

	payload, err := json.Marshal(snapshotToWire(game))
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var wire wireSnapshot
	if err := json.Unmarshal(payload, &wire); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	projected, err := snapshotToState(wire)
	if err != nil {
		t.Fatalf("rebuild projection: %v", err)
	}

	if projected.Version != game.Version {
		t.Fatalf("version = %d, want %d", projected.Version, game.Version)
	}
	if projected.TurnIndex != game.TurnIndex {
		t.Fatalf("turn index = %d, want %d", projected.TurnIndex, game.TurnIndex)
	}
	if projected.Phase != game.Phase {
		t.Fatalf("phase = %s, want %s", projected.Phase, game.Phase)
	}
	if len(projected.PendingDice) != len(game.PendingDice) {
		t.Fatalf("pending dice = %v, want %v", projected.PendingDice, game.PendingDice)
	}

	for i, pl := range game.Players {
		got := projected.Players[i]
		if got.UserID != pl.UserID || got.Color != pl.Color || got.Controller != pl.Controller {
			t.Fatalf("player %d = %+v, want %+v", i, got, pl)
		}
		for j, piece := range pl.Pieces {
			gp := got.Pieces[j]
			if gp.Area != piece.Area || gp.Progress != piece.Progress {
				t.Fatalf("piece %d/%d = %+v, want %+v", i, j, gp, piece)
			}
			wantCell, wantOn := game.Board.CellOf(piece)
			gotCell, gotOn := projected.Board.CellOf(gp)
			if wantOn != gotOn || (wantOn && wantCell != gotCell) {
				t.Fatalf("piece %d/%d cell = %d,%t want %d,%t", i, j, gotCell, gotOn, wantCell, wantOn)
			}
		}
	}

	if len(projected.Log) != len(game.Log) {
		t.Fatalf("log lines = %d, want %d", len(projected.Log), len(game.Log))
	}
	for _, line := range projected.Log {
		if _, err := domain.ClassifyTurn(line); err != nil {
			t.Fatalf("log line %q not parseable: %v", line, err)
		}
	}
}

func TestEventToWireCarriesPayloadFields(t *testing.T) {
	ev := app.Event{
		Kind: app.EventPieceMoved,
		Payload: app.PieceMovedPayload{
			Color:      domain.ColorGreen,
			PieceIndex: 2,
			Die:        5,
			FromCell:   14,
			ToCell:     19,
		},
	}
	got := eventToWire(ev)
	if got.Kind != string(app.EventPieceMoved) || got.Color != 1 || got.PieceIndex != 2 || got.Die != 5 || got.FromCell != 14 || got.ToCell != 19 {
		t.Fatalf("wire event = %+v", got)
	}

	over := app.Event{
		Kind: app.EventGameOver,
		Payload: app.GameOverPayload{
			Winner: domain.ColorBlue,
			Standings: []app.StandingEntry{
				{UserID: "u1", Color: domain.ColorBlue, Rank: 1, Finished: 4},
			},
		},
	}
	wire := eventToWire(over)
	if wire.Winner != 0 || len(wire.Standings) != 1 || wire.Standings[0].Rank != 1 {
		t.Fatalf("wire game over = %+v", wire)
	}
}

func TestParseAreaRejectsUnknown(t *testing.T) {
	for _, name := range []string{"base", "track", "goal"} {
		if _, err := parseArea(name); err != nil {
			t.Fatalf("parseArea(%q) error: %v", name, err)
		}
	}
	if _, err := parseArea("orbit"); err == nil {
		t.Fatalf("expected error for unknown area")
	}
}
