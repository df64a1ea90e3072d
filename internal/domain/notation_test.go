package domain

import (
	"reflect"
	"testing"
)

func TestTurnLogBuildsCompactLine(t *testing.T) {
	g := newTestGame(testRules(), ColorBlue, ColorGreen)
	piece, _ := g.PieceOf(ColorBlue, 0)

	g.LogTurnStart()
	g.LogRoll(6)
	g.LogRelease(piece, 6)

	if len(g.Log) != 1 {
		t.Fatalf("log lines = %d, want 1", len(g.Log))
	}
	if got, want := g.Log[0], " 1: 6/ A6+"; got != want {
		t.Fatalf("log line = %q, want %q", got, want)
	}
}

func TestCaptureTokenNamesVictims(t *testing.T) {
	g := newTestGame(testRules(), ColorBlue, ColorGreen)
	attacker, _ := g.PieceOf(ColorBlue, 0)
	victim, _ := g.PieceOf(ColorGreen, 3)

	g.LogTurnStart()
	g.LogCapture(attacker, 4, []*Piece{victim})

	if got, want := g.Log[0], " 1: A4x2D"; got != want {
		t.Fatalf("log line = %q, want %q", got, want)
	}
}

func TestClassifyToken(t *testing.T) {
	tests := []struct {
		token string
		want  LogEventType
	}{
		{" 2:", LogTurnStart},
		{"6/", LogDiceRolled},
		{"B3.", LogPieceMove},
		{"A6+", LogPieceRelease},
		{"A4!", LogPieceFinish},
		{"B4x3A", LogPieceCapture},
		{"#", LogGameOver},
	}
	for _, test := range tests {
		got, err := ClassifyToken(test.token)
		if err != nil {
			t.Fatalf("ClassifyToken(%q) error: %v", test.token, err)
		}
		if got != test.want {
			t.Fatalf("ClassifyToken(%q) = %d, want %d", test.token, got, test.want)
		}
	}

	if _, err := ClassifyToken("??"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestClassifyTurnLine(t *testing.T) {
	got, err := ClassifyTurn(" 1: 6/ A6+ 4/ A4x2D #")
	if err != nil {
		t.Fatalf("classify error: %v", err)
	}
	want := []LogEventType{LogTurnStart, LogDiceRolled, LogPieceRelease, LogDiceRolled, LogPieceCapture, LogGameOver}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("classified = %v, want %v", got, want)
	}
}
