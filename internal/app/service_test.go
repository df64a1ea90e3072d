package app

import (
	"math/rand"
	"testing"

	"ludi/internal/config"
	"ludi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func humanController(string) domain.ControllerKind {
	return domain.ControllerHuman
}

func startTwoPlayerGame(t *testing.T, rules *config.Ruleset) (*Service, *domain.GameState) {
	t.Helper()
	svc := NewService(rand.New(rand.NewSource(7)))
	game, _, err := svc.StartGame(rules, []string{"u1", "u2", "", ""}, humanController)
	require.NoError(t, err)
	return svc, game
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestStartGameOpeningRelease(t *testing.T) {
	svc := NewService(rand.New(rand.NewSource(1)))
	game, events, err := svc.StartGame(config.DefaultRuleset(), []string{"u1", "u2", "", ""}, humanController)
	require.NoError(t, err)

	require.Len(t, game.Players, 2)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
	assert.Equal(t, uint64(1), game.Version)
	require.True(t, hasEvent(events, EventGameStarted))

	// First pieces start on the track; later seats get a handicap head start
	// of about one average roll spread across the turn order.
	first, _ := game.PieceOf(domain.ColorBlue, 0)
	second, _ := game.PieceOf(domain.ColorGreen, 0)
	assert.Equal(t, domain.AreaTrack, first.Area)
	assert.Equal(t, 0, first.Progress)
	assert.Equal(t, domain.AreaTrack, second.Area)
	assert.Equal(t, 2, second.Progress)
}

func TestStartGameRequiresTwoSeats(t *testing.T) {
	svc := NewService(nil)
	_, _, err := svc.StartGame(config.DefaultRuleset(), []string{"u1", "", "", ""}, humanController)
	assert.ErrorIs(t, err, ErrTooFewPlayers)
}

func TestRollDiceTransitionsToMoveSelection(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	events, err := svc.RollDice(game, domain.ColorBlue, 1)
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventDiceRolled))
	assert.Equal(t, uint64(2), game.Version)
	// The opening release guarantees a movable piece, so the roll never skips.
	assert.Equal(t, domain.PhaseAwaitingMove, game.Phase)
	require.Len(t, game.PendingDice, 1)
	assert.GreaterOrEqual(t, game.PendingDice[0], 1)
	assert.LessOrEqual(t, game.PendingDice[0], 6)
}

func TestRollDiceRejectsWrongPlayer(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	_, err := svc.RollDice(game, domain.ColorGreen, 1)
	assert.ErrorIs(t, err, ErrNotActivePlayer)
	assert.Equal(t, uint64(1), game.Version)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
}

func TestRollDiceRejectsStaleVersion(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	_, err := svc.RollDice(game, domain.ColorBlue, 0)
	assert.ErrorIs(t, err, ErrStaleVersion)

	_, err = svc.RollDice(game, domain.ColorBlue, 5)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, uint64(1), game.Version)
}

func TestSelectMoveCaptureReturnsVictimAndGrantsExtraTurn(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	attacker, _ := game.PieceOf(domain.ColorBlue, 0)
	attacker.Progress = 11
	victim, _ := game.PieceOf(domain.ColorGreen, 0)
	victim.Progress = 2 // absolute cell 15, blue's landing cell

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{4}

	events, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 15})
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventPieceMoved))
	require.True(t, hasEvent(events, EventPieceCaptured))
	assert.Equal(t, domain.AreaBase, victim.Area)
	assert.Equal(t, 0, victim.Progress)

	// Capture earns another roll for the same player.
	assert.Equal(t, 0, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
	assert.Equal(t, uint64(2), game.Version)
}

func TestSelectMoveMaxRollGrantsExtraTurn(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{6}

	_, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 6})
	require.NoError(t, err)

	assert.Equal(t, 0, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
}

func TestSelectMovePassesTurnWithoutExtra(t *testing.T) {
	rules := config.DefaultRuleset()
	rules.ExtraTurnOnMaxRoll = false
	rules.ExtraTurnOnCapture = false
	svc, game := startTwoPlayerGame(t, rules)

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{3}

	events, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 3})
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventTurnChanged))
	assert.Equal(t, 1, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
}

func TestSelectMoveKeepsTurnWhileDiceRemain(t *testing.T) {
	rules := config.DefaultRuleset()
	rules.DiceCount = 2
	rules.ExtraTurnOnMaxRoll = false
	svc, game := startTwoPlayerGame(t, rules)

	second, _ := game.PieceOf(domain.ColorBlue, 1)
	second.Area = domain.AreaTrack
	second.Progress = 20

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{2, 3}

	// Rolling again while dice are pending is out of phase.
	_, err := svc.RollDice(game, domain.ColorBlue, 1)
	assert.ErrorIs(t, err, ErrInvalidRollState)

	_, err = svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 2})
	require.NoError(t, err)

	// One die left and still usable: the same player keeps selecting.
	assert.Equal(t, 0, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingMove, game.Phase)
	assert.Equal(t, []int{3}, game.PendingDice)
	assert.Equal(t, uint64(2), game.Version)

	events, err := svc.SelectMove(game, domain.ColorBlue, 2, 1, domain.Destination{Area: domain.AreaTrack, Progress: 23})
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventTurnChanged))
	assert.Equal(t, 1, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
	assert.Empty(t, game.PendingDice)
	assert.Equal(t, uint64(3), game.Version)
}

func TestSelectMoveDiscardsUnusableRemainingDice(t *testing.T) {
	rules := config.DefaultRuleset()
	rules.DiceCount = 2
	svc, game := startTwoPlayerGame(t, rules)

	first, _ := game.PieceOf(domain.ColorBlue, 0)
	first.Progress = 49
	for i := 1; i < 4; i++ {
		p, _ := game.PieceOf(domain.ColorBlue, i)
		p.Area = domain.AreaBase
		p.Progress = 0
	}

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{2, 5}

	events, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 51})
	require.NoError(t, err)

	// The leftover 5 overshoots the goal and cannot release a based piece, so
	// it is discarded and the turn passes.
	require.True(t, hasEvent(events, EventTurnChanged))
	assert.Equal(t, 1, game.TurnIndex)
	assert.Empty(t, game.PendingDice)
	assert.Equal(t, uint64(2), game.Version)
}

func TestSelectMoveRejectsIllegalSelection(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{3}

	_, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaTrack, Progress: 9})
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = svc.SelectMove(game, domain.ColorBlue, 1, 9, domain.Destination{Area: domain.AreaTrack, Progress: 3})
	assert.ErrorIs(t, err, ErrUnknownPiece)
	assert.Equal(t, uint64(1), game.Version)
}

func TestWinningMoveEndsGame(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	player, _ := game.PlayerByColor(domain.ColorBlue)
	for _, piece := range player.Pieces[1:] {
		piece.Area = domain.AreaGoal
		piece.Progress = game.Rules.TrackLength
	}
	last := player.Pieces[0]
	last.Area = domain.AreaTrack
	last.Progress = 48

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{4}

	events, err := svc.SelectMove(game, domain.ColorBlue, 1, 0, domain.Destination{Area: domain.AreaGoal, Progress: game.Rules.TrackLength})
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventPieceFinished))
	require.True(t, hasEvent(events, EventGameOver))
	assert.Equal(t, domain.PhaseGameOver, game.Phase)
	assert.Equal(t, domain.ColorBlue, game.Winner)

	var over GameOverPayload
	for _, ev := range events {
		if ev.Kind == EventGameOver {
			over = ev.Payload.(GameOverPayload)
		}
	}
	require.NotEmpty(t, over.Standings)
	assert.Equal(t, "u1", over.Standings[0].UserID)
	assert.Equal(t, 1, over.Standings[0].Rank)
	assert.Equal(t, 4, over.Standings[0].Finished)

	// Terminal state rejects every further intent.
	_, err = svc.RollDice(game, domain.ColorGreen, game.Version)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestRollAutoSkipsWhenNoMoveExists(t *testing.T) {
	// A dice range that can never reach the exit threshold leaves a player
	// with all pieces based and no legal move.
	rules := config.DefaultRuleset()
	rules.OpeningRelease = false
	rules.DiceMax = 5
	svc, game := startTwoPlayerGame(t, rules)

	events, err := svc.RollDice(game, domain.ColorBlue, 1)
	require.NoError(t, err)

	require.True(t, hasEvent(events, EventTurnSkipped))
	require.True(t, hasEvent(events, EventTurnChanged))
	assert.Equal(t, 1, game.TurnIndex)
	assert.Equal(t, domain.PhaseAwaitingRoll, game.Phase)
	assert.Equal(t, uint64(2), game.Version)
}

func TestForcePassAdvancesTurn(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	_, err := svc.ForcePass(game, domain.ColorGreen)
	assert.ErrorIs(t, err, ErrNotActivePlayer)

	events, err := svc.ForcePass(game, domain.ColorBlue)
	require.NoError(t, err)
	require.True(t, hasEvent(events, EventTurnSkipped))
	require.True(t, hasEvent(events, EventTurnChanged))
	assert.Equal(t, 1, game.TurnIndex)
	assert.Equal(t, uint64(2), game.Version)
}

func TestSetControllerRejectedMidSelection(t *testing.T) {
	svc, game := startTwoPlayerGame(t, config.DefaultRuleset())

	game.Phase = domain.PhaseAwaitingMove
	game.PendingDice = []int{3}

	err := svc.SetController(game, domain.ColorBlue, domain.ControllerBot)
	assert.ErrorIs(t, err, ErrControllerBusy)

	require.NoError(t, svc.SetController(game, domain.ColorGreen, domain.ControllerBot))
	player, _ := game.PlayerByColor(domain.ColorGreen)
	assert.Equal(t, domain.ControllerBot, player.Controller)
}
