package app

import (
	"math/rand"
	"time"

	"ludi/internal/config"
	"ludi/internal/domain"
)

// Service contains the Ludi turn-machine use-cases operating on domain state.
// A single match loop owns each GameState; the service itself is stateless and
// all mutations run in that loop, one intent at a time.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// StartGame assembles a fresh GameState from the seat list (empty strings for
// empty seats; a seat's index is its color) and applies the opening release
// when the ruleset asks for it.
func (s *Service) StartGame(rules *config.Ruleset, seats []string, controller func(userID string) domain.ControllerKind) (*domain.GameState, []Event, error) {
	var players []*domain.Player
	for seat, userID := range seats {
		if userID == "" {
			continue
		}
		players = append(players, domain.NewPlayer(userID, domain.Color(seat), controller(userID), rules.HomeSlotsPerPlayer))
	}
	if len(players) < config.MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}

	game := domain.NewGameState(rules, players)

	if rules.OpeningRelease {
		// First piece starts on the track with a turn-order handicap so
		// later seats are not strictly worse off.
		avgRoll := float64(rules.DiceMin+rules.DiceMax) / 2
		for i, pl := range players {
			handicap := int(avgRoll*float64(i)/float64(len(players)) + 0.5)
			pl.Pieces[0].Area = domain.AreaTrack
			pl.Pieces[0].Progress = handicap
		}
	}

	game.Version = 1
	game.LogTurnStart()

	events := []Event{
		{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				FirstTurn:   game.ActivePlayer().Color,
				PlayerCount: len(players),
			},
		},
	}
	return game, events, nil
}

// RollDice handles a RollRequest from the active color. When the roll yields
// no legal move the turn auto-skips.
func (s *Service) RollDice(g *domain.GameState, color domain.Color, clientVersion uint64) ([]Event, error) {
	if err := s.validateIntent(g, color, clientVersion, domain.PhaseAwaitingRoll); err != nil {
		return nil, err
	}

	rules := g.Rules
	dice := make([]int, rules.DiceCount)
	for i := range dice {
		dice[i] = s.rng.Intn(rules.DiceMax-rules.DiceMin+1) + rules.DiceMin
		g.LogRoll(dice[i])
	}
	g.PendingDice = dice
	g.ExtraTurnEarned = false
	g.Phase = domain.PhaseAwaitingMove

	events := []Event{
		{
			Kind:    EventDiceRolled,
			Payload: DiceRolledPayload{Color: color, Dice: append([]int(nil), dice...)},
		},
	}

	if len(domain.LegalMoves(g, color)) == 0 {
		events = append(events, Event{
			Kind:    EventTurnSkipped,
			Payload: TurnSkippedPayload{Color: color, Dice: append([]int(nil), dice...)},
		})
		events = append(events, s.advanceTurn(g)...)
	}

	g.Version++
	return events, nil
}

// SelectMove handles a MoveSelection from the active color. The selection must
// reference a member of the current legal-move set.
func (s *Service) SelectMove(g *domain.GameState, color domain.Color, clientVersion uint64, pieceIndex int, dest domain.Destination) ([]Event, error) {
	if err := s.validateIntent(g, color, clientVersion, domain.PhaseAwaitingMove); err != nil {
		return nil, err
	}

	piece, ok := g.PieceOf(color, pieceIndex)
	if !ok {
		return nil, ErrUnknownPiece
	}
	opt, ok := domain.FindMove(domain.LegalMoves(g, color), pieceIndex, dest)
	if !ok {
		return nil, ErrIllegalMove
	}

	events := s.applyMove(g, piece, opt)

	player := g.ActivePlayer()
	if player.HasWon() {
		events = append(events, s.finishGame(g, player)...)
		g.Version++
		return events, nil
	}

	if len(g.PendingDice) > 0 && len(domain.LegalMoves(g, color)) > 0 {
		// More dice to consume; same player keeps selecting.
		g.Version++
		return events, nil
	}
	g.PendingDice = nil

	if g.ExtraTurnEarned {
		g.ExtraTurnEarned = false
		g.Phase = domain.PhaseAwaitingRoll
	} else {
		events = append(events, s.advanceTurn(g)...)
	}

	g.Version++
	return events, nil
}

// applyMove consumes the option's die, relocates the piece and resolves
// captures, emitting the corresponding events and log tokens.
func (s *Service) applyMove(g *domain.GameState, piece *domain.Piece, opt domain.MoveOption) []Event {
	g.PendingDice = append(g.PendingDice[:opt.DieIndex], g.PendingDice[opt.DieIndex+1:]...)

	fromBase := piece.Area == domain.AreaBase
	fromCell, _ := g.Board.CellOf(piece)

	displaced := g.ApplyMove(piece, opt.Dest)

	var events []Event
	switch {
	case fromBase:
		cell, _ := g.Board.CellOf(piece)
		g.LogRelease(piece, opt.Die)
		events = append(events, Event{
			Kind:    EventPieceReleased,
			Payload: PieceReleasedPayload{Color: piece.Owner, PieceIndex: piece.Index, Cell: cell},
		})
	case piece.Area == domain.AreaGoal:
		g.LogFinish(piece, opt.Die)
		events = append(events,
			Event{
				Kind:    EventPieceMoved,
				Payload: PieceMovedPayload{Color: piece.Owner, PieceIndex: piece.Index, Die: opt.Die, FromCell: fromCell, ToCell: -1},
			},
			Event{
				Kind:    EventPieceFinished,
				Payload: PieceFinishedPayload{Color: piece.Owner, PieceIndex: piece.Index},
			})
	default:
		toCell, _ := g.Board.CellOf(piece)
		if len(displaced) > 0 {
			g.LogCapture(piece, opt.Die, displaced)
		} else {
			g.LogMove(piece, opt.Die)
		}
		events = append(events, Event{
			Kind:    EventPieceMoved,
			Payload: PieceMovedPayload{Color: piece.Owner, PieceIndex: piece.Index, Die: opt.Die, FromCell: fromCell, ToCell: toCell},
		})
	}

	for _, cap := range displaced {
		g.ReturnToBase(cap)
		events = append(events, Event{
			Kind:    EventPieceCaptured,
			Payload: PieceCapturedPayload{Color: cap.Owner, PieceIndex: cap.Index, ByColor: piece.Owner},
		})
	}

	if (g.Rules.ExtraTurnOnMaxRoll && opt.Die == g.Rules.DiceMax) ||
		(g.Rules.ExtraTurnOnCapture && len(displaced) > 0) {
		g.ExtraTurnEarned = true
	}
	return events
}

// ForcePass is the session collaborator's timeout intent: it discards any
// pending dice and advances the turn. It carries no client version because the
// server injects it.
func (s *Service) ForcePass(g *domain.GameState, color domain.Color) ([]Event, error) {
	if g.Phase == domain.PhaseGameOver {
		return nil, ErrGameOver
	}
	if g.ActivePlayer().Color != color {
		return nil, ErrNotActivePlayer
	}

	events := []Event{
		{
			Kind:    EventTurnSkipped,
			Payload: TurnSkippedPayload{Color: color, Dice: append([]int(nil), g.PendingDice...)},
		},
	}
	events = append(events, s.advanceTurn(g)...)
	g.Version++
	return events, nil
}

// SetController swaps a color between human and bot control. Swapping is only
// safe between turns for the affected color: while that exact color has a
// pending move selection the swap is rejected.
func (s *Service) SetController(g *domain.GameState, color domain.Color, kind domain.ControllerKind) error {
	pl, ok := g.PlayerByColor(color)
	if !ok {
		return ErrNotActivePlayer
	}
	if g.Phase == domain.PhaseAwaitingMove && g.ActivePlayer().Color == color {
		return ErrControllerBusy
	}
	pl.Controller = kind
	return nil
}

func (s *Service) validateIntent(g *domain.GameState, color domain.Color, clientVersion uint64, want domain.TurnPhase) error {
	if g.Phase == domain.PhaseGameOver {
		return ErrGameOver
	}
	if g.ActivePlayer().Color != color {
		return ErrNotActivePlayer
	}
	if g.Phase != want {
		return ErrInvalidRollState
	}
	if clientVersion > g.Version || g.Version-clientVersion > g.Rules.StaleVersionTolerance {
		return ErrStaleVersion
	}
	return nil
}

func (s *Service) advanceTurn(g *domain.GameState) []Event {
	g.AdvanceTurn()
	g.LogTurnStart()
	return []Event{
		{
			Kind:    EventTurnChanged,
			Payload: TurnChangedPayload{TurnIndex: g.TurnIndex, Color: g.ActivePlayer().Color},
		},
	}
}

func (s *Service) finishGame(g *domain.GameState, winner *domain.Player) []Event {
	g.Phase = domain.PhaseGameOver
	g.Winner = winner.Color
	g.PendingDice = nil
	g.LogGameOver()

	standings := make([]StandingEntry, 0, len(g.Players))
	for rank, pl := range g.Standings() {
		standings = append(standings, StandingEntry{
			UserID:   pl.UserID,
			Color:    pl.Color,
			Rank:     rank + 1,
			Finished: pl.FinishedCount(),
		})
	}
	return []Event{
		{
			Kind:    EventGameOver,
			Payload: GameOverPayload{Winner: winner.Color, Standings: standings},
		},
	}
}
