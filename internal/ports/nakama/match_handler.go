package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"

	"ludi/internal/app"
	"ludi/internal/bot"
	"ludi/internal/config"
	"ludi/internal/domain"
	"ludi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Label is the match label advertised for quick-match queries.
type Label struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// MatchState holds the authoritative runtime state for one match instance.
// Nakama's match loop delivers every message and tick to a single goroutine,
// which makes this the serialized mutation point for the game it owns.
type MatchState struct {
	Seats     [config.MaxPlayers]string   // seat index == color; "" means empty
	OwnerSeat int                         // seat index of the match owner, -1 when none
	Tick      int64                       // current match tick (1 tick per second)
	Presences map[string]runtime.Presence // userId -> presence for targeted messaging

	App     *app.Service
	Rules   *config.Ruleset
	Game    *domain.GameState // nil while in lobby
	Journal *app.Journal

	BotsEnabled          bool
	BotMinDelay          int
	BotMaxDelay          int
	BotAutoFillDelay     int
	BotWaitUntil         int64
	LastSinglePlayerTick int64
	Bots                 map[string]*bot.Agent
	// PendingHandoffs holds seats whose reconnected human is waiting for the
	// controlling bot to finish its move selection.
	PendingHandoffs map[int]bool

	TurnDeadline  int64 // tick when the active human's turn is force-passed
	LastTurnIndex int

	Results ports.ResultsPort
	Tokens  *app.RejoinTokenService
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

// seatOf returns the seat index for a user id, or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seatUserID := range ms.Seats {
		if seatUserID == userID {
			return i
		}
	}
	return -1
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" && !bot.IsBot(userID) {
			return i
		}
	}
	return -1
}

type matchHandler struct{}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadRuleset("data/ludi_rules.json"); err != nil {
		logger.Warn("MatchInit: Could not load ruleset file: %v", err)
	}

	rules := config.ActiveRuleset()
	rules.ApplyParams(params)
	if err := rules.Validate(); err != nil {
		logger.Error("MatchInit: Invalid ruleset after params, using defaults: %v", err)
		rules = config.DefaultRuleset()
	}

	state := &MatchState{
		OwnerSeat:       -1,
		Presences:       make(map[string]runtime.Presence),
		App:             app.NewService(nil),
		Rules:           rules,
		Bots:            make(map[string]*bot.Agent),
		PendingHandoffs: make(map[int]bool),
		Results:         NewNakamaResultsAdapter(nk),
		LastTurnIndex:   -1,
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["ludi_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["ludi_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["ludi_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["ludi_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}
	if secret, ok := env["ludi_rejoin_secret"]; ok && secret != "" {
		state.Tokens = app.NewRejoinTokenService(secret, "ludi")
	}

	// Defaults if not set
	if state.BotMinDelay == 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay == 0 {
		state.BotMaxDelay = 3
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = 5
	}

	tickRate := 1
	return state, tickRate, buildLabel(state)
}

func buildLabel(state *MatchState) string {
	phase := "lobby"
	if state.Game != nil {
		switch state.Game.Phase {
		case domain.PhaseGameOver:
			phase = "ended"
		default:
			phase = "playing"
		}
	}
	open := state.Game == nil && state.GetOpenSeatsCount() > 0
	b, _ := json.Marshal(Label{Open: open, Game: "ludi", Phase: phase})
	return string(b)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	userID := presence.GetUserId()

	// Rejoining players keep their seat for the whole game.
	if matchState.seatOf(userID) >= 0 {
		if token := metadata["rejoin_token"]; token != "" && matchState.Tokens != nil {
			matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
			if err := matchState.Tokens.Verify(token, userID, matchID); err != nil {
				logger.Warn("MatchJoinAttempt: Rejected rejoin token for %s: %v", userID, err)
				return state, false, "invalid rejoin token"
			}
		}
		return state, true, ""
	}

	if matchState.Game != nil {
		return state, false, "match in progress"
	}

	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if bot.IsBot(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if seat := matchState.seatOf(userID); seat >= 0 {
			// Reconnecting player: hand control back now if the swap is legal,
			// otherwise queue it for the next gap between turns.
			if matchState.Game != nil {
				if err := matchState.App.SetController(matchState.Game, domain.Color(seat), domain.ControllerHuman); err != nil {
					matchState.PendingHandoffs[seat] = true
					logger.Debug("MatchJoin: Controller swap for %s deferred: %v", userID, err)
				} else {
					delete(matchState.Bots, userID)
				}
			}
			mh.sendSnapshot(matchState, dispatcher, logger, p)
			continue
		}

		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}
		if !assigned && matchState.Game == nil {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, userID, i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
		}
	}

	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match. Disconnects
// are control signals, not errors: mid-game the seat stays assigned and its
// color falls to bot control.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		delete(matchState.PendingHandoffs, seat)

		if matchState.Game == nil {
			matchState.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
			continue
		}

		mh.convertSeatToBot(matchState, dispatcher, logger, seat)
	}

	matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])

	if matchState.OwnerSeat < 0 && matchState.GetHumanPlayerCount() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// convertSeatToBot turns a disconnected player's color over to a bot agent.
// When that color is mid-move-selection the pending turn is force-passed
// first, so the controller swap happens between turns.
func (mh *matchHandler) convertSeatToBot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int) {
	color := domain.Color(seat)
	if state.Game.Phase == domain.PhaseGameOver {
		return
	}

	if err := state.App.SetController(state.Game, color, domain.ControllerBot); err != nil {
		if events, passErr := state.App.ForcePass(state.Game, color); passErr == nil {
			mh.recordAndBroadcast(state, dispatcher, logger, events)
		}
		if err := state.App.SetController(state.Game, color, domain.ControllerBot); err != nil {
			logger.Error("convertSeatToBot: Controller swap failed for seat %d: %v", seat, err)
			return
		}
	}

	userID := state.Seats[seat]
	if _, exists := state.Bots[userID]; !exists {
		state.Bots[userID] = &bot.Agent{ID: userID, Name: "Autopilot", Strategy: &bot.GreedyBrain{}}
	}
	logger.Info("convertSeatToBot: Seat %d (%s) is now bot-controlled.", seat, userID)
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpRollDice:
			mh.handleRollDice(ctx, matchState, dispatcher, logger, msg)
		case OpMoveSelect:
			mh.handleMoveSelect(ctx, matchState, dispatcher, logger, msg)
		case OpResyncRequest:
			mh.handleResync(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.applyPendingHandoffs(matchState, logger)
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}
	mh.enforceTurnDeadline(ctx, matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if state.Game != nil && state.Game.Phase != domain.PhaseGameOver {
		logger.Warn("StartGame: Game already in progress.")
		return
	}
	if state.GetOccupiedSeatCount() < config.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", state.GetOccupiedSeatCount(), config.MinPlayersToStartGame)
		return
	}

	controller := func(userID string) domain.ControllerKind {
		if bot.IsBot(userID) {
			return domain.ControllerBot
		}
		return domain.ControllerHuman
	}

	game, events, err := state.App.StartGame(state.Rules, state.Seats[:], controller)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		return
	}

	state.Game = game
	state.Journal = app.NewJournal(state.Rules.ResyncReplayWindow)
	state.LastTurnIndex = -1
	state.TurnDeadline = 0

	mh.updateLabel(state, dispatcher, logger)
	mh.recordAndBroadcast(state, dispatcher, logger, events)
	mh.sendSnapshot(state, dispatcher, logger, nil)

	logger.Info("StartGame: Game started with %d players.", state.GetOccupiedSeatCount())
}

func (mh *matchHandler) handleRollDice(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)
	if state.Game == nil || senderSeat < 0 {
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidRollState, "no active game")
		return
	}

	var request rollRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleRollDice: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInternal, "malformed roll request")
		return
	}

	events, err := state.App.RollDice(state.Game, domain.Color(senderSeat), request.Version)
	if err != nil {
		logger.Warn("handleRollDice: User %s (seat %d) rejected: %v", senderID, senderSeat, err)
		mh.sendError(state, dispatcher, logger, senderID, rejectionCode(err), err.Error())
		return
	}

	mh.recordAndBroadcast(state, dispatcher, logger, events)
}

func (mh *matchHandler) handleMoveSelect(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)
	if state.Game == nil || senderSeat < 0 {
		mh.sendError(state, dispatcher, logger, senderID, codeInvalidRollState, "no active game")
		return
	}

	var request moveSelectRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleMoveSelect: Invalid payload from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, codeInternal, "malformed move selection")
		return
	}
	area, err := parseArea(request.Area)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, codeIllegalMove, err.Error())
		return
	}

	dest := domain.Destination{Area: area, Progress: request.Progress}
	events, err := state.App.SelectMove(state.Game, domain.Color(senderSeat), request.Version, request.PieceIndex, dest)
	if err != nil {
		logger.Warn("handleMoveSelect: User %s (seat %d) rejected: %v", senderID, senderSeat, err)
		mh.sendError(state, dispatcher, logger, senderID, rejectionCode(err), err.Error())
		return
	}

	mh.recordAndBroadcast(state, dispatcher, logger, events)
	mh.maybeFinishGame(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleResync(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	presence, ok := state.Presences[senderID]
	if !ok {
		return
	}
	if state.Game == nil || state.Journal == nil {
		return
	}

	var request resyncRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleResync: Invalid payload from %s: %v", senderID, err)
		return
	}

	deltas, ok := state.Journal.Since(request.LastVersion)
	if !ok {
		// Gap exceeds the replay window; only a snapshot converges the client.
		mh.sendSnapshot(state, dispatcher, logger, presence)
		return
	}
	for _, d := range deltas {
		bytes, err := json.Marshal(deltaToWire(d))
		if err != nil {
			logger.Error("handleResync: Failed to marshal delta: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpStateDelta, bytes, []runtime.Presence{presence}, nil, true)
	}
}

// applyPendingHandoffs retries deferred human handoffs every tick. A swap
// rejected while the seat's color was mid-move-selection succeeds once that
// color is between turns, so the reconnected player regains control instead of
// staying on autopilot for the rest of the game.
func (mh *matchHandler) applyPendingHandoffs(state *MatchState, logger runtime.Logger) {
	if len(state.PendingHandoffs) == 0 {
		return
	}
	if state.Game == nil || state.Game.Phase == domain.PhaseGameOver {
		state.PendingHandoffs = make(map[int]bool)
		return
	}
	for seat := range state.PendingHandoffs {
		userID := state.Seats[seat]
		if _, connected := state.Presences[userID]; !connected {
			delete(state.PendingHandoffs, seat)
			continue
		}
		if err := state.App.SetController(state.Game, domain.Color(seat), domain.ControllerHuman); err != nil {
			continue
		}
		delete(state.PendingHandoffs, seat)
		delete(state.Bots, userID)
		logger.Info("applyPendingHandoffs: Seat %d (%s) returned to human control.", seat, userID)
	}
}

// processBots fills a lonely lobby with bots and plays bot turns with a small
// human-like delay.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat != "" {
						continue
					}
					identity := bot.GetBotIdentity(i)
					agent, err := bot.NewAgent(identity.UserID)
					if err != nil {
						logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
						continue
					}
					state.Seats[i] = identity.UserID
					state.Bots[identity.UserID] = agent
					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
					added = true
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	if state.Game.Phase == domain.PhaseGameOver {
		return
	}

	active := state.Game.ActivePlayer()
	if active.Controller != domain.ControllerBot {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay
		if state.BotMaxDelay > state.BotMinDelay {
			delay += rand.Intn(state.BotMaxDelay - state.BotMinDelay + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[active.UserID]
	if !exists {
		agent = &bot.Agent{ID: active.UserID, Name: "Autopilot", Strategy: &bot.GreedyBrain{}}
		state.Bots[active.UserID] = agent
	}

	switch state.Game.Phase {
	case domain.PhaseAwaitingRoll:
		events, err := state.App.RollDice(state.Game, active.Color, state.Game.Version)
		if err != nil {
			logger.Error("processBots: Bot %s roll rejected: %v", active.UserID, err)
			return
		}
		mh.recordAndBroadcast(state, dispatcher, logger, events)
	case domain.PhaseAwaitingMove:
		options := domain.LegalMoves(state.Game, active.Color)
		move, err := agent.SelectMove(state.Game, active.Color, options)
		if err != nil {
			logger.Error("processBots: Bot %s failed to calculate move: %v", active.UserID, err)
			return
		}
		events, err := state.App.SelectMove(state.Game, active.Color, state.Game.Version, move.PieceIndex, move.Dest)
		if err != nil {
			logger.Error("processBots: Bot %s move rejected: %v", active.UserID, err)
			return
		}
		mh.recordAndBroadcast(state, dispatcher, logger, events)
		mh.maybeFinishGame(ctx, state, dispatcher, logger)
	}
}

// enforceTurnDeadline force-passes a human turn that ran past the configured
// timeout. The forced pass flows through the same serialized intent path as
// every client message.
func (mh *matchHandler) enforceTurnDeadline(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.Game.Phase == domain.PhaseGameOver || state.Rules.TurnTimeoutSeconds <= 0 {
		state.TurnDeadline = 0
		return
	}

	if state.Game.TurnIndex != state.LastTurnIndex {
		state.LastTurnIndex = state.Game.TurnIndex
		state.TurnDeadline = 0
	}

	active := state.Game.ActivePlayer()
	if active.Controller != domain.ControllerHuman {
		state.TurnDeadline = 0
		return
	}

	if state.TurnDeadline == 0 {
		state.TurnDeadline = state.Tick + int64(state.Rules.TurnTimeoutSeconds)
		return
	}
	if state.Tick < state.TurnDeadline {
		return
	}

	state.TurnDeadline = 0
	logger.Info("enforceTurnDeadline: Forcing pass for %s (seat %d).", active.UserID, int(active.Color))
	events, err := state.App.ForcePass(state.Game, active.Color)
	if err != nil {
		logger.Error("enforceTurnDeadline: Forced pass rejected: %v", err)
		return
	}
	mh.recordAndBroadcast(state, dispatcher, logger, events)
}

// recordAndBroadcast journals the delta for one applied mutation and fans it
// out to every connected client. Broadcast is fire-and-forget; the loop never
// waits on client acknowledgment.
func (mh *matchHandler) recordAndBroadcast(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	if len(events) == 0 {
		return
	}
	delta := app.Delta{
		Version:   state.Game.Version,
		TurnIndex: state.Game.TurnIndex,
		Events:    events,
	}
	if state.Journal != nil {
		state.Journal.Append(delta)
	}

	bytes, err := json.Marshal(deltaToWire(delta))
	if err != nil {
		logger.Error("recordAndBroadcast: Failed to marshal delta: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpStateDelta, bytes, nil, nil, true)
}

// maybeFinishGame records results and flips the label once the game reached
// its terminal state. The GameState stays around so late intents get the
// game-over rejection instead of "no active game".
func (mh *matchHandler) maybeFinishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.Game.Phase != domain.PhaseGameOver {
		return
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	results := make([]ports.PlayerResult, 0, len(state.Game.Players))
	for rank, pl := range state.Game.Standings() {
		results = append(results, ports.PlayerResult{
			UserID:   pl.UserID,
			Rank:     rank + 1,
			Finished: pl.FinishedCount(),
			Bot:      pl.Controller == domain.ControllerBot,
		})
	}
	if state.Results != nil {
		if err := state.Results.RecordResult(ctx, matchID, results, state.Game.Log); err != nil {
			logger.Error("maybeFinishGame: Failed to record results: %v", err)
		}
	}

	mh.updateLabel(state, dispatcher, logger)
	logger.Info("maybeFinishGame: Game over, winner seat %d.", int(state.Game.Winner))
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	type seatInfo struct {
		UserID      string `json:"user_id"`
		Seat        int    `json:"seat"`
		DisplayName string `json:"display_name"`
		IsOwner     bool   `json:"is_owner"`
		IsBot       bool   `json:"is_bot"`
	}

	var seats []seatInfo
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		displayName := userID
		if p, exists := state.Presences[userID]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			displayName = name
		}
		seats = append(seats, seatInfo{
			UserID:      userID,
			Seat:        i,
			DisplayName: displayName,
			IsOwner:     i == state.OwnerSeat,
			IsBot:       bot.IsBot(userID),
		})
	}

	payload, err := json.Marshal(map[string]any{"seats": seats, "owner_seat": state.OwnerSeat})
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, payload, nil, nil, true)
}

// sendSnapshot sends the full authoritative state; to one presence when given,
// otherwise to everyone.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, presence runtime.Presence) {
	if state.Game == nil {
		return
	}
	bytes, err := json.Marshal(snapshotToWire(state.Game))
	if err != nil {
		logger.Error("sendSnapshot: Failed to marshal snapshot: %v", err)
		return
	}
	var recipients []runtime.Presence
	if presence != nil {
		recipients = []runtime.Presence{presence}
	}
	dispatcher.BroadcastMessage(OpStateSnapshot, bytes, recipients, nil, true)
}

// sendError sends a targeted rejection to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("sendError: Cannot send error to %s: presence not found", userID)
		return
	}
	bytes, err := json.Marshal(wireError{Code: code, Message: message})
	if err != nil {
		logger.Error("sendError: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func rejectionCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotActivePlayer):
		return codeNotActivePlayer
	case errors.Is(err, app.ErrStaleVersion):
		return codeStaleVersion
	case errors.Is(err, app.ErrIllegalMove):
		return codeIllegalMove
	case errors.Is(err, app.ErrInvalidRollState):
		return codeInvalidRollState
	case errors.Is(err, app.ErrUnknownPiece):
		return codeUnknownPiece
	case errors.Is(err, app.ErrGameOver):
		return codeGameOver
	}
	return codeInternal
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(buildLabel(state)); err != nil {
		logger.Error("updateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

// MatchSignal is the out-of-band control path for external session tooling;
// it currently supports forcing a pass of the active turn.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}

	var cmd struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal([]byte(data), &cmd); err != nil || cmd.Cmd != "force_pass" {
		return matchState, ""
	}
	if matchState.Game == nil || matchState.Game.Phase == domain.PhaseGameOver {
		return matchState, "no active game"
	}

	events, err := matchState.App.ForcePass(matchState.Game, matchState.Game.ActivePlayer().Color)
	if err != nil {
		return matchState, err.Error()
	}
	mh.recordAndBroadcast(matchState, dispatcher, logger, events)
	return matchState, "ok"
}
