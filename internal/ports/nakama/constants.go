package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcRejoinToken is the Nakama RPC id clients call to obtain a signed reconnect token.
	RpcRejoinToken = "rejoin_token"

	// MatchNameLudi is the authoritative match handler name registered with Nakama.
	MatchNameLudi = "ludi_match"

	// LeaderboardWins is the leaderboard id receiving a record per game won.
	LeaderboardWins = "ludi_wins"

	// MatchLogCollection is the storage collection holding archived turn logs.
	MatchLogCollection = "match_logs"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame     int64 = 1
	OpRollDice      int64 = 2
	OpMoveSelect    int64 = 3
	OpResyncRequest int64 = 4

	// Server -> Client events
	OpMatchState    int64 = 101
	OpStateDelta    int64 = 102
	OpStateSnapshot int64 = 103
	OpGameError     int64 = 104
)

// Rejection codes carried by OpGameError payloads.
const (
	codeNotActivePlayer  = 1
	codeStaleVersion     = 2
	codeIllegalMove      = 3
	codeInvalidRollState = 4
	codeUnknownPiece     = 5
	codeGameOver         = 6
	codeInternal         = 100
)
