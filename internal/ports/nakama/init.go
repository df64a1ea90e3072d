package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires the Ludi match handler and its RPCs into the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		logger.Error("InitModule: Failed to register rpc %s: %v", RpcQuickMatch, err)
		return err
	}
	if err := initializer.RegisterRpc(RpcRejoinToken, rpcRejoinToken); err != nil {
		logger.Error("InitModule: Failed to register rpc %s: %v", RpcRejoinToken, err)
		return err
	}

	if err := initializer.RegisterMatch(MatchNameLudi, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		logger.Error("InitModule: Failed to register match %s: %v", MatchNameLudi, err)
		return err
	}

	// Idempotent; Nakama treats re-creation of an existing leaderboard as a no-op.
	if err := nk.LeaderboardCreate(ctx, LeaderboardWins, true, "desc", "incr", "", nil, false); err != nil {
		logger.Warn("InitModule: Failed to create leaderboard %s: %v", LeaderboardWins, err)
	}

	logger.Info("Ludi module loaded.")
	return nil
}
