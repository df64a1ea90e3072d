package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse tells the client which match to join and whether it was
// freshly created.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// rpcQuickMatch finds an open lobby or creates a new authoritative match.
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	query := "+label.open:T +label.game:ludi +label.phase:lobby"
	limit := 1
	minSize := 0

	matches, err := nk.MatchList(ctx, limit, true, "", &minSize, nil, query)
	if err != nil {
		logger.Error("rpcQuickMatch: MatchList failed: %v", err)
		return "", runtime.NewError("failed to list matches", 13)
	}

	if len(matches) > 0 {
		response, _ := json.Marshal(QuickMatchResponse{MatchID: matches[0].MatchId})
		return string(response), nil
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameLudi, nil)
	if err != nil {
		logger.Error("rpcQuickMatch: MatchCreate failed: %v", err)
		return "", runtime.NewError("failed to create match", 13)
	}

	response, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: true})
	return string(response), nil
}
