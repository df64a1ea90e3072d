package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"ludi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaResultsAdapter records finished games against Nakama's leaderboard and
// storage APIs. Bot seats never touch the leaderboard.
type NakamaResultsAdapter struct {
	nk runtime.NakamaModule
}

func NewNakamaResultsAdapter(nk runtime.NakamaModule) *NakamaResultsAdapter {
	return &NakamaResultsAdapter{nk: nk}
}

func (a *NakamaResultsAdapter) RecordResult(ctx context.Context, matchID string, results []ports.PlayerResult, matchLog []string) error {
	for _, r := range results {
		if r.Bot || r.Rank != 1 {
			continue
		}
		if _, err := a.nk.LeaderboardRecordWrite(ctx, LeaderboardWins, r.UserID, "", 1, 0, nil, nil); err != nil {
			return fmt.Errorf("failed to write leaderboard record for %s: %w", r.UserID, err)
		}
	}

	archive := struct {
		MatchID string               `json:"match_id"`
		Results []ports.PlayerResult `json:"results"`
		Log     []string             `json:"log"`
	}{MatchID: matchID, Results: results, Log: matchLog}

	value, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("failed to marshal match archive: %w", err)
	}

	writes := []*runtime.StorageWrite{
		{
			Collection:      MatchLogCollection,
			Key:             matchID,
			Value:           string(value),
			PermissionRead:  2,
			PermissionWrite: 0,
		},
	}
	if _, err := a.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to archive match log: %w", err)
	}
	return nil
}
