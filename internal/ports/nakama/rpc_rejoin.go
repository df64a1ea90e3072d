package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"ludi/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

const rejoinTokenTTL = 15 * time.Minute

type rejoinTokenRequest struct {
	MatchID string `json:"match_id"`
}

type rejoinTokenResponse struct {
	Token string `json:"token"`
}

// rpcRejoinToken mints a signed reconnect token the client presents as join
// metadata when it comes back to a match it already holds a seat in.
func rpcRejoinToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("user id not found in context", 16)
	}

	var request rejoinTokenRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil || request.MatchID == "" {
		return "", runtime.NewError("match_id is required", 3)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env["ludi_rejoin_secret"]
	if secret == "" {
		return "", runtime.NewError("rejoin tokens are not configured", 12)
	}

	tokens := app.NewRejoinTokenService(secret, "ludi")
	token, err := tokens.Generate(userID, request.MatchID, rejoinTokenTTL)
	if err != nil {
		logger.Error("rpcRejoinToken: Failed to sign token for %s: %v", userID, err)
		return "", runtime.NewError("failed to generate token", 13)
	}

	response, _ := json.Marshal(rejoinTokenResponse{Token: token})
	return string(response), nil
}
