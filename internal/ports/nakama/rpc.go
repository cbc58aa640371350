package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

type createTableRequest struct {
	Bots      []string `json:"bots"`
	BotLevel  string   `json:"botLevel"`
	Seed      int64    `json:"seed"`
	MaxRounds *int     `json:"maxRounds"`
}

type createTableResponse struct {
	MatchId string `json:"matchId"`
}

// RpcCreateTableFunc creates an authoritative bridge match and returns its id.
//
// Payload: optional JSON {"bots": ["E","W"], "botLevel": "normal", "seed": 1, "maxRounds": 4}.
func RpcCreateTableFunc(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userId, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req createTableRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3)
		}
	}
	params, err := matchCreateParams(req)
	if err != nil {
		return "", runtime.NewError(err.Error(), 3)
	}

	matchId, err := nk.MatchCreate(ctx, MatchNameBridge, params)
	if err != nil {
		logger.Error("RpcCreateTable [User:%s]: Failed to create match: %v", userId, err)
		return "", err
	}
	logger.Info("RpcCreateTable [User:%s]: Created match %s", userId, matchId)

	out, _ := json.Marshal(createTableResponse{MatchId: matchId})
	return string(out), nil
}

// matchCreateParams turns a request into MatchCreate params, validated the
// same way MatchInit will read them.
func matchCreateParams(req createTableRequest) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if len(req.Bots) > 0 {
		params["bots"] = strings.Join(req.Bots, ",")
	}
	if req.BotLevel != "" {
		params["bot_level"] = req.BotLevel
	}
	if req.Seed != 0 {
		params["seed"] = strconv.FormatInt(req.Seed, 10)
	}
	if req.MaxRounds != nil {
		params["max_rounds"] = *req.MaxRounds
	}
	if _, err := parseMatchParams(params); err != nil {
		return nil, err
	}
	return params, nil
}
