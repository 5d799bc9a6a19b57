package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/entities"
	"certverify.client/internal/domain/repositories"
)

var _ repositories.RewardsGateway = (*Client)(nil)

// Leaderboard returns the top institutions. The backend answers either a
// bare list or {"leaderboard": [...]}.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = entities.DefaultLeaderboardLimit
	}
	var raw json.RawMessage
	if err := c.do(ctx, call{
		operation: "leaderboard",
		method:    http.MethodGet,
		path:      "/api/rewards/leaderboard/",
		query:     url.Values{"limit": {strconv.Itoa(limit)}},
		fallback:  MsgLeaderboardFailed,
	}, &raw); err != nil {
		return nil, err
	}
	return decodeLeaderboard(raw)
}

func decodeLeaderboard(raw json.RawMessage) ([]entities.LeaderboardEntry, error) {
	entries := []entities.LeaderboardEntry{}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Leaderboard []entities.LeaderboardEntry `json:"leaderboard"`
		Results     []entities.LeaderboardEntry `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, domainerrors.NetworkFailure(0, MsgLeaderboardFailed, err)
	}
	switch {
	case wrapped.Leaderboard != nil:
		return wrapped.Leaderboard, nil
	case wrapped.Results != nil:
		return wrapped.Results, nil
	default:
		return entries, nil
	}
}

// InstitutionStats fetches an institution's rewards. A 404 surfaces as
// errors.ErrNotFound.
func (c *Client) InstitutionStats(ctx context.Context, address string) (*entities.InstitutionStats, error) {
	var out entities.InstitutionStats
	if err := c.do(ctx, call{
		operation: "institution_stats",
		method:    http.MethodGet,
		path:      "/api/rewards/institutions/" + url.PathEscape(address) + "/stats/",
		fallback:  MsgStatsFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterWallet registers a wallet as an issuing institution.
func (c *Client) RegisterWallet(ctx context.Context, input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error) {
	body, err := jsonBody(input)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	var out entities.RegisterWalletResult
	if err := c.do(ctx, call{
		operation:   "register_wallet",
		method:      http.MethodPost,
		path:        "/api/rewards/register-wallet/",
		body:        body,
		contentType: "application/json",
		fallback:    MsgRegisterWalletFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInstitutionName renames the institution bound to address.
func (c *Client) UpdateInstitutionName(ctx context.Context, address, name string) (*entities.Institution, error) {
	body, err := jsonBody(entities.UpdateInstitutionInput{InstitutionName: name})
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	var out entities.Institution
	if err := c.do(ctx, call{
		operation:   "update_institution",
		method:      http.MethodPatch,
		path:        "/api/rewards/institutions/" + url.PathEscape(address) + "/",
		body:        body,
		contentType: "application/json",
		fallback:    MsgUpdateInstitutionFail,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
