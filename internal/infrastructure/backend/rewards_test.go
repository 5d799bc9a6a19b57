package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/entities"
)

func TestClient_Leaderboard(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rewards/leaderboard/", r.URL.Path)
		switch r.URL.Query().Get("limit") {
		case "20":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"rank": 1, "institution_name": "MIT", "wallet_address": "0x1", "reward_points": 500, "current_tier": "gold"},
			})
		case "5":
			writeJSON(w, http.StatusOK, map[string]any{
				"leaderboard": []map[string]any{{"rank": 1, "institution_name": "Oxford"}},
			})
		default:
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{})
		}
	})

	entries, err := client.Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MIT", entries[0].InstitutionName)
	assert.Equal(t, "gold", entries[0].CurrentTier.String)

	entries, err = client.Leaderboard(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Oxford", entries[0].InstitutionName)

	_, err = client.Leaderboard(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, MsgLeaderboardFailed, err.Error())
}

func TestClient_InstitutionStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/rewards/institutions/0xknown/stats/" {
			writeJSON(w, http.StatusOK, map[string]any{
				"institution": map[string]any{"institution_name": "MIT", "total_certificates": 12, "next_milestone": 25},
				"badges":      []map[string]any{{"badge_type": "first_certificate"}},
			})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Institution not found"})
	})

	stats, err := client.InstitutionStats(context.Background(), "0xknown")
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Institution.TotalCertificates)
	assert.Len(t, stats.Badges, 1)

	_, err = client.InstitutionStats(context.Background(), "0xunknown")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestClient_RegisterWallet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in entities.RegisterWalletInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.WalletAddress == "0xdup" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Wallet already registered"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success":     true,
			"message":     "Wallet registered",
			"institution": map[string]any{"institution_name": in.InstitutionName, "wallet_address": in.WalletAddress},
		})
	})

	res, err := client.RegisterWallet(context.Background(), entities.RegisterWalletInput{WalletAddress: "0xnew", InstitutionName: "Institution 0xnew"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Institution 0xnew", res.Institution.InstitutionName)

	_, err = client.RegisterWallet(context.Background(), entities.RegisterWalletInput{WalletAddress: "0xdup"})
	var appErr *domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Wallet already registered", appErr.Message)
}

func TestClient_UpdateInstitutionName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/rewards/institutions/0xabc/", r.URL.Path)
		var in entities.UpdateInstitutionInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusOK, map[string]any{"institution_name": in.InstitutionName, "wallet_address": "0xabc"})
	})

	inst, err := client.UpdateInstitutionName(context.Background(), "0xabc", "Analytical U")
	require.NoError(t, err)
	assert.Equal(t, "Analytical U", inst.InstitutionName)
}
