package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/interfaces/http/response"
	"certverify.client/internal/usecases"
)

// RewardsHandler handles institution reward endpoints
type RewardsHandler struct {
	rewards *usecases.RewardsUsecase
}

// NewRewardsHandler creates a new rewards handler
func NewRewardsHandler(rewards *usecases.RewardsUsecase) *RewardsHandler {
	return &RewardsHandler{rewards: rewards}
}

// Leaderboard lists the top institutions
// GET /api/v1/rewards/leaderboard
func (h *RewardsHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, domainerrors.InputValidation("limit must be a number"))
			return
		}
		limit = n
	}

	entries, err := h.rewards.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// InstitutionStats returns the reward state of a wallet
// GET /api/v1/rewards/institutions/:address/stats
func (h *RewardsHandler) InstitutionStats(c *gin.Context) {
	stats, err := h.rewards.InstitutionStats(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// RegisterWallet enrols a wallet for rewards
// POST /api/v1/rewards/register-wallet
func (h *RewardsHandler) RegisterWallet(c *gin.Context) {
	var input entities.RegisterWalletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgInvalidAddress))
		return
	}

	result, err := h.rewards.RegisterWallet(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

// UpdateInstitution renames an institution
// PATCH /api/v1/rewards/institutions/:address
func (h *RewardsHandler) UpdateInstitution(c *gin.Context) {
	var input entities.UpdateInstitutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgMissingInstitution))
		return
	}

	institution, err := h.rewards.UpdateInstitutionName(c.Request.Context(), c.Param("address"), input.InstitutionName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, institution)
}
