package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/interfaces/http/response"
	"certverify.client/internal/usecases"
)

// StateHandler serves onboarding progress and search history. Every call
// is scoped by the X-Client-ID header.
type StateHandler struct {
	state *usecases.ClientStateUsecase
}

// NewStateHandler creates a new state handler
func NewStateHandler(state *usecases.ClientStateUsecase) *StateHandler {
	return &StateHandler{state: state}
}

// GetOnboarding returns onboarding progress
// GET /api/v1/state/onboarding
func (h *StateHandler) GetOnboarding(c *gin.Context) {
	state, err := clientState(c, h.state).Onboarding(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// UpdateOnboarding merges a partial update
// PUT /api/v1/state/onboarding
func (h *StateHandler) UpdateOnboarding(c *gin.Context) {
	var patch entities.OnboardingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, domainerrors.InputValidation("Invalid onboarding update"))
		return
	}

	state, err := clientState(c, h.state).UpdateOnboarding(c.Request.Context(), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// ResetOnboarding restores the defaults
// DELETE /api/v1/state/onboarding
func (h *StateHandler) ResetOnboarding(c *gin.Context) {
	state, err := clientState(c, h.state).ResetOnboarding(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// GetSearchHistory lists recent searches, newest first
// GET /api/v1/state/search-history
func (h *StateHandler) GetSearchHistory(c *gin.Context) {
	history, err := clientState(c, h.state).SearchHistory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// AddSearchTerm remembers a search
// POST /api/v1/state/search-history
func (h *StateHandler) AddSearchTerm(c *gin.Context) {
	var input entities.SearchTermInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgEmptyHash))
		return
	}

	history, err := clientState(c, h.state).AddSearchTerm(c.Request.Context(), input.Term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": history})
}

// ClearSearchHistory forgets every search
// DELETE /api/v1/state/search-history
func (h *StateHandler) ClearSearchHistory(c *gin.Context) {
	if err := clientState(c, h.state).ClearSearchHistory(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"history": []string{}})
}
