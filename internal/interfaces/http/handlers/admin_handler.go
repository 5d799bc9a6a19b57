package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/interfaces/http/response"
	"certverify.client/internal/usecases"
	"certverify.client/pkg/crypto"
	"certverify.client/pkg/jwt"
	"certverify.client/pkg/logger"
)

// AdminLoginInput is the admin credential pair
type AdminLoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminHandler authenticates the operator allowed to issue and revoke
type AdminHandler struct {
	username     string
	passwordHash string
	jwtService   *jwt.JWTService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(username, passwordHash string, jwtService *jwt.JWTService) *AdminHandler {
	return &AdminHandler{
		username:     username,
		passwordHash: passwordHash,
		jwtService:   jwtService,
	}
}

// Login exchanges admin credentials for an access token
// POST /api/v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	if h.passwordHash == "" {
		response.Error(c, domainerrors.NewAppError(http.StatusServiceUnavailable, domainerrors.CodeUnauthorized, usecases.MsgAdminNotConfigured, domainerrors.ErrUnauthorized))
		return
	}

	var input AdminLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgInvalidCredentials))
		return
	}

	if strings.TrimSpace(input.Username) != h.username || !crypto.CheckPassword(input.Password, h.passwordHash) {
		logger.Warn(ctx, "Admin login rejected", zap.String("username", input.Username))
		response.Error(c, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, usecases.MsgInvalidCredentials, domainerrors.ErrInvalidCredentials))
		return
	}

	token, err := h.jwtService.GenerateAccessToken(h.username, jwt.RoleAdmin)
	if err != nil {
		logger.Error(ctx, "Failed to sign admin token", zap.Error(err))
		response.Error(c, domainerrors.InternalError(err))
		return
	}

	logger.Info(ctx, "Admin logged in", zap.String("username", h.username))
	response.Success(c, http.StatusOK, token)
}
