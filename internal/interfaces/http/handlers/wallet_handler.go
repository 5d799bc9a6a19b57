package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/interfaces/http/response"
	"certverify.client/internal/usecases"
)

type walletService interface {
	Networks() []entities.Network
	TargetNetwork() entities.Network
	Session() entities.WalletSession
	Connect(ctx context.Context) (entities.WalletSession, error)
	Disconnect(ctx context.Context) (entities.WalletSession, error)
	SwitchNetwork(ctx context.Context, key string) (entities.WalletSession, error)
}

// WalletHandler exposes the wallet session
type WalletHandler struct {
	walletUsecase walletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletUsecase *usecases.WalletUsecase) *WalletHandler {
	return &WalletHandler{walletUsecase: walletUsecase}
}

// walletView is the session as rendered to clients
type walletView struct {
	Session          entities.WalletSession `json:"session"`
	DisplayAddress   string                 `json:"displayAddress,omitempty"`
	FormattedBalance string                 `json:"formattedBalance,omitempty"`
	TargetNetwork    entities.NetworkKey    `json:"targetNetwork"`
}

func (h *WalletHandler) view(session entities.WalletSession) walletView {
	v := walletView{
		Session:       session,
		TargetNetwork: h.walletUsecase.TargetNetwork().Key,
	}
	if session.Account.Valid {
		v.DisplayAddress = entities.FormatAddress(session.Account.String)
	}
	if session.Balance != nil {
		v.FormattedBalance = entities.FormatBalance(session.Balance)
	}
	return v
}

// GetWallet returns the current session
// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	response.Success(c, http.StatusOK, h.view(h.walletUsecase.Session()))
}

// ConnectWallet connects the wallet and steers it to the target network
// POST /api/v1/wallet/connect
func (h *WalletHandler) ConnectWallet(c *gin.Context) {
	session, err := h.walletUsecase.Connect(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.view(session))
}

// DisconnectWallet ends the session
// POST /api/v1/wallet/disconnect
func (h *WalletHandler) DisconnectWallet(c *gin.Context) {
	session, err := h.walletUsecase.Disconnect(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.view(session))
}

// SwitchNetwork moves the wallet to another supported network
// POST /api/v1/wallet/switch-network
func (h *WalletHandler) SwitchNetwork(c *gin.Context) {
	var input entities.SwitchNetworkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgUnsupportedNetwork))
		return
	}

	session, err := h.walletUsecase.SwitchNetwork(c.Request.Context(), input.Network)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.view(session))
}

// ListNetworks lists the supported networks
// GET /api/v1/networks
func (h *WalletHandler) ListNetworks(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"networks":       h.walletUsecase.Networks(),
		"defaultNetwork": h.walletUsecase.TargetNetwork().Key,
	})
}
