package usecases

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
)

// RewardsUsecase handles institution rewards
type RewardsUsecase struct {
	gateway repositories.RewardsGateway
}

// NewRewardsUsecase creates a new rewards usecase
func NewRewardsUsecase(gateway repositories.RewardsGateway) *RewardsUsecase {
	return &RewardsUsecase{gateway: gateway}
}

// Leaderboard returns the top institutions
func (u *RewardsUsecase) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = entities.DefaultLeaderboardLimit
	}
	entries, err := u.gateway.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []entities.LeaderboardEntry{}
	}
	return entries, nil
}

// InstitutionStats returns the reward state of address. A wallet the backend
// has never seen gets empty "New Institution" stats.
func (u *RewardsUsecase) InstitutionStats(ctx context.Context, address string) (*entities.InstitutionStats, error) {
	address = strings.TrimSpace(address)
	if !entities.ValidateAddress(address) {
		return nil, domainerrors.InputValidation(MsgInvalidAddress)
	}

	stats, err := u.gateway.InstitutionStats(ctx, address)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return entities.NewInstitutionStats(address), nil
		}
		return nil, err
	}
	return stats, nil
}

// RegisterWallet enrols address for rewards. Registering twice is not an
// error; the result is flagged as existing.
func (u *RewardsUsecase) RegisterWallet(ctx context.Context, input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error) {
	input.WalletAddress = strings.TrimSpace(input.WalletAddress)
	if !entities.ValidateAddress(input.WalletAddress) {
		return nil, domainerrors.InputValidation(MsgInvalidAddress)
	}
	input.InstitutionName = strings.TrimSpace(input.InstitutionName)
	if input.InstitutionName == "" {
		input.InstitutionName = entities.DefaultInstitutionName(input.WalletAddress)
	}

	result, err := u.gateway.RegisterWallet(ctx, input)
	if err != nil {
		if isAlreadyRegistered(err) {
			return &entities.RegisterWalletResult{
				Success:  true,
				Message:  MsgWalletAlreadyExists,
				Existing: true,
			}, nil
		}
		return nil, err
	}
	return result, nil
}

// UpdateInstitutionName renames the institution owning address
func (u *RewardsUsecase) UpdateInstitutionName(ctx context.Context, address, name string) (*entities.Institution, error) {
	address = strings.TrimSpace(address)
	if !entities.ValidateAddress(address) {
		return nil, domainerrors.InputValidation(MsgInvalidAddress)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.InputValidation(MsgMissingInstitution)
	}
	return u.gateway.UpdateInstitutionName(ctx, address, name)
}

func isAlreadyRegistered(err error) bool {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusBadRequest {
		return false
	}
	return strings.Contains(strings.ToLower(appErr.Message), "already registered")
}
