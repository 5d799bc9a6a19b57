package repositories

import (
	"context"

	"certverify.client/internal/domain/entities"
)

// RewardsGateway defines the rewards backend operations
type RewardsGateway interface {
	Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)
	InstitutionStats(ctx context.Context, address string) (*entities.InstitutionStats, error)
	RegisterWallet(ctx context.Context, input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error)
	UpdateInstitutionName(ctx context.Context, address, name string) (*entities.Institution, error)
}
