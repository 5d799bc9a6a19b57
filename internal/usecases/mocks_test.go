package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"certverify.client/internal/domain/entities"
)

// Mock CertificateGateway
type MockCertificateGateway struct {
	mock.Mock
}

func (m *MockCertificateGateway) Issue(ctx context.Context, req *entities.IssuanceRequest, ts int64) (*entities.IssuanceResponse, error) {
	args := m.Called(ctx, req, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.IssuanceResponse), args.Error(1)
}

func (m *MockCertificateGateway) Verify(ctx context.Context, prefixedHash string) (*entities.VerificationResult, error) {
	args := m.Called(ctx, prefixedHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerificationResult), args.Error(1)
}

func (m *MockCertificateGateway) VerifyBlockchain(ctx context.Context, hash string) (*entities.BlockchainCheck, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BlockchainCheck), args.Error(1)
}

func (m *MockCertificateGateway) VerifyQR(ctx context.Context, image *entities.UploadFile) (*entities.VerificationResult, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VerificationResult), args.Error(1)
}

func (m *MockCertificateGateway) Revoke(ctx context.Context, hash string) (*entities.RevocationResult, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RevocationResult), args.Error(1)
}

func (m *MockCertificateGateway) List(ctx context.Context, filter entities.CertificateFilter) (*entities.CertificateListResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CertificateListResponse), args.Error(1)
}

// Mock RewardsGateway
type MockRewardsGateway struct {
	mock.Mock
}

func (m *MockRewardsGateway) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.LeaderboardEntry), args.Error(1)
}

func (m *MockRewardsGateway) InstitutionStats(ctx context.Context, address string) (*entities.InstitutionStats, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.InstitutionStats), args.Error(1)
}

func (m *MockRewardsGateway) RegisterWallet(ctx context.Context, input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RegisterWalletResult), args.Error(1)
}

func (m *MockRewardsGateway) UpdateInstitutionName(ctx context.Context, address, name string) (*entities.Institution, error) {
	args := m.Called(ctx, address, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Institution), args.Error(1)
}

// Mock SearchRecorder
type MockSearchRecorder struct {
	mock.Mock
}

func (m *MockSearchRecorder) AddSearchTerm(ctx context.Context, term string) ([]string, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
