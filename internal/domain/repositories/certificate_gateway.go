package repositories

import (
	"context"

	"certverify.client/internal/domain/entities"
)

// CertificateGateway defines the certificate backend operations
type CertificateGateway interface {
	Issue(ctx context.Context, req *entities.IssuanceRequest, issueDateTimestamp int64) (*entities.IssuanceResponse, error)
	Verify(ctx context.Context, prefixedHash string) (*entities.VerificationResult, error)
	VerifyBlockchain(ctx context.Context, hash string) (*entities.BlockchainCheck, error)
	VerifyQR(ctx context.Context, image *entities.UploadFile) (*entities.VerificationResult, error)
	Revoke(ctx context.Context, hash string) (*entities.RevocationResult, error)
	List(ctx context.Context, filter entities.CertificateFilter) (*entities.CertificateListResponse, error)
}
