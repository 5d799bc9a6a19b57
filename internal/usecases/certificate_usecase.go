package usecases

import (
	"context"
	"strings"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/pkg/utils"
)

// CertificateUsecase browses and revokes certificates
type CertificateUsecase struct {
	gateway repositories.CertificateGateway
}

// NewCertificateUsecase creates a new certificate usecase
func NewCertificateUsecase(gateway repositories.CertificateGateway) *CertificateUsecase {
	return &CertificateUsecase{gateway: gateway}
}

// List returns one page of certificates matching filter
func (u *CertificateUsecase) List(ctx context.Context, filter entities.CertificateFilter) (*entities.CertificatePage, error) {
	filter.Page = utils.NormalizePage(filter.Page)
	resp, err := u.gateway.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return entities.NewCertificatePage(resp, filter.Page), nil
}

// Revoke revokes the certificate identified by hash
func (u *CertificateUsecase) Revoke(ctx context.Context, hash string) (*entities.RevocationResult, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, domainerrors.InputValidation(MsgEmptyHash)
	}
	return u.gateway.Revoke(ctx, hash)
}
