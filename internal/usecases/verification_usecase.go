package usecases

import (
	"context"

	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/pkg/logger"
)

// SearchRecorder remembers verified hashes
type SearchRecorder interface {
	AddSearchTerm(ctx context.Context, term string) ([]string, error)
}

// VerificationUsecase looks certificates up by hash
type VerificationUsecase struct {
	gateway repositories.CertificateGateway
	history SearchRecorder
}

// NewVerificationUsecase creates a new verification usecase. history may be
// nil.
func NewVerificationUsecase(gateway repositories.CertificateGateway, history SearchRecorder) *VerificationUsecase {
	return &VerificationUsecase{
		gateway: gateway,
		history: history,
	}
}

// WithHistory returns a copy that records verified hashes into history
func (u *VerificationUsecase) WithHistory(history SearchRecorder) *VerificationUsecase {
	scoped := *u
	scoped.history = history
	return &scoped
}

// Verify normalizes raw and asks the backend for its verdict. One leading
// 0x is stripped and exactly one is sent back.
func (u *VerificationUsecase) Verify(ctx context.Context, raw string) (*entities.VerificationResult, error) {
	return u.submit(ctx, entities.NormalizeCertHash(raw))
}

// submit sends an already normalized bare hash.
func (u *VerificationUsecase) submit(ctx context.Context, hash string) (*entities.VerificationResult, error) {
	if hash == "" {
		return nil, domainerrors.InputValidation(MsgEmptyHash)
	}

	result, err := u.gateway.Verify(ctx, entities.HexPrefix+hash)
	if err != nil {
		return nil, err
	}

	u.remember(ctx, hash)
	return result, nil
}

// VerifyOnBlockchain checks hash against the contract through the backend
func (u *VerificationUsecase) VerifyOnBlockchain(ctx context.Context, raw string) (*entities.BlockchainCheck, error) {
	hash := entities.NormalizeCertHash(raw)
	if hash == "" {
		return nil, domainerrors.InputValidation(MsgEmptyHash)
	}
	return u.gateway.VerifyBlockchain(ctx, entities.Add0x(hash))
}

func (u *VerificationUsecase) remember(ctx context.Context, hash string) {
	if u.history == nil {
		return
	}
	if _, err := u.history.AddSearchTerm(ctx, hash); err != nil {
		logger.Warn(ctx, "Failed to record search history", zap.Error(err))
	}
}

// VerificationInput tracks one verification field. The value is kept
// without its 0x prefix.
type VerificationInput struct {
	uc     *VerificationUsecase
	value  string
	result *entities.VerificationResult
	err    error
}

// NewInput creates an empty verification field
func (u *VerificationUsecase) NewInput() *VerificationInput {
	return &VerificationInput{uc: u}
}

// Set replaces the field value and clears the previous outcome.
func (in *VerificationInput) Set(raw string) {
	in.value = entities.NormalizeCertHash(raw)
	in.result = nil
	in.err = nil
}

// Value returns the bare hash
func (in *VerificationInput) Value() string {
	return in.value
}

// WireValue returns the hash as submitted to the backend
func (in *VerificationInput) WireValue() string {
	if in.value == "" {
		return ""
	}
	return entities.HexPrefix + in.value
}

// Verify submits the current value
func (in *VerificationInput) Verify(ctx context.Context) (*entities.VerificationResult, error) {
	in.result, in.err = in.uc.submit(ctx, in.value)
	return in.result, in.err
}

// Result returns the last verification outcome
func (in *VerificationInput) Result() (*entities.VerificationResult, error) {
	return in.result, in.err
}
