package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/usecases"
)

func TestVerificationUsecase_Verify_AddsPrefixOnce(t *testing.T) {
	for _, raw := range []string{"abc123", "0xabc123", "  0xabc123  "} {
		gateway := new(MockCertificateGateway)
		uc := usecases.NewVerificationUsecase(gateway, nil)
		gateway.On("Verify", mock.Anything, "0xabc123").
			Return(&entities.VerificationResult{IsValid: null.BoolFrom(true)}, nil).Once()

		result, err := uc.Verify(context.Background(), raw)
		require.NoError(t, err, raw)
		assert.True(t, result.Valid())
		gateway.AssertExpectations(t)
	}
}

func TestVerificationUsecase_Verify_StripsOnlyOnePrefix(t *testing.T) {
	gateway := new(MockCertificateGateway)
	uc := usecases.NewVerificationUsecase(gateway, nil)
	gateway.On("Verify", mock.Anything, "0x0xabc").
		Return(&entities.VerificationResult{IsValid: null.BoolFrom(false)}, nil).Twice()

	_, err := uc.Verify(context.Background(), "0x0xabc")
	require.NoError(t, err)

	in := uc.NewInput()
	in.Set("0x0xabc")
	assert.Equal(t, "0xabc", in.Value())
	assert.Equal(t, "0x0xabc", in.WireValue())
	_, err = in.Verify(context.Background())
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestVerificationUsecase_Verify_EmptyInputNoNetwork(t *testing.T) {
	gateway := new(MockCertificateGateway)
	uc := usecases.NewVerificationUsecase(gateway, nil)

	for _, raw := range []string{"", "   ", "0x"} {
		_, err := uc.Verify(context.Background(), raw)
		require.ErrorIs(t, err, domainerrors.ErrInputValidation)
		assert.Equal(t, usecases.MsgEmptyHash, err.Error())
	}
	gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestVerificationUsecase_Verify_InvalidDespiteCertificate(t *testing.T) {
	gateway := new(MockCertificateGateway)
	uc := usecases.NewVerificationUsecase(gateway, nil)
	gateway.On("Verify", mock.Anything, "0xdead").Return(&entities.VerificationResult{
		IsValid:     null.BoolFrom(false),
		Certificate: &entities.Certificate{StudentName: "Ada", IsRevoked: true},
	}, nil).Once()

	result, err := uc.Verify(context.Background(), "dead")
	require.NoError(t, err)
	assert.Equal(t, entities.VerificationStatusInvalid, result.Status())
}

func TestVerificationUsecase_Verify_RecordsHistory(t *testing.T) {
	gateway := new(MockCertificateGateway)
	history := new(MockSearchRecorder)
	uc := usecases.NewVerificationUsecase(gateway, history)

	gateway.On("Verify", mock.Anything, "0xabc").Return(&entities.VerificationResult{IsValid: null.BoolFrom(true)}, nil).Once()
	history.On("AddSearchTerm", mock.Anything, "abc").Return([]string{"abc"}, nil).Once()
	_, err := uc.Verify(context.Background(), "0xabc")
	require.NoError(t, err)

	gateway.On("Verify", mock.Anything, "0xmissing").Return(nil, domainerrors.NotFound("Certificate not found. Please check the hash and try again.")).Once()
	_, err = uc.Verify(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	gateway.On("Verify", mock.Anything, "0xdef").Return(&entities.VerificationResult{IsValid: null.BoolFrom(true)}, nil).Once()
	history.On("AddSearchTerm", mock.Anything, "def").Return(nil, errors.New("store down")).Once()
	_, err = uc.Verify(context.Background(), "def")
	require.NoError(t, err)

	history.AssertExpectations(t)
	history.AssertNotCalled(t, "AddSearchTerm", mock.Anything, "missing")
}

func TestVerificationUsecase_WithHistory(t *testing.T) {
	gateway := new(MockCertificateGateway)
	shared := new(MockSearchRecorder)
	scoped := new(MockSearchRecorder)
	uc := usecases.NewVerificationUsecase(gateway, shared)

	gateway.On("Verify", mock.Anything, "0xabc").Return(&entities.VerificationResult{IsValid: null.BoolFrom(true)}, nil).Once()
	scoped.On("AddSearchTerm", mock.Anything, "abc").Return([]string{"abc"}, nil).Once()

	_, err := uc.WithHistory(scoped).Verify(context.Background(), "abc")
	require.NoError(t, err)
	scoped.AssertExpectations(t)
	shared.AssertNotCalled(t, "AddSearchTerm", mock.Anything, mock.Anything)
}

func TestVerificationUsecase_VerifyOnBlockchain(t *testing.T) {
	gateway := new(MockCertificateGateway)
	uc := usecases.NewVerificationUsecase(gateway, nil)
	gateway.On("VerifyBlockchain", mock.Anything, "0xabc").Return(&entities.BlockchainCheck{IsValid: true, StudentName: "Ada"}, nil).Once()

	check, err := uc.VerifyOnBlockchain(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, check.IsValid)

	_, err = uc.VerifyOnBlockchain(context.Background(), " ")
	require.ErrorIs(t, err, domainerrors.ErrInputValidation)
}

func TestVerificationInput_SetClearsAndNormalizes(t *testing.T) {
	gateway := new(MockCertificateGateway)
	uc := usecases.NewVerificationUsecase(gateway, nil)
	in := uc.NewInput()

	in.Set("0xabc")
	assert.Equal(t, "abc", in.Value())
	assert.Equal(t, "0xabc", in.WireValue())

	// editing the field repeatedly never stacks prefixes
	in.Set(in.WireValue())
	in.Set(in.WireValue())
	assert.Equal(t, "0xabc", in.WireValue())

	gateway.On("Verify", mock.Anything, "0xabc").Return(&entities.VerificationResult{IsValid: null.BoolFrom(true)}, nil).Once()
	result, err := in.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid())

	in.Set("def")
	last, lastErr := in.Result()
	assert.Nil(t, last)
	assert.NoError(t, lastErr)

	in.Set("")
	assert.Equal(t, "", in.WireValue())
	_, err = in.Verify(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrInputValidation)
	_, lastErr = in.Result()
	assert.ErrorIs(t, lastErr, domainerrors.ErrInputValidation)
}
