package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/entities"
	"certverify.client/internal/domain/repositories"
)

// User-facing fallback messages
const (
	MsgIssueFailed           = "Failed to issue certificate"
	MsgVerifyFailed          = "Failed to verify certificate"
	MsgCertificateNotFound   = "Certificate not found. Please check the hash and try again."
	MsgVerifyBlockchainFail  = "Failed to verify on blockchain"
	MsgVerifyQRFailed        = "Failed to verify QR code"
	MsgRevokeFailed          = "Failed to revoke certificate"
	MsgListFailed            = "Failed to fetch certificates"
	MsgLeaderboardFailed     = "Failed to fetch leaderboard"
	MsgStatsFailed           = "Failed to fetch institution stats"
	MsgRegisterWalletFailed  = "Failed to register wallet"
	MsgUpdateInstitutionFail = "Failed to update institution name"
)

var _ repositories.CertificateGateway = (*Client)(nil)

// Issue posts the issuance form with the PDF under certificatePdf.
func (c *Client) Issue(ctx context.Context, req *entities.IssuanceRequest, issueDateTimestamp int64) (*entities.IssuanceResponse, error) {
	form := newMultipartForm()
	fields := []struct{ name, value string }{
		{"studentName", req.StudentName},
		{"course", req.Course},
		{"institution", req.Institution},
		{"issueDate", req.IssueDate},
		{"issueDateTimestamp", strconv.FormatInt(issueDateTimestamp, 10)},
	}
	for _, f := range fields {
		if err := form.field(f.name, f.value); err != nil {
			return nil, domainerrors.InternalError(err)
		}
	}
	if err := form.file("certificatePdf", req.CertificatePDF); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	body, contentType, err := form.close()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	var out entities.IssuanceResponse
	if err := c.do(ctx, call{
		operation:   "issue",
		method:      http.MethodPost,
		path:        "/api/certificates/issue/",
		body:        body,
		contentType: contentType,
		fallback:    MsgIssueFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify looks up a certificate by its 0x-prefixed hash.
func (c *Client) Verify(ctx context.Context, prefixedHash string) (*entities.VerificationResult, error) {
	var out entities.VerificationResult
	if err := c.do(ctx, call{
		operation: "verify",
		method:    http.MethodGet,
		path:      "/api/certificates/verify/" + url.PathEscape(prefixedHash) + "/",
		fallback:  MsgVerifyFailed,
		notFound:  MsgCertificateNotFound,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyBlockchain asks the backend to check the contract directly.
func (c *Client) VerifyBlockchain(ctx context.Context, hash string) (*entities.BlockchainCheck, error) {
	var out entities.BlockchainCheck
	if err := c.do(ctx, call{
		operation: "verify_blockchain",
		method:    http.MethodGet,
		path:      "/api/certificates/verify-blockchain/" + url.PathEscape(hash) + "/",
		fallback:  MsgVerifyBlockchainFail,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyQR uploads a QR image under qr_image; the backend decodes it.
func (c *Client) VerifyQR(ctx context.Context, image *entities.UploadFile) (*entities.VerificationResult, error) {
	form := newMultipartForm()
	if err := form.file("qr_image", image); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	body, contentType, err := form.close()
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}

	var out entities.VerificationResult
	if err := c.do(ctx, call{
		operation:   "verify_qr",
		method:      http.MethodPost,
		path:        "/api/certificates/verify-qr/",
		body:        body,
		contentType: contentType,
		fallback:    MsgVerifyQRFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke marks a certificate revoked.
func (c *Client) Revoke(ctx context.Context, hash string) (*entities.RevocationResult, error) {
	var out entities.RevocationResult
	if err := c.do(ctx, call{
		operation: "revoke",
		method:    http.MethodPost,
		path:      "/api/certificates/revoke/" + url.PathEscape(hash) + "/",
		fallback:  MsgRevokeFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List fetches one page of certificates.
func (c *Client) List(ctx context.Context, filter entities.CertificateFilter) (*entities.CertificateListResponse, error) {
	var out entities.CertificateListResponse
	if err := c.do(ctx, call{
		operation: "list",
		method:    http.MethodGet,
		path:      "/api/certificates/",
		query:     filter.Query(),
		fallback:  MsgListFailed,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
