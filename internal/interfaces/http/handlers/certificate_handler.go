package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/interfaces/http/response"
	"certverify.client/internal/usecases"
)

// CertificateHandler handles issuance, verification and browsing
type CertificateHandler struct {
	issuance     *usecases.IssuanceUsecase
	verification *usecases.VerificationUsecase
	certificates *usecases.CertificateUsecase
	qr           *usecases.QRUsecase
	state        *usecases.ClientStateUsecase
}

// NewCertificateHandler creates a new certificate handler. state may be nil,
// in which case verifications are not recorded.
func NewCertificateHandler(
	issuance *usecases.IssuanceUsecase,
	verification *usecases.VerificationUsecase,
	certificates *usecases.CertificateUsecase,
	qr *usecases.QRUsecase,
	state *usecases.ClientStateUsecase,
) *CertificateHandler {
	return &CertificateHandler{
		issuance:     issuance,
		verification: verification,
		certificates: certificates,
		qr:           qr,
		state:        state,
	}
}

// verificationResponse pairs the backend verdict with its derived status
type verificationResponse struct {
	Valid        bool                         `json:"valid"`
	Status       entities.VerificationStatus  `json:"status"`
	Verification *entities.VerificationResult `json:"verification"`
}

func newVerificationResponse(result *entities.VerificationResult) verificationResponse {
	return verificationResponse{
		Valid:        result.Valid(),
		Status:       result.Status(),
		Verification: result,
	}
}

// ListCertificates lists issued certificates
// GET /api/v1/certificates
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	var filter entities.CertificateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, domainerrors.InputValidation("Invalid certificate filter"))
		return
	}

	page, err := h.certificates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// IssueCertificate issues a certificate from a multipart form
// POST /api/v1/certificates/issue
func (h *CertificateHandler) IssueCertificate(c *gin.Context) {
	var req entities.IssuanceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgMissingFields))
		return
	}

	file, err := readUpload(c, "certificatePdf")
	if err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgMissingPDF))
		return
	}
	req.CertificatePDF = file

	result, err := h.issuance.Issue(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// RevokeCertificate revokes a certificate
// POST /api/v1/certificates/revoke/:hash
func (h *CertificateHandler) RevokeCertificate(c *gin.Context) {
	result, err := h.certificates.Revoke(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VerifyCertificate verifies a certificate hash
// GET /api/v1/certificates/verify/:hash
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	verifier := h.verification
	if h.state != nil {
		verifier = verifier.WithHistory(clientState(c, h.state))
	}

	result, err := verifier.Verify(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, newVerificationResponse(result))
}

// VerifyOnBlockchain checks a hash against the contract
// GET /api/v1/certificates/verify-blockchain/:hash
func (h *CertificateHandler) VerifyOnBlockchain(c *gin.Context) {
	result, err := h.verification.VerifyOnBlockchain(c.Request.Context(), c.Param("hash"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VerifyQR verifies an uploaded QR image
// POST /api/v1/certificates/verify-qr
func (h *CertificateHandler) VerifyQR(c *gin.Context) {
	file, err := readUpload(c, "qr_image")
	if err != nil {
		response.Error(c, domainerrors.InputValidation(usecases.MsgMissingQRImage))
		return
	}

	result, err := h.qr.VerifyUpload(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, newVerificationResponse(result))
}
