package usecases

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/pkg/logger"
)

// IssuanceUsecase submits certificates for issuance
type IssuanceUsecase struct {
	gateway       repositories.CertificateGateway
	publicBaseURL string
}

// NewIssuanceUsecase creates a new issuance usecase. publicBaseURL prefixes
// the generated verification link; empty yields a site-relative link.
func NewIssuanceUsecase(gateway repositories.CertificateGateway, publicBaseURL string) *IssuanceUsecase {
	return &IssuanceUsecase{
		gateway:       gateway,
		publicBaseURL: publicBaseURL,
	}
}

// Validate checks req without touching the network and returns the derived
// issue date timestamp.
func (u *IssuanceUsecase) Validate(req *entities.IssuanceRequest) (int64, error) {
	if req == nil || req.CertificatePDF == nil || len(req.CertificatePDF.Content) == 0 {
		return 0, domainerrors.InputValidation(MsgMissingPDF)
	}
	if !req.CertificatePDF.IsPDF() {
		return 0, domainerrors.InputValidation(MsgNotPDF)
	}
	if strings.TrimSpace(req.StudentName) == "" ||
		strings.TrimSpace(req.Course) == "" ||
		strings.TrimSpace(req.Institution) == "" ||
		strings.TrimSpace(req.IssueDate) == "" {
		return 0, domainerrors.InputValidation(MsgMissingFields)
	}
	ts, err := entities.IssueDateTimestamp(req.IssueDate)
	if err != nil {
		return 0, domainerrors.InputValidation(MsgInvalidIssueDate)
	}
	return ts, nil
}

// Issue submits req and builds the result shown to the issuer
func (u *IssuanceUsecase) Issue(ctx context.Context, req *entities.IssuanceRequest) (*entities.IssuanceResult, error) {
	ts, err := u.Validate(req)
	if err != nil {
		return nil, err
	}

	submitted := *req
	submitted.StudentName = strings.TrimSpace(req.StudentName)
	submitted.Course = strings.TrimSpace(req.Course)
	submitted.Institution = strings.TrimSpace(req.Institution)
	submitted.IssueDate = strings.TrimSpace(req.IssueDate)

	resp, err := u.gateway.Issue(ctx, &submitted, ts)
	if err != nil {
		return nil, err
	}

	if resp.Warning.Valid {
		logger.Warn(ctx, "Certificate issued with warning",
			zap.String("certHash", resp.CertHash),
			zap.String("warning", resp.Warning.String),
		)
	}

	return &entities.IssuanceResult{
		CertHash:        resp.CertHash,
		TransactionHash: resp.TransactionHash,
		QRCodeURL:       resp.QRCodeURL,
		Warning:         resp.Warning,
		Message:         resp.Message,
		VerifyLink:      entities.VerifyLink(u.publicBaseURL, resp.CertHash),
		StudentName:     submitted.StudentName,
		Course:          submitted.Course,
		Institution:     submitted.Institution,
		IssueDate:       submitted.IssueDate,
	}, nil
}

// IssuanceForm holds an issuance form between edits. It is cleared only
// after a successful submission so a failed attempt can be retried as-is.
type IssuanceForm struct {
	uc *IssuanceUsecase

	mu     sync.Mutex
	req    entities.IssuanceRequest
	result *entities.IssuanceResult
	err    error
}

// NewIssuanceForm creates an empty form bound to uc
func NewIssuanceForm(uc *IssuanceUsecase) *IssuanceForm {
	return &IssuanceForm{uc: uc}
}

// Update edits the form fields
func (f *IssuanceForm) Update(edit func(req *entities.IssuanceRequest)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	edit(&f.req)
}

// AttachPDF selects the certificate file
func (f *IssuanceForm) AttachPDF(file *entities.UploadFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req.CertificatePDF = file
}

// Request returns a copy of the current form values
func (f *IssuanceForm) Request() entities.IssuanceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

// Result returns the outcome of the last submission
func (f *IssuanceForm) Result() (*entities.IssuanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// Submit issues the current form
func (f *IssuanceForm) Submit(ctx context.Context) (*entities.IssuanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req := f.req
	result, err := f.uc.Issue(ctx, &req)
	f.result, f.err = result, err
	if err != nil {
		return nil, err
	}
	f.req = entities.IssuanceRequest{}
	return result, nil
}
