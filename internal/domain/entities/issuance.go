package entities

import (
	"bytes"
	"path/filepath"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// IssueDateLayout is the calendar date format accepted for issuance.
const IssueDateLayout = "2006-01-02"

// IssueDateTimestamp returns the Unix seconds of date at UTC midnight.
// The executing machine's local timezone never takes part.
func IssueDateTimestamp(date string) (int64, error) {
	t, err := time.ParseInLocation(IssueDateLayout, strings.TrimSpace(date), time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

var pdfMagic = []byte("%PDF-")

// UploadFile is an in-memory file attached to a multipart submission.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// IsPDF accepts a file when its extension, declared type or magic bytes say PDF.
func (f *UploadFile) IsPDF() bool {
	if f == nil {
		return false
	}
	if strings.EqualFold(filepath.Ext(f.Filename), ".pdf") {
		return true
	}
	if strings.HasPrefix(strings.ToLower(f.ContentType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(f.Content, pdfMagic)
}

// IssuanceRequest is the issuance form as submitted by an issuer.
type IssuanceRequest struct {
	StudentName    string      `json:"studentName" form:"studentName"`
	Course         string      `json:"course" form:"course"`
	Institution    string      `json:"institution" form:"institution"`
	IssueDate      string      `json:"issueDate" form:"issueDate"`
	CertificatePDF *UploadFile `json:"-" form:"-"`
}

// IssuanceResponse is the backend's raw issuance payload.
type IssuanceResponse struct {
	CertHash        string       `json:"cert_hash"`
	TransactionHash string       `json:"transaction_hash"`
	QRCodeURL       null.String  `json:"qr_code_url"`
	Warning         null.String  `json:"warning"`
	Message         string       `json:"message,omitempty"`
	Certificate     *Certificate `json:"certificate,omitempty"`
}

// IssuanceResult is what the issuer sees after a successful submission.
// TransactionHash is a blockchain artifact and is not a verification key.
type IssuanceResult struct {
	CertHash        string      `json:"certHash"`
	TransactionHash string      `json:"transactionHash"`
	QRCodeURL       null.String `json:"qrCodeUrl"`
	Warning         null.String `json:"warning"`
	Message         string      `json:"message,omitempty"`
	VerifyLink      string      `json:"verifyLink"`
	StudentName     string      `json:"studentName"`
	Course          string      `json:"course"`
	Institution     string      `json:"institution"`
	IssueDate       string      `json:"issueDate"`
}

// VerifyLink builds the verification deep link for certHash. baseURL may be
// empty for a site-relative link.
func VerifyLink(baseURL, certHash string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + certHash
}
