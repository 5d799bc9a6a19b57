package entities

import (
	"strings"

	"github.com/volatiletech/null/v8"
)

// HexPrefix is prepended to certificate hashes on the wire.
const HexPrefix = "0x"

// Strip0x removes a single leading "0x". The prefix match is case-sensitive
// and the rest of the value is kept as-is.
func Strip0x(hash string) string {
	return strings.TrimPrefix(hash, HexPrefix)
}

// Add0x prefixes hash with "0x" unless it already carries it.
func Add0x(hash string) string {
	if strings.HasPrefix(hash, HexPrefix) {
		return hash
	}
	return HexPrefix + hash
}

// NormalizeCertHash turns raw user input into the bare form tracked
// internally: surrounding whitespace trimmed, leading "0x" removed.
func NormalizeCertHash(raw string) string {
	return Strip0x(strings.TrimSpace(raw))
}

// Certificate is the backend's certificate record.
type Certificate struct {
	ID                  int         `json:"id,omitempty"`
	StudentName         string      `json:"student_name"`
	Course              string      `json:"course"`
	Institution         string      `json:"institution"`
	IssueDate           string      `json:"issue_date"`
	IssueDateTimestamp  null.Int64  `json:"issue_date_timestamp"`
	CertHash            string      `json:"cert_hash"`
	IPFSHash            null.String `json:"ipfs_hash"`
	PDFHash             null.String `json:"pdf_hash"`
	CertificatePDF      null.String `json:"certificate_pdf"`
	QRCodeURL           null.String `json:"qr_code_url"`
	IsRevoked           bool        `json:"is_revoked"`
	BlockchainVerified  bool        `json:"blockchain_verified"`
	BlockchainTimestamp null.String `json:"blockchain_timestamp"`
	RevocationTimestamp null.String `json:"revocation_timestamp"`
	CreatedAt           string      `json:"created_at,omitempty"`
}

// BlockchainVerification is the on-chain sub-object of a QR verification.
type BlockchainVerification struct {
	IsValid     bool   `json:"is_valid"`
	StudentName string `json:"student_name"`
	Course      string `json:"course"`
	Institution string `json:"institution"`
	IssueDate   int64  `json:"issue_date"`
}

// BlockchainDetails is the on-chain record returned by hash verification.
type BlockchainDetails struct {
	StudentName string `json:"student_name"`
	Course      string `json:"course"`
	Institution string `json:"institution"`
	IssueDate   int64  `json:"issue_date"`
}

// VerificationResult is the backend's verdict on a certificate hash.
type VerificationResult struct {
	IsValid                null.Bool               `json:"is_valid"`
	Certificate            *Certificate            `json:"certificate"`
	BlockchainVerification *BlockchainVerification `json:"blockchain_verification,omitempty"`
	BlockchainValid        null.Bool               `json:"blockchain_valid,omitempty"`
	DatabaseValid          null.Bool               `json:"database_valid,omitempty"`
	BlockchainDetails      *BlockchainDetails      `json:"blockchain_details,omitempty"`
	BlockchainFound        null.Bool               `json:"blockchain_found,omitempty"`
	FailureReason          string                  `json:"failure_reason,omitempty"`
	Note                   string                  `json:"note,omitempty"`
}

// Valid reports the server-declared validity. The top-level is_valid wins;
// QR responses only declare it inside blockchain_verification. Presence of
// certificate data never implies validity.
func (r *VerificationResult) Valid() bool {
	if r == nil {
		return false
	}
	if r.IsValid.Valid {
		return r.IsValid.Bool
	}
	if r.BlockchainVerification != nil {
		return r.BlockchainVerification.IsValid
	}
	return false
}

// VerificationStatus is the display state derived from a result.
type VerificationStatus string

const (
	VerificationStatusValid   VerificationStatus = "valid"
	VerificationStatusInvalid VerificationStatus = "invalid"
)

// Status returns the display state for r.
func (r *VerificationResult) Status() VerificationStatus {
	if r.Valid() {
		return VerificationStatusValid
	}
	return VerificationStatusInvalid
}

// BlockchainCheck is the payload of the verify-blockchain endpoint.
type BlockchainCheck struct {
	IsValid     bool   `json:"is_valid"`
	StudentName string `json:"student_name"`
	Course      string `json:"course"`
	Institution string `json:"institution"`
	IssueDate   int64  `json:"issue_date"`
}

// RevocationResult is the backend's confirmation of a revoke.
type RevocationResult struct {
	Message         string `json:"message"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	CertHash        string `json:"cert_hash,omitempty"`
}
