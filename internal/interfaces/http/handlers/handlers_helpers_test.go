package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"certverify.client/internal/domain/entities"
	"certverify.client/internal/infrastructure/repositories"
	"certverify.client/internal/usecases"
)

type gatewayStub struct {
	issue            func(req *entities.IssuanceRequest, ts int64) (*entities.IssuanceResponse, error)
	verify           func(hash string) (*entities.VerificationResult, error)
	verifyBlockchain func(hash string) (*entities.BlockchainCheck, error)
	verifyQR         func(file *entities.UploadFile) (*entities.VerificationResult, error)
	revoke           func(hash string) (*entities.RevocationResult, error)
	list             func(filter entities.CertificateFilter) (*entities.CertificateListResponse, error)

	leaderboard      func(limit int) ([]entities.LeaderboardEntry, error)
	institutionStats func(address string) (*entities.InstitutionStats, error)
	registerWallet   func(input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error)
	updateName       func(address, name string) (*entities.Institution, error)

	calls []string
}

func (s *gatewayStub) Issue(_ context.Context, req *entities.IssuanceRequest, ts int64) (*entities.IssuanceResponse, error) {
	s.calls = append(s.calls, "issue")
	return s.issue(req, ts)
}

func (s *gatewayStub) Verify(_ context.Context, hash string) (*entities.VerificationResult, error) {
	s.calls = append(s.calls, "verify:"+hash)
	return s.verify(hash)
}

func (s *gatewayStub) VerifyBlockchain(_ context.Context, hash string) (*entities.BlockchainCheck, error) {
	s.calls = append(s.calls, "verify-blockchain:"+hash)
	return s.verifyBlockchain(hash)
}

func (s *gatewayStub) VerifyQR(_ context.Context, file *entities.UploadFile) (*entities.VerificationResult, error) {
	s.calls = append(s.calls, "verify-qr")
	return s.verifyQR(file)
}

func (s *gatewayStub) Revoke(_ context.Context, hash string) (*entities.RevocationResult, error) {
	s.calls = append(s.calls, "revoke:"+hash)
	return s.revoke(hash)
}

func (s *gatewayStub) List(_ context.Context, filter entities.CertificateFilter) (*entities.CertificateListResponse, error) {
	s.calls = append(s.calls, "list")
	return s.list(filter)
}

func (s *gatewayStub) Leaderboard(_ context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	s.calls = append(s.calls, "leaderboard")
	return s.leaderboard(limit)
}

func (s *gatewayStub) InstitutionStats(_ context.Context, address string) (*entities.InstitutionStats, error) {
	s.calls = append(s.calls, "stats:"+address)
	return s.institutionStats(address)
}

func (s *gatewayStub) RegisterWallet(_ context.Context, input entities.RegisterWalletInput) (*entities.RegisterWalletResult, error) {
	s.calls = append(s.calls, "register")
	return s.registerWallet(input)
}

func (s *gatewayStub) UpdateInstitutionName(_ context.Context, address, name string) (*entities.Institution, error) {
	s.calls = append(s.calls, "update:"+address)
	return s.updateName(address, name)
}

func newMemoryState() *usecases.ClientStateUsecase {
	return usecases.NewClientStateUsecase(
		repositories.NewMemoryClientStateRepository(),
		repositories.NewLockUnitOfWork(),
		"default",
	)
}

func newCertificateHandler(gateway *gatewayStub, state *usecases.ClientStateUsecase) *CertificateHandler {
	verification := usecases.NewVerificationUsecase(gateway, nil)
	return NewCertificateHandler(
		usecases.NewIssuanceUsecase(gateway, "https://certs.example"),
		verification,
		usecases.NewCertificateUsecase(gateway),
		usecases.NewQRUsecase(gateway, verification, nil, nil, 0, nil),
		state,
	)
}

type multipartPart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...multipartPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}
