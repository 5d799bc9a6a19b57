package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/entities"
	"certverify.client/internal/metrics"
	"certverify.client/pkg/logger"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every backend request
const DefaultTimeout = 15 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the backend client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Metrics    *metrics.Metrics
}

// Client talks to the certificate REST backend
type Client struct {
	baseURL string
	client  HTTPDoer
	metrics *metrics.Metrics
}

// NewClient creates a backend client
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  selectHTTPClient(cfg),
		metrics: cfg.Metrics,
	}
}

func selectHTTPClient(cfg Config) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{
		Timeout: cfg.Timeout,
	}
}

// BaseURL returns the configured backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend round trip.
type call struct {
	operation   string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	fallback    string
	// notFound overrides the message of a 404; empty keeps the server's.
	notFound string
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// serverMessage extracts the most specific message from an error body.
func serverMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	switch {
	case parsed.Error != "":
		return parsed.Error
	case parsed.Message != "":
		return parsed.Message
	case parsed.Detail != "":
		return parsed.Detail
	default:
		return ""
	}
}

func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		outcome := "ok"
		var appErr *domainerrors.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		} else if err != nil {
			outcome = domainerrors.CodeInternalError
		}
		c.metrics.ObserveBackendCall(cl.operation, outcome, time.Since(start))
		logger.LogBackendCall(ctx, cl.method, cl.path, status, time.Since(start), err)
	}()

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, cl.body)
	if err != nil {
		return domainerrors.NetworkFailure(0, cl.fallback, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domainerrors.NetworkFailure(0, cl.fallback, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.NetworkFailure(0, cl.fallback, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body, cl)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		logger.Warn(ctx, "Malformed backend response", zap.String("operation", cl.operation), zap.Error(err))
		return domainerrors.NetworkFailure(resp.StatusCode, cl.fallback, fmt.Errorf("decode %s response: %w", cl.operation, err))
	}
	return nil
}

func statusError(status int, body []byte, cl call) *domainerrors.AppError {
	msg := serverMessage(body)
	if status == http.StatusNotFound {
		if cl.notFound != "" {
			msg = cl.notFound
		} else if msg == "" {
			msg = cl.fallback
		}
		return domainerrors.NotFound(msg)
	}
	if msg == "" {
		msg = cl.fallback
	}
	return domainerrors.NetworkFailure(status, msg, fmt.Errorf("backend status %d", status))
}

// multipartForm builds a multipart body from text fields and files.
type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) field(name, value string) error {
	return f.writer.WriteField(name, value)
}

// file writes file under name keeping its original filename.
func (f *multipartForm) file(name string, file *entities.UploadFile) error {
	if file == nil {
		return fmt.Errorf("missing %s file", name)
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(file.Filename)))
	h.Set("Content-Type", contentType)
	part, err := f.writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Content)
	return err
}

func (f *multipartForm) close() (io.Reader, string, error) {
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func jsonBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}
