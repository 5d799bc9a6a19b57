package usecases

import (
	"context"
	"errors"
	"image"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/domain/repositories"
	"certverify.client/internal/infrastructure/qr"
	"certverify.client/internal/metrics"
	"certverify.client/pkg/logger"
)

// DefaultScanInterval samples roughly once per display frame
const DefaultScanInterval = 16 * time.Millisecond

const verifyPathMarker = "/verify/"

// FrameDecoder extracts a QR payload from a camera frame
type FrameDecoder interface {
	Decode(img image.Image) (string, error)
}

// ExtractCertHash pulls the certificate hash out of a scanned payload. A
// verification link yields the path segment after /verify/; any payload
// loses one leading 0x.
func ExtractCertHash(payload string) string {
	hash := strings.TrimSpace(payload)
	if idx := strings.Index(hash, verifyPathMarker); idx >= 0 {
		hash = hash[idx+len(verifyPathMarker):]
		if end := strings.IndexAny(hash, "/?#"); end >= 0 {
			hash = hash[:end]
		}
		if unescaped, err := url.PathUnescape(hash); err == nil {
			hash = unescaped
		}
	}
	return entities.Strip0x(hash)
}

// ScanResult is the outcome of a successful camera scan
type ScanResult struct {
	Payload      string                       `json:"payload"`
	CertHash     string                       `json:"certHash"`
	Verification *entities.VerificationResult `json:"verification"`
}

// QRUsecase verifies certificates from QR codes, either by uploading the
// image to the backend or by decoding camera frames locally
type QRUsecase struct {
	gateway  repositories.CertificateGateway
	verifier *VerificationUsecase
	camera   qr.Camera
	decoder  FrameDecoder
	interval time.Duration
	metrics  *metrics.Metrics
}

// NewQRUsecase creates a new QR usecase. camera and decoder may be nil when
// only uploads are supported.
func NewQRUsecase(
	gateway repositories.CertificateGateway,
	verifier *VerificationUsecase,
	camera qr.Camera,
	decoder FrameDecoder,
	interval time.Duration,
	m *metrics.Metrics,
) *QRUsecase {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &QRUsecase{
		gateway:  gateway,
		verifier: verifier,
		camera:   camera,
		decoder:  decoder,
		interval: interval,
		metrics:  m,
	}
}

// VerifyUpload sends a QR image to the backend, which decodes and verifies it
func (u *QRUsecase) VerifyUpload(ctx context.Context, file *entities.UploadFile) (*entities.VerificationResult, error) {
	if file == nil || len(file.Content) == 0 {
		return nil, domainerrors.InputValidation(MsgMissingQRImage)
	}
	result, err := u.gateway.VerifyQR(ctx, file)
	u.metrics.RecordQRScan("upload", outcome(err))
	return result, err
}

// Scan opens the camera and blocks until a code is verified, the stream
// fails or ctx is cancelled
func (u *QRUsecase) Scan(ctx context.Context) (*ScanResult, error) {
	session, err := u.StartScan(ctx)
	if err != nil {
		return nil, err
	}
	return session.Wait()
}

// StartScan opens the environment-facing camera and starts the frame loop.
func (u *QRUsecase) StartScan(ctx context.Context) (*ScanSession, error) {
	if u.camera == nil {
		u.metrics.RecordQRScan("camera", "error")
		return nil, domainerrors.DecodeFailure(MsgCameraUnavailable)
	}

	stream, err := u.camera.Open(ctx, qr.FacingEnvironment)
	if err != nil {
		u.metrics.RecordQRScan("camera", "error")
		if errors.Is(err, qr.ErrPermissionDenied) {
			return nil, domainerrors.DecodeFailure(MsgCameraDenied)
		}
		logger.Warn(ctx, "Failed to open camera", zap.Error(err))
		return nil, domainerrors.DecodeFailure(MsgCameraUnavailable)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	s := &ScanSession{
		stream: stream,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if u.decoder == nil {
		s.Stop()
		u.metrics.RecordQRScan("camera", "error")
		return nil, domainerrors.DecodeFailure(MsgDecoderUnavailable)
	}

	go u.scanLoop(scanCtx, s)
	return s, nil
}

func (u *QRUsecase) scanLoop(ctx context.Context, s *ScanSession) {
	defer close(s.done)

	payload, err := u.awaitCode(ctx, s.stream)
	s.release()
	if err != nil {
		s.err = err
		u.metrics.RecordQRScan("camera", "abandoned")
		return
	}

	hash := ExtractCertHash(payload)
	if hash == "" {
		s.err = domainerrors.DecodeFailure(MsgNoHashInQR)
		u.metrics.RecordQRScan("camera", "error")
		return
	}

	result, err := u.verifier.Verify(ctx, hash)
	u.metrics.RecordQRScan("camera", outcome(err))
	if err != nil {
		s.err = err
		return
	}
	s.result = &ScanResult{Payload: payload, CertHash: hash, Verification: result}
}

// awaitCode samples a frame every tick until one decodes.
func (u *QRUsecase) awaitCode(ctx context.Context, stream qr.MediaStream) (string, error) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		frame, err := stream.Frame(ctx)
		switch {
		case errors.Is(err, qr.ErrStreamEnded):
			return "", domainerrors.DecodeFailure(MsgCameraStreamEnded)
		case errors.Is(err, qr.ErrStreamStopped):
			return "", context.Canceled
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Debug(ctx, "Camera frame unavailable", zap.Error(err))
			continue
		case frame == nil:
			continue
		}

		payload, err := u.decoder.Decode(frame)
		if err == nil && payload != "" {
			return payload, nil
		}
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ScanSession is a running camera scan. Stop releases every track of the
// camera stream before returning.
type ScanSession struct {
	stream      qr.MediaStream
	cancel      context.CancelFunc
	releaseOnce sync.Once
	done        chan struct{}

	result *ScanResult
	err    error
}

// Stop abandons the scan
func (s *ScanSession) Stop() {
	s.cancel()
	s.release()
}

// Done is closed once the scan has finished
func (s *ScanSession) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the scan finishes and returns its outcome
func (s *ScanSession) Wait() (*ScanResult, error) {
	<-s.done
	return s.result, s.err
}

func (s *ScanSession) release() {
	s.releaseOnce.Do(func() {
		for _, track := range s.stream.Tracks() {
			track.Stop()
		}
	})
}
