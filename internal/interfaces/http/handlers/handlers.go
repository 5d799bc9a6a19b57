package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"certverify.client/internal/domain/entities"
	"certverify.client/internal/usecases"
)

// ClientIDHeader scopes client state to one browser or CLI profile
const ClientIDHeader = "X-Client-ID"

// maxUploadSize bounds PDFs and QR images read from multipart requests
const maxUploadSize = 20 << 20

var errUploadTooLarge = errors.New("uploaded file is too large")

// readUpload loads a multipart file into memory. A request without the
// field yields nil so the usecase can report the missing file.
func readUpload(c *gin.Context, field string) (*entities.UploadFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > maxUploadSize {
		return nil, errUploadTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		return nil, err
	}
	return &entities.UploadFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// clientState returns the state store scoped to the calling client
func clientState(c *gin.Context, state *usecases.ClientStateUsecase) *usecases.ClientStateUsecase {
	return state.ForClient(c.GetHeader(ClientIDHeader))
}
