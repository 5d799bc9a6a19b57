package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrNoCode means the image holds no decodable QR code.
	ErrNoCode = errors.New("no qr code found")
	// ErrUnsupportedImage means the bytes are not a known image format.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Decoder reads QR codes from still images
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewDecoder creates a decoder that tries harder on noisy camera frames
func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns the text payload of the QR code in img.
func (d *Decoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoCode
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	// QRCodeReader keeps per-decode state; use a fresh one per frame.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	return result.GetText(), nil
}

// DecodeBytes decodes an encoded PNG, JPEG or GIF image.
func (d *Decoder) DecodeBytes(data []byte) (string, error) {
	img, err := LoadImage(data)
	if err != nil {
		return "", err
	}
	return d.Decode(img)
}

// LoadImage parses an encoded PNG, JPEG or GIF image.
func LoadImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// Encode renders text as a size x size QR code image.
func Encode(text string, size int) (image.Image, error) {
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		return nil, err
	}
	return matrix, nil
}
