// Package qrclient renders booking QR tickets and decodes scanned ticket
// images. The QR content is the booking's JSON payload, so a ticket is
// self-describing without a server round trip.
package qrclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"

	"github.com/donorlink/plasma-center/pkg/core/model"
)

// PNG pixel size of generated tickets.
const ticketSize = 512

// Client encodes and decodes booking QR tickets.
type Client struct{}

// New returns a QR client.
func New() *Client {
	return &Client{}
}

// EncodeTicket renders the booking payload as a PNG QR image.
func (c *Client) EncodeTicket(payload model.QRPayload) ([]byte, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(content), qrcode.Medium, ticketSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR ticket: %w", err)
	}
	return png, nil
}

// DecodeTicket reads a scanned ticket image back into its payload. Images
// with no readable QR code or with non-ticket content are validation
// failures.
func (c *Client) DecodeTicket(imageData []byte) (*model.QRPayload, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable ticket image", model.ErrValidation)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable ticket image", model.ErrValidation)
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: no QR code found in image", model.ErrValidation)
	}

	var payload model.QRPayload
	if err := json.Unmarshal([]byte(result.GetText()), &payload); err != nil {
		return nil, fmt.Errorf("%w: invalid booking", model.ErrValidation)
	}
	if payload.BookingID == "" {
		return nil, fmt.Errorf("%w: invalid booking", model.ErrValidation)
	}
	return &payload, nil
}
