package ticket

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder renders ticket identifiers as QR code PNGs. Medium error
// correction keeps the code scannable when printed or shown on a small
// phone screen.
type Encoder struct {
	size int
}

// NewEncoder creates an Encoder producing size x size pixel images.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 400
	}
	return &Encoder{size: size}
}

// PNG encodes the ticket id as a QR code PNG.
func (e *Encoder) PNG(ticketID string) ([]byte, error) {
	png, err := qrcode.Encode(ticketID, qrcode.Medium, e.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURL encodes the ticket id as a QR code and returns it as an
// embeddable data URL (data:image/png;base64,...).
func (e *Encoder) DataURL(ticketID string) (string, error) {
	png, err := e.PNG(ticketID)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
