// ABOUTME: Terminal rendering of WhatsApp login QR codes
// ABOUTME: Uses go-qrcode half-block output so the code fits a normal terminal

package whatsapp

import (
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
)

// RenderQR writes code to w as a scannable terminal QR code.
func RenderQR(w io.Writer, code string) error {
	q, err := qrcode.New(code, qrcode.Low)
	if err != nil {
		return fmt.Errorf("encoding QR code: %w", err)
	}
	if _, err := io.WriteString(w, q.ToSmallString(false)); err != nil {
		return fmt.Errorf("writing QR code: %w", err)
	}
	return nil
}
