// ABOUTME: Tests for recipient normalization
// ABOUTME: Suffix appended to bare numbers, existing chat ids left alone

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRecipient(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15551234567", "15551234567@c.us"},
		{"15551234567@c.us", "15551234567@c.us"},
		{"  15551234567 ", "15551234567@c.us"},
		{"120363025246125486@g.us", "120363025246125486@g.us"},
		{"15551234567@s.whatsapp.net", "15551234567@s.whatsapp.net"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeRecipient(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeRecipient(got), "normalization must be idempotent")
		})
	}
}
