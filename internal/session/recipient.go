// ABOUTME: Recipient normalization to WhatsApp chat ids
// ABOUTME: Appends the @c.us address suffix to bare phone numbers

package session

import "strings"

// AddressSuffix is the server part WhatsApp Web uses for personal chats.
const AddressSuffix = "@c.us"

// NormalizeRecipient turns a phone number into a chat id by appending
// AddressSuffix. Values that already carry a server part ("...@c.us",
// "...@g.us", "...@s.whatsapp.net") are returned unchanged, so the
// function is idempotent.
func NormalizeRecipient(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.Contains(number, "@") {
		return number
	}
	return number + AddressSuffix
}
