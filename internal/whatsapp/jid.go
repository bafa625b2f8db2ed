// ABOUTME: Conversion between bridge chat ids and whatsmeow JIDs
// ABOUTME: User chats are exposed as <number>@c.us and sent to <number>@s.whatsapp.net

package whatsapp

import (
	"fmt"

	"go.mau.fi/whatsmeow/types"
)

// ChatID renders jid as a bridge chat id. Device suffixes are dropped and
// user JIDs use the legacy c.us server.
func ChatID(jid types.JID) string {
	jid = jid.ToNonAD()
	if jid.Server == types.DefaultUserServer {
		jid.Server = types.LegacyUserServer
	}
	return jid.String()
}

// ParseChatID parses a bridge chat id into a JID whatsmeow can send to.
func ParseChatID(chatID string) (types.JID, error) {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return types.EmptyJID, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	if jid.User == "" {
		return types.EmptyJID, fmt.Errorf("invalid chat id %q: missing user", chatID)
	}
	if jid.Server == types.LegacyUserServer {
		jid.Server = types.DefaultUserServer
	}
	return jid, nil
}
