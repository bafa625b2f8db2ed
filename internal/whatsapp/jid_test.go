// ABOUTME: Tests for chat id and JID conversion
// ABOUTME: Covers c.us mapping, device suffixes, groups and invalid ids

package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/types"
)

func TestChatID(t *testing.T) {
	tests := []struct {
		name string
		jid  types.JID
		want string
	}{
		{"user", types.NewJID("15551234567", types.DefaultUserServer), "15551234567@c.us"},
		{"device suffix dropped", types.NewADJID("15551234567", 0, 12), "15551234567@c.us"},
		{"group unchanged", types.NewJID("120363000000000000", types.GroupServer), "120363000000000000@g.us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChatID(tt.jid))
		})
	}
}

func TestParseChatID(t *testing.T) {
	jid, err := ParseChatID("15551234567@c.us")
	require.NoError(t, err)
	assert.Equal(t, "15551234567", jid.User)
	assert.Equal(t, types.DefaultUserServer, jid.Server)

	group, err := ParseChatID("120363000000000000@g.us")
	require.NoError(t, err)
	assert.Equal(t, types.GroupServer, group.Server)
}

func TestParseChatID_RoundTrip(t *testing.T) {
	jid, err := ParseChatID("15551234567@c.us")
	require.NoError(t, err)
	assert.Equal(t, "15551234567@c.us", ChatID(jid))
}

func TestParseChatID_Invalid(t *testing.T) {
	_, err := ParseChatID("15551234567")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing user")
}
