package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTelegramBot_NewTelegramBot tests the constructor
func TestTelegramBot_NewTelegramBot(t *testing.T) {
	bot := NewTelegramBot("test-token-123")

	assert.NotNil(t, bot)
	assert.Equal(t, "test-token-123", bot.token)
}

// TestTelegramBot_SetMessageHandler tests handler registration
func TestTelegramBot_SetMessageHandler(t *testing.T) {
	bot := &TelegramBot{}

	assert.Nil(t, bot.GetMessageHandler())

	called := false
	bot.SetMessageHandler(func(msg BotMessage) {
		called = true
	})

	handler := bot.GetMessageHandler()
	require.NotNil(t, handler)
	handler(BotMessage{})
	assert.True(t, called)
}

// TestParseChatID tests chat ID conversion
func TestParseChatID(t *testing.T) {
	tests := []struct {
		name    string
		chatID  string
		want    int64
		wantErr bool
	}{
		{name: "group chat", chatID: "-1001234567890", want: -1001234567890},
		{name: "private chat", chatID: "987654321", want: 987654321},
		{name: "not a number", chatID: "group-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChatID(tt.chatID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestTelegramBot_SendMessage_NotInitialized tests sending before Start
func TestTelegramBot_SendMessage_NotInitialized(t *testing.T) {
	bot := NewTelegramBot("test-token")

	err := bot.SendMessage("12345", "test message")
	assert.ErrorContains(t, err, "not initialized")

	err = bot.SendImage("12345", "https://example.com/a.jpg")
	assert.ErrorContains(t, err, "not initialized")
}

// TestTelegramBot_Stop tests that Stop is safe before Start
func TestTelegramBot_Stop(t *testing.T) {
	bot := NewTelegramBot("test-token")
	assert.NoError(t, bot.Stop())
}
