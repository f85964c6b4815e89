package bot

import (
	"context"
	"testing"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
)

func TestExtractTextContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "normal text message",
			content:  `{"text":"hello world"}`,
			expected: "hello world",
		},
		{
			name:     "text with escaped newline",
			content:  `{"text":"hello\nworld"}`,
			expected: "hello\nworld",
		},
		{
			name:     "plain text without JSON",
			content:  "plain text",
			expected: "plain text",
		},
		{
			name:     "empty JSON falls back to raw content",
			content:  `{}`,
			expected: `{}`,
		},
		{
			name:     "invalid JSON falls back to raw content",
			content:  `{invalid}`,
			expected: `{invalid}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractTextContent(tt.content)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMaskAppID(t *testing.T) {
	tests := []struct {
		name     string
		appID    string
		expected string
	}{
		{
			name:     "normal app id",
			appID:    "cli_a1b2c3d4e5f6",
			expected: "cli_***e5f6",
		},
		{
			name:     "short app id",
			appID:    "cli_a1b2",
			expected: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAppID(tt.appID))
		})
	}
}

func TestFeishuBot_HandleMessageReceive(t *testing.T) {
	bot := NewFeishuBot("test_app_id", "test_app_secret")

	userID := "test_user_id"
	messageID := "test_message_id"
	chatID := "test_chat_id"
	messageType := "text"
	content := `{"text":"/21点"}`

	event := &larkim.P2MessageReceiveV1{
		Event: &larkim.P2MessageReceiveV1Data{
			Sender: &larkim.EventSender{
				SenderId: &larkim.UserId{UserId: &userID},
			},
			Message: &larkim.EventMessage{
				MessageId:   &messageID,
				ChatId:      &chatID,
				MessageType: &messageType,
				Content:     &content,
			},
		},
	}

	messagesReceived := []BotMessage{}
	bot.messageHandler = func(msg BotMessage) {
		messagesReceived = append(messagesReceived, msg)
	}

	err := bot.handleMessageReceive(context.Background(), event)
	assert.NoError(t, err)

	assert.Len(t, messagesReceived, 1)
	assert.Equal(t, "feishu", messagesReceived[0].Platform)
	assert.Equal(t, "test_user_id", messagesReceived[0].UserID)
	assert.Equal(t, "test_chat_id", messagesReceived[0].Channel)
	assert.Equal(t, "/21点", messagesReceived[0].Content)
}

func TestFeishuBot_HandleMessageReceive_NilEvent(t *testing.T) {
	bot := NewFeishuBot("test_app_id", "test_app_secret")

	err := bot.handleMessageReceive(context.Background(), nil)
	assert.NoError(t, err)

	err = bot.handleMessageReceive(context.Background(), &larkim.P2MessageReceiveV1{})
	assert.NoError(t, err)
}

func TestFeishuBot_SendMessage_EmptyChatID(t *testing.T) {
	bot := NewFeishuBot("test_app_id", "test_app_secret")

	err := bot.SendMessage("", "test message")
	assert.ErrorContains(t, err, "chat ID is required")
}

func TestFeishuBot_Stop(t *testing.T) {
	bot := NewFeishuBot("test_app_id", "test_app_secret")
	assert.NoError(t, bot.Stop())
}
