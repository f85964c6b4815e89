package bot

import (
	"context"
	"testing"

	"github.com/open-dingtalk/dingtalk-stream-sdk-go/chatbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDingTalkBot_NewDingTalkBot tests the constructor
func TestDingTalkBot_NewDingTalkBot(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")

	assert.NotNil(t, bot)
	assert.Equal(t, "test-client-id", bot.clientID)
	assert.Equal(t, "test-client-secret", bot.clientSecret)
	assert.NotNil(t, bot.replier)
	assert.NotNil(t, bot.webhooks)
}

// TestDingTalkBot_HandleMessageReceive tests inbound message parsing and
// webhook capture
func TestDingTalkBot_HandleMessageReceive(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")

	messagesReceived := []BotMessage{}
	bot.SetMessageHandler(func(msg BotMessage) {
		messagesReceived = append(messagesReceived, msg)
	})

	data := &chatbot.BotCallbackDataModel{
		ConversationId: "conv-1",
		SenderStaffId:  "staff-1",
		Msgtype:        "text",
		SessionWebhook: "https://oapi.dingtalk.com/robot/sendBySession?session=abc",
	}
	data.Text.Content = "/早安"

	_, err := bot.handleMessageReceive(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, messagesReceived, 1)
	assert.Equal(t, "dingtalk", messagesReceived[0].Platform)
	assert.Equal(t, "staff-1", messagesReceived[0].UserID)
	assert.Equal(t, "conv-1", messagesReceived[0].Channel)
	assert.Equal(t, "/早安", messagesReceived[0].Content)

	// Reply webhook is remembered per conversation
	webhook, err := bot.sessionWebhook("conv-1")
	require.NoError(t, err)
	assert.Equal(t, data.SessionWebhook, webhook)
}

// TestDingTalkBot_HandleMessageReceive_NilData tests the nil event guard
func TestDingTalkBot_HandleMessageReceive_NilData(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")

	_, err := bot.handleMessageReceive(context.Background(), nil)
	assert.NoError(t, err)
}

// TestDingTalkBot_SendMessage_NoWebhook tests sending before any message was
// received from the conversation
func TestDingTalkBot_SendMessage_NoWebhook(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")

	err := bot.SendMessage("conv-unknown", "test message")
	assert.ErrorContains(t, err, "no session webhook")

	err = bot.SendImage("conv-unknown", "https://example.com/a.jpg")
	assert.ErrorContains(t, err, "no session webhook")
}

// TestDingTalkBot_SendMessage_EmptyConversation tests the required ID guard
func TestDingTalkBot_SendMessage_EmptyConversation(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")

	err := bot.SendMessage("", "test message")
	assert.ErrorContains(t, err, "conversation ID is required")
}

// TestDingTalkBot_Stop tests that Stop is safe before Start
func TestDingTalkBot_Stop(t *testing.T) {
	bot := NewDingTalkBot("test-client-id", "test-client-secret")
	assert.NoError(t, bot.Stop())
}

// TestMaskClientID tests client ID masking for logs
func TestMaskClientID(t *testing.T) {
	assert.Equal(t, "ding***7890", maskClientID("dingabc1234567890"))
	assert.Equal(t, "***", maskClientID("ding123"))
}
