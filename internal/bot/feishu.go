package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// FeishuBot implements BotAdapter interface for Feishu (Lark) using WebSocket long connection
type FeishuBot struct {
	AppID             string
	AppSecret         string
	EncryptKey        string // Optional, for encrypted events
	VerificationToken string // Optional, for event verification
	WSClient          *ws.Client
	LarkClient        *lark.Client
	Dispatcher        *dispatcher.EventDispatcher
	messageHandler    func(BotMessage)
	ctx               context.Context
	cancel            context.CancelFunc
}

// NewFeishuBot creates a new Feishu bot instance
func NewFeishuBot(appID, appSecret string) *FeishuBot {
	return &FeishuBot{
		AppID:      appID,
		AppSecret:  appSecret,
		LarkClient: lark.NewClient(appID, appSecret),
	}
}

// Start establishes WebSocket long connection to Feishu and begins listening for messages
func (f *FeishuBot) Start(messageHandler func(BotMessage)) error {
	f.messageHandler = messageHandler
	f.ctx, f.cancel = context.WithCancel(context.Background())

	logger.WithFields(logrus.Fields{
		"app_id": maskAppID(f.AppID),
	}).Info("starting-feishu-bot-with-websocket-long-connection")

	// Create event dispatcher
	f.Dispatcher = dispatcher.NewEventDispatcher(f.VerificationToken, f.EncryptKey)

	// Register message received event handler
	f.Dispatcher.OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
		return f.handleMessageReceive(ctx, event)
	})

	// Create WebSocket client
	f.WSClient = ws.NewClient(f.AppID, f.AppSecret,
		ws.WithEventHandler(f.Dispatcher),
		ws.WithLogLevel(larkcore.LogLevelInfo),
		ws.WithAutoReconnect(true),
	)

	// Start long connection (this blocks)
	go func() {
		if err := f.WSClient.Start(f.ctx); err != nil {
			logger.WithFields(logrus.Fields{
				"app_id": f.AppID,
				"error":  err,
			}).Error("feishu-websocket-connection-failed")
		}
	}()

	// Give connection time to establish
	time.Sleep(2 * time.Second)

	logger.Info("feishu-websocket-long-connection-started")
	return nil
}

// handleMessageReceive handles incoming message events from Feishu
func (f *FeishuBot) handleMessageReceive(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
	if event == nil || event.Event == nil {
		return nil
	}

	ev := event.Event

	var messageID, chatID, senderID, content string
	var messageType string

	if ev.Message != nil {
		if ev.Message.MessageId != nil {
			messageID = *ev.Message.MessageId
		}
		if ev.Message.ChatId != nil {
			chatID = *ev.Message.ChatId
		}
		if ev.Message.MessageType != nil {
			messageType = *ev.Message.MessageType
		}
		// Text message content is a JSON document like {"text":"actual message"}
		if ev.Message.Content != nil {
			content = extractTextContent(*ev.Message.Content)
		}
	}

	if ev.Sender != nil && ev.Sender.SenderId != nil {
		if ev.Sender.SenderId.UserId != nil {
			senderID = *ev.Sender.SenderId.UserId
		}
	}

	logger.WithFields(logrus.Fields{
		"platform":     "feishu",
		"user_id":      senderID,
		"chat_id":      chatID,
		"message_id":   messageID,
		"message_type": messageType,
		"content":      content,
	}).Debug("received-feishu-message")

	if f.messageHandler != nil {
		f.messageHandler(BotMessage{
			Platform:  "feishu",
			UserID:    senderID,
			Channel:   chatID,
			Content:   content,
			Timestamp: time.Now(),
		})
	}

	return nil
}

// SendMessage sends a message to a Feishu chat
func (f *FeishuBot) SendMessage(chatID, message string) error {
	if f.LarkClient == nil {
		return fmt.Errorf("feishu client not initialized")
	}

	if chatID == "" {
		return fmt.Errorf("chat ID is required for Feishu")
	}

	// Feishu limit: text message content length
	const maxFeishuLength = constants.MaxFeishuMessageLength
	if len(message) > maxFeishuLength {
		logger.WithFields(logrus.Fields{
			"original_length": len(message),
			"max_length":      maxFeishuLength,
		}).Info("truncating-message-for-feishu-limit")
		message = message[:maxFeishuLength]
	}

	contentJSON, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	body := larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(chatID).
		MsgType(larkim.MsgTypeText).
		Content(string(contentJSON)).
		Build()

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(body).
		Build()

	resp, err := f.LarkClient.Im.Message.Create(f.ctx, req)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-message-to-feishu")
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}

	if !resp.Success() {
		logger.WithFields(logrus.Fields{
			"chat_id":    chatID,
			"code":       resp.Code,
			"msg":        resp.Msg,
			"request_id": resp.RequestId,
		}).Error("failed-to-send-message-to-feishu-api-error")
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	logger.WithField("chat_id", chatID).Debug("message-sent-to-feishu")
	return nil
}

// SendImage sends an image to a Feishu chat.
// Feishu image messages require a pre-uploaded image_key, so the image is
// delivered as a clickable link instead.
func (f *FeishuBot) SendImage(chatID, imageURL string) error {
	return f.SendMessage(chatID, imageURL)
}

// Stop closes the Feishu WebSocket connection and cleans up resources
func (f *FeishuBot) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}

	if f.WSClient != nil {
		// Note: ws.Client doesn't have a Stop method in v3.5.3
		// The connection is managed by the context
		logger.Info("feishu-websocket-connection-stopped")
	}

	logger.Info("feishu-bot-stopped")
	return nil
}

// maskAppID masks sensitive app ID information for logging
func maskAppID(appID string) string {
	if len(appID) <= 8 {
		return "***"
	}
	return appID[:4] + "***" + appID[len(appID)-4:]
}

// feishuTextContent models the content document of a Feishu text message
type feishuTextContent struct {
	Text string `json:"text"`
}

// extractTextContent extracts actual text from Feishu message content.
// Feishu text message format: {"text":"actual message"}
func extractTextContent(content string) string {
	var parsed feishuTextContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Text == "" {
		return content
	}
	return parsed.Text
}
