package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// TelegramBot implements BotAdapter interface for Telegram using long polling
type TelegramBot struct {
	mu             sync.RWMutex
	token          string
	bot            *tgbotapi.BotAPI
	messageHandler func(BotMessage)
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{
		token: token,
	}
}

// Start establishes long polling connection to Telegram and begins listening for messages
func (t *TelegramBot) Start(messageHandler func(BotMessage)) error {
	t.SetMessageHandler(messageHandler)
	t.ctx, t.cancel = context.WithCancel(context.Background())

	logger.WithFields(logrus.Fields{
		"token": maskSecret(t.token),
	}).Info("starting-telegram-bot-with-long-polling")

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err,
		}).Error("failed-to-initialize-telegram-bot")
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	t.mu.Lock()
	t.bot = bot
	t.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": bot.Self.UserName,
		"bot_id":       bot.Self.ID,
	}).Info("telegram-bot-initialized-successfully")

	// Set up long polling configuration
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(constants.TelegramPollTimeout.Seconds())

	// Start receiving updates via long polling
	updates := bot.GetUpdatesChan(u)

	// Process updates in background
	go func() {
		for {
			select {
			case <-t.ctx.Done():
				logger.Info("telegram-long-polling-stopped")
				return
			case update, ok := <-updates:
				if !ok {
					logger.Info("telegram-updates-channel-closed")
					return
				}

				if update.Message != nil {
					t.handleMessage(update.Message)
				}
			}
		}
	}()

	logger.Info("telegram-long-polling-connection-started")
	return nil
}

// handleMessage handles incoming message events from Telegram
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	if message == nil {
		return
	}

	var userID, chatID, content string
	var userName string

	if message.From != nil {
		userID = fmt.Sprintf("%d", message.From.ID)
		userName = message.From.UserName
	}

	if message.Chat != nil {
		chatID = fmt.Sprintf("%d", message.Chat.ID)
	}

	if message.Text != "" {
		content = message.Text
	}

	logger.WithFields(logrus.Fields{
		"platform":   "telegram",
		"user_id":    userID,
		"username":   userName,
		"chat_id":    chatID,
		"message_id": message.MessageID,
		"content":    content,
	}).Debug("received-telegram-message")

	// Only process text messages
	if message.Text != "" {
		handler := t.GetMessageHandler()
		if handler != nil {
			handler(BotMessage{
				Platform:  "telegram",
				UserID:    userID,
				Channel:   chatID,
				Content:   content,
				Timestamp: time.Now(),
			})
		}
	}
}

// SendMessage sends a message to a Telegram chat
func (t *TelegramBot) SendMessage(chatID, message string) error {
	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	if chatID == "" {
		return fmt.Errorf("chat ID is required for Telegram")
	}

	// Telegram message limit
	const maxTelegramLength = constants.MaxTelegramMessageLength
	if len(message) > maxTelegramLength {
		logger.WithFields(logrus.Fields{
			"original_length": len(message),
			"max_length":      maxTelegramLength,
		}).Info("truncating-message-for-telegram-limit")
		message = message[:maxTelegramLength]
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatIDInt, message)

	if _, err := bot.Send(msg); err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-message-to-telegram")
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}

	logger.WithField("chat_id", chatID).Debug("message-sent-to-telegram")
	return nil
}

// SendImage sends an image by URL to a Telegram chat
func (t *TelegramBot) SendImage(chatID, imageURL string) error {
	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	if chatID == "" {
		return fmt.Errorf("chat ID is required for Telegram")
	}

	chatIDInt, err := parseChatID(chatID)
	if err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatIDInt, tgbotapi.FileURL(imageURL))

	if _, err := bot.Send(photo); err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-image-to-telegram")
		return fmt.Errorf("failed to send image to chat %s: %w", chatID, err)
	}

	logger.WithField("chat_id", chatID).Debug("image-sent-to-telegram")
	return nil
}

// parseChatID converts a Telegram chat ID string to int64
func parseChatID(chatID string) (int64, error) {
	var chatIDInt int64
	if _, err := fmt.Sscanf(chatID, "%d", &chatIDInt); err != nil {
		return 0, fmt.Errorf("invalid chat ID format: %w", err)
	}
	return chatIDInt, nil
}

// Stop closes the Telegram long polling connection and cleans up resources
func (t *TelegramBot) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}

	t.mu.Lock()
	bot := t.bot
	t.bot = nil
	t.mu.Unlock()

	if bot != nil {
		bot.StopReceivingUpdates()
		logger.Info("telegram-long-polling-stopped")
	}

	logger.Info("telegram-bot-stopped")
	return nil
}

// SetMessageHandler sets the message handler in a thread-safe manner
func (t *TelegramBot) SetMessageHandler(handler func(BotMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

// GetMessageHandler gets the message handler in a thread-safe manner
func (t *TelegramBot) GetMessageHandler() func(BotMessage) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageHandler
}
