package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/feature"
	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/internal/session"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// Engine is the core dispatch engine that connects bot adapters to feature
// handlers
type Engine struct {
	config      *Config
	activeBots  map[string]bot.BotAdapter // Bot type -> adapter
	router      *feature.Router
	store       *session.Store
	fetcher     feature.PromotionFetcher // Shared with the daily push loop
	messageChan chan bot.BotMessage      // Bot message channel
	ctx         context.Context          // Context for cancellation
	cancel      context.CancelFunc       // Cancel function for graceful shutdown
}

// NewEngine creates a new Engine instance
func NewEngine(config *Config, store *session.Store, router *feature.Router, fetcher feature.PromotionFetcher) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		config:      config,
		activeBots:  make(map[string]bot.BotAdapter),
		router:      router,
		store:       store,
		fetcher:     fetcher,
		messageChan: make(chan bot.BotMessage, constants.MessageChannelBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// RegisterBotAdapter registers a bot adapter
func (e *Engine) RegisterBotAdapter(botType string, adapter bot.BotAdapter) {
	e.activeBots[botType] = adapter
}

// Run starts the engine and begins processing messages
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("starting-xdbot-engine")

	// Background loops: sleep record expiry and the daily free-games push
	go e.store.RunSleepSweeper(e.ctx)
	go e.runDailyPush(e.ctx)

	// Start all enabled bots
	for botType, botConfig := range e.config.Bots {
		if !botConfig.Enabled {
			continue
		}

		botAdapter, exists := e.activeBots[botType]
		if !exists {
			logger.WithField("bot_type", botType).Warn("bot-adapter-not-registered")
			continue
		}

		go func(bt string, ba bot.BotAdapter) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"bot_type": bt,
						"panic":    r,
					}).Error("bot-start-panic-recovered")
				}
			}()
			if err := ba.Start(e.HandleBotMessage); err != nil {
				logger.WithFields(logrus.Fields{
					"bot_type": bt,
					"error":    err,
				}).Error("failed-to-start-bot")
			}
		}(botType, botAdapter)
	}

	// Start main event loop
	e.runEventLoop(ctx)

	return nil
}

// runEventLoop runs the main event loop for processing messages
func (e *Engine) runEventLoop(ctx context.Context) {
	logger.Info("engine-event-loop-started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("event-loop-shutting-down")
			return
		case msg := <-e.messageChan:
			// Dispatch in its own goroutine so a slow handler (think
			// delay, network fetch) never blocks the loop
			go e.handleUserMessage(msg)
		}
	}
}

// HandleBotMessage is the callback function for bots to deliver messages
func (e *Engine) HandleBotMessage(msg bot.BotMessage) {
	e.messageChan <- msg
}

// handleUserMessage routes one message through the feature handlers
func (e *Engine) handleUserMessage(msg bot.BotMessage) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"platform": msg.Platform,
				"channel":  msg.Channel,
				"panic":    r,
			}).Error("handler-panic-recovered")
		}
	}()

	logger.WithFields(logrus.Fields{
		"platform": msg.Platform,
		"user":     msg.UserID,
		"channel":  msg.Channel,
	}).Debug("processing-user-message")

	e.router.Dispatch(e.ctx, msg, e)
}

// Reply sends a text reply back to the group the message came from.
// Implements feature.Replier.
func (e *Engine) Reply(msg bot.BotMessage, text string) error {
	return e.SendToBot(msg.Platform, msg.Channel, text)
}

// ReplyImage sends an image reply back to the group the message came from.
// Implements feature.Replier.
func (e *Engine) ReplyImage(msg bot.BotMessage, imageURL string) error {
	botAdapter, exists := e.activeBots[msg.Platform]
	if !exists {
		return fmt.Errorf("no adapter registered for platform %s", msg.Platform)
	}

	if err := botAdapter.SendImage(msg.Channel, imageURL); err != nil {
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"channel":  msg.Channel,
			"error":    err,
		}).Error("failed-to-send-image-to-bot")
		return err
	}

	return nil
}

// SendToBot sends a message to a specific bot channel
func (e *Engine) SendToBot(platform, channel, message string) error {
	botAdapter, exists := e.activeBots[platform]
	if !exists {
		return fmt.Errorf("no adapter registered for platform %s", platform)
	}

	if err := botAdapter.SendMessage(channel, message); err != nil {
		logger.WithFields(logrus.Fields{
			"platform": platform,
			"channel":  channel,
			"error":    err,
		}).Error("failed-to-send-message-to-bot")
		return err
	}

	logger.WithFields(logrus.Fields{
		"platform": platform,
		"channel":  channel,
		"length":   len(message),
	}).Debug("message-sent-to-bot")
	return nil
}

// Stop gracefully stops the engine
func (e *Engine) Stop() error {
	logger.Info("stopping-xdbot-engine")

	// Cancel context to stop the event loop and background loops
	if e.cancel != nil {
		e.cancel()
	}

	// Stop all bots
	for botType, botAdapter := range e.activeBots {
		logger.WithField("bot_type", botType).Info("stopping-bot")
		if err := botAdapter.Stop(); err != nil {
			logger.WithFields(logrus.Fields{
				"bot_type": botType,
				"error":    err,
			}).Error("failed-to-stop-bot")
		}
	}

	logger.Info("engine-stopped")
	return nil
}
