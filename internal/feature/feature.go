// Package feature implements the bot's command features and the router
// that dispatches inbound messages to them.
//
// Each handler exposes a claim predicate over the raw message text. The
// router tries the handlers in a fixed priority order; the first handler
// whose predicate matches fully owns the message. Matching is substring
// based, so the order is the tie-break when a message carries more than
// one trigger phrase.
package feature

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/internal/session"
)

// Replier delivers replies back to the group a message came from.
type Replier interface {
	// Reply sends a plain-text reply.
	Reply(msg bot.BotMessage, text string) error
	// ReplyImage sends an image referenced by URL as a media reply.
	ReplyImage(msg bot.BotMessage, url string) error
}

// Handler is one independent feature.
type Handler interface {
	// Name identifies the handler in logs.
	Name() string
	// Match reports whether this handler claims the message. It must not
	// assume its trigger is the only text in the message.
	Match(msg bot.BotMessage) bool
	// Handle processes a claimed message and performs its own replies.
	// A returned error is logged by the router; it never aborts dispatch
	// of later messages.
	Handle(ctx context.Context, msg bot.BotMessage, r Replier) error
}

// Router dispatches messages to an ordered list of handlers.
type Router struct {
	handlers []Handler
}

// NewRouter creates a router over the given handlers. The order is the
// dispatch priority, highest first.
func NewRouter(handlers ...Handler) *Router {
	return &Router{handlers: handlers}
}

// Dispatch routes one message to the first handler that claims it.
// Handler failures are contained here so one feature's failure never
// stops the bot from processing future messages.
func (r *Router) Dispatch(ctx context.Context, msg bot.BotMessage, replier Replier) {
	for _, handler := range r.handlers {
		if !handler.Match(msg) {
			continue
		}

		logger.WithFields(logrus.Fields{
			"handler":  handler.Name(),
			"platform": msg.Platform,
			"channel":  msg.Channel,
			"user":     msg.UserID,
		}).Debug("message-claimed")

		if err := handler.Handle(ctx, msg, replier); err != nil {
			logger.WithFields(logrus.Fields{
				"handler": handler.Name(),
				"error":   err,
			}).Error("feature-handler-failed")
		}
		return
	}
}

// group returns the session target of the group a message came from.
func group(msg bot.BotMessage) session.Target {
	return session.Target{Platform: msg.Platform, Channel: msg.Channel}
}
