package feature

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/epic"
	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/internal/session"
)

// PromotionFetcher fetches the free-games catalog. *epic.Client implements
// it; tests substitute a stub.
type PromotionFetcher interface {
	FetchFreeGames(ctx context.Context) (*epic.Report, error)
}

// EpicHandler serves the free-game report on demand and maintains the
// per-group push subscription set.
type EpicHandler struct {
	store  *session.Store
	client PromotionFetcher
}

// NewEpicHandler creates the promotion notifier command handler.
func NewEpicHandler(store *session.Store, client PromotionFetcher) *EpicHandler {
	return &EpicHandler{store: store, client: client}
}

func (h *EpicHandler) Name() string { return "epic" }

func (h *EpicHandler) Match(msg bot.BotMessage) bool {
	return strings.Contains(msg.Content, "/epicfree") ||
		strings.Contains(msg.Content, "订阅epic") ||
		strings.Contains(msg.Content, "epicTD")
}

func (h *EpicHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	switch {
	case strings.Contains(msg.Content, "/epicfree"):
		return h.fetchAndReply(ctx, msg, r)

	case strings.Contains(msg.Content, "订阅epic"):
		h.store.Subscribe(group(msg))
		return r.Reply(msg, "已订阅Epic免费游戏推送，将在每天中午12点推送信息。")

	case strings.Contains(msg.Content, "epicTD"):
		h.store.Unsubscribe(group(msg))
		return r.Reply(msg, "已取消订阅Epic免费游戏推送。")
	}
	return nil
}

// fetchAndReply fetches the catalog synchronously and degrades to an
// apologetic reply when the provider is unreachable or the payload is
// malformed.
func (h *EpicHandler) fetchAndReply(ctx context.Context, msg bot.BotMessage, r Replier) error {
	report, err := h.client.FetchFreeGames(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"channel": msg.Channel,
			"error":   err,
		}).Error("epic-fetch-failed")
		if replyErr := r.Reply(msg, "获取Epic免费游戏信息失败，请稍后再试。"); replyErr != nil {
			return replyErr
		}
		return fmt.Errorf("epic fetch failed: %w", err)
	}

	return r.Reply(msg, report.Format())
}
