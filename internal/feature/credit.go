package feature

import (
	"context"
	"strings"

	"github.com/wenlin9/xdbot/internal/bot"
)

// CreditHandler is the placeholder slot for the social credit system.
// It holds its position in the dispatch order so adding the real feature
// later cannot reshuffle which handler claims ambiguous messages.
type CreditHandler struct{}

// NewCreditHandler creates the credit system placeholder.
func NewCreditHandler() *CreditHandler {
	return &CreditHandler{}
}

func (h *CreditHandler) Name() string { return "credit" }

func (h *CreditHandler) Match(msg bot.BotMessage) bool {
	return strings.Contains(msg.Content, "/社会信用")
}

func (h *CreditHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	return r.Reply(msg, "社会信用系统还在建设中，敬请期待。")
}
