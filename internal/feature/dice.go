package feature

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/wenlin9/xdbot/internal/bot"
)

// DiceHandler is the dispatch fallback. It claims every message that
// reached it; only messages actually carrying the dice trigger get a
// reply, everything else is dropped silently.
type DiceHandler struct {
	roll func() int
}

// NewDiceHandler creates the dice roll fallback handler.
func NewDiceHandler() *DiceHandler {
	return &DiceHandler{
		roll: func() int { return rand.IntN(6) + 1 },
	}
}

func (h *DiceHandler) Name() string { return "dice" }

// Match always claims: the handler must be registered last.
func (h *DiceHandler) Match(msg bot.BotMessage) bool {
	return true
}

func (h *DiceHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	if !strings.Contains(msg.Content, "/摇骰子") {
		return nil
	}
	return r.Reply(msg, fmt.Sprintf("你投出了: %d 点 ", h.roll()))
}
