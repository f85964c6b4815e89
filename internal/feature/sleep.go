package feature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/session"
)

// SleepHandler keeps a good-night/good-morning diary per group member.
type SleepHandler struct {
	store *session.Store
	loc   *time.Location
	now   func() time.Time
}

// NewSleepHandler creates the sleep diary handler. Timestamps are recorded
// and rendered in loc.
func NewSleepHandler(store *session.Store, loc *time.Location) *SleepHandler {
	return &SleepHandler{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

func (h *SleepHandler) Name() string { return "sleep" }

func (h *SleepHandler) Match(msg bot.BotMessage) bool {
	return strings.Contains(msg.Content, "/晚安") || strings.Contains(msg.Content, "/早安")
}

func (h *SleepHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	userKey := group(msg).UserKey(msg.UserID)

	if strings.Contains(msg.Content, "/晚安") {
		now := h.now().In(h.loc)
		h.store.RecordSleep(userKey, now)
		return r.Reply(msg, fmt.Sprintf("晚安！现在是%s，祝你好梦~ 🌙", now.Format("15:04")))
	}

	record, ok := h.store.TakeSleep(userKey)
	if !ok {
		return r.Reply(msg, "你还没有记录睡眠时间呢，请先使用 /晚安 指令~")
	}

	wake := h.now().In(h.loc)
	duration := wake.Sub(record.SleepTime)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60

	return r.Reply(msg, fmt.Sprintf("早安！现在是%s。\n你睡了%d小时%d分钟。\n%s",
		wake.Format("15:04"), hours, minutes, classifySleep(hours)))
}

// classifySleep grades a night by whole hours slept: under 6 is too little,
// 6 through 8 is just right, more is too long.
func classifySleep(hours int) string {
	switch {
	case hours < 6:
		return "要注意休息哦！"
	case hours <= 8:
		return "睡眠时间刚刚好！"
	default:
		return "睡得有点久哦！"
	}
}
