package feature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wenlin9/xdbot/internal/bot"
)

// deepSeekImageURL is the canned reply image.
const deepSeekImageURL = "https://img.zcool.cn/community/01bb815b4c8b5ca80121ade02bfb4f.jpg"

// deepSeekThinkDelay is the staged "thinking" pause before the punchline.
const deepSeekThinkDelay = 5 * time.Second

// DeepSeekHandler is the image-reply demo: acknowledge, pause, then send
// a media reply.
type DeepSeekHandler struct {
	imageURL string
	delay    time.Duration
}

// NewDeepSeekHandler creates the image demo handler.
func NewDeepSeekHandler() *DeepSeekHandler {
	return &DeepSeekHandler{
		imageURL: deepSeekImageURL,
		delay:    deepSeekThinkDelay,
	}
}

func (h *DeepSeekHandler) Name() string { return "deepseek" }

func (h *DeepSeekHandler) Match(msg bot.BotMessage) bool {
	return strings.Contains(msg.Content, "/deepseek")
}

func (h *DeepSeekHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	if err := r.Reply(msg, "正在思考中..."); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(h.delay):
	}

	if err := r.ReplyImage(msg, h.imageURL); err != nil {
		return r.Reply(msg, fmt.Sprintf("发送图片失败：%v", err))
	}
	return nil
}
