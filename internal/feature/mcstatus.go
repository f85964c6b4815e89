package feature

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/internal/mc"
	"github.com/wenlin9/xdbot/internal/session"
)

// ServerQuerier pings a Minecraft server. *mc.Querier implements it; tests
// substitute a stub.
type ServerQuerier interface {
	Query(address string) (*mc.Status, error)
}

// MinecraftHandler binds one server address per group and reports its
// live status on demand.
type MinecraftHandler struct {
	store   *session.Store
	querier ServerQuerier
}

// NewMinecraftHandler creates the server status lookup handler.
func NewMinecraftHandler(store *session.Store, querier ServerQuerier) *MinecraftHandler {
	return &MinecraftHandler{store: store, querier: querier}
}

func (h *MinecraftHandler) Name() string { return "minecraft" }

func (h *MinecraftHandler) Match(msg bot.BotMessage) bool {
	return strings.Contains(msg.Content, "/mc绑定") ||
		strings.Contains(msg.Content, "/mc解绑") ||
		strings.Contains(msg.Content, "/mc状态")
}

func (h *MinecraftHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	groupKey := group(msg).Key()

	switch {
	case strings.Contains(msg.Content, "/mc绑定"):
		return h.bind(groupKey, msg, r)
	case strings.Contains(msg.Content, "/mc解绑"):
		return h.unbind(groupKey, msg, r)
	case strings.Contains(msg.Content, "/mc状态"):
		return h.status(groupKey, msg, r)
	}
	return nil
}

// bind stores the address given as the second token of the command.
// A missing address is a usage error and leaves the binding unchanged.
func (h *MinecraftHandler) bind(groupKey string, msg bot.BotMessage, r Replier) error {
	fields := strings.Fields(msg.Content)
	if len(fields) < 2 {
		return r.Reply(msg, "请提供服务器地址，格式：/mc绑定 域名或IP:端口")
	}

	h.store.Bind(groupKey, fields[1])
	return r.Reply(msg, "已绑定Minecraft服务器")
}

func (h *MinecraftHandler) unbind(groupKey string, msg bot.BotMessage, r Replier) error {
	if h.store.Unbind(groupKey) {
		return r.Reply(msg, "已解除 Minecraft 服务器绑定")
	}
	return r.Reply(msg, "当前群组未绑定任何服务器")
}

// status queries the bound server synchronously and degrades connection
// failures and protocol failures to distinct user-visible messages.
func (h *MinecraftHandler) status(groupKey string, msg bot.BotMessage, r Replier) error {
	address, ok := h.store.Binding(groupKey)
	if !ok {
		return r.Reply(msg, "请先使用 /mc绑定 命令绑定服务器地址")
	}

	status, err := h.querier.Query(address)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"address": address,
			"error":   err,
		}).Warn("minecraft-status-query-failed")

		if mc.IsConnectionError(err) {
			return r.Reply(msg, "无法连接到服务器，请检查服务器地址是否正确或服务器是否在线")
		}
		return r.Reply(msg, fmt.Sprintf("查询失败：%v", err))
	}

	players := "无"
	if len(status.SamplePlayers) > 0 {
		players = strings.Join(status.SamplePlayers, "\n")
	}

	return r.Reply(msg, fmt.Sprintf(
		"服务器状态：在线\n延迟：%.1fms\n在线人数：%d/%d\n在线玩家：\n%s",
		float64(status.Latency.Microseconds())/1000,
		status.OnlinePlayers, status.MaxPlayers, players))
}
