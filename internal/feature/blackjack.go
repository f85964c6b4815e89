package feature

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/wenlin9/xdbot/internal/bot"
	"github.com/wenlin9/xdbot/internal/session"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// cardRanks is the infinite shoe: every draw picks a rank uniformly,
// independent of earlier draws.
var cardRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// BlackjackHandler runs one blackjack round per group.
type BlackjackHandler struct {
	store *session.Store
	draw  func() string
}

// NewBlackjackHandler creates the card game handler.
func NewBlackjackHandler(store *session.Store) *BlackjackHandler {
	return &BlackjackHandler{
		store: store,
		draw: func() string {
			return cardRanks[rand.IntN(len(cardRanks))]
		},
	}
}

func (h *BlackjackHandler) Name() string { return "blackjack" }

// Match claims a start command unconditionally; draw and stand commands
// are claimed only while the group has a round in progress, so a stray
// "/抽卡" outside a game falls through to later handlers.
func (h *BlackjackHandler) Match(msg bot.BotMessage) bool {
	if strings.Contains(msg.Content, "/21点") {
		return true
	}
	if strings.Contains(msg.Content, "/抽卡") || strings.Contains(msg.Content, "/停止") {
		return h.store.GameActive(group(msg).Key())
	}
	return false
}

func (h *BlackjackHandler) Handle(ctx context.Context, msg bot.BotMessage, r Replier) error {
	groupKey := group(msg).Key()

	switch {
	case strings.Contains(msg.Content, "/21点"):
		return h.startGame(groupKey, msg, r)
	case strings.Contains(msg.Content, "/抽卡"):
		return h.drawCard(groupKey, msg, r)
	case strings.Contains(msg.Content, "/停止"):
		return h.stand(groupKey, msg, r)
	}
	return nil
}

// startGame deals one card each, replacing any previous round for the group.
func (h *BlackjackHandler) startGame(groupKey string, msg bot.BotMessage, r Replier) error {
	game := &session.GameSession{
		Active:     true,
		PlayerHand: []string{h.draw()},
		DealerHand: []string{h.draw()},
	}
	h.store.PutGame(groupKey, game)

	return r.Reply(msg, fmt.Sprintf(
		"游戏开始！\n你的手牌: %s (点数: %d)\n机器人的明牌: %s\n你可以输入 /抽卡 继续要牌，或输入 /停止 停止要牌",
		strings.Join(game.PlayerHand, ", "), Points(game.PlayerHand), game.DealerHand[0]))
}

// drawCard appends one card to the player's hand; going past the target
// ends the round with an automatic loss.
func (h *BlackjackHandler) drawCard(groupKey string, msg bot.BotMessage, r Replier) error {
	var (
		hand   string
		points int
		upcard string
		busted bool
	)

	updated := h.store.UpdateGame(groupKey, func(game *session.GameSession) {
		game.PlayerHand = append(game.PlayerHand, h.draw())
		points = Points(game.PlayerHand)
		hand = strings.Join(game.PlayerHand, ", ")
		upcard = game.DealerHand[0]
		if points > constants.BlackjackTarget {
			busted = true
			game.Active = false
		}
	})
	if !updated {
		// Round ended between Match and Handle; nothing to draw from.
		return nil
	}

	if busted {
		return r.Reply(msg, fmt.Sprintf("你的手牌: %s (点数: %d)\n爆牌了！你输了！", hand, points))
	}
	return r.Reply(msg, fmt.Sprintf("你的手牌: %s (点数: %d)\n机器人的明牌: %s", hand, points, upcard))
}

// stand lets the dealer draw to its standing total and resolves the round.
func (h *BlackjackHandler) stand(groupKey string, msg bot.BotMessage, r Replier) error {
	var (
		playerHand, dealerHand     string
		playerPoints, dealerPoints int
	)

	updated := h.store.UpdateGame(groupKey, func(game *session.GameSession) {
		for Points(game.DealerHand) < constants.DealerStandPoints {
			game.DealerHand = append(game.DealerHand, h.draw())
		}
		playerPoints = Points(game.PlayerHand)
		dealerPoints = Points(game.DealerHand)
		playerHand = strings.Join(game.PlayerHand, ", ")
		dealerHand = strings.Join(game.DealerHand, ", ")
		game.Active = false
	})
	if !updated {
		return nil
	}

	result := fmt.Sprintf("游戏结束！\n你的手牌: %s (点数: %d)\n", playerHand, playerPoints)
	result += fmt.Sprintf("机器人的手牌: %s (点数: %d)\n", dealerHand, dealerPoints)

	switch {
	case dealerPoints > constants.BlackjackTarget:
		result += "机器人爆牌了！你赢了！"
	case playerPoints > dealerPoints:
		result += "恭喜你赢了！"
	case playerPoints < dealerPoints:
		result += "很遗憾，你输了！"
	default:
		result += "平局！"
	}

	return r.Reply(msg, result)
}

// Points computes a hand's total. Face cards count 10, numeric ranks their
// value. Aces are resolved last, each counting 11 unless that would bust
// the running total, in which case it counts 1.
func Points(hand []string) int {
	points := 0
	aces := 0

	for _, card := range hand {
		switch card {
		case "A":
			aces++
		case "J", "Q", "K":
			points += 10
		case "10":
			points += 10
		default:
			points += int(card[0] - '0')
		}
	}

	for i := 0; i < aces; i++ {
		if points+11 <= constants.BlackjackTarget {
			points += 11
		} else {
			points++
		}
	}
	return points
}
