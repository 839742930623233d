// Package telegram sends repricing cycle summaries and failure alerts via
// the Telegram Bot API. Delivery is retried with a growing delay; formatting
// uses MarkdownV2 with the required escaping.
package telegram

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport delivers a cycle summary.
func (c *Client) SendReport(report models.CycleReport) error {
	return c.send(formatReport(report))
}

// SendError delivers a failure alert for situations that need the operator's
// attention, like repeated token refresh failures.
func (c *Client) SendError(context string, err error) error {
	message := fmt.Sprintf("⚠️ *Repricing bot error*\n\n%s:\n%s",
		escapeMarkdownV2(context), escapeMarkdownV2(err.Error()))
	return c.send(message)
}

func (c *Client) send(message string) error {
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport formats a cycle summary into a Telegram message
func formatReport(r models.CycleReport) string {
	message := "🔁 *Repricing cycle finished*\n\n"
	message += fmt.Sprintf("🆔 Run: %s\n", escapeMarkdownV2(r.RunID))
	message += fmt.Sprintf("📅 Started: %s\n", escapeMarkdownV2(r.StartedAt.Format("2006-01-02 15:04:05")))
	message += fmt.Sprintf("⏱ Took: %s\n\n", escapeMarkdownV2(r.Duration.Round(time.Second).String()))
	message += fmt.Sprintf("📦 Offers: %d\n", r.TotalOffers)
	message += fmt.Sprintf("💰 Repriced: *%d*\n", r.Repriced)
	message += fmt.Sprintf("🔀 Escalated: %d\n", r.Escalated)
	message += fmt.Sprintf("😴 Unchanged: %d\n", r.NoChange)
	if r.Errors > 0 {
		message += fmt.Sprintf("❌ Errors: *%d*\n", r.Errors)
	}
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
