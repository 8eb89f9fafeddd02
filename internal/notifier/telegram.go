package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

// TelegramGateway delivers alerts to the tenant operations channel via
// a Telegram bot.
type TelegramGateway struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegramGateway creates the Telegram delivery channel. It returns
// an error when the token is rejected, letting the caller fall back to
// the log gateway.
func NewTelegramGateway(token string, chatID int64, logger *zap.Logger) (*TelegramGateway, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))

	return &TelegramGateway{
		api:    botAPI,
		chatID: chatID,
		logger: logger,
	}, nil
}

func (g *TelegramGateway) Notify(_ context.Context, alert *models.Alert) error {
	msg := tgbotapi.NewMessage(g.chatID, formatAlert(alert))
	if _, err := g.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram notification: %w", err)
	}
	g.logger.Debug("Alert delivered to Telegram",
		zap.Int64("alert_id", alert.ID),
		zap.String("tenant_id", alert.TenantID))
	return nil
}

func formatAlert(alert *models.Alert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", strings.ToUpper(string(alert.Priority)), alert.Title)
	if alert.Message != "" {
		sb.WriteString(alert.Message)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Tenant: %s | Category: %s\n", alert.TenantID, alert.Category)
	if len(alert.RecommendedActions) > 0 {
		sb.WriteString("Next steps:\n")
		for i, action := range alert.RecommendedActions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, action)
		}
	}
	return sb.String()
}
