package notifier

import (
	"context"

	"go.uber.org/zap"

	"barberhub/internal/models"
)

// Gateway delivers an alert to the tenant's configured channels.
// Delivery providers live behind this interface; the engine only knows
// that notification follows successful persistence.
type Gateway interface {
	Notify(ctx context.Context, alert *models.Alert) error
}

// LogGateway is the fallback when no delivery channel is configured: it
// records the would-be notification in the log.
type LogGateway struct {
	logger *zap.Logger
}

func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Notify(_ context.Context, alert *models.Alert) error {
	g.logger.Info("Alert notification (no delivery channel configured)",
		zap.Int64("alert_id", alert.ID),
		zap.String("tenant_id", alert.TenantID),
		zap.String("priority", string(alert.Priority)),
		zap.String("title", alert.Title))
	return nil
}
