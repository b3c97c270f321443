package notifications

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mayakapoor/aurelia-backend/pkg/config"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
)

// OrderConfirmationEmail carries the fields the confirmation template needs.
type OrderConfirmationEmail struct {
	To          string
	Name        string
	OrderNumber string
	Total       decimal.Decimal
}

// Mailer sends transactional mail to shoppers.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, email OrderConfirmationEmail) error
}

// LogMailer writes outgoing mail to the structured log instead of an SMTP
// relay. The delivery provider integration slots in behind the same interface.
type LogMailer struct {
	cfg  config.MailConfig
	logg *logger.Logger
}

// NewLogMailer builds the log-backed mailer.
func NewLogMailer(cfg config.MailConfig, logg *logger.Logger) *LogMailer {
	return &LogMailer{cfg: cfg, logg: logg}
}

func (m *LogMailer) SendOrderConfirmation(ctx context.Context, email OrderConfirmationEmail) error {
	if email.To == "" {
		return fmt.Errorf("recipient address required")
	}
	if m.logg != nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"from":         fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress),
			"to":           email.To,
			"order_number": email.OrderNumber,
			"total":        email.Total.String(),
		})
		m.logg.Info(logCtx, "order confirmation email dispatched")
	}
	return nil
}
