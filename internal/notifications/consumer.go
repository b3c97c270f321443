package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox/idempotency"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer watches domain events and turns order lifecycle transitions into
// in-app notifications and customer email.
type Consumer struct {
	repo         Repository
	users        userFinder
	mailer       Mailer
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo Repository, users userFinder, mailer Mailer, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		users:        users,
		mailer:       mailer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unrecognized event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderPaid:
		var payload payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing order_paid payload: %w", err)
		}
		return c.handleOrderPaid(ctx, payload, logCtx)
	case enums.EventOrderGatewayOffline:
		var payload payloads.OrderGatewayOfflineEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing order_gateway_offline payload: %w", err)
		}
		return c.handleGatewayOffline(ctx, payload, logCtx)
	default:
		c.logg.Info(logCtx, "event carries no notification")
		return nil
	}
}

func (c *Consumer) handleOrderPaid(ctx context.Context, payload payloads.OrderPaidEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil || payload.UserID == uuid.Nil {
		return fmt.Errorf("order or user id missing")
	}

	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	userID := payload.UserID
	customer := &models.Notification{
		UserID:  &userID,
		Type:    enums.NotificationOrderPaid,
		Title:   "Payment received",
		Message: fmt.Sprintf("Payment for order %s was received. We are preparing your jewelry for dispatch.", payload.OrderNumber),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, customer); err != nil {
		return err
	}

	admin := &models.Notification{
		ForAdmin: true,
		Type:     enums.NotificationAdminNewOrder,
		Title:    "Order paid",
		Message:  fmt.Sprintf("Order %s was paid (%s).", payload.OrderNumber, payload.Total),
		Link:     stringPtr(fmt.Sprintf("/admin/orders/%s", payload.OrderID)),
	}
	if err := c.repo.Create(ctx, admin); err != nil {
		return err
	}

	c.sendConfirmationEmail(ctx, payload, logCtx)
	c.logg.Info(logCtx, "order paid notifications created")
	return nil
}

// sendConfirmationEmail is best effort, a bounced email never requeues the event.
func (c *Consumer) sendConfirmationEmail(ctx context.Context, payload payloads.OrderPaidEvent, logCtx context.Context) {
	user, err := c.users.FindByID(ctx, payload.UserID)
	if err != nil {
		c.logg.Error(logCtx, "loading user for confirmation email", err)
		return
	}
	err = c.mailer.SendOrderConfirmation(ctx, OrderConfirmationEmail{
		To:          user.Email,
		Name:        user.FullName(),
		OrderNumber: payload.OrderNumber,
		Total:       payload.Total,
	})
	if err != nil {
		c.logg.Error(logCtx, "sending confirmation email", err)
	}
}

func (c *Consumer) handleGatewayOffline(ctx context.Context, payload payloads.OrderGatewayOfflineEvent, logCtx context.Context) error {
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order id missing")
	}

	message := fmt.Sprintf("Order %s was placed while the payment gateway was unreachable and needs manual payment follow-up.", payload.OrderNumber)
	if payload.GatewayErr != "" {
		message = fmt.Sprintf("%s Gateway error: %s", message, payload.GatewayErr)
	}
	admin := &models.Notification{
		ForAdmin: true,
		Type:     enums.NotificationAdminNewOrder,
		Title:    "Gateway offline during checkout",
		Message:  message,
		Link:     stringPtr(fmt.Sprintf("/admin/orders/%s", payload.OrderID)),
	}
	if err := c.repo.Create(ctx, admin); err != nil {
		return err
	}
	c.logg.Info(logCtx, "admin alerted about offline gateway order")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
