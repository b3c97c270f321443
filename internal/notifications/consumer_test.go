package notifications

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/logger"
	"github.com/mayakapoor/aurelia-backend/pkg/outbox/payloads"
	"github.com/mayakapoor/aurelia-backend/pkg/pagination"
)

type recordingRepo struct {
	created []*models.Notification
	failing bool
}

func (r *recordingRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *recordingRepo) Create(ctx context.Context, notification *models.Notification) error {
	if r.failing {
		return gorm.ErrInvalidDB
	}
	r.created = append(r.created, notification)
	return nil
}

func (r *recordingRepo) List(ctx context.Context, params listParams) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (r *recordingRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	return markResult{}, nil
}

func (r *recordingRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type recordingMailer struct {
	sent []OrderConfirmationEmail
}

func (m *recordingMailer) SendOrderConfirmation(ctx context.Context, email OrderConfirmationEmail) error {
	m.sent = append(m.sent, email)
	return nil
}

func testConsumer(repo Repository, users userFinder, mailer Mailer) *Consumer {
	return &Consumer{
		repo:   repo,
		users:  users,
		mailer: mailer,
		logg:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestHandleOrderPaidCreatesCustomerAndAdminNotifications(t *testing.T) {
	repo := &recordingRepo{}
	user := &models.User{ID: uuid.New(), Email: "priya@example.com", FirstName: "Priya", LastName: "Sharma"}
	mailer := &recordingMailer{}
	consumer := testConsumer(repo, &stubUsers{user: user}, mailer)

	payload := payloads.OrderPaidEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260901-0042",
		UserID:      user.ID,
		PaymentID:   "pay_R4zp456",
		Total:       decimal.RequireFromString("2107"),
	}

	err := consumer.handleEvent(context.Background(), enums.EventOrderPaid, mustJSON(t, payload), context.Background())
	if err != nil {
		t.Fatalf("handleEvent: %v", err)
	}

	if len(repo.created) != 2 {
		t.Fatalf("expected customer + admin notifications, got %d", len(repo.created))
	}
	customer := repo.created[0]
	if customer.UserID == nil || *customer.UserID != user.ID {
		t.Fatal("customer notification must target the shopper")
	}
	if customer.Type != enums.NotificationOrderPaid {
		t.Fatalf("customer notification type: got %s", customer.Type)
	}
	admin := repo.created[1]
	if !admin.ForAdmin || admin.UserID != nil {
		t.Fatal("admin alert must be admin-scoped without a user")
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one confirmation email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].To != "priya@example.com" {
		t.Fatalf("email recipient: got %q", mailer.sent[0].To)
	}
	if mailer.sent[0].OrderNumber != "ORD-20260901-0042" {
		t.Fatalf("email order number: got %q", mailer.sent[0].OrderNumber)
	}
}

func TestHandleOrderPaidMissingUserStillNotifies(t *testing.T) {
	repo := &recordingRepo{}
	mailer := &recordingMailer{}
	consumer := testConsumer(repo, &stubUsers{}, mailer)

	payload := payloads.OrderPaidEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260901-0043",
		UserID:      uuid.New(),
		Total:       decimal.RequireFromString("500"),
	}

	err := consumer.handleEvent(context.Background(), enums.EventOrderPaid, mustJSON(t, payload), context.Background())
	if err != nil {
		t.Fatalf("a missing user must not requeue the event: %v", err)
	}
	if len(repo.created) != 2 {
		t.Fatalf("notifications must still be written, got %d", len(repo.created))
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no email without a resolvable recipient")
	}
}

func TestHandleGatewayOfflineAlertsAdmin(t *testing.T) {
	repo := &recordingRepo{}
	consumer := testConsumer(repo, &stubUsers{}, &recordingMailer{})

	payload := payloads.OrderGatewayOfflineEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-20260901-0044",
		UserID:      uuid.New(),
		GatewayErr:  "connection refused",
	}

	err := consumer.handleEvent(context.Background(), enums.EventOrderGatewayOffline, mustJSON(t, payload), context.Background())
	if err != nil {
		t.Fatalf("handleEvent: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one admin alert, got %d", len(repo.created))
	}
	if !repo.created[0].ForAdmin {
		t.Fatal("gateway offline alert must be admin-scoped")
	}
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	repo := &recordingRepo{}
	consumer := testConsumer(repo, &stubUsers{}, &recordingMailer{})

	err := consumer.handleEvent(context.Background(), enums.EventOrderCreated, mustJSON(t, payloads.OrderCreatedEvent{}), context.Background())
	if err != nil {
		t.Fatalf("handleEvent: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("order_created must not create notifications")
	}
}

func TestHandleOrderPaidRepoFailureRequeues(t *testing.T) {
	repo := &recordingRepo{failing: true}
	consumer := testConsumer(repo, &stubUsers{}, &recordingMailer{})

	payload := payloads.OrderPaidEvent{OrderID: uuid.New(), UserID: uuid.New()}
	err := consumer.handleEvent(context.Background(), enums.EventOrderPaid, mustJSON(t, payload), context.Background())
	if err == nil {
		t.Fatal("a storage failure must surface so the message is nacked")
	}
}
