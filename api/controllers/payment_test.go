package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	paymentsvc "github.com/mayakapoor/aurelia-backend/internal/payments"
	pkgerrors "github.com/mayakapoor/aurelia-backend/pkg/errors"
)

type stubPaymentService struct {
	result *paymentsvc.ConfirmResult
	err    error
}

func (s stubPaymentService) Confirm(ctx context.Context, userID uuid.UUID, req paymentsvc.ConfirmRequest) (*paymentsvc.ConfirmResult, error) {
	return s.result, s.err
}

func TestPaymentSuccessConfirms(t *testing.T) {
	t.Parallel()

	paidAt := time.Now().UTC()
	orderID := uuid.New()
	handler := PaymentSuccess(stubPaymentService{result: &paymentsvc.ConfirmResult{
		OrderID:       orderID,
		OrderNumber:   "ORD-20260901-0042",
		PaymentStatus: "paid",
		OrderStatus:   "processing",
		PaidAt:        &paidAt,
	}}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/payment-success", `{"order_id":"`+orderID.String()+`","razorpay_order_id":"order_x","razorpay_payment_id":"pay_x","razorpay_signature":"sig"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data paymentsvc.ConfirmResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PaymentStatus != "paid" || envelope.Data.OrderStatus != "processing" {
		t.Fatalf("unexpected statuses %q/%q", envelope.Data.PaymentStatus, envelope.Data.OrderStatus)
	}
}

func TestPaymentSuccessRepeatIsIdempotent(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	handler := PaymentSuccess(stubPaymentService{result: &paymentsvc.ConfirmResult{
		OrderID:          orderID,
		PaymentStatus:    "paid",
		OrderStatus:      "processing",
		AlreadyConfirmed: true,
	}}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/payment-success", `{"order_id":"`+orderID.String()+`"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("repeat confirmation must succeed, got %d", resp.Code)
	}
	var envelope struct {
		Data paymentsvc.ConfirmResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.AlreadyConfirmed {
		t.Fatalf("expected already_confirmed flag")
	}
}

func TestPaymentSuccessUnknownOrder(t *testing.T) {
	t.Parallel()

	handler := PaymentSuccess(stubPaymentService{err: pkgerrors.Reason(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/payment-success", `{"order_id":"`+uuid.NewString()+`"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestPaymentSuccessRejectsBadBody(t *testing.T) {
	t.Parallel()

	handler := PaymentSuccess(stubPaymentService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/checkout/payment-success", `{"order_id":"not-a-uuid"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
