package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

const notifyTimeout = 5 * time.Second

// PaymentService is the single transition authority for payments: both direct
// API calls and verified webhook events go through it.
type PaymentService struct {
	Repo     *repo.GormRepo
	Gateway  Gateway
	Notifier Notifier

	unmatchedEvents atomic.Int64
}

func (svc *PaymentService) CreatePayment(ctx context.Context, req transport.CreatePaymentRequest, userID uint, isAdmin bool) (*models.Payment, string, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_payment")

	order, err := svc.Repo.OrderByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: order", ErrNotFound)
		}
		return nil, "", err
	}
	if order.UserID != userID && !isAdmin {
		return nil, "", fmt.Errorf("%w: order", ErrNotFound)
	}

	if !req.Amount.Equal(order.TotalAmount) {
		return nil, "", fmt.Errorf("%w: amount does not match order total", ErrValidation)
	}
	if len(req.PaymentItems) == 0 {
		return nil, "", fmt.Errorf("%w: payment_items required", ErrValidation)
	}
	if req.ExternalPaymentID == "" {
		return nil, "", fmt.Errorf("%w: external_payment_id required", ErrValidation)
	}

	orderItems := make(map[uint]models.OrderItem, len(order.Items))
	for _, it := range order.Items {
		orderItems[it.ID] = it
	}

	allocated := decimal.Zero
	items := make([]models.PaymentItem, 0, len(req.PaymentItems))
	for _, pi := range req.PaymentItems {
		oi, ok := orderItems[pi.OrderItemID]
		if !ok {
			return nil, "", fmt.Errorf("%w: order_item %d does not belong to order", ErrValidation, pi.OrderItemID)
		}
		if !pi.PriceAtPayment.Equal(oi.PriceAtOrder) {
			return nil, "", fmt.Errorf("%w: price_at_payment does not match order item price", ErrValidation)
		}
		items = append(items, models.PaymentItem{
			OrderItemID:    pi.OrderItemID,
			PriceAtPayment: pi.PriceAtPayment,
		})
		allocated = allocated.Add(pi.PriceAtPayment)
	}
	if !allocated.Equal(req.Amount) {
		return nil, "", fmt.Errorf("%w: payment items do not sum to amount", ErrValidation)
	}

	clientSecret, err := svc.Gateway.ClientSecret(ctx, req.ExternalPaymentID)
	if err != nil {
		l.Error("create_payment_error", "reason", "gateway", "error", err)
		return nil, "", err
	}

	payment := &models.Payment{
		UserID:            order.UserID,
		OrderID:           order.ID,
		Status:            models.PaymentStatusPending,
		Amount:            req.Amount,
		ExternalPaymentID: req.ExternalPaymentID,
		PaymentMethod:     req.PaymentMethod,
		Items:             items,
	}

	payment, err = svc.Repo.CreatePayment(ctx, payment)
	if err != nil {
		l.Error("create_payment_error", "error", err)
		return nil, "", err
	}

	l.Info("create_payment_success", "payment_id", payment.ID, "order_id", order.ID)
	return payment, clientSecret, nil
}

// Refund is the user-initiated successful -> refunded transition. Replaying a
// refund on an already refunded payment is redundant, not an error.
func (svc *PaymentService) Refund(ctx context.Context, paymentID, userID uint, isAdmin bool) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("svc", "payment.refund", "payment_id", paymentID)

	payment, err := svc.Repo.PaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment", ErrNotFound)
		}
		return nil, err
	}
	if payment.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("%w: payment", ErrNotFound)
	}

	payment, applied, err := svc.Repo.TransitionPayment(ctx, paymentID, models.PaymentStatusSuccessful, models.PaymentStatusRefunded)
	if err != nil {
		return nil, err
	}
	if !applied {
		if payment.Status == models.PaymentStatusRefunded {
			l.Info("refund_redundant")
			return payment, nil
		}
		return nil, fmt.Errorf("%w: only successful payments can be refunded", ErrInvalidTransition)
	}

	l.Info("refund_success")
	svc.notify(ctx, payment, "payment_refunded")
	return payment, nil
}

// HandleWebhook verifies authenticity, resolves the raw body into an Event and
// applies it. Only a bad signature (or a store failure) is reported as an
// error; every business-level no-op is acknowledged so the sender stops
// retrying.
func (svc *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := svc.Gateway.VerifySignature(payload, sigHeader); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticity, err)
	}

	event, err := ParseEvent(payload)
	if err != nil {
		return err
	}
	return svc.ApplyEvent(ctx, event)
}

// ApplyEvent applies one verified processor event. Events arrive at least once
// and unordered: replays and stale deliveries are acknowledged without error.
func (svc *PaymentService) ApplyEvent(ctx context.Context, event Event) error {
	l := logging.FromContext(ctx).With("svc", "payment.apply_event")

	var from, to, notifType string
	switch event.Kind {
	case EventPaymentSucceeded:
		from, to, notifType = models.PaymentStatusPending, models.PaymentStatusSuccessful, "payment_successful"
	case EventPaymentCanceled:
		from, to, notifType = models.PaymentStatusPending, models.PaymentStatusCanceled, "payment_canceled"
	case EventChargeRefunded:
		from, to, notifType = models.PaymentStatusSuccessful, models.PaymentStatusRefunded, "payment_refunded"
	default:
		l.Debug("event_ignored", "reason", "unrecognized type")
		return nil
	}

	payment, err := svc.Repo.PaymentByExternalID(ctx, event.ExternalPaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Possibly a foreign event or one that outran the local write.
			// Acknowledged on purpose, but counted so a systematic lookup
			// mismatch does not stay invisible.
			svc.unmatchedEvents.Add(1)
			l.Warn("event_unmatched", "external_payment_id", event.ExternalPaymentID)
			return nil
		}
		return err
	}

	payment, applied, err := svc.Repo.TransitionPayment(ctx, payment.ID, from, to)
	if err != nil {
		return err
	}
	if !applied {
		if payment.Status == to {
			l.Info("event_replay", "payment_id", payment.ID, "status", payment.Status)
		} else {
			l.Warn("event_stale", "payment_id", payment.ID, "status", payment.Status, "target", to)
		}
		return nil
	}

	l.Info("event_applied", "payment_id", payment.ID, "status", to)
	svc.notify(ctx, payment, notifType)
	return nil
}

func (svc *PaymentService) History(ctx context.Context, userID uint) ([]models.Payment, error) {
	return svc.Repo.ListPayments(ctx, userID)
}

func (svc *PaymentService) AdminHistory(ctx context.Context, f repo.PaymentFilter) ([]models.Payment, error) {
	return svc.Repo.ListPaymentsFiltered(ctx, f)
}

// UnmatchedEvents reports how many verified events referenced an unknown
// external payment id since startup.
func (svc *PaymentService) UnmatchedEvents() int64 {
	return svc.unmatchedEvents.Load()
}

// notify hands the committed transition to the dispatcher without gating the
// response on it. Failures are logged and dropped.
func (svc *PaymentService) notify(ctx context.Context, payment *models.Payment, notifType string) {
	if svc.Notifier == nil {
		return
	}
	l := logging.FromContext(ctx)
	n := Notification{
		Type:      notifType,
		PaymentID: payment.ID,
		OrderID:   payment.OrderID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := svc.Notifier.PaymentEvent(ctx, n); err != nil {
			l.Error("notify_error", "type", notifType, "payment_id", n.PaymentID, "error", err)
		}
	}()
}
