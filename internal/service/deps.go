package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the narrow contract this service consumes from the external
// payment processor. Creating the charge intent happens client-side; the
// service only fetches the client secret for an already created intent and
// checks webhook authenticity.
type Gateway interface {
	ClientSecret(ctx context.Context, externalPaymentID string) (string, error)
	VerifySignature(payload []byte, header string) error
}

type Notification struct {
	Type      string          `json:"type"`
	PaymentID uint            `json:"payment_id"`
	OrderID   uint            `json:"order_id"`
	UserID    uint            `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Notifier delivers user-facing notifications. Delivery is best-effort: the
// engine never retries and never lets a publish failure affect a committed
// transition.
type Notifier interface {
	PaymentEvent(ctx context.Context, n Notification) error
}
