package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusCanceled = "canceled"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusCanceled   = "canceled"
	PaymentStatusRefunded   = "refunded"
)

type Order struct {
	ID          uint            `gorm:"primaryKey"                   json:"id"`
	UserID      uint            `gorm:"index;not null"               json:"user_id"`
	CreatedAt   time.Time       `gorm:"not null"                     json:"created_at"`
	Status      string          `gorm:"not null;default:pending"     json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"total_amount"`
	Items       []OrderItem     `gorm:"constraint:OnDelete:CASCADE"  json:"items,omitempty"`
}

// OrderItem captures the product price at the moment of ordering and is never
// recomputed afterwards.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey"                   json:"id"`
	OrderID      uint            `gorm:"index;not null"               json:"order_id"`
	ProductID    uint            `gorm:"not null"                     json:"product_id"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"price_at_order"`
}

// Payment is one charge attempt against an Order. ExternalPaymentID is the join
// key to the processor's webhook events. Payments are never deleted: refund and
// cancel are terminal statuses.
type Payment struct {
	ID                uint            `gorm:"primaryKey"                   json:"id"`
	UserID            uint            `gorm:"index;not null"               json:"user_id"`
	OrderID           uint            `gorm:"index;not null"               json:"order_id"`
	CreatedAt         time.Time       `gorm:"not null"                     json:"created_at"`
	Status            string          `gorm:"not null;default:pending"     json:"status"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"amount"`
	ExternalPaymentID string          `gorm:"uniqueIndex;not null"         json:"external_payment_id"`
	PaymentMethod     string          `gorm:"not null"                     json:"payment_method"`
	Items             []PaymentItem   `gorm:"constraint:OnDelete:CASCADE"  json:"payment_items,omitempty"`
}

// PaymentItem records the price independently of OrderItem so a Payment stays a
// self-contained audit record. The sum over a Payment's items equals its Amount.
type PaymentItem struct {
	ID             uint            `gorm:"primaryKey"                   json:"id"`
	PaymentID      uint            `gorm:"index;not null"               json:"payment_id"`
	OrderItemID    uint            `gorm:"not null"                     json:"order_item_id"`
	PriceAtPayment decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"price_at_payment"`
}
