package transport

import "github.com/shopspring/decimal"

type CreateOrderItem struct {
	ProductID uint            `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

type CreatePaymentItem struct {
	OrderItemID    uint            `json:"order_item_id"`
	PriceAtPayment decimal.Decimal `json:"price_at_payment"`
}

type CreatePaymentRequest struct {
	OrderID           uint                `json:"order_id"`
	Amount            decimal.Decimal     `json:"amount"`
	PaymentMethod     string              `json:"payment_method"`
	ExternalPaymentID string              `json:"external_payment_id"`
	PaymentItems      []CreatePaymentItem `json:"payment_items"`
}
