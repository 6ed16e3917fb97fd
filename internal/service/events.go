package service

import (
	"encoding/json"
	"fmt"
)

type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventPaymentSucceeded
	EventPaymentCanceled
	EventChargeRefunded
)

// Event is the closed variant a webhook body is resolved into exactly once at
// ingestion. For charge.refunded the processor references the originating
// intent instead of the charge, so ExternalPaymentID always carries the intent
// id regardless of the incoming shape.
type Event struct {
	Kind              EventKind
	ExternalPaymentID string
}

func ParseEvent(body []byte) (Event, error) {
	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentIntent string `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: malformed event body", ErrValidation)
	}

	switch raw.Type {
	case "payment_intent.succeeded":
		return Event{Kind: EventPaymentSucceeded, ExternalPaymentID: raw.Data.Object.ID}, nil
	case "payment_intent.canceled":
		return Event{Kind: EventPaymentCanceled, ExternalPaymentID: raw.Data.Object.ID}, nil
	case "charge.refunded":
		return Event{Kind: EventChargeRefunded, ExternalPaymentID: raw.Data.Object.PaymentIntent}, nil
	default:
		return Event{Kind: EventUnrecognized}, nil
	}
}
