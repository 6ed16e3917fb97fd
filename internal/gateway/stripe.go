package gateway

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements the service Gateway contract against the Stripe
// API. The charge intent is created by the client, so the server side only
// reads the intent back for its client secret and checks webhook signatures.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) ClientSecret(ctx context.Context, externalPaymentID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}
	intent, err := g.api.PaymentIntents.Get(externalPaymentID, params)
	if err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

func (g *StripeGateway) VerifySignature(payload []byte, header string) error {
	_, err := webhook.ConstructEventWithOptions(payload, header, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	return err
}
