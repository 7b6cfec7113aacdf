package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// CreditPackage is a purchasable bundle of credits. The amount the webhook
// later credits comes from the stored PaymentOrder, not from this table and
// not from event metadata.
type CreditPackage struct {
	Name        string `json:"name"`
	Credits     int64  `json:"credits"`
	AmountCents int64  `json:"amount_cents"`
}

var DefaultCreditPackages = map[string]CreditPackage{
	"starter":  {Name: "starter", Credits: 500, AmountCents: 1900},
	"standard": {Name: "standard", Credits: 1500, AmountCents: 4900},
	"agency":   {Name: "agency", Credits: 5000, AmountCents: 12900},
}

type StripeService struct {
	publicKey     string
	secretKey     string
	webhookSecret string
}

func NewStripeService(publicKey, secretKey, webhookSecret string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		publicKey:     publicKey,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
}

func (s *StripeService) CreateCheckoutSession(userID string, pkg CreditPackage) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%d AI credits (%s)", pkg.Credits, pkg.Name)),
					},
					UnitAmount: stripe.Int64(pkg.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String("https://casahub.app/credits/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String("https://casahub.app/credits/cancel"),
		ClientReferenceID: stripe.String(userID),
		Metadata: map[string]string{
			"credits": fmt.Sprintf("%d", pkg.Credits),
			"package": pkg.Name,
		},
	}

	return session.New(params)
}

func (s *StripeService) HandleWebhook(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
}
