// Package checkout talks to the hosted payment page provider.
package checkout

import (
	"context"
	"fmt"
	"math"

	"chefbazar/utils"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// StatusComplete is the session status once the customer has paid.
const StatusComplete = "complete"

type SessionRequest struct {
	FoodName      string
	Image         string
	UnitPrice     float64
	Quantity      int64
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID              string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// StripeProvider creates Stripe Checkout sessions in payment mode.
type StripeProvider struct {
	sessions session.Client
	currency string
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{
		sessions: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		currency: string(stripe.CurrencyUSD),
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(req.FoodName),
	}
	if req.Image != "" {
		product.Images = stripe.StringSlice([]string{req.Image})
	}

	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(toCents(req.UnitPrice)),
			},
			Quantity: stripe.Int64(req.Quantity),
		}},
		CustomerEmail: stripe.String(req.CustomerEmail),
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w: %v", utils.ErrUpstream, err)
	}
	return s.URL, nil
}

func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := p.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w: %v", utils.ErrUpstream, err)
	}

	out := &Session{
		ID:            s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
