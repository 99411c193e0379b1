// Package payment creates hosted checkout sessions for provider
// memberships.  Deposits themselves are paid off-platform and proven by
// upload; this package only covers the recurring membership plan.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
)

// CheckoutRequest describes the membership plan to charge.
type CheckoutRequest struct {
	Country       string
	Currency      string
	Interval      string // month | year
	Amount        int64  // smallest currency unit
	CustomerEmail string
}

// ErrNotConfigured is returned when no provider key is set.
var ErrNotConfigured = errors.New("checkout provider not configured")

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Checkout wraps the Stripe checkout session API.
type Checkout struct {
	sessions sessionCreator
	cfg      config.CheckoutConfig
}

// NewCheckout returns a Checkout backed by Stripe.  Without a secret key
// every CreateSession call fails with ErrNotConfigured.
func NewCheckout(cfg config.CheckoutConfig) *Checkout {
	c := &Checkout{cfg: cfg}
	if cfg.StripeSecretKey != "" {
		sc := &client.API{}
		sc.Init(cfg.StripeSecretKey, nil)
		c.sessions = sc.CheckoutSessions
	}
	return c
}

// Validate normalises req in place.
func (req *CheckoutRequest) Validate() error {
	req.Interval = strings.ToLower(strings.TrimSpace(req.Interval))
	req.Currency = strings.ToLower(strings.TrimSpace(req.Currency))
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	if req.Interval != "month" && req.Interval != "year" {
		return deposit.Validation("interval must be month or year", nil)
	}
	if len(req.Currency) != 3 {
		return deposit.Validation("currency must be a 3-letter ISO code", nil)
	}
	if req.Amount <= 0 {
		return deposit.Validation("amount must be positive", nil)
	}
	return nil
}

// CreateSession opens a subscription checkout and returns its hosted URL.
func (c *Checkout) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if c.sessions == nil {
		return "", deposit.Service("create checkout session", ErrNotConfigured)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(c.cfg.ProductName),
				},
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String(req.Interval),
				},
			},
		}},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.Country != "" {
		params.AddMetadata("country", req.Country)
	}
	params.Context = ctx
	sess, err := c.sessions.New(params)
	if err != nil {
		return "", deposit.Service("create checkout session", err)
	}
	return sess.URL, nil
}
