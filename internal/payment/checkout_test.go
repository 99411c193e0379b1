package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"

	"github.com/iliyamo/spa-booking-deposits/internal/config"
	"github.com/iliyamo/spa-booking-deposits/internal/deposit"
)

type fakeSessions struct {
	got *stripe.CheckoutSessionParams
	err error
}

func (f *fakeSessions) New(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{URL: "https://checkout.example/s/1"}, nil
}

func TestCreateSessionBuildsSubscription(t *testing.T) {
	fake := &fakeSessions{}
	c := &Checkout{sessions: fake, cfg: config.CheckoutConfig{SuccessURL: "https://ok", CancelURL: "https://no", ProductName: "Membership"}}
	url, err := c.CreateSession(context.Background(), CheckoutRequest{
		Country: "id", Currency: "IDR", Interval: "Month", Amount: 99000, CustomerEmail: "a@b.c",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if url != "https://checkout.example/s/1" {
		t.Errorf("url = %s", url)
	}
	p := fake.got
	if *p.Mode != "subscription" || *p.CustomerEmail != "a@b.c" || p.Metadata["country"] != "ID" {
		t.Errorf("unexpected params %+v", p)
	}
	pd := p.LineItems[0].PriceData
	if *pd.Currency != "idr" || *pd.UnitAmount != 99000 || *pd.Recurring.Interval != "month" {
		t.Errorf("unexpected price data %+v", pd)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	c := &Checkout{sessions: &fakeSessions{}}
	tests := []struct {
		name string
		req  CheckoutRequest
	}{
		{"bad interval", CheckoutRequest{Currency: "usd", Interval: "week", Amount: 10}},
		{"bad currency", CheckoutRequest{Currency: "dollars", Interval: "year", Amount: 10}},
		{"zero amount", CheckoutRequest{Currency: "usd", Interval: "year"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateSession(context.Background(), tt.req)
			if deposit.KindOf(err) != deposit.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateSessionProviderFailureIsRetryable(t *testing.T) {
	c := &Checkout{sessions: &fakeSessions{err: errors.New("timeout")}}
	_, err := c.CreateSession(context.Background(), CheckoutRequest{Currency: "usd", Interval: "year", Amount: 10})
	if !deposit.IsRetryable(err) {
		t.Fatalf("expected retryable service error, got %v", err)
	}
	unconfigured := NewCheckout(config.CheckoutConfig{})
	_, err = unconfigured.CreateSession(context.Background(), CheckoutRequest{Currency: "usd", Interval: "year", Amount: 10})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
