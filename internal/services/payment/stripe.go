// Package payment wraps Stripe PaymentIntents for the checkout handoff.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.uber.org/zap"
)

const EventSucceeded = "payment_intent.succeeded"

var (
	ErrInvalidAmount    = errors.New("payment: amount must be positive")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrInvalidEvent     = errors.New("payment: malformed webhook event")
	ErrIntentNotFound   = errors.New("payment: intent not found")
)

// Intent is the part of a Stripe PaymentIntent the storefront uses.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (i *Intent) SessionID() string { return i.Metadata["session_id"] }

type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent
}

type Gateway interface {
	CreateIntent(ctx context.Context, sessionID string, p models.CheckoutPayload) (*Intent, error)
	Intent(ctx context.Context, id string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Stripe talks to the Stripe API through the package-level stripe.Key.
type Stripe struct {
	currency      string
	webhookSecret string
	log           *zap.Logger
}

// NewStripe requires stripe.Key to be set by the caller. An empty webhook
// secret accepts unsigned events, which is only meant for local testing.
func NewStripe(currency, webhookSecret string, log *zap.Logger) *Stripe {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == "" {
		currency = string(stripe.CurrencyBRL)
	}
	return &Stripe{currency: currency, webhookSecret: webhookSecret, log: log}
}

// ToCents converts a 2-decimal amount to the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func intentParams(currency, sessionID string, p models.CheckoutPayload) (*stripe.PaymentIntentParams, error) {
	cents := ToCents(p.Amount)
	if cents <= 0 {
		return nil, ErrInvalidAmount
	}

	meta := map[string]string{
		"session_id":  sessionID,
		"user_id":     p.UserID,
		"total_price": p.TotalPrice,
		"items":       strconv.Itoa(len(p.Items)),
	}
	if p.Freight != nil {
		meta["freight"] = p.Freight.Name
	}

	return &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: meta,
	}, nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

func (s *Stripe) CreateIntent(_ context.Context, sessionID string, p models.CheckoutPayload) (*Intent, error) {
	params, err := intentParams(s.currency, sessionID, p)
	if err != nil {
		return nil, err
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	s.log.Info("payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("session_id", sessionID),
		zap.String("total_price", p.TotalPrice))

	return fromStripe(pi), nil
}

func (s *Stripe) Intent(_ context.Context, id string) (*Intent, error) {
	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.HTTPStatusCode == 404 {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	intent := fromStripe(pi)
	intent.ClientSecret = ""
	return intent, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	var event stripe.Event
	if s.webhookSecret == "" {
		s.log.Warn("STRIPE_WEBHOOK_SECRET not set, accepting unsigned event")
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
	} else {
		ev, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		event = ev
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if pi.ID != "" {
		out.Intent = fromStripe(&pi)
	}
	return out, nil
}
