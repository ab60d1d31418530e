package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/stockplace/stockplace-backend/internal/checkout"
	"github.com/stockplace/stockplace-backend/internal/events"
	"github.com/stockplace/stockplace-backend/internal/orders"
	"github.com/stockplace/stockplace-backend/internal/payouts"
	"github.com/stockplace/stockplace-backend/internal/rentals"
	"github.com/stockplace/stockplace-backend/internal/users"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Events  events.Service
	Rentals rentals.Service
	Orders  orders.Service
	Payouts payouts.Service
	Users   users.Service
	Logger  *logger.Logger
}

// Service receives signature-verified provider events, logs them durably,
// and applies their side effects. A dispatch failure never bubbles up to the
// HTTP layer; it is recorded on the event row for the replay sweep.
type Service struct {
	events  events.Service
	rentals rentals.Service
	orders  orders.Service
	payouts payouts.Service
	users   users.Service
	logg    *logger.Logger
}

// NewService builds the webhook service with the required dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Events == nil {
		return nil, fmt.Errorf("events service required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rentals service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		events:  params.Events,
		rentals: params.Rentals,
		orders:  params.Orders,
		payouts: params.Payouts,
		users:   params.Users,
		logg:    params.Logger,
	}, nil
}

// HandleEvent logs the event and applies its side effect. The returned error
// covers logging only: once the event row exists the caller must acknowledge
// the delivery, and any dispatch failure stays on the row for the sweep.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event with data required")
	}

	ectx := s.logg.WithEventID(ctx, event.ID)

	_, first, err := s.events.Record(ectx, events.RecordEventInput{
		EventID:    event.ID,
		EventType:  string(event.Type),
		Payload:    event.Data.Raw,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook event")
	}
	if !first {
		s.logg.Info(ectx, "duplicate delivery, re-dispatching against the ledger")
	}

	if err := s.dispatch(ectx, event); err != nil {
		s.logg.Error(ectx, "webhook side effect failed", err)
		if markErr := s.events.MarkFailed(ectx, event.ID, err); markErr != nil {
			s.logg.Error(ectx, "marking event failed", markErr)
		}
		return nil
	}

	if err := s.events.MarkProcessed(ectx, event.ID, time.Now().UTC()); err != nil {
		s.logg.Error(ectx, "marking event processed", err)
	}
	return nil
}

// Replay re-dispatches a stored event. Unlike HandleEvent it surfaces the
// dispatch error so the sweep can count the attempt.
func (s *Service) Replay(ctx context.Context, stored *models.WebhookEvent) error {
	if stored == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stored event required")
	}

	event := &stripe.Event{
		ID:   stored.EventID,
		Type: stripe.EventType(stored.EventType),
		Data: &stripe.EventData{Raw: stored.Payload},
	}

	if err := s.dispatch(ctx, event); err != nil {
		if markErr := s.events.MarkFailed(ctx, stored.EventID, err); markErr != nil {
			s.logg.Error(ctx, "marking replayed event failed", markErr)
		}
		return err
	}
	return s.events.MarkProcessed(ctx, stored.EventID, time.Now().UTC())
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	if event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
		}
		return s.applySession(ctx, &session)
	case stripe.EventTypePayoutCreated,
		stripe.EventTypePayoutPaid,
		stripe.EventTypePayoutFailed:
		var payout stripe.Payout
		if err := json.Unmarshal(event.Data.Raw, &payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payout")
		}
		return s.applyPayout(ctx, event, &payout)
	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account")
		}
		return s.applyAccount(ctx, &account)
	default:
		s.logg.Info(ctx, fmt.Sprintf("ignoring event type %s", event.Type))
		return nil
	}
}

// applySession routes a completed checkout session by its metadata. Sessions
// carrying a product ID settle an order; sessions carrying only a storage ID
// settle a rental; anything else is acknowledged without a side effect.
func (s *Service) applySession(ctx context.Context, session *stripe.CheckoutSession) error {
	meta := session.Metadata

	if _, ok := meta[checkout.MetaProductID]; ok {
		parsed, err := checkout.ParseOrderMetadata(meta)
		if err != nil {
			return err
		}
		return s.orders.FulfillSession(ctx, orders.FulfillSessionInput{
			SessionID:      session.ID,
			BuyerID:        parsed.BuyerID,
			SellerID:       parsed.SellerID,
			ProductID:      parsed.ProductID,
			StorageSpaceID: parsed.StorageSpaceID,
			Quantity:       parsed.Quantity,
			UnitPriceCents: parsed.UnitPriceCents,
			AmountCents:    parsed.TotalPriceCents,
			Currency:       sessionCurrency(session),
		})
	}

	if _, ok := meta[checkout.MetaStorageID]; ok {
		parsed, err := checkout.ParseRentalMetadata(meta)
		if err != nil {
			return err
		}
		return s.rentals.FulfillSession(ctx, rentals.FulfillSessionInput{
			SessionID:      session.ID,
			RenterID:       parsed.RenterID,
			StorageSpaceID: parsed.StorageSpaceID,
			SpaceAmount:    parsed.SpaceToRent,
			StartDate:      parsed.StartDate,
			EndDate:        parsed.EndDate,
			AmountCents:    parsed.TotalPriceCents,
			Currency:       sessionCurrency(session),
		})
	}

	s.logg.Info(ctx, fmt.Sprintf("session %s carries no marketplace metadata, ignoring", session.ID))
	return nil
}

func (s *Service) applyPayout(ctx context.Context, event *stripe.Event, payout *stripe.Payout) error {
	status := string(payout.Status)
	if status == "" {
		switch event.Type {
		case stripe.EventTypePayoutPaid:
			status = "paid"
		case stripe.EventTypePayoutFailed:
			status = "failed"
		default:
			status = "pending"
		}
	}

	var arrival *time.Time
	if payout.ArrivalDate > 0 {
		at := time.Unix(payout.ArrivalDate, 0).UTC()
		arrival = &at
	}
	var failure *string
	if payout.FailureMessage != "" {
		msg := payout.FailureMessage
		failure = &msg
	}

	return s.payouts.HandlePayoutEvent(ctx, payouts.PayoutEventInput{
		StripePayoutID:  payout.ID,
		StripeAccountID: event.Account,
		AmountCents:     payout.Amount,
		Currency:        string(payout.Currency),
		StripeStatus:    status,
		ArrivalDate:     arrival,
		FailureMessage:  failure,
	})
}

func (s *Service) applyAccount(ctx context.Context, account *stripe.Account) error {
	if !account.DetailsSubmitted || !account.ChargesEnabled || !account.PayoutsEnabled {
		return nil
	}
	matched, err := s.users.CompleteStripeOnboarding(ctx, account.ID)
	if err != nil {
		return err
	}
	if !matched {
		actx := s.logg.WithField(ctx, "stripe_account_id", account.ID)
		s.logg.Warn(actx, "onboarded account matches no user")
	}
	return nil
}

func sessionCurrency(session *stripe.CheckoutSession) string {
	if session.Currency != "" {
		return string(session.Currency)
	}
	return "eur"
}
