package stripewebhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/internal/catalog"
	"github.com/angelmondragon/hydrus-backend/internal/customers"
	"github.com/angelmondragon/hydrus-backend/internal/dunning"
	"github.com/angelmondragon/hydrus-backend/internal/subscriptions"
	"github.com/angelmondragon/hydrus-backend/internal/webhooklog"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// Outcome reports how a verified event was handled.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dunningNotifier interface {
	PaymentFailed(ctx context.Context, tx *gorm.DB, notice dunning.Notice) error
}

type ServiceParams struct {
	TransactionRunner txRunner
	WebhookLogs       webhooklog.Repository
	Customers         customers.Repository
	Catalog           catalog.Repository
	Subscriptions     subscriptions.Repository
	Dunning           dunningNotifier
	Logger            *logger.Logger
	Metrics           *metrics.WebhookMetrics
	Clock             func() time.Time
}

// Service applies verified processor events to local state. Each event is
// handled in one transaction that also records it in the webhook log, so an
// event is applied at most once.
type Service struct {
	txRunner      txRunner
	logs          webhooklog.Repository
	customers     customers.Repository
	catalog       catalog.Repository
	subscriptions subscriptions.Repository
	dunning       dunningNotifier
	logg          *logger.Logger
	metrics       *metrics.WebhookMetrics
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.WebhookLogs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook log repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer repo required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repo required")
	}
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.Dunning == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dunning notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		txRunner:      params.TransactionRunner,
		logs:          params.WebhookLogs,
		customers:     params.Customers,
		catalog:       params.Catalog,
		subscriptions: params.Subscriptions,
		dunning:       params.Dunning,
		logg:          logg,
		metrics:       params.Metrics,
		now:           now,
	}, nil
}

// Process records the event and applies it. A redelivered event returns
// OutcomeDuplicate without touching any record. Storage failures roll back
// the whole event, audit row included, so the processor's retry starts clean.
func (s *Service) Process(ctx context.Context, event Event) (Outcome, error) {
	if event == nil {
		return "", ErrMalformedPayload
	}
	meta := event.Meta()
	ctx = s.logg.WithEvent(ctx, meta.ID, meta.Type)

	outcome := OutcomeProcessed
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		logs := s.logs.WithTx(tx)
		inserted, err := logs.InsertIfAbsent(ctx, &models.WebhookLog{
			EventID:   meta.ID,
			EventType: meta.Type,
			Payload:   types.RawJSON(meta.Payload),
		})
		if err != nil {
			return fmt.Errorf("insert webhook log: %w", err)
		}
		if !inserted {
			outcome = OutcomeDuplicate
			return nil
		}
		if err := s.apply(ctx, tx, event); err != nil {
			return err
		}
		if err := logs.MarkProcessed(ctx, meta.ID); err != nil {
			return fmt.Errorf("mark webhook processed: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist webhook event")
	}

	if outcome == OutcomeDuplicate {
		s.logg.Info(ctx, "duplicate webhook event ignored")
	}
	return outcome, nil
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, event Event) error {
	switch e := event.(type) {
	case SubscriptionCreated:
		return s.subscriptionCreated(ctx, tx, e)
	case SubscriptionUpdated:
		return s.subscriptionUpdated(ctx, tx, e)
	case SubscriptionDeleted:
		return s.subscriptionDeleted(ctx, tx, e)
	case InvoicePaymentSucceeded:
		return s.invoicePaid(ctx, tx, e)
	case InvoicePaymentFailed:
		return s.invoiceFailed(ctx, tx, e)
	case CustomerCreated:
		return s.customerCreated(ctx, tx, e)
	default:
		s.logg.Debug(ctx, "unhandled webhook event type")
		return nil
	}
}

func (s *Service) subscriptionCreated(ctx context.Context, tx *gorm.DB, e SubscriptionCreated) error {
	snap := e.Subscription
	customer, err := s.customers.WithTx(tx).FindByStripeID(ctx, snap.StripeCustomerID)
	if err != nil {
		return fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		s.missingReference(ctx, e.Envelope, "customer", snap.StripeCustomerID)
		return nil
	}
	price, err := s.catalog.WithTx(tx).FindPriceByStripeID(ctx, snap.StripePriceID)
	if err != nil {
		return fmt.Errorf("load price: %w", err)
	}
	if price == nil {
		s.missingReference(ctx, e.Envelope, "price", snap.StripePriceID)
		return nil
	}

	sub := subscriptions.BuildFromSnapshot(snap, subscriptions.References{
		CustomerID: customer.ID,
		ProductID:  price.ProductID,
		PriceID:    price.ID,
	})
	created, err := s.subscriptions.WithTx(tx).CreateIfAbsent(ctx, sub)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	if !created {
		s.logg.Info(s.logg.WithField(ctx, "stripe_subscription_id", snap.StripeID), "subscription already mirrored")
	}
	return nil
}

func (s *Service) subscriptionUpdated(ctx context.Context, tx *gorm.DB, e SubscriptionUpdated) error {
	snap := e.Subscription
	return s.updateSubscription(ctx, tx, e.Envelope, snap.StripeID, subscriptions.SnapshotChanges(snap))
}

func (s *Service) subscriptionDeleted(ctx context.Context, tx *gorm.DB, e SubscriptionDeleted) error {
	return s.updateSubscription(ctx, tx, e.Envelope, e.Subscription.StripeID, map[string]any{
		"status":      enums.SubscriptionStatusCanceled,
		"canceled_at": s.now(),
	})
}

func (s *Service) invoicePaid(ctx context.Context, tx *gorm.DB, e InvoicePaymentSucceeded) error {
	if e.Invoice.StripeSubscriptionID == "" {
		s.logg.Debug(ctx, "invoice has no subscription")
		return nil
	}
	return s.updateSubscription(ctx, tx, e.Envelope, e.Invoice.StripeSubscriptionID, map[string]any{
		"status": enums.SubscriptionStatusActive,
	})
}

func (s *Service) invoiceFailed(ctx context.Context, tx *gorm.DB, e InvoicePaymentFailed) error {
	inv := e.Invoice
	if inv.StripeSubscriptionID == "" {
		s.logg.Debug(ctx, "invoice has no subscription")
		return nil
	}
	subs := s.subscriptions.WithTx(tx)
	sub, err := subs.FindByStripeID(ctx, inv.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	var localID uuid.UUID
	if sub == nil {
		// the notice still goes out; the status change waits for the mirror
		s.missingReference(ctx, e.Envelope, "subscription", inv.StripeSubscriptionID)
	} else {
		localID = sub.ID
		if _, err := subs.UpdateByStripeID(ctx, inv.StripeSubscriptionID, map[string]any{
			"status": enums.SubscriptionStatusPastDue,
		}); err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
	}

	if err := s.dunning.PaymentFailed(ctx, tx, dunning.Notice{
		SubscriptionID:       localID,
		StripeSubscriptionID: inv.StripeSubscriptionID,
		StripeInvoiceID:      inv.StripeID,
		StripeCustomerID:     inv.StripeCustomerID,
		CustomerEmail:        inv.CustomerEmail,
		AmountDueMinor:       inv.AmountDue,
		Currency:             inv.Currency,
		AttemptCount:         inv.AttemptCount,
		SourceEventID:        e.ID,
		SourceEventType:      e.Type,
	}); err != nil {
		return fmt.Errorf("enqueue dunning notice: %w", err)
	}
	return nil
}

func (s *Service) customerCreated(ctx context.Context, tx *gorm.DB, e CustomerCreated) error {
	c := e.Customer
	created, err := s.customers.WithTx(tx).CreateIfAbsent(ctx, &models.Customer{
		StripeCustomerID: c.StripeID,
		Email:            c.Email,
		Name:             c.Name,
		Metadata:         types.Metadata(c.Metadata).Clone(),
	})
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	if !created {
		s.logg.Debug(ctx, "customer already mirrored")
	}
	return nil
}

func (s *Service) updateSubscription(ctx context.Context, tx *gorm.DB, env Envelope, stripeSubscriptionID string, changes map[string]any) error {
	found, err := s.subscriptions.WithTx(tx).UpdateByStripeID(ctx, stripeSubscriptionID, changes)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if !found {
		s.missingReference(ctx, env, "subscription", stripeSubscriptionID)
	}
	return nil
}

func (s *Service) missingReference(ctx context.Context, env Envelope, kind, externalID string) {
	s.metrics.IncMissingReference(env.Type)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"missing":     kind,
		"external_id": externalID,
	})
	s.logg.Warn(logCtx, "webhook references unknown local record, skipping")
}
