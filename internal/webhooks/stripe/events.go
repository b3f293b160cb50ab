package stripewebhook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/hydrus-backend/internal/subscriptions"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
)

// Processor event types the synchronizer acts on.
const (
	TypeSubscriptionCreated     = string(stripe.EventTypeCustomerSubscriptionCreated)
	TypeSubscriptionUpdated     = string(stripe.EventTypeCustomerSubscriptionUpdated)
	TypeSubscriptionDeleted     = string(stripe.EventTypeCustomerSubscriptionDeleted)
	TypeInvoicePaymentSucceeded = string(stripe.EventTypeInvoicePaymentSucceeded)
	TypeInvoicePaymentFailed    = string(stripe.EventTypeInvoicePaymentFailed)
	TypeCustomerCreated         = string(stripe.EventTypeCustomerCreated)
)

// Envelope is the part every event shares. Payload is the verbatim request body
// stored in the audit log.
type Envelope struct {
	ID      string
	Type    string
	Payload []byte
}

// Meta returns the shared envelope.
func (e Envelope) Meta() Envelope { return e }

// Event is one decoded processor event. The concrete type selects the handler.
type Event interface {
	Meta() Envelope
}

type SubscriptionCreated struct {
	Envelope
	Subscription subscriptions.Snapshot
}

type SubscriptionUpdated struct {
	Envelope
	Subscription subscriptions.Snapshot
}

type SubscriptionDeleted struct {
	Envelope
	Subscription subscriptions.Snapshot
}

// InvoiceSnapshot holds the invoice fields the payment handlers use.
// StripeSubscriptionID is empty for one-off invoices.
type InvoiceSnapshot struct {
	StripeID             string
	StripeSubscriptionID string
	StripeCustomerID     string
	CustomerEmail        string
	AmountDue            int64
	Currency             string
	AttemptCount         int64
}

type InvoicePaymentSucceeded struct {
	Envelope
	Invoice InvoiceSnapshot
}

type InvoicePaymentFailed struct {
	Envelope
	Invoice InvoiceSnapshot
}

// CustomerSnapshot holds the customer fields mirrored locally.
type CustomerSnapshot struct {
	StripeID string
	Email    string
	Name     *string
	Metadata map[string]string
}

type CustomerCreated struct {
	Envelope
	Customer CustomerSnapshot
}

// UnknownEvent is any type the synchronizer does not act on; it is only audited.
type UnknownEvent struct {
	Envelope
}

// ParseEvent maps a verified event onto its variant, decoding only the fields
// the matching handler needs from data.object.
func ParseEvent(event *stripe.Event, payload []byte) (Event, error) {
	if event == nil || event.ID == "" || event.Type == "" {
		return nil, ErrMalformedPayload
	}
	env := Envelope{ID: event.ID, Type: string(event.Type), Payload: payload}

	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch env.Type {
	case TypeSubscriptionCreated, TypeSubscriptionUpdated, TypeSubscriptionDeleted:
		// deletion only needs the id, so a status outside the enum must not block it
		snap, err := decodeSubscription(raw, env.Type != TypeSubscriptionDeleted)
		if err != nil {
			return nil, err
		}
		switch env.Type {
		case TypeSubscriptionCreated:
			return SubscriptionCreated{Envelope: env, Subscription: snap}, nil
		case TypeSubscriptionUpdated:
			return SubscriptionUpdated{Envelope: env, Subscription: snap}, nil
		default:
			return SubscriptionDeleted{Envelope: env, Subscription: snap}, nil
		}
	case TypeInvoicePaymentSucceeded, TypeInvoicePaymentFailed:
		inv, err := decodeInvoice(raw)
		if err != nil {
			return nil, err
		}
		if env.Type == TypeInvoicePaymentSucceeded {
			return InvoicePaymentSucceeded{Envelope: env, Invoice: inv}, nil
		}
		return InvoicePaymentFailed{Envelope: env, Invoice: inv}, nil
	case TypeCustomerCreated:
		cust, err := decodeCustomer(raw)
		if err != nil {
			return nil, err
		}
		return CustomerCreated{Envelope: env, Customer: cust}, nil
	default:
		return UnknownEvent{Envelope: env}, nil
	}
}

// objectRef decodes a reference that is either an id string or an expanded
// object carrying "id".
type objectRef string

func (r *objectRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = objectRef(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = objectRef(obj.ID)
	return nil
}

type subscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           objectRef         `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart *int64            `json:"current_period_start"`
	CurrentPeriodEnd   *int64            `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              *struct {
		Data []struct {
			Price              objectRef `json:"price"`
			Quantity           *int64    `json:"quantity"`
			CurrentPeriodStart *int64    `json:"current_period_start"`
			CurrentPeriodEnd   *int64    `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func decodeSubscription(raw json.RawMessage, withStatus bool) (subscriptions.Snapshot, error) {
	var obj subscriptionObject
	if err := decodeObject(raw, &obj); err != nil {
		return subscriptions.Snapshot{}, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return subscriptions.Snapshot{}, pkgerrors.New(pkgerrors.CodeMalformedPayload, "subscription id missing")
	}

	snap := subscriptions.Snapshot{
		StripeID:         obj.ID,
		StripeCustomerID: string(obj.Customer),
		PeriodStart:      obj.CurrentPeriodStart,
		PeriodEnd:        obj.CurrentPeriodEnd,
		Metadata:         obj.Metadata,
	}
	if withStatus {
		status, err := subscriptions.ParseProcessorStatus(obj.Status)
		if err != nil {
			return subscriptions.Snapshot{}, err
		}
		snap.Status = status
	}
	if obj.Items != nil && len(obj.Items.Data) > 0 {
		item := obj.Items.Data[0]
		snap.StripePriceID = string(item.Price)
		snap.Quantity = item.Quantity
		// newer API versions moved the billing period onto the items
		if snap.PeriodStart == nil && snap.PeriodEnd == nil {
			snap.PeriodStart = item.CurrentPeriodStart
			snap.PeriodEnd = item.CurrentPeriodEnd
		}
	}
	return snap, nil
}

type invoiceObject struct {
	ID            string    `json:"id"`
	Subscription  objectRef `json:"subscription"`
	Customer      objectRef `json:"customer"`
	CustomerEmail string    `json:"customer_email"`
	AmountDue     int64     `json:"amount_due"`
	Currency      string    `json:"currency"`
	AttemptCount  int64     `json:"attempt_count"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription objectRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func decodeInvoice(raw json.RawMessage) (InvoiceSnapshot, error) {
	var obj invoiceObject
	if err := decodeObject(raw, &obj); err != nil {
		return InvoiceSnapshot{}, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return InvoiceSnapshot{}, pkgerrors.New(pkgerrors.CodeMalformedPayload, "invoice id missing")
	}
	subID := string(obj.Subscription)
	if subID == "" && obj.Parent != nil && obj.Parent.SubscriptionDetails != nil {
		subID = string(obj.Parent.SubscriptionDetails.Subscription)
	}
	return InvoiceSnapshot{
		StripeID:             obj.ID,
		StripeSubscriptionID: subID,
		StripeCustomerID:     string(obj.Customer),
		CustomerEmail:        obj.CustomerEmail,
		AmountDue:            obj.AmountDue,
		Currency:             obj.Currency,
		AttemptCount:         obj.AttemptCount,
	}, nil
}

type customerObject struct {
	ID       string            `json:"id"`
	Email    *string           `json:"email"`
	Name     *string           `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

func decodeCustomer(raw json.RawMessage) (CustomerSnapshot, error) {
	var obj customerObject
	if err := decodeObject(raw, &obj); err != nil {
		return CustomerSnapshot{}, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return CustomerSnapshot{}, pkgerrors.New(pkgerrors.CodeMalformedPayload, "customer id missing")
	}
	snap := CustomerSnapshot{StripeID: obj.ID, Name: obj.Name, Metadata: obj.Metadata}
	if obj.Email != nil {
		snap.Email = *obj.Email
	}
	return snap, nil
}

func decodeObject(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return pkgerrors.New(pkgerrors.CodeMalformedPayload, "event data.object missing")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMalformedPayload, err, "decode event data.object")
	}
	return nil
}
