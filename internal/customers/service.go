package customers

import (
	"context"
	"strings"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/pagination"
	"github.com/angelmondragon/hydrus-backend/pkg/stripe"
	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

// Service exposes admin customer operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Customer, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
}

// CreateInput holds the validated payload to create a customer.
type CreateInput struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// ListInput carries the admin listing filters.
type ListInput struct {
	Page   int
	Limit  int
	Search string
}

// ListResult is a page of customers with their subscriptions.
type ListResult struct {
	Customers  []models.Customer `json:"customers"`
	Pagination types.PageInfo    `json:"pagination"`
}

type customerCreator interface {
	CreateCustomer(ctx context.Context, in stripe.CustomerInput) (string, error)
}

// ServiceParams wires the customer service dependencies.
type ServiceParams struct {
	Repo    Repository
	Catalog customerCreator
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	catalog customerCreator
	logg    *logger.Logger
}

// NewService constructs the customer service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer repository required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe catalog required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog, logg: params.Logger}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Customer, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	metadata := types.Metadata(input.Metadata).Clone()

	stripeID, err := s.catalog.CreateCustomer(ctx, stripe.CustomerInput{Email: email, Name: name, Metadata: metadata})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}

	customer := &models.Customer{
		StripeCustomerID: stripeID,
		Email:            email,
		Name:             &name,
		Metadata:         metadata,
	}
	created, err := s.repo.CreateIfAbsent(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist customer")
	}
	if created {
		return customer, nil
	}

	// customer.created can land before the local insert; return the mirrored row.
	existing, err := s.repo.FindByStripeID(ctx, stripeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if existing == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "customer %s already exists", stripeID)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "stripe_customer_id", stripeID), "customer already mirrored from webhook")
	}
	return existing, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	page := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()
	rows, total, err := s.repo.List(ctx, ListQuery{Search: input.Search, Page: page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	if rows == nil {
		rows = []models.Customer{}
	}
	return &ListResult{Customers: rows, Pagination: page.Info(total)}, nil
}
