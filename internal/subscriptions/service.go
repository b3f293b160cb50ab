package subscriptions

import (
	"context"
	"strings"

	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
)

// Service exposes the read-only subscription mirror to the admin surface.
// All writes come from processor webhooks.
type Service interface {
	List(ctx context.Context, input ListInput) ([]models.Subscription, error)
}

// ListInput filters the admin listing. Status accepts either case.
type ListInput struct {
	Status string
	Limit  int
}

type service struct {
	repo Repository
}

// NewService builds the subscription listing service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]models.Subscription, error) {
	query := ListQuery{Limit: input.Limit}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, err := ParseProcessorStatus(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
				WithDetails(map[string]any{"status": raw})
		}
		query.Status = &status
	}
	subs, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return subs, nil
}
