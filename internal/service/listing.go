package service

import (
	"context"
	"log/slog"

	"strata/internal/access"
	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
	"strata/internal/domain/services"
)

// ListingService implements services.ListingService
type ListingService struct {
	nodes     repositories.NodeRepository
	evaluator *access.Evaluator
	logger    *slog.Logger
}

// NewListingService creates a new listing service
func NewListingService(
	nodes repositories.NodeRepository,
	evaluator *access.Evaluator,
	logger *slog.Logger,
) services.ListingService {
	return &ListingService{
		nodes:     nodes,
		evaluator: evaluator,
		logger:    logger,
	}
}

// List returns one page of direct children of a folder, or of a global
// name search when req.Search is set. The count runs under the identical
// predicate as the page, so total and items always agree.
func (s *ListingService) List(ctx context.Context, principal *models.Principal, req *services.ListNodesRequest) (*models.NodePage, error) {
	q := models.ListQuery{
		ParentID: req.ParentID,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	q.ApplyDefaults()
	if err := q.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	filter := s.evaluator.Filter(principal)

	total, err := s.nodes.CountMatching(ctx, filter, q)
	if err != nil {
		return nil, err
	}

	items, err := s.nodes.ListPage(ctx, filter, q)
	if err != nil {
		return nil, err
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize

	return &models.NodePage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		TotalPages: totalPages,
	}, nil
}
