package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"strata/internal/domain"
	"strata/internal/domain/models"
	"strata/internal/domain/repositories"
	"strata/internal/domain/services"
)

// GroupService implements services.GroupService
type GroupService struct {
	groups     repositories.GroupRepository
	principals repositories.PrincipalRepository
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewGroupService creates a new group service
func NewGroupService(
	groups repositories.GroupRepository,
	principals repositories.PrincipalRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.GroupService {
	return &GroupService{
		groups:     groups,
		principals: principals,
		txManager:  txManager,
		logger:     logger,
	}
}

// ListChildren lists immediate child groups (nil = top level)
func (s *GroupService) ListChildren(ctx context.Context, parentID *string) ([]models.Group, error) {
	return s.groups.ListChildren(ctx, parentID)
}

// Create creates a group; admin only
func (s *GroupService) Create(ctx context.Context, principal *models.Principal, req *services.CreateGroupRequest) (*models.Group, error) {
	if !principal.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "admin access required"}
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
	); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if req.ParentID != nil {
		if _, err := s.groups.GetByID(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	group := &models.Group{
		Name:     req.Name,
		ParentID: req.ParentID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("group created", "group_id", group.ID, "actor_id", principal.ID)
	return group, nil
}

// Update renames and/or moves a group; admin only. Moves get the same
// cycle guard as node moves.
func (s *GroupService) Update(ctx context.Context, principal *models.Principal, id string, req *services.UpdateGroupRequest) (*models.Group, error) {
	if !principal.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "admin access required"}
	}

	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := validation.Validate(*req.Name,
			validation.Required, validation.Length(1, 100),
		); err != nil {
			return nil, &domain.ValidationError{Message: "name: " + err.Error()}
		}
		group.Name = *req.Name
	}

	if req.ParentID.Present {
		if req.ParentID.Value == nil {
			group.ParentID = nil
		} else {
			target := *req.ParentID.Value
			if err := s.validateNoCycle(ctx, group.ID, target); err != nil {
				return nil, err
			}
			if _, err := s.groups.GetByID(ctx, target); err != nil {
				return nil, err
			}
			group.ParentID = &target
		}
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("group updated", "group_id", group.ID, "actor_id", principal.ID)
	return group, nil
}

// validateNoCycle rejects a move that would make the group its own ancestor
func (s *GroupService) validateNoCycle(ctx context.Context, groupID, targetParentID string) error {
	if groupID == targetParentID {
		return &domain.CycleError{NodeID: groupID, ParentID: targetParentID}
	}

	total, err := s.groups.CountAll(ctx)
	if err != nil {
		return err
	}
	maxDepth := total + 1

	chain, err := s.groups.AncestorChain(ctx, targetParentID, maxDepth)
	if err != nil {
		return err
	}
	if slices.Contains(chain, groupID) || len(chain) >= maxDepth {
		return &domain.CycleError{NodeID: groupID, ParentID: targetParentID}
	}

	return nil
}

// Delete removes a group; admin only. Members are unlinked first so no
// principal is left pointing at a missing group; child groups go with the
// parent.
func (s *GroupService) Delete(ctx context.Context, principal *models.Principal, id string) error {
	if !principal.IsAdmin() {
		return &domain.ForbiddenError{Message: "admin access required"}
	}

	if _, err := s.groups.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.principals.ClearGroup(txCtx, id); err != nil {
			return err
		}
		return s.groups.Delete(txCtx, id)
	})
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	s.logger.Info("group deleted", "group_id", id, "actor_id", principal.ID)
	return nil
}
