package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
)

// Service exposes the read side of the composition graph.
type Service interface {
	ListRoots(ctx context.Context) ([]ItemDTO, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]ChildDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the graph read service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListRoots(ctx context.Context) ([]ItemDTO, error) {
	items, err := s.repo.ListRoots(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list root items")
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, NewItemDTO(&items[i]))
	}
	return out, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	dto := NewItemDTO(item)
	return &dto, nil
}

// ListChildren does not check that parentID exists; an unknown parent simply
// has no children.
func (s *service) ListChildren(ctx context.Context, parentID uuid.UUID) ([]ChildDTO, error) {
	rows, err := s.repo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list children")
	}
	out := make([]ChildDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newChildDTO(row))
	}
	return out, nil
}
