package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
)

// Service performs multi-record catalog mutations as single transactions.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*catalog.ItemDTO, error)
	AddCompositionEdge(ctx context.Context, parentID, childID uuid.UUID, quantity *decimal.Decimal) (*catalog.EdgeDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*catalog.ItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteCompositionEdge(ctx context.Context, edgeID uuid.UUID) error
}

// CartCleaner drops cart lines that reference an item being deleted.
type CartCleaner interface {
	DeleteLinesForItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error)
}

// MediaReleaser removes media records inside the delete transaction and the
// stored files once it has committed.
type MediaReleaser interface {
	ReleaseAllForTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) ([]string, error)
	DeleteFiles(ctx context.Context, paths []string)
}

type service struct {
	tx    db.TxRunner
	repo  *catalog.Repository
	cart  CartCleaner
	media MediaReleaser
	logg  *logger.Logger
}

// NewService wires the lifecycle manager.
func NewService(tx db.TxRunner, repo *catalog.Repository, cart CartCleaner, media MediaReleaser, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart cleaner required")
	}
	if media == nil {
		return nil, fmt.Errorf("media releaser required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, cart: cart, media: media, logg: logg}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*catalog.ItemDTO, error) {
	item, err := input.toModel()
	if err != nil {
		return nil, err
	}
	quantity, err := createQuantity(input.Quantity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if input.ParentID != nil {
			if err := txRepo.LockGraph(ctx); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock composition graph")
			}
			exists, err := txRepo.ItemExists(ctx, *input.ParentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check parent item")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "parent item not found")
			}
		}

		if _, err := txRepo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
		}

		if input.ParentID != nil {
			edge := &models.CompositionEdge{
				ParentID: *input.ParentID,
				ChildID:  item.ID,
				Quantity: quantity,
			}
			if _, err := txRepo.CreateEdge(ctx, edge); err != nil {
				return mapEdgeWriteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"item_id": item.ID.String(), "code": item.Code})
	s.logg.Info(logCtx, "item.created")

	dto := catalog.NewItemDTO(item)
	return &dto, nil
}

func (s *service) AddCompositionEdge(ctx context.Context, parentID, childID uuid.UUID, quantity *decimal.Decimal) (*catalog.EdgeDTO, error) {
	qty, err := edgeQuantity(quantity)
	if err != nil {
		return nil, err
	}

	var (
		edge      *models.CompositionEdge
		duplicate bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.LockGraph(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock composition graph")
		}

		for _, id := range []uuid.UUID{parentID, childID} {
			exists, err := txRepo.ItemExists(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check item")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
					WithDetails(map[string]any{"item_id": id.String()})
			}
		}

		if parentID == childID {
			return pkgerrors.New(pkgerrors.CodeCycleDetected, "would create a cycle")
		}
		cyclic, err := txRepo.Reachable(ctx, childID, parentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check reachability")
		}
		if cyclic {
			return pkgerrors.New(pkgerrors.CodeCycleDetected, "would create a cycle").
				WithDetails(map[string]any{"parent_id": parentID.String(), "child_id": childID.String()})
		}

		duplicate, err = txRepo.EdgeExists(ctx, parentID, childID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing edge")
		}

		edge, err = txRepo.CreateEdge(ctx, &models.CompositionEdge{ParentID: parentID, ChildID: childID, Quantity: qty})
		if err != nil {
			return mapEdgeWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"edge_id":   edge.ID.String(),
		"parent_id": parentID.String(),
		"child_id":  childID.String(),
	})
	if duplicate {
		s.logg.Warn(logCtx, "composition_edge.duplicate")
	}
	s.logg.Info(logCtx, "composition_edge.created")

	dto := catalog.NewEdgeDTO(edge)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*catalog.ItemDTO, error) {
	var item *models.Item
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		item, err = txRepo.LockItem(ctx, id)
		if err != nil {
			if catalog.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
		}
		if err := applyUpdate(item, input); err != nil {
			return err
		}
		if _, err := txRepo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "item_id", id.String()), "item.updated")
	dto := catalog.NewItemDTO(item)
	return &dto, nil
}

// DeleteItem removes the item together with every edge, cart line and media
// record that references it. Stored files are removed only after commit.
func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	var (
		paths        []string
		edgesRemoved int64
		linesRemoved int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.LockItem(ctx, id); err != nil {
			if catalog.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
		}

		var err error
		if edgesRemoved, err = txRepo.DeleteEdgesTouching(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete composition edges")
		}
		if linesRemoved, err = s.cart.DeleteLinesForItemTx(ctx, tx, id); err != nil {
			return wrapCollaboratorError(err, "db: delete cart lines")
		}
		if paths, err = s.media.ReleaseAllForTx(ctx, tx, id); err != nil {
			return wrapCollaboratorError(err, "db: release media")
		}

		deleted, err := txRepo.DeleteItem(ctx, id)
		if err != nil {
			return mapItemDeleteError(err)
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_id":       id.String(),
		"edges_removed": edgesRemoved,
		"lines_removed": linesRemoved,
		"media_removed": len(paths),
	})
	s.logg.Info(logCtx, "item.deleted")

	if len(paths) > 0 {
		s.media.DeleteFiles(ctx, paths)
	}
	return nil
}

func (s *service) DeleteCompositionEdge(ctx context.Context, edgeID uuid.UUID) error {
	deleted, err := s.repo.DeleteEdge(ctx, edgeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete composition edge")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "composition edge not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "edge_id", edgeID.String()), "composition_edge.deleted")
	return nil
}

func mapEdgeWriteError(err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "referenced item no longer exists")
	case db.IsCheckViolation(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "composition edge violates constraints")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert composition edge")
	}
}

func mapItemDeleteError(err error) error {
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item is still referenced")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
}

// wrapCollaboratorError keeps typed errors from the cart and media packages
// intact and wraps anything else as a dependency failure.
func wrapCollaboratorError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
