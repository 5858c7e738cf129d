package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
)

// ChildRow is a composition edge joined with the child item it points at.
type ChildRow struct {
	EdgeID    uuid.UUID       `gorm:"column:edge_id"`
	Quantity  decimal.Decimal `gorm:"column:quantity"`
	ItemID    uuid.UUID       `gorm:"column:item_id"`
	Code      string          `gorm:"column:code"`
	Name      string          `gorm:"column:name"`
	Kind      enums.ItemKind  `gorm:"column:kind"`
	Mass      *float64        `gorm:"column:mass"`
	Length    *float64        `gorm:"column:length"`
	Width     *float64        `gorm:"column:width"`
	Height    *float64        `gorm:"column:height"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

const childrenQuery = `
SELECT e.id AS edge_id,
       e.quantity,
       i.id AS item_id,
       i.code,
       i.name,
       i.kind,
       i.mass,
       i.length,
       i.width,
       i.height,
       i.created_at,
       i.updated_at
FROM composition_edges e
JOIN items i ON i.id = e.child_id
WHERE e.parent_id = ?
ORDER BY i.code ASC, e.id ASC
`

// reachableQuery counts `to` among the descendants of `from`. UNION (not
// UNION ALL) keeps the walk finite on diamond-shaped graphs.
const reachableQuery = `
WITH RECURSIVE descendants(id) AS (
  SELECT child_id FROM composition_edges WHERE parent_id = ?
  UNION
  SELECT e.child_id FROM composition_edges e JOIN descendants d ON e.parent_id = d.id
)
SELECT COUNT(*) FROM descendants WHERE id = ?
`

// graphLockKey serialises composition writes on postgres so two concurrent
// edge inserts cannot each pass the cycle check and close a loop together.
const graphLockKey int64 = 0x426f4d47726170

// Repository owns persistence for items and composition edges.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindItem loads a single item. gorm.ErrRecordNotFound is returned unchanged.
func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockItem loads the item with a row lock on dialects that support one.
func (r *Repository) LockItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Set("gorm:query_option", "FOR UPDATE")
	}
	var item models.Item
	if err := q.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemExists reports whether an item with id is present.
func (r *Repository) ItemExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRoots returns every item that is not the child of any edge.
func (r *Repository) ListRoots(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM composition_edges e WHERE e.child_id = items.id)").
		Order("code ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListChildren returns the direct children of parentID with edge quantities.
func (r *Repository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]ChildRow, error) {
	rows := make([]ChildRow, 0)
	if err := r.db.WithContext(ctx).Raw(childrenQuery, parentID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Reachable reports whether `to` is a descendant of `from`.
func (r *Repository) Reachable(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(reachableQuery, from, to).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockGraph takes a transaction-scoped advisory lock on postgres. SQLite runs
// on a single connection so writers are already serialised there.
func (r *Repository) LockGraph(ctx context.Context) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", graphLockKey).Error
}

// CreateItem inserts an item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// SaveItem writes every column of an existing item.
func (r *Repository) SaveItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes the item row and reports whether one existed.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Item{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateEdge inserts a composition edge.
func (r *Repository) CreateEdge(ctx context.Context, edge *models.CompositionEdge) (*models.CompositionEdge, error) {
	if err := r.db.WithContext(ctx).Omit("Parent", "Child").Create(edge).Error; err != nil {
		return nil, err
	}
	return edge, nil
}

// EdgeExists reports whether at least one edge already links parent to child.
func (r *Repository) EdgeExists(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CompositionEdge{}).
		Where("parent_id = ? AND child_id = ?", parentID, childID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEdge loads a single edge.
func (r *Repository) FindEdge(ctx context.Context, id uuid.UUID) (*models.CompositionEdge, error) {
	var edge models.CompositionEdge
	if err := r.db.WithContext(ctx).First(&edge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteEdge removes one edge and reports whether it existed.
func (r *Repository) DeleteEdge(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CompositionEdge{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteEdgesTouching removes every edge where the item is parent or child.
func (r *Repository) DeleteEdgesTouching(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("parent_id = ? OR child_id = ?", itemID, itemID).
		Delete(&models.CompositionEdge{})
	return res.RowsAffected, res.Error
}

// IsNotFound reports whether err is gorm's missing-row sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
