package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
)

// LineRow is a cart line joined with the item it references.
type LineRow struct {
	ID        uuid.UUID `gorm:"column:id"`
	ItemID    uuid.UUID `gorm:"column:item_id"`
	ItemCode  string    `gorm:"column:item_code"`
	ItemName  string    `gorm:"column:item_name"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// Repository exposes persistence operations for cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// UpsertLine inserts a line or adds quantity to the existing line for the same
// item in one statement, then returns the stored row.
func (r *Repository) UpsertLine(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartLine, error) {
	line := &models.CartLine{ItemID: itemID, Quantity: quantity}
	err := r.db.WithContext(ctx).
		Omit("Item").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(line).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartLine
	if err := r.db.WithContext(ctx).First(&stored, "item_id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListLines returns every line in insertion order.
func (r *Repository) ListLines(ctx context.Context) ([]LineRow, error) {
	rows := make([]LineRow, 0)
	err := r.db.WithContext(ctx).
		Table("cart_lines AS c").
		Select("c.id, c.item_id, i.code AS item_code, i.name AS item_name, c.quantity, c.created_at, c.updated_at").
		Joins("JOIN items i ON i.id = c.item_id").
		Order("c.created_at ASC").
		Order("c.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteLine removes a line and reports how many rows were affected.
func (r *Repository) DeleteLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", lineID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteAll empties the cart.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

// DeleteForItem removes the line referencing itemID, if any.
func (r *Repository) DeleteForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}
