package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine is one (item, quantity) entry of the shared cart. The unique
// item_id index backs merge-on-insert; the check caps merged totals.
type CartLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_lines_item_id"`
	Quantity  int       `gorm:"column:quantity;not null;check:chk_cart_lines_quantity,quantity > 0 AND quantity <= 1000000"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT"`
}

func (CartLine) TableName() string { return "cart_lines" }

func (c *CartLine) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
