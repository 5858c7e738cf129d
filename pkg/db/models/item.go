package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
)

// Item is a catalog node. Root-ness is never stored; it is derived from the
// absence of incoming composition edges.
type Item struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Code      string         `gorm:"column:code;not null;index"`
	Name      string         `gorm:"column:name;not null"`
	Kind      enums.ItemKind `gorm:"column:kind;type:varchar(16);not null"`
	Mass      *float64       `gorm:"column:mass;check:chk_items_mass,mass IS NULL OR mass >= 0"`
	Length    *float64       `gorm:"column:length;check:chk_items_length,length IS NULL OR length >= 0"`
	Width     *float64       `gorm:"column:width;check:chk_items_width,width IS NULL OR width >= 0"`
	Height    *float64       `gorm:"column:height;check:chk_items_height,height IS NULL OR height >= 0"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string { return "items" }

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
