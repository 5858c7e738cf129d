package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompositionEdge records that Parent contains Quantity units of Child.
type CompositionEdge struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ParentID  uuid.UUID       `gorm:"column:parent_id;type:uuid;not null;index;check:chk_composition_edges_no_self_loop,parent_id <> child_id"`
	ChildID   uuid.UUID       `gorm:"column:child_id;type:uuid;not null;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,4);not null;check:chk_composition_edges_quantity,quantity > 0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`

	Parent *Item `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
	Child  *Item `gorm:"foreignKey:ChildID;constraint:OnDelete:RESTRICT"`
}

func (CompositionEdge) TableName() string { return "composition_edges" }

func (e *CompositionEdge) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
