package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
)

// MediaReference ties one stored file to one item. SizeBytes counts against
// the global storage quota.
type MediaReference struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	Kind        enums.MediaKind `gorm:"column:kind;type:varchar(16);not null"`
	StoredPath  string          `gorm:"column:stored_path;not null;uniqueIndex"`
	FileName    string          `gorm:"column:file_name;not null"`
	ContentType string          `gorm:"column:content_type;not null"`
	SizeBytes   int64           `gorm:"column:size_bytes;not null;check:chk_media_references_size,size_bytes >= 0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`

	Item *Item `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT"`
}

func (MediaReference) TableName() string { return "media_references" }

func (m *MediaReference) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
