package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
)

func mustCreateItem(t *testing.T, conn *gorm.DB, code string, kind enums.ItemKind) *models.Item {
	t.Helper()
	item := &models.Item{Code: code, Name: code + " name", Kind: kind}
	if err := conn.WithContext(context.Background()).Create(item).Error; err != nil {
		t.Fatalf("create item %s: %v", code, err)
	}
	return item
}

func mustLink(t *testing.T, conn *gorm.DB, parentID, childID uuid.UUID, qty int64) *models.CompositionEdge {
	t.Helper()
	edge := &models.CompositionEdge{ParentID: parentID, ChildID: childID, Quantity: decimal.NewFromInt(qty)}
	if err := conn.Omit("Parent", "Child").Create(edge).Error; err != nil {
		t.Fatalf("link %s -> %s: %v", parentID, childID, err)
	}
	return edge
}
