package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
)

// ItemDTO is the public representation of a catalog item.
type ItemDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Mass      *float64  `json:"mass"`
	Length    *float64  `json:"length"`
	Width     *float64  `json:"width"`
	Height    *float64  `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChildDTO is one composition edge with the child item inlined.
type ChildDTO struct {
	EdgeID   uuid.UUID       `json:"edge_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Item     ItemDTO         `json:"item"`
}

// EdgeDTO describes a stored composition edge.
type EdgeDTO struct {
	ID        uuid.UUID       `json:"id"`
	ParentID  uuid.UUID       `json:"parent_id"`
	ChildID   uuid.UUID       `json:"child_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewItemDTO maps a model to its DTO.
func NewItemDTO(item *models.Item) ItemDTO {
	return ItemDTO{
		ID:        item.ID,
		Code:      item.Code,
		Name:      item.Name,
		Kind:      item.Kind.String(),
		Mass:      item.Mass,
		Length:    item.Length,
		Width:     item.Width,
		Height:    item.Height,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// NewEdgeDTO maps a model to its DTO.
func NewEdgeDTO(edge *models.CompositionEdge) EdgeDTO {
	return EdgeDTO{
		ID:        edge.ID,
		ParentID:  edge.ParentID,
		ChildID:   edge.ChildID,
		Quantity:  edge.Quantity,
		CreatedAt: edge.CreatedAt,
	}
}

func newChildDTO(row ChildRow) ChildDTO {
	return ChildDTO{
		EdgeID:   row.EdgeID,
		Quantity: row.Quantity,
		Item: ItemDTO{
			ID:        row.ItemID,
			Code:      row.Code,
			Name:      row.Name,
			Kind:      row.Kind.String(),
			Mass:      row.Mass,
			Length:    row.Length,
			Width:     row.Width,
			Height:    row.Height,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
	}
}
