package lifecycle

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/types"
)

// CreateItemInput carries a new item and, optionally, the parent it is
// created under.
type CreateItemInput struct {
	Code     string
	Name     string
	Kind     string
	Mass     *float64
	Length   *float64
	Width    *float64
	Height   *float64
	ParentID *uuid.UUID
	Quantity *decimal.Decimal
}

// UpdateItemInput is a partial update. Nil pointers leave the field alone;
// a NullableFloat with Valid set and a nil Value clears the property.
type UpdateItemInput struct {
	Code   *string
	Name   *string
	Kind   *string
	Mass   types.NullableFloat
	Length types.NullableFloat
	Width  types.NullableFloat
	Height types.NullableFloat
}

func (in CreateItemInput) toModel() (*models.Item, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	kind, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	for _, dim := range []struct {
		field string
		value *float64
	}{{"mass", in.Mass}, {"length", in.Length}, {"width", in.Width}, {"height", in.Height}} {
		if err := validateDimension(dim.field, dim.value); err != nil {
			return nil, err
		}
	}
	return &models.Item{
		Code:   code,
		Name:   name,
		Kind:   kind,
		Mass:   in.Mass,
		Length: in.Length,
		Width:  in.Width,
		Height: in.Height,
	}, nil
}

func applyUpdate(item *models.Item, in UpdateItemInput) error {
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "code cannot be empty")
		}
		item.Code = code
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		item.Name = name
	}
	if in.Kind != nil {
		kind, err := parseKind(*in.Kind)
		if err != nil {
			return err
		}
		item.Kind = kind
	}

	fields := []struct {
		name   string
		value  types.NullableFloat
		target **float64
	}{
		{"mass", in.Mass, &item.Mass},
		{"length", in.Length, &item.Length},
		{"width", in.Width, &item.Width},
		{"height", in.Height, &item.Height},
	}
	for _, f := range fields {
		if !f.value.Valid {
			continue
		}
		if err := validateDimension(f.name, f.value.Value); err != nil {
			return err
		}
		*f.target = f.value.Ptr()
	}
	return nil
}

func parseKind(raw string) (enums.ItemKind, error) {
	if strings.TrimSpace(raw) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "kind is required")
	}
	kind, err := enums.ParseItemKind(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "kind must be one of Assembly, Part, Standard")
	}
	return kind, nil
}

func validateDimension(field string, value *float64) error {
	if value == nil {
		return nil
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" must be a non-negative number")
	}
	return nil
}

// Edge quantities are stored as numeric(14,4).
const maxQuantityScale = 4

var maxQuantity = decimal.New(1, 10)

// edgeQuantity resolves the quantity of an explicitly added edge: omitted
// means 1, a supplied non-positive value is rejected.
func edgeQuantity(q *decimal.Decimal) (decimal.Decimal, error) {
	if q == nil {
		return decimal.NewFromInt(1), nil
	}
	if !q.IsPositive() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if err := checkQuantityRange(*q); err != nil {
		return decimal.Decimal{}, err
	}
	return *q, nil
}

// createQuantity resolves the quantity of the edge made by CreateItem, where
// a missing or non-positive value falls back to 1. Positive values the column
// cannot hold exactly are rejected rather than coerced.
func createQuantity(q *decimal.Decimal) (decimal.Decimal, error) {
	if q == nil || !q.IsPositive() {
		return decimal.NewFromInt(1), nil
	}
	if err := checkQuantityRange(*q); err != nil {
		return decimal.Decimal{}, err
	}
	return *q, nil
}

func checkQuantityRange(q decimal.Decimal) error {
	if q.Exponent() < -maxQuantityScale && !q.Equal(q.Truncate(maxQuantityScale)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity allows at most 4 decimal places").
			WithDetails(map[string]any{"max_scale": maxQuantityScale})
	}
	if q.Abs().GreaterThanOrEqual(maxQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity is too large").
			WithDetails(map[string]any{"max_exclusive": maxQuantity.String()})
	}
	return nil
}
