package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bomcatalog-backend/api/responses"
	"github.com/angelmondragon/bomcatalog-backend/api/validators"
	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/internal/lifecycle"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/types"
)

type createItemRequest struct {
	Code     string           `json:"code" validate:"required,notblank,max=64"`
	Name     string           `json:"name" validate:"required,notblank,max=255"`
	Kind     string           `json:"kind" validate:"required,itemkind"`
	Mass     *float64         `json:"mass"`
	Length   *float64         `json:"length"`
	Width    *float64         `json:"width"`
	Height   *float64         `json:"height"`
	ParentID *uuid.UUID       `json:"parent_id"`
	Quantity *decimal.Decimal `json:"quantity"`
}

func (r createItemRequest) toInput() lifecycle.CreateItemInput {
	return lifecycle.CreateItemInput{
		Code:     r.Code,
		Name:     r.Name,
		Kind:     r.Kind,
		Mass:     r.Mass,
		Length:   r.Length,
		Width:    r.Width,
		Height:   r.Height,
		ParentID: r.ParentID,
		Quantity: r.Quantity,
	}
}

type updateItemRequest struct {
	Code   *string             `json:"code" validate:"omitempty,notblank,max=64"`
	Name   *string             `json:"name" validate:"omitempty,notblank,max=255"`
	Kind   *string             `json:"kind" validate:"omitempty,itemkind"`
	Mass   types.NullableFloat `json:"mass"`
	Length types.NullableFloat `json:"length"`
	Width  types.NullableFloat `json:"width"`
	Height types.NullableFloat `json:"height"`
}

func (r updateItemRequest) toInput() lifecycle.UpdateItemInput {
	return lifecycle.UpdateItemInput{
		Code:   r.Code,
		Name:   r.Name,
		Kind:   r.Kind,
		Mass:   r.Mass,
		Length: r.Length,
		Width:  r.Width,
		Height: r.Height,
	}
}

func ItemRoots(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		items, err := svc.ListRoots(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func ItemGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemChildren(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		children, err := svc.ListChildren(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, children)
	}
}

func AdminItemCreate(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}
		var body createItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateItem(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, item)
	}
}

func AdminItemUpdate(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateItem(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AdminItemDelete(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
