package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bomcatalog-backend/api/responses"
	"github.com/angelmondragon/bomcatalog-backend/api/validators"
	"github.com/angelmondragon/bomcatalog-backend/internal/lifecycle"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
)

type createEdgeRequest struct {
	ParentID uuid.UUID        `json:"parent_id" validate:"required"`
	ChildID  uuid.UUID        `json:"child_id" validate:"required"`
	Quantity *decimal.Decimal `json:"quantity"`
}

func AdminEdgeCreate(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}
		var body createEdgeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		edge, err := svc.AddCompositionEdge(r.Context(), body.ParentID, body.ChildID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, edge)
	}
}

func AdminEdgeDelete(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "edgeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCompositionEdge(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
