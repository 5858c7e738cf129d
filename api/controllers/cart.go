package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bomcatalog-backend/api/responses"
	"github.com/angelmondragon/bomcatalog-backend/api/validators"
	"github.com/angelmondragon/bomcatalog-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
)

// CartLedger is the cart surface the HTTP layer uses.
type CartLedger interface {
	AddLine(ctx context.Context, itemID uuid.UUID, quantity *int) (*cart.LineDTO, error)
	ListLines(ctx context.Context) ([]cart.LineDTO, error)
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
	Clear(ctx context.Context) error
}

type addLineRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity *int      `json:"quantity" validate:"omitempty,max=1000000"`
}

func CartList(ledger CartLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		lines, err := ledger.ListLines(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

func CartAddLine(ledger CartLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		var body addLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := ledger.AddLine(r.Context(), body.ItemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, line)
	}
}

func CartRemoveLine(ledger CartLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ledger.RemoveLine(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CartClear(ledger CartLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		if err := ledger.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
