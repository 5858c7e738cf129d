package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
)

// MaxLineQuantity caps both a single add and the merged line total.
const MaxLineQuantity = 1_000_000

// ItemChecker confirms an item exists before a line is written for it.
type ItemChecker interface {
	ItemExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// LineDTO is a cart line as returned to clients.
type LineDTO struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	ItemCode  string    `json:"item_code,omitempty"`
	ItemName  string    `json:"item_name,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger is the single shared cart. One instance is built at startup and
// injected wherever cart lines are read or written.
type Ledger struct {
	repo  *Repository
	items ItemChecker
	logg  *logger.Logger
}

// NewLedger builds the cart ledger.
func NewLedger(repo *Repository, items ItemChecker, logg *logger.Logger) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item checker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Ledger{repo: repo, items: items, logg: logg}, nil
}

// AddLine adds quantity units of itemID, merging into an existing line.
// A missing or non-positive quantity counts as 1.
func (l *Ledger) AddLine(ctx context.Context, itemID uuid.UUID, quantity *int) (*LineDTO, error) {
	qty := 1
	if quantity != nil && *quantity > 0 {
		qty = *quantity
	}
	if qty > MaxLineQuantity {
		return nil, quantityLimitError()
	}

	exists, err := l.items.ItemExists(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check item")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	line, err := l.repo.UpsertLine(ctx, itemID, qty)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item no longer exists")
		}
		if db.IsCheckViolation(err) {
			return nil, quantityLimitError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert cart line")
	}

	logCtx := l.logg.WithFields(ctx, map[string]any{"item_id": itemID.String(), "quantity": line.Quantity})
	l.logg.Info(logCtx, "cart.line_added")

	return &LineDTO{
		ID:        line.ID,
		ItemID:    line.ItemID,
		Quantity:  line.Quantity,
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}, nil
}

func quantityLimitError() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line quantity cannot exceed %d", MaxLineQuantity)).
		WithDetails(map[string]any{"max_quantity": MaxLineQuantity})
}

// ListLines returns the cart in insertion order.
func (l *Ledger) ListLines(ctx context.Context) ([]LineDTO, error) {
	rows, err := l.repo.ListLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart lines")
	}
	out := make([]LineDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, LineDTO(row))
	}
	return out, nil
}

// RemoveLine deletes a line. Removing an absent line succeeds.
func (l *Ledger) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	n, err := l.repo.DeleteLine(ctx, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart line")
	}
	if n == 0 {
		l.logg.Debug(l.logg.WithField(ctx, "line_id", lineID.String()), "cart.line_absent")
	}
	return nil
}

// Clear empties the cart.
func (l *Ledger) Clear(ctx context.Context) error {
	n, err := l.repo.DeleteAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	l.logg.Info(l.logg.WithField(ctx, "lines_removed", n), "cart.cleared")
	return nil
}

// DeleteLinesForItemTx removes the item's line inside the caller's transaction.
func (l *Ledger) DeleteLinesForItemTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (int64, error) {
	return l.repo.WithTx(tx).DeleteForItem(ctx, itemID)
}
