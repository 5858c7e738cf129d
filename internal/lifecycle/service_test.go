package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/internal/cart"
	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/internal/media"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage/local"
	"github.com/angelmondragon/bomcatalog-backend/pkg/types"
)

type harness struct {
	svc      Service
	graph    catalog.Service
	ledger   *cart.Ledger
	registry *media.Registry
	store    *local.Store
	client   *db.Client
}

type failingMedia struct{}

func (failingMedia) ReleaseAllForTx(context.Context, *gorm.DB, uuid.UUID) ([]string, error) {
	return nil, errors.New("media table locked")
}

func (failingMedia) DeleteFiles(context.Context, []string) {}

func newHarness(t *testing.T) harness {
	t.Helper()
	client := dbtest.New(t)
	logg := logger.New(logger.Options{Output: io.Discard})
	repo := catalog.NewRepository(client.DB())

	ledger, err := cart.NewLedger(cart.NewRepository(client.DB()), repo, logg)
	require.NoError(t, err)

	store, err := local.New(afero.NewMemMapFs(), "/media")
	require.NoError(t, err)
	registry, err := media.NewRegistry(media.RegistryParams{
		Repo:       media.NewRepository(client.DB()),
		Items:      repo,
		Tx:         client,
		Store:      store,
		QuotaBytes: 1 << 20,
		Logger:     logg,
	})
	require.NoError(t, err)

	svc, err := NewService(client, repo, ledger, registry, logg)
	require.NoError(t, err)
	graph, err := catalog.NewService(repo)
	require.NoError(t, err)

	return harness{svc: svc, graph: graph, ledger: ledger, registry: registry, store: store, client: client}
}

func qty(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func (h harness) create(t *testing.T, code, kind string, parent *uuid.UUID, q *decimal.Decimal) *catalog.ItemDTO {
	t.Helper()
	item, err := h.svc.CreateItem(context.Background(), CreateItemInput{Code: code, Name: code, Kind: kind, ParentID: parent, Quantity: q})
	require.NoError(t, err)
	return item
}

func rootIDs(t *testing.T, g catalog.Service) []uuid.UUID {
	t.Helper()
	roots, err := g.ListRoots(context.Background())
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(roots))
	for _, r := range roots {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestCreateUnderParentScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.create(t, "ASM-1", "Assembly", nil, nil)
	b := h.create(t, "PRT-1", "Part", &a.ID, qty(2))

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, b.ID, children[0].Item.ID)
	require.True(t, children[0].Quantity.Equal(decimal.NewFromInt(2)))

	require.Equal(t, []uuid.UUID{a.ID}, rootIDs(t, h.graph))
}

func TestCreateItemCoercesQuantity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "ASM-1", "Assembly", nil, nil)
	h.create(t, "P-1", "Part", &a.ID, nil)
	h.create(t, "P-2", "Part", &a.ID, qty(0))
	h.create(t, "P-3", "Part", &a.ID, qty(-5))

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	for _, c := range children {
		require.True(t, c.Quantity.Equal(decimal.NewFromInt(1)), "quantity for %s", c.Item.Code)
	}
}

func TestCreateItemValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	neg := -1.0
	missing := uuid.New()

	cases := []struct {
		name  string
		input CreateItemInput
		code  pkgerrors.Code
	}{
		{"missing code", CreateItemInput{Name: "n", Kind: "Part"}, pkgerrors.CodeValidation},
		{"missing name", CreateItemInput{Code: "c", Kind: "Part"}, pkgerrors.CodeValidation},
		{"bad kind", CreateItemInput{Code: "c", Name: "n", Kind: "Widget"}, pkgerrors.CodeValidation},
		{"negative mass", CreateItemInput{Code: "c", Name: "n", Kind: "Part", Mass: &neg}, pkgerrors.CodeValidation},
		{"unknown parent", CreateItemInput{Code: "c", Name: "n", Kind: "Part", ParentID: &missing}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.CreateItem(ctx, tc.input)
			require.True(t, pkgerrors.IsCode(err, tc.code), "expected %s, got %v", tc.code, err)
		})
	}
	require.Empty(t, rootIDs(t, h.graph), "failed creates must not leave items behind")
}

func TestCreateItemKindIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	item := h.create(t, "STD-1", "standard", nil, nil)
	require.Equal(t, "Standard", item.Kind)
}

func TestAddCompositionEdge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Part", nil, nil)

	half := decimal.RequireFromString("0.5")
	edge, err := h.svc.AddCompositionEdge(ctx, a.ID, b.ID, &half)
	require.NoError(t, err)
	require.Equal(t, a.ID, edge.ParentID)

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.True(t, children[0].Quantity.Equal(half))

	// duplicate pair is allowed
	_, err = h.svc.AddCompositionEdge(ctx, a.ID, b.ID, nil)
	require.NoError(t, err)
	children, err = h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
}

func TestAddCompositionEdgeRejectsCycles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Assembly", &a.ID, nil)
	c := h.create(t, "C", "Part", &b.ID, nil)

	_, err := h.svc.AddCompositionEdge(ctx, a.ID, a.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCycleDetected), "self edge: %v", err)

	_, err = h.svc.AddCompositionEdge(ctx, c.ID, a.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCycleDetected), "ancestor edge: %v", err)

	_, err = h.svc.AddCompositionEdge(ctx, b.ID, a.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCycleDetected), "parent edge: %v", err)

	children, err := h.graph.ListChildren(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, children)
}

func TestAddCompositionEdgeValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Part", nil, nil)

	_, err := h.svc.AddCompositionEdge(ctx, a.ID, b.ID, qty(0))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.AddCompositionEdge(ctx, a.ID, uuid.New(), nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.AddCompositionEdge(ctx, uuid.New(), b.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestEdgeQuantityMustFitColumn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Part", nil, nil)

	for _, raw := range []string{"1.23456", "0.00001", "10000000000", "12345678901.5"} {
		q := decimal.RequireFromString(raw)
		_, err := h.svc.AddCompositionEdge(ctx, a.ID, b.ID, &q)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "quantity %s: %v", raw, err)

		_, err = h.svc.CreateItem(ctx, CreateItemInput{Code: "C-" + raw, Name: "c", Kind: "Part", ParentID: &a.ID, Quantity: &q})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "create quantity %s: %v", raw, err)
	}

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, children)

	for _, raw := range []string{"1.2345", "1.23450000", "9999999999.9999"} {
		q := decimal.RequireFromString(raw)
		edge, err := h.svc.AddCompositionEdge(ctx, a.ID, b.ID, &q)
		require.NoError(t, err, "quantity %s", raw)
		require.True(t, edge.Quantity.Equal(q))
	}
}

func TestUpdateItemPartial(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	mass := 2.5
	width := 10.0
	created, err := h.svc.CreateItem(ctx, CreateItemInput{Code: "P-1", Name: "Bolt", Kind: "Part", Mass: &mass, Width: &width})
	require.NoError(t, err)

	newName := "Hex bolt"
	height := 4.0
	updated, err := h.svc.UpdateItem(ctx, created.ID, UpdateItemInput{
		Name:   &newName,
		Mass:   types.NullableFloat{Valid: true},
		Height: types.NullableFloat{Valid: true, Value: &height},
	})
	require.NoError(t, err)
	require.Equal(t, "P-1", updated.Code)
	require.Equal(t, "Hex bolt", updated.Name)
	require.Nil(t, updated.Mass)
	require.NotNil(t, updated.Width)
	require.Equal(t, 10.0, *updated.Width)
	require.NotNil(t, updated.Height)
	require.Equal(t, 4.0, *updated.Height)

	reloaded, err := h.graph.GetItem(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.Mass)
	require.Equal(t, "Hex bolt", reloaded.Name)
}

func TestUpdateItemValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	item := h.create(t, "P-1", "Part", nil, nil)

	empty := "  "
	_, err := h.svc.UpdateItem(ctx, item.ID, UpdateItemInput{Code: &empty})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	neg := -3.0
	_, err = h.svc.UpdateItem(ctx, item.ID, UpdateItemInput{Length: types.NullableFloat{Valid: true, Value: &neg}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.UpdateItem(ctx, uuid.New(), UpdateItemInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	reloaded, err := h.graph.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "P-1", reloaded.Code)
}

func TestDeleteItemCascadeScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Assembly", &a.ID, qty(1))
	c := h.create(t, "C", "Part", &b.ID, qty(2))

	_, err := h.ledger.AddLine(ctx, b.ID, nil)
	require.NoError(t, err)
	_, err = h.ledger.AddLine(ctx, c.ID, nil)
	require.NoError(t, err)
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 24)...)
	_, err = h.registry.Admit(ctx, media.AdmitInput{ItemID: b.ID, Kind: "image", FileName: "b.png", SizeBytes: int64(len(png)), Body: bytes.NewReader(png)})
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteItem(ctx, b.ID))

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, children)
	require.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, rootIDs(t, h.graph))

	lines, err := h.ledger.ListLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, c.ID, lines[0].ItemID)

	remaining, err := h.registry.ListForItem(ctx, b.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
	files, err := h.store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, files)

	var edgeCount int64
	require.NoError(t, h.client.DB().Model(&models.CompositionEdge{}).
		Where("parent_id = ? OR child_id = ?", b.ID, b.ID).Count(&edgeCount).Error)
	require.Zero(t, edgeCount)

	err = h.svc.DeleteItem(ctx, b.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "second delete: %v", err)
}

func TestDeleteItemRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Part", &a.ID, nil)
	_, err := h.ledger.AddLine(ctx, b.ID, nil)
	require.NoError(t, err)

	repo := catalog.NewRepository(h.client.DB())
	ledger, err := cart.NewLedger(cart.NewRepository(h.client.DB()), repo, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	broken, err := NewService(h.client, repo, ledger, failingMedia{}, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)

	err = broken.DeleteItem(ctx, b.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)

	children, err := h.graph.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1, "edge must survive a rolled back delete")
	lines, err := h.ledger.ListLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1, "cart line must survive a rolled back delete")
	_, err = h.graph.GetItem(ctx, b.ID)
	require.NoError(t, err)
}

func TestDeleteCompositionEdge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.create(t, "A", "Assembly", nil, nil)
	b := h.create(t, "B", "Part", nil, nil)
	edge, err := h.svc.AddCompositionEdge(ctx, a.ID, b.ID, nil)
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteCompositionEdge(ctx, edge.ID))
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, rootIDs(t, h.graph))

	err = h.svc.DeleteCompositionEdge(ctx, edge.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	// items are untouched
	_, err = h.graph.GetItem(ctx, b.ID)
	require.NoError(t, err)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	require.Error(t, err)
}
