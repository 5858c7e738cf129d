package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/internal/lifecycle"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
)

type stubCatalog struct {
	roots    []catalog.ItemDTO
	item     *catalog.ItemDTO
	children []catalog.ChildDTO
	err      error
	lastID   uuid.UUID
}

func (s *stubCatalog) ListRoots(context.Context) ([]catalog.ItemDTO, error) { return s.roots, s.err }

func (s *stubCatalog) GetItem(_ context.Context, id uuid.UUID) (*catalog.ItemDTO, error) {
	s.lastID = id
	return s.item, s.err
}

func (s *stubCatalog) ListChildren(_ context.Context, id uuid.UUID) ([]catalog.ChildDTO, error) {
	s.lastID = id
	return s.children, s.err
}

type stubLifecycle struct {
	created      lifecycle.CreateItemInput
	updated      lifecycle.UpdateItemInput
	edgeQuantity *decimal.Decimal
	deletedItem  uuid.UUID
	deletedEdge  uuid.UUID
	err          error
}

func (s *stubLifecycle) CreateItem(_ context.Context, in lifecycle.CreateItemInput) (*catalog.ItemDTO, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ItemDTO{ID: uuid.New(), Code: in.Code, Name: in.Name, Kind: strings.ToLower(in.Kind)}, nil
}

func (s *stubLifecycle) AddCompositionEdge(_ context.Context, parentID, childID uuid.UUID, q *decimal.Decimal) (*catalog.EdgeDTO, error) {
	s.edgeQuantity = q
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.EdgeDTO{ID: uuid.New(), ParentID: parentID, ChildID: childID, Quantity: decimal.NewFromInt(1)}, nil
}

func (s *stubLifecycle) UpdateItem(_ context.Context, id uuid.UUID, in lifecycle.UpdateItemInput) (*catalog.ItemDTO, error) {
	s.updated = in
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ItemDTO{ID: id}, nil
}

func (s *stubLifecycle) DeleteItem(_ context.Context, id uuid.UUID) error {
	s.deletedItem = id
	return s.err
}

func (s *stubLifecycle) DeleteCompositionEdge(_ context.Context, id uuid.UUID) error {
	s.deletedEdge = id
	return s.err
}

func TestItemRoots(t *testing.T) {
	svc := &stubCatalog{roots: []catalog.ItemDTO{{ID: uuid.New(), Code: "ASM-1"}}}
	rec := httptest.NewRecorder()
	ItemRoots(svc, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/items/roots", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var items []catalog.ItemDTO
	decodeData(t, rec, &items)
	if len(items) != 1 || items[0].Code != "ASM-1" {
		t.Fatalf("unexpected roots %+v", items)
	}
}

func TestItemGetNotFound(t *testing.T) {
	svc := &stubCatalog{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not found")}
	id := uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"itemId": id.String()})
	rec := httptest.NewRecorder()
	ItemGet(svc, testLogger())(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if svc.lastID != id {
		t.Fatalf("expected lookup of %s, got %s", id, svc.lastID)
	}
	if env := decodeError(t, rec); env.Error.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestItemChildrenRejectsBadID(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"itemId": "nope"})
	rec := httptest.NewRecorder()
	ItemChildren(&stubCatalog{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestItemChildrenReturnsEmptyArray(t *testing.T) {
	svc := &stubCatalog{children: []catalog.ChildDTO{}}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"itemId": uuid.NewString()})
	rec := httptest.NewRecorder()
	ItemChildren(svc, testLogger())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestAdminItemCreate(t *testing.T) {
	svc := &stubLifecycle{}
	parent := uuid.New()
	body := `{"code":"PRT-1","name":"Bracket","kind":"PART","mass":1.5,"parent_id":"` + parent.String() + `","quantity":"0.5"}`
	rec := httptest.NewRecorder()
	AdminItemCreate(svc, testLogger())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.ParentID == nil || *svc.created.ParentID != parent {
		t.Fatalf("parent not forwarded: %+v", svc.created)
	}
	if svc.created.Quantity == nil || !svc.created.Quantity.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("quantity not forwarded: %+v", svc.created.Quantity)
	}
	if svc.created.Mass == nil || *svc.created.Mass != 1.5 {
		t.Fatalf("mass not forwarded")
	}
}

func TestAdminItemCreateValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminItemCreate(&stubLifecycle{}, testLogger())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","kind":"part"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminItemUpdateDistinguishesNullFromAbsent(t *testing.T) {
	svc := &stubLifecycle{}
	req := withURLParams(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"name":"Renamed","mass":null}`)), map[string]string{"itemId": uuid.NewString()})
	rec := httptest.NewRecorder()
	AdminItemUpdate(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updated.Name == nil || *svc.updated.Name != "Renamed" {
		t.Fatalf("name not forwarded")
	}
	if !svc.updated.Mass.Valid || svc.updated.Mass.Value != nil {
		t.Fatalf("expected mass to be cleared, got %+v", svc.updated.Mass)
	}
	if svc.updated.Length.Valid || svc.updated.Code != nil {
		t.Fatalf("absent fields must stay untouched")
	}
}

func TestAdminItemDelete(t *testing.T) {
	svc := &stubLifecycle{}
	id := uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"itemId": id.String()})
	rec := httptest.NewRecorder()
	AdminItemDelete(svc, testLogger())(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.deletedItem != id {
		t.Fatalf("expected delete of %s", id)
	}
}

func TestAdminEdgeCreateCycle(t *testing.T) {
	svc := &stubLifecycle{err: pkgerrors.New(pkgerrors.CodeCycleDetected, "would create a cycle")}
	body := `{"parent_id":"` + uuid.NewString() + `","child_id":"` + uuid.NewString() + `"}`
	rec := httptest.NewRecorder()
	AdminEdgeCreate(svc, testLogger())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != string(pkgerrors.CodeCycleDetected) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
	if svc.edgeQuantity != nil {
		t.Fatalf("omitted quantity should be forwarded as nil")
	}
}

func TestAdminEdgeCreateRequiresIDs(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminEdgeCreate(&stubLifecycle{}, testLogger())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminEdgeDelete(t *testing.T) {
	svc := &stubLifecycle{}
	id := uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"edgeId": id.String()})
	rec := httptest.NewRecorder()
	AdminEdgeDelete(svc, testLogger())(rec, req)
	if rec.Code != http.StatusNoContent || svc.deletedEdge != id {
		t.Fatalf("expected 204 and delete of %s, got %d", id, rec.Code)
	}
}

func TestNilServicesReturnInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	ItemRoots(nil, testLogger())(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
