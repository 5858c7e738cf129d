package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
)

type fakeStore struct {
	objects   []storage.Object
	deleted   []string
	deleteErr map[string]error
}

func (f *fakeStore) List(context.Context) ([]storage.Object, error) { return f.objects, nil }

func (f *fakeStore) Delete(_ context.Context, p string) error {
	if err := f.deleteErr[p]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, p)
	return nil
}

type fakeReferences map[string]struct{}

func (f fakeReferences) ExistingPaths(_ context.Context, paths []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, p := range paths {
		if _, ok := f[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out, nil
}

func newReconcileJob(t *testing.T, store *fakeStore, refs fakeReferences, budget int, now time.Time) *storageReconcileJob {
	t.Helper()
	job, err := NewStorageReconcileJob(StorageReconcileJobParams{
		Logger:       logger.New(logger.Options{Output: io.Discard}),
		Store:        store,
		Repo:         refs,
		GracePeriod:  time.Hour,
		DeleteBudget: budget,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	impl := job.(*storageReconcileJob)
	impl.now = func() time.Time { return now }
	return impl
}

func TestStorageReconcileDeletesOldOrphansOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-2 * time.Hour)
	store := &fakeStore{objects: []storage.Object{
		{Path: "a/kept.png", ModTime: old},
		{Path: "b/orphan.png", ModTime: old},
		{Path: "c/fresh.png", ModTime: now.Add(-time.Minute)},
	}}
	job := newReconcileJob(t, store, fakeReferences{"a/kept.png": {}}, 10, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "b/orphan.png" {
		t.Fatalf("expected only the old orphan deleted, got %v", store.deleted)
	}
}

func TestStorageReconcileRespectsBudget(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	store := &fakeStore{}
	for _, p := range []string{"1", "2", "3", "4"} {
		store.objects = append(store.objects, storage.Object{Path: p, ModTime: old})
	}
	job := newReconcileJob(t, store, fakeReferences{}, 2, now)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected budget of 2 deletions, got %v", store.deleted)
	}
}

func TestStorageReconcileCollectsDeleteErrors(t *testing.T) {
	now := time.Now()
	old := now.Add(-48 * time.Hour)
	store := &fakeStore{
		objects: []storage.Object{{Path: "x", ModTime: old}, {Path: "y", ModTime: old}, {Path: "gone", ModTime: old}},
		deleteErr: map[string]error{
			"x":    errors.New("permission denied"),
			"gone": storage.ErrNotExist,
		},
	}
	job := newReconcileJob(t, store, fakeReferences{}, 10, now)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if n := len(multierr.Errors(err)); n != 1 {
		t.Fatalf("expected one failure, got %d: %v", n, err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "y" {
		t.Fatalf("expected y to be deleted, got %v", store.deleted)
	}
}

func TestNewStorageReconcileJobValidates(t *testing.T) {
	if _, err := NewStorageReconcileJob(StorageReconcileJobParams{}); err == nil {
		t.Fatal("expected validation error")
	}
}
