package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
)

const (
	defaultOrphanGracePeriod  = 24 * time.Hour
	defaultOrphanDeleteBudget = 500
	existingPathsBatchSize    = 500
)

// StorageReconcileJobParams configure the orphan-file sweep.
type StorageReconcileJobParams struct {
	Logger       *logger.Logger
	Store        orphanStore
	Repo         referencedPaths
	GracePeriod  time.Duration
	DeleteBudget int
}

type orphanStore interface {
	storage.Lister
	Delete(ctx context.Context, storedPath string) error
}

type referencedPaths interface {
	ExistingPaths(ctx context.Context, paths []string) (map[string]struct{}, error)
}

// NewStorageReconcileJob builds the job that removes stored files with no
// media reference. Media release deletes files best effort, so this sweep
// collects whatever a failed delete left behind.
func NewStorageReconcileJob(params StorageReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("storage store required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	grace := params.GracePeriod
	if grace <= 0 {
		grace = defaultOrphanGracePeriod
	}
	budget := params.DeleteBudget
	if budget <= 0 {
		budget = defaultOrphanDeleteBudget
	}
	return &storageReconcileJob{
		logg:   params.Logger,
		store:  params.Store,
		repo:   params.Repo,
		grace:  grace,
		budget: budget,
		now:    time.Now,
	}, nil
}

type storageReconcileJob struct {
	logg   *logger.Logger
	store  orphanStore
	repo   referencedPaths
	grace  time.Duration
	budget int
	now    func() time.Time
}

func (j *storageReconcileJob) Name() string { return "storage-reconcile" }

func (j *storageReconcileJob) Run(ctx context.Context) error {
	objects, err := j.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored files: %w", err)
	}

	// Files younger than the grace period may belong to an admission whose
	// record insert has not committed yet.
	cutoff := j.now().Add(-j.grace)
	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.ModTime.Before(cutoff) {
			candidates = append(candidates, obj.Path)
		}
	}

	var orphans []string
	for start := 0; start < len(candidates); start += existingPathsBatchSize {
		end := start + existingPathsBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		referenced, err := j.repo.ExistingPaths(ctx, batch)
		if err != nil {
			return fmt.Errorf("lookup referenced paths: %w", err)
		}
		for _, p := range batch {
			if _, ok := referenced[p]; !ok {
				orphans = append(orphans, p)
			}
		}
	}

	var (
		deleted int
		errs    error
	)
	for _, p := range orphans {
		if deleted >= j.budget {
			break
		}
		if err := j.store.Delete(ctx, p); err != nil && !errors.Is(err, storage.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", p, err))
			continue
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stored_files": len(objects),
		"candidates":   len(candidates),
		"orphans":      len(orphans),
		"deleted":      deleted,
		"budget":       j.budget,
	})
	j.logg.Info(logCtx, "storage reconcile complete")
	return errs
}
