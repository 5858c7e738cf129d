package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bomcatalog-backend/pkg/errors"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/metrics"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
)

// ItemChecker confirms the owning item exists before a file is admitted.
type ItemChecker interface {
	ItemExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AdmitInput describes one upload.
type AdmitInput struct {
	ItemID    uuid.UUID
	Kind      string
	FileName  string
	SizeBytes int64
	Body      io.Reader
}

// MediaDTO is a media reference as returned to clients.
type MediaDTO struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	Kind        string    `json:"kind"`
	StoredPath  string    `json:"stored_path"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageDTO reports quota consumption.
type UsageDTO struct {
	UsageBytes     int64 `json:"usage_bytes"`
	QuotaBytes     int64 `json:"quota_bytes"`
	AvailableBytes int64 `json:"available_bytes"`
}

// RegistryParams bundles the registry dependencies.
type RegistryParams struct {
	Repo       *Repository
	Items      ItemChecker
	Tx         db.TxRunner
	Store      storage.Writer
	QuotaBytes int64
	Metrics    *metrics.MediaMetrics
	Logger     *logger.Logger
}

// Registry admits and releases media files against a global byte quota.
type Registry struct {
	repo    *Repository
	items   ItemChecker
	tx      db.TxRunner
	store   storage.Writer
	quota   int64
	metrics *metrics.MediaMetrics
	logg    *logger.Logger
}

// NewRegistry validates the dependencies and builds a Registry.
func NewRegistry(p RegistryParams) (*Registry, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if p.Items == nil {
		return nil, fmt.Errorf("item checker required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("storage writer required")
	}
	if p.QuotaBytes <= 0 {
		return nil, fmt.Errorf("quota must be positive")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	p.Metrics.SetQuota(p.QuotaBytes)
	return &Registry{
		repo:    p.Repo,
		items:   p.Items,
		tx:      p.Tx,
		store:   p.Store,
		quota:   p.QuotaBytes,
		metrics: p.Metrics,
		logg:    p.Logger,
	}, nil
}

// CurrentUsage sums the sizes of all media references at call time.
func (r *Registry) CurrentUsage(ctx context.Context) (int64, error) {
	usage, err := r.repo.SumSize(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum media usage")
	}
	r.metrics.SetUsage(usage)
	return usage, nil
}

// Usage reports consumption against the configured quota.
func (r *Registry) Usage(ctx context.Context) (*UsageDTO, error) {
	usage, err := r.CurrentUsage(ctx)
	if err != nil {
		return nil, err
	}
	available := r.quota - usage
	if available < 0 {
		available = 0
	}
	return &UsageDTO{UsageBytes: usage, QuotaBytes: r.quota, AvailableBytes: available}, nil
}

// Admit stores the upload and records it. The quota is checked before any
// byte reaches storage, and a failed insert removes the stored file again.
func (r *Registry) Admit(ctx context.Context, in AdmitInput) (*MediaDTO, error) {
	kind, err := enums.ParseMediaKind(in.Kind)
	if err != nil {
		r.metrics.IncRejected("invalid_kind")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "kind must be image or model")
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		r.metrics.IncRejected("invalid_input")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if in.SizeBytes <= 0 {
		r.metrics.IncRejected("invalid_input")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if in.Body == nil {
		r.metrics.IncRejected("invalid_input")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}

	exists, err := r.items.ItemExists(ctx, in.ItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check item")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	head = head[:n]

	contentType, err := detectContentType(kind, fileName, head)
	if err != nil {
		r.metrics.IncRejected("content_type")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file type not allowed for media kind")
	}

	usage, err := r.CurrentUsage(ctx)
	if err != nil {
		return nil, err
	}
	if usage+in.SizeBytes > r.quota {
		r.metrics.IncRejected("quota")
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"item_id":         in.ItemID.String(),
			"usage_bytes":     usage,
			"requested_bytes": in.SizeBytes,
			"quota_bytes":     r.quota,
		})
		r.logg.Warn(logCtx, "media.quota_exceeded")
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "storage quota exceeded").WithDetails(map[string]any{
			"usage_bytes":     usage,
			"requested_bytes": in.SizeBytes,
			"quota_bytes":     r.quota,
		})
	}

	body := &countingReader{r: io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), in.SizeBytes+1)}
	storedPath, err := r.store.Write(ctx, body, fileName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: write media file")
	}
	if body.n != in.SizeBytes {
		r.metrics.IncRejected("size_mismatch")
		delErr := r.store.Delete(ctx, storedPath)
		if delErr != nil {
			r.logg.Error(r.logg.WithField(ctx, "stored_path", storedPath), "media.file_delete_failed", delErr)
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes does not match uploaded content").WithDetails(map[string]any{
			"declared_bytes": in.SizeBytes,
		})
	}

	ref := &models.MediaReference{
		ItemID:      in.ItemID,
		Kind:        kind,
		StoredPath:  storedPath,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   in.SizeBytes,
	}
	if _, err := r.repo.Create(ctx, ref); err != nil {
		combined := err
		if delErr := r.store.Delete(ctx, storedPath); delErr != nil && !errors.Is(delErr, storage.ErrNotExist) {
			combined = multierr.Append(err, delErr)
		}
		if db.IsForeignKeyViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, combined, "item no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "db: insert media reference")
	}

	r.metrics.IncAdmitted(kind.String())
	r.metrics.SetUsage(usage + in.SizeBytes)
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"media_id":   ref.ID.String(),
		"item_id":    in.ItemID.String(),
		"size_bytes": in.SizeBytes,
	})
	r.logg.Info(logCtx, "media.admitted")

	dto := newMediaDTO(ref)
	return &dto, nil
}

// Release deletes one media reference and then, best effort, its file.
func (r *Registry) Release(ctx context.Context, mediaID uuid.UUID) error {
	var storedPath string
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := r.repo.WithTx(tx)
		ref, err := txRepo.FindByID(ctx, mediaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load media")
		}
		storedPath = ref.StoredPath
		if _, err := txRepo.Delete(ctx, mediaID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete media")
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.metrics.AddReleased(1)
	r.logg.Info(r.logg.WithField(ctx, "media_id", mediaID.String()), "media.released")
	r.deleteFile(ctx, storedPath)
	return nil
}

// ReleaseAllFor deletes every media reference of the item in its own
// transaction and then removes the files. It returns how many were released.
func (r *Registry) ReleaseAllFor(ctx context.Context, itemID uuid.UUID) (int, error) {
	var paths []string
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		paths, err = r.ReleaseAllForTx(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.DeleteFiles(ctx, paths)
	return len(paths), nil
}

// ReleaseAllForTx deletes the item's media references inside tx and returns
// their stored paths. Files must be removed by the caller after commit.
func (r *Registry) ReleaseAllForTx(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) ([]string, error) {
	txRepo := r.repo.WithTx(tx)
	paths, err := txRepo.ListPathsForItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list media paths")
	}
	if len(paths) == 0 {
		return nil, nil
	}
	if _, err := txRepo.DeleteForItem(ctx, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item media")
	}
	r.metrics.AddReleased(len(paths))
	return paths, nil
}

// DeleteFiles removes stored files, logging rather than returning failures.
func (r *Registry) DeleteFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		r.deleteFile(ctx, p)
	}
}

// ListForItem returns the item's media, newest first.
func (r *Registry) ListForItem(ctx context.Context, itemID uuid.UUID) ([]MediaDTO, error) {
	rows, err := r.repo.ListForItem(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list item media")
	}
	out := make([]MediaDTO, 0, len(rows))
	for i := range rows {
		out = append(out, newMediaDTO(&rows[i]))
	}
	return out, nil
}

func (r *Registry) deleteFile(ctx context.Context, storedPath string) {
	if storedPath == "" {
		return
	}
	logCtx := r.logg.WithField(ctx, "stored_path", storedPath)
	if err := r.store.Delete(ctx, storedPath); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			r.logg.Info(logCtx, "media.file_already_absent")
			return
		}
		r.logg.Error(logCtx, "media.file_delete_failed", err)
	}
}

func newMediaDTO(ref *models.MediaReference) MediaDTO {
	return MediaDTO{
		ID:          ref.ID,
		ItemID:      ref.ItemID,
		Kind:        ref.Kind.String(),
		StoredPath:  ref.StoredPath,
		FileName:    ref.FileName,
		ContentType: ref.ContentType,
		SizeBytes:   ref.SizeBytes,
		CreatedAt:   ref.CreatedAt,
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
