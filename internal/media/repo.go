package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
)

// Repository exposes media reference persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create persists a media reference.
func (r *Repository) Create(ctx context.Context, ref *models.MediaReference) (*models.MediaReference, error) {
	if err := r.db.WithContext(ctx).Omit("Item").Create(ref).Error; err != nil {
		return nil, err
	}
	return ref, nil
}

// FindByID retrieves a media reference by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MediaReference, error) {
	var m models.MediaReference
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a media reference and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MediaReference{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SumSize returns the total bytes held by all media references.
func (r *Repository) SumSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.MediaReference{}).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListForItem returns the item's media, newest first.
func (r *Repository) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.MediaReference, error) {
	rows := make([]models.MediaReference, 0)
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPathsForItem returns the stored paths of the item's media.
func (r *Repository) ListPathsForItem(ctx context.Context, itemID uuid.UUID) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.MediaReference{}).
		Where("item_id = ?", itemID).
		Pluck("stored_path", &paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// DeleteForItem removes every media reference of the item.
func (r *Repository) DeleteForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&models.MediaReference{})
	return res.RowsAffected, res.Error
}

// ExistingPaths returns the subset of paths that are referenced by a record.
func (r *Repository) ExistingPaths(ctx context.Context, paths []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(paths))
	if len(paths) == 0 {
		return found, nil
	}
	var rows []string
	err := r.db.WithContext(ctx).
		Model(&models.MediaReference{}).
		Where("stored_path IN ?", paths).
		Pluck("stored_path", &rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		found[p] = struct{}{}
	}
	return found, nil
}
