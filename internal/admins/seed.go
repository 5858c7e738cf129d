package admins

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/bomcatalog-backend/pkg/config"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/security"
)

// EnsureSeed creates the configured bootstrap admin when it does not exist
// yet. Existing accounts are never modified. It reports whether an account was
// created.
func EnsureSeed(ctx context.Context, repo *Repository, seed config.AdminSeedConfig, pw config.PasswordConfig, logg *logger.Logger) (bool, error) {
	if !seed.Enabled() {
		return false, nil
	}
	if repo == nil {
		return false, fmt.Errorf("admins repository required")
	}

	_, err := repo.FindByEmail(ctx, seed.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup seed admin: %w", err)
	}

	hash, err := security.HashPassword(seed.Password, pw)
	if err != nil {
		return false, fmt.Errorf("hash seed admin password: %w", err)
	}
	admin, err := repo.Create(ctx, &models.AdminUser{
		Email:        seed.Email,
		PasswordHash: hash,
		Role:         enums.AdminRoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return false, fmt.Errorf("create seed admin: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "admin_id", admin.ID.String()), "admin.seeded")
	}
	return true, nil
}
