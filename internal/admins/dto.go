package admins

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bomcatalog-backend/pkg/db/models"
)

// AdminDTO is the public view of an admin account.
type AdminDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel maps the model to its DTO.
func FromModel(m *models.AdminUser) *AdminDTO {
	if m == nil {
		return nil
	}
	return &AdminDTO{
		ID:          m.ID,
		Email:       m.Email,
		Role:        m.Role.String(),
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
