package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
)

// UserDTO is the transport shape of an account.
type UserDTO struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	Role         enums.UserRole   `json:"role"`
	Status       enums.UserStatus `json:"status"`
	BusinessName *string          `json:"business_name,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Name         string
	Role         enums.UserRole
	Status       enums.UserStatus
	BusinessName *string
	TaxID        *string
}

// ToModel maps the DTO into a persisted user, defaulting to an active customer.
func (dto CreateUserDTO) ToModel() *models.User {
	role := dto.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	status := dto.Status
	if !status.IsValid() {
		status = enums.UserStatusActive
	}
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:         strings.TrimSpace(dto.Name),
		Role:         role,
		Status:       status,
		BusinessName: dto.BusinessName,
		TaxID:        dto.TaxID,
	}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Status:       u.Status,
		BusinessName: u.BusinessName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
