package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

func TestCreateAndFind(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: " Buyer@Example.com ", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)
	assert.Equal(t, enums.UserStatusActive, user.Status)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", Name: "One"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateUserDTO{Email: "dup@example.com", Name: "Two"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestEnsureActive(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "seller@example.com", Name: "Lens Co", Role: enums.UserRoleSeller})
	require.NoError(t, err)
	require.NoError(t, repo.EnsureActive(ctx, user.ID))

	require.NoError(t, repo.UpdateStatus(ctx, user.ID, enums.UserStatusSuspended))
	err = repo.EnsureActive(ctx, user.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	err = repo.EnsureActive(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	err = repo.UpdateStatus(ctx, uuid.New(), enums.UserStatusActive)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestFromModel(t *testing.T) {
	assert.Nil(t, FromModel(nil))
	dto := FromModel(&models.User{ID: uuid.New(), Email: "a@b.c", Role: enums.UserRoleAdmin})
	assert.Equal(t, enums.UserRoleAdmin, dto.Role)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return conn
}
