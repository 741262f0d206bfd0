package postgres

import (
	"context"
	"testing"

	"ideabox/domain/core/entities"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusChoiceRepository_CreateAndList(t *testing.T) {
	// Arrange
	repo := NewStatusChoiceRepository(setupDB(t))
	ctx := context.Background()
	code := "X" + uuid.NewString()[:6]
	choice, err := entities.NewStatusChoice(code, "Parked", "", false, t0)
	require.NoError(t, err)

	// Act
	require.NoError(t, repo.Create(ctx, choice))
	err = repo.Create(ctx, choice)
	choices, listErr := repo.List(ctx)

	// Assert
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStatusCodeTaken))
	require.NoError(t, listErr)
	assert.Contains(t, choices, choice)
	assert.Equal(t, "S100", choices[0].Code, "seeded choices sort first")
}

func TestDirectory(t *testing.T) {
	pool := setupDB(t)
	dir := NewDirectory(pool)
	ctx := context.Background()
	user := "user-" + uuid.NewString()

	_, err := pool.Exec(ctx, "INSERT INTO contacts (user_id, email) VALUES ($1, $2)", user, "dana@example.com")
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		"INSERT INTO user_roles (user_id, role, active) VALUES ($1, 'moderator', TRUE), ($1, 'admin', FALSE)", user)
	require.NoError(t, err)

	t.Run("email on file", func(t *testing.T) {
		email, err := dir.EmailOf(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, "dana@example.com", email)
	})

	t.Run("unknown user has no email", func(t *testing.T) {
		email, err := dir.EmailOf(ctx, "nobody-"+uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, email)
	})

	t.Run("inactive roles are ignored", func(t *testing.T) {
		roles, err := dir.RolesOf(ctx, user)
		require.NoError(t, err)
		assert.True(t, roles.Has(valueobjects.RoleModerator))
		assert.False(t, roles.Has(valueobjects.RoleAdmin))
	})
}
