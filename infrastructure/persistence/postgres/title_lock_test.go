package postgres

import (
	"context"
	"testing"
	"time"

	pkgerrors "ideabox/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvisoryLock(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	first := NewAdvisoryLock(pool)
	second := NewAdvisoryLock(pool).WithTimings(200*time.Millisecond, 20*time.Millisecond)

	release, err := first.Acquire(ctx, "title#team lunch")
	require.NoError(t, err)

	_, err = second.Acquire(ctx, "title#team lunch")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeLockNotAcquired))

	other, err := second.Acquire(ctx, "title#bike racks")
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := second.Acquire(ctx, "title#team lunch")
	require.NoError(t, err)
	again()
}
