package helper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/testutil"
)

func TestBlacklistLifecycle(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	const secret = "test-secret"

	black, err := helperAuth.IsBlacklisted(ctx, db, "raw-token", secret)
	require.NoError(t, err)
	assert.False(t, black)

	require.NoError(t, helperAuth.AddToBlacklist(ctx, db, "raw-token", secret, time.Now().Add(time.Hour)))
	require.NoError(t, helperAuth.AddToBlacklist(ctx, db, "raw-token", secret, time.Now().Add(2*time.Hour)))
	require.NoError(t, helperAuth.AddToBlacklist(ctx, db, "old-token", secret, time.Now().Add(-time.Minute)))

	black, err = helperAuth.IsBlacklisted(ctx, db, "raw-token", secret)
	require.NoError(t, err)
	assert.True(t, black)

	black, err = helperAuth.IsBlacklisted(ctx, db, "raw-token", "rotated-secret")
	require.NoError(t, err)
	assert.False(t, black)

	black, err = helperAuth.IsBlacklisted(ctx, db, "old-token", secret)
	require.NoError(t, err)
	assert.False(t, black, "expired entries no longer revoke")

	var stored []string
	require.NoError(t, db.Table("token_blacklist").Pluck("token", &stored).Error)
	assert.Len(t, stored, 2)
	assert.NotContains(t, stored, "raw-token")

	n, err := helperAuth.PurgeExpiredBlacklist(ctx, db, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
