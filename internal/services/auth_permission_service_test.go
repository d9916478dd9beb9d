package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"realty-system/internal/repositories"
)

func newPermissionFixture(t *testing.T) (AuthPermissionServiceInterface, *fakePermissionRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &fakePermissionRepo{perms: map[uint64][]string{
		1: {"objects.view_own_apartment", "clients.view_own_client"},
	}}
	svc := NewAuthPermissionService(repo, repositories.NewRedisCacheRepository(client), zap.NewNop(), time.Minute)
	return svc, repo, mr
}

func TestAuthPermissions_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newPermissionFixture(t)

	m, err := svc.GetUserPermissionsMap(ctx, 1)
	require.NoError(t, err)
	assert.True(t, m["objects.view_own_apartment"])
	assert.True(t, mr.Exists(permissionsCacheKey(1)))

	_, err = svc.GetUserPermissionsMap(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "второй запрос из кеша")

	repo.perms[1] = []string{"objects.view_apartment"}
	require.NoError(t, svc.InvalidateUserPermissionsCache(ctx, 1))
	m, err = svc.GetUserPermissionsMap(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.True(t, m["objects.view_apartment"])
	assert.False(t, m["objects.view_own_apartment"])
}

func TestAuthPermissions_EmptyListCachedAndExpires(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newPermissionFixture(t)

	names, err := svc.GetUserPermissionsNames(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, names)
	_, err = svc.GetUserPermissionsNames(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	mr.FastForward(2 * time.Minute)
	_, err = svc.GetUserPermissionsNames(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestAuthPermissions_CorruptedCacheEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo, mr := newPermissionFixture(t)
	require.NoError(t, mr.Set(permissionsCacheKey(1), "{not json"))

	names, err := svc.GetUserPermissionsNames(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, 1, repo.calls)
}
