package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/aromastore/internal/auth/domain"
)

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client), mr
}

func session(id string, userID uint) *domain.Session {
	now := time.Now()
	return &domain.Session{ID: id, UserID: userID, Role: "customer", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
}

func TestSaveAndGet(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session("s1", 7)))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "customer", got.Role)

	assert.True(t, mr.Exists(sessionKey("s1")))
	assert.Greater(t, mr.TTL(sessionKey("s1")), 59*time.Minute)
	members, err := mr.SMembers(userSessionsKey(7))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members)
}

func TestGetMissingReturnsNil(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveRejectsExpiredSession(t *testing.T) {
	store, _ := newStore(t)
	s := session("s1", 7)
	s.ExpiresAt = time.Now().Add(-time.Minute)

	assert.Error(t, store.Save(context.Background(), s))
}

func TestSessionExpires(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session("s1", 7)))

	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteRemovesSessionAndIndex(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session("s1", 7)))
	require.NoError(t, store.Save(ctx, session("s2", 7)))

	require.NoError(t, store.Delete(ctx, "s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
	members, err := mr.SMembers(userSessionsKey(7))
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, members)

	// 重复登出不报错
	require.NoError(t, store.Delete(ctx, "s1"))
}

func TestDeleteByUserKeepsCurrentSession(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, store.Save(ctx, session(id, 7)))
	}
	require.NoError(t, store.Save(ctx, session("other", 8)))

	require.NoError(t, store.DeleteByUser(ctx, 7, "s2"))

	for id, alive := range map[string]bool{"s1": false, "s2": true, "s3": false, "other": true} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, alive, got != nil, id)
	}

	// 只剩当前会话时再次吊销是空操作
	require.NoError(t, store.DeleteByUser(ctx, 7, "s2"))
	require.NoError(t, store.DeleteByUser(ctx, 99, ""))
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveState(ctx, "st-1", 10*time.Minute))

	ok, err := store.ConsumeState(ctx, "st-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConsumeState(ctx, "st-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveState(ctx, "st-2", time.Minute))
	mr.FastForward(2 * time.Minute)
	ok, err = store.ConsumeState(ctx, "st-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
