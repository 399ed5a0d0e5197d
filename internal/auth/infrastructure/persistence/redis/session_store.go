package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/aromastore/internal/auth/domain"
)

const (
	sessionPrefix     = "auth:session:"
	userSessionPrefix = "auth:user_sessions:"
	statePrefix       = "auth:oauth_state:"
)

// SessionStore 基于 Redis 的会话与 OAuth state 存储；每个用户维护一个会话 ID 集合用于批量吊销
type SessionStore struct {
	client redis.UniversalClient
}

var (
	_ domain.SessionStore = (*SessionStore)(nil)
	_ domain.StateStore   = (*SessionStore)(nil)
)

// NewSessionStore 创建会话存储
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string        { return sessionPrefix + id }
func userSessionsKey(userID uint) string { return fmt.Sprintf("%s%d", userSessionPrefix, userID) }

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	setKey := userSessionsKey(sess.UserID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), data, ttl)
	pipe.SAdd(ctx, setKey, sess.ID)
	pipe.Expire(ctx, setKey, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	if sess != nil {
		pipe.SRem(ctx, userSessionsKey(sess.UserID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID uint, except string) error {
	setKey := userSessionsKey(userID)
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, id := range ids {
		if id == except {
			continue
		}
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, setKey, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	return s.client.Set(ctx, statePrefix+state, "1", ttl).Err()
}

func (s *SessionStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	_, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
