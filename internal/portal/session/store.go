// Package session persists the portal's browser sessions: for each browser
// (identified by its sid cookie) exactly two values survive restarts, the
// bearer token and the serialized user record.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"docbridge/internal/models"
)

// Store is durable key-value persistence for one (token, user) pair per sid.
//
// Load never reports an error to page flow: missing or malformed data is
// simply absent. Save writes both values so a reader sees either the full
// pair or nothing. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, sid string, token string, user models.User) error
	Load(ctx context.Context, sid string) (token string, user models.User, ok bool)
	Clear(ctx context.Context, sid string) error
}

const (
	fieldToken = "token"
	fieldUser  = "user"
)

// RedisStore keeps each browser session in a single hash, so the token and
// user fields are written and deleted together.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(sid string) string {
	return "portal:sess:" + sid
}

func (s *RedisStore) Save(ctx context.Context, sid string, token string, user models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}

	key := s.key(sid)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldToken, token, fieldUser, payload)
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Load(ctx context.Context, sid string) (string, models.User, bool) {
	values, err := s.client.HMGet(ctx, s.key(sid), fieldToken, fieldUser).Result()
	if err != nil || len(values) != 2 {
		return "", models.User{}, false
	}

	token, _ := values[0].(string)
	rawUser, _ := values[1].(string)
	if token == "" || rawUser == "" {
		return "", models.User{}, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		// Corrupt persisted state is indistinguishable from no state.
		return "", models.User{}, false
	}
	if user.ID == "" || !user.UserType.Valid() {
		return "", models.User{}, false
	}

	// Sliding expiry: an active browser keeps its session alive.
	s.client.Expire(ctx, s.key(sid), s.ttl)

	return token, user, true
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	return s.client.Del(ctx, s.key(sid)).Err()
}
