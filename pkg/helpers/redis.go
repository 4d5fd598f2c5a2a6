package helpers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL bounds how long a login session survives without refresh.
const SessionTTL = 24 * time.Hour

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

// SaveSession writes fields into the user's session hash and resets its TTL.
func SaveSession(ctx context.Context, rdb *redis.Client, userID string, fields map[string]any) error {
	key := SessionKey(userID)
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, SessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetSession returns the session hash; an empty map means no session.
func GetSession(ctx context.Context, rdb *redis.Client, userID string) (map[string]string, error) {
	return rdb.HGetAll(ctx, SessionKey(userID)).Result()
}

func DeleteSession(ctx context.Context, rdb *redis.Client, userID string) error {
	return rdb.Del(ctx, SessionKey(userID)).Err()
}
