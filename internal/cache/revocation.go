package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokeUser marks every session of userID as revoked. Bans are terminal so
// the marker never expires.
func RevokeUser(ctx context.Context, userID uint) error {
	if client == nil {
		return errors.New("redis client is nil")
	}
	if err := client.Set(ctx, RevokedUserKey(userID), time.Now().Unix(), 0).Err(); err != nil {
		return fmt.Errorf("revoke user %d: %w", userID, err)
	}
	return nil
}

// IsRevoked reports whether userID's sessions were revoked. Without Redis it
// answers false and the service layer still rejects inactive users.
func IsRevoked(ctx context.Context, userID uint) (bool, error) {
	if client == nil {
		return false, nil
	}
	err := client.Get(ctx, RevokedUserKey(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
