package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	FameProfileKeyPrefix = "fame:%d"
	BullshittersKey      = "report:bullshitters"
	RevokedUserKeyPrefix = "revoked_user:%d"
)

const (
	FameProfileTTL = 5 * time.Minute
	ReportTTL      = time.Minute
)

func FameProfileKey(userID uint) string {
	return fmt.Sprintf(FameProfileKeyPrefix, userID)
}

func RevokedUserKey(userID uint) string {
	return fmt.Sprintf(RevokedUserKeyPrefix, userID)
}

// Invalidate drops key from Redis and the local fallback.
func Invalidate(ctx context.Context, key string) {
	local.Remove(key)
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateLedger drops every cached view derived from userID's fame entries.
func InvalidateLedger(ctx context.Context, userID uint) {
	Invalidate(ctx, FameProfileKey(userID))
	Invalidate(ctx, BullshittersKey)
}
