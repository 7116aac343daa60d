package counter

import (
	"context"

	"github.com/snegopad/snowpay/internal/pkg/cache"
)

const notificationsKey = "payments:counters:notifications"

// AddNotification increments the counter for one processed webhook
// delivery, keyed by provider and notification kind.
func AddNotification(provider, kind string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, notificationsKey, provider+":"+kind, 1).Err()
}

// Snapshot returns all notification counters as field -> count.
func Snapshot() (map[string]string, error) {
	ctx := context.Background()
	return cache.GetClient().HGetAll(ctx, notificationsKey).Result()
}
