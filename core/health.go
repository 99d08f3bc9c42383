package core

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status        string            `json:"status"`
	Components    map[string]string `json:"components"`
	UptimeSeconds int64             `json:"uptime_seconds"`
}

// CollectHealth pings every backing store. Nil dependencies are skipped.
func CollectHealth(ctx context.Context, db Pinger, rdb redis.Cmdable, startedAt time.Time) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := HealthStatus{Status: "ok", Components: map[string]string{}}
	if db != nil {
		st.Components["postgres"] = "ok"
		if err := db.Ping(ctx); err != nil {
			log.Printf("[health] postgres ping failed: %v", err)
			st.Components["postgres"] = "unavailable"
			st.Status = "degraded"
		}
	}
	if rdb != nil {
		st.Components["redis"] = "ok"
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[health] redis ping failed: %v", err)
			st.Components["redis"] = "unavailable"
			st.Status = "degraded"
		}
	}
	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}
	return st
}
