package cache

import (
	"context"
	"fmt"
	"log"
	"time"
)

// TTL for cached latest cards. Publishes invalidate explicitly, the TTL only
// bounds staleness after out-of-band writes.
const cardTTL = 10 * time.Minute

func cardKey(tenantID, agentID int) string {
	return fmt.Sprintf("card:latest:%d:%d", tenantID, agentID)
}

// GetLatestCard returns the cached latest card JSON for an agent, or false on
// miss. Redis failures are treated as misses so the read path degrades to the
// database.
func GetLatestCard(ctx context.Context, tenantID, agentID int) ([]byte, bool) {
	if Client == nil {
		return nil, false
	}
	data, err := Client.Get(ctx, cardKey(tenantID, agentID)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetLatestCard caches the latest card JSON for an agent. Failures are logged
// and swallowed.
func SetLatestCard(ctx context.Context, tenantID, agentID int, card []byte) {
	if Client == nil {
		return
	}
	if err := Client.Set(ctx, cardKey(tenantID, agentID), card, cardTTL).Err(); err != nil {
		log.Printf("[Cache] Failed to cache card for agent %d: %v", agentID, err)
	}
}

// InvalidateLatestCard drops the cached card for an agent (called on publish
// and on peer-mirror updates).
func InvalidateLatestCard(ctx context.Context, tenantID, agentID int) {
	if Client == nil {
		return
	}
	if err := Client.Del(ctx, cardKey(tenantID, agentID)).Err(); err != nil {
		log.Printf("[Cache] Failed to invalidate card for agent %d: %v", agentID, err)
	}
}
