package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupeTTL bounds how long an event id is remembered. Senders retry within
// seconds or minutes; a week of memory covers any realistic redelivery.
const dedupeTTL = 7 * 24 * time.Hour

// Deduper remembers processed webhook event ids so replays are no-ops.
type Deduper struct {
	rdb *redis.Client
}

func NewDeduper(rdb *redis.Client) *Deduper {
	return &Deduper{rdb: rdb}
}

// MarkProcessed records the event id. first is true only for the initial
// call with a given id; a replay returns false.
func (d *Deduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	first, err := d.rdb.SetNX(ctx, "kami:event:"+eventID, 1, dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe check: %w", err)
	}
	return first, nil
}

// Unmark releases an event id whose application failed, so the sender's
// retry is processed instead of dropped.
func (d *Deduper) Unmark(ctx context.Context, eventID string) error {
	return d.rdb.Del(ctx, "kami:event:"+eventID).Err()
}
