package relay

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"kamianime/models"
)

// Publisher appends Discord-bound SyncEvents to the relay stream.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish adds the event to the stream, trimming history approximately.
func (p *Publisher) Publish(ctx context.Context, ev models.SyncEvent) error {
	data, err := models.MarshalSyncEvent(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: discordStream,
		Values: map[string]interface{}{"data": data},
		MaxLen: streamMaxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// EventSink receives events read from the stream. The bot worker's Discord
// delivery implements this.
type EventSink interface {
	Deliver(ctx context.Context, ev models.SyncEvent)
}

// Consumer reads the relay stream with a consumer group so delivery survives
// bot restarts: unacked messages are reclaimed after an idle period.
type Consumer struct {
	rdb          *redis.Client
	sink         EventSink
	consumerName string
}

func NewConsumer(rdb *redis.Client, sink EventSink) *Consumer {
	hostname, _ := os.Hostname()
	return &Consumer{
		rdb:          rdb,
		sink:         sink,
		consumerName: fmt.Sprintf("consumer-%s-%d", hostname, os.Getpid()),
	}
}

// Run creates the consumer group if needed and consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, discordStream, consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	reclaim := time.NewTicker(30 * time.Second)
	defer reclaim.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reclaim.C:
			c.reclaimPending(ctx)
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{discordStream, ">"},
			Count:    100,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("relay: stream read error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				if err := c.processMessage(ctx, message); err != nil {
					log.Printf("relay: dropping message %s: %v", message.ID, err)
				}
				c.rdb.XAck(ctx, discordStream, consumerGroup, message.ID)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, message redis.XMessage) error {
	data, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid message format: missing data field")
	}
	ev, err := models.UnmarshalSyncEvent(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	c.sink.Deliver(ctx, ev)
	return nil
}

// reclaimPending claims messages another consumer read but never acked.
func (c *Consumer) reclaimPending(ctx context.Context) {
	pending, err := c.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: discordStream,
		Group:  consumerGroup,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return
	}

	for _, p := range pending {
		if p.Idle < 30*time.Second {
			continue
		}
		claimed, err := c.rdb.XClaim(ctx, &redis.XClaimArgs{
			Stream:   discordStream,
			Group:    consumerGroup,
			Consumer: c.consumerName,
			MinIdle:  30 * time.Second,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			continue
		}
		for _, msg := range claimed {
			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("relay: dropping reclaimed message %s: %v", msg.ID, err)
			}
			c.rdb.XAck(ctx, discordStream, consumerGroup, msg.ID)
		}
	}
}
