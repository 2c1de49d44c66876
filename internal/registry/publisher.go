package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/nft-registry/internal/ledger"
)

const (
	// EventsChannel carries every committed event as JSON.
	EventsChannel = "registry.events"
	headKey       = "registry:head"
)

// advanceHead replaces the stored head only when the new seq is higher.
var advanceHead = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, head = pcall(cjson.decode, cur)
	if ok and type(head) == 'table' and tonumber(head.seq) and tonumber(head.seq) >= tonumber(ARGV[1]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

// RedisPublisher publishes committed events on a Redis channel and keeps the
// last published head under a well-known key.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends events in order and advances the published head. The head
// never moves backwards.
func (p *RedisPublisher) Publish(ctx context.Context, events []ledger.Event) error {
	if p == nil || p.client == nil || len(events) == 0 {
		return nil
	}
	pipe := p.client.TxPipeline()
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("registry: encode event %d: %w", e.Seq, err)
		}
		pipe.Publish(ctx, EventsChannel, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	last := events[len(events)-1]
	head, err := json.Marshal(Head{Version: last.Version, Seq: last.Seq, At: last.At})
	if err != nil {
		return err
	}
	return advanceHead.Run(ctx, p.client, []string{headKey}, last.Seq, head).Err()
}

// Head returns the last published position.
func (p *RedisPublisher) Head(ctx context.Context) (Head, bool, error) {
	if p == nil || p.client == nil {
		return Head{}, false, nil
	}
	raw, err := p.client.Get(ctx, headKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Head{}, false, nil
	}
	if err != nil {
		return Head{}, false, err
	}
	var head Head
	if err := json.Unmarshal(raw, &head); err != nil {
		return Head{}, false, fmt.Errorf("registry: decode head: %w", err)
	}
	return head, true, nil
}

// Subscribe delivers published events to fn until ctx ends or fn fails.
// Undecodable messages are skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, fn func(ledger.Event) error) error {
	sub := p.client.Subscribe(ctx, EventsChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("registry: subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e ledger.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				continue
			}
			if err := fn(e); err != nil {
				return err
			}
		}
	}
}
