package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"triarb/internal/exchange/common"
	"triarb/internal/graph"
)

const graphKey = "triarb:graph"

func depthKey(symbol string) string { return "triarb:depth:" + symbol }

// SnapshotCache keeps the last published graph and the depth snapshots of
// the current scan in Redis so other processes can inspect them.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(ctx context.Context, addr string, db int, ttl time.Duration) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &SnapshotCache{client: client, ttl: ttl}, nil
}

// SetGraph stores the graph in its JSON persistence format.
func (c *SnapshotCache) SetGraph(ctx context.Context, g *graph.Graph) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	if err := c.client.Set(ctx, graphKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set graph in redis: %w", err)
	}
	return nil
}

// GetGraph loads the cached graph; nil without error when absent.
func (c *SnapshotCache) GetGraph(ctx context.Context) (*graph.Graph, error) {
	data, err := c.client.Get(ctx, graphKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get graph from redis: %w", err)
	}
	g := graph.New()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("unmarshal cached graph: %w", err)
	}
	return g, nil
}

// SetDepth stores one symbol's order-book snapshot in the wire format.
func (c *SnapshotCache) SetDepth(ctx context.Context, symbol string, d common.Depth) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal depth %s: %w", symbol, err)
	}
	if err := c.client.Set(ctx, depthKey(symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set depth %s in redis: %w", symbol, err)
	}
	return nil
}

// GetDepth loads one symbol's snapshot; ok is false when absent.
func (c *SnapshotCache) GetDepth(ctx context.Context, symbol string) (common.Depth, bool, error) {
	data, err := c.client.Get(ctx, depthKey(symbol)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return common.Depth{}, false, nil
		}
		return common.Depth{}, false, fmt.Errorf("get depth %s from redis: %w", symbol, err)
	}
	var d common.Depth
	if err := json.Unmarshal(data, &d); err != nil {
		return common.Depth{}, false, fmt.Errorf("unmarshal cached depth %s: %w", symbol, err)
	}
	return d, true, nil
}

func (c *SnapshotCache) Close() error { return c.client.Close() }
