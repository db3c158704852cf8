/*
File: redisqueue.go
Description: An optional Redis-backed AnalyzerQueue and Sink, binding
             scorecore's minimal interfaces to a real key-value broker.
             Grounded on original_source/engine/src/redis_client.rs:
             enqueue/dequeue map to LPUSH/BRPOP, the analytics Sink's
             SET maps to SET+EXPIRE, and counters use INCR. The core
             package itself never imports this — a host process wires
             it in only if it wants an external broker instead of the
             default in-process channels.
*/

package redisqueue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"scorecore"
)

// Queue implements scorecore.AnalyzerQueue by LPUSHing onto a named
// Redis list, matching redis_client.rs::enqueue.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue returns a Queue pushing onto the named Redis list.
func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// analyzerTaskWire is the §6 analyzer queue message shape: the task
// payload plus an enqueued_at epoch-millisecond timestamp.
type analyzerTaskWire struct {
	DecisionID string               `json:"decision_id"`
	Domain     string               `json:"domain"`
	URL        string               `json:"url"`
	Features   scorecore.FeatureVector `json:"features"`
	EnqueuedAt int64                `json:"enqueued_at"`
}

// Enqueue implements scorecore.AnalyzerQueue.
func (q *Queue) Enqueue(ctx context.Context, task scorecore.AnalyzerTask) error {
	wire := analyzerTaskWire{
		DecisionID: task.DecisionID,
		Domain:     task.Domain,
		URL:        task.URL,
		Features:   task.Features,
		EnqueuedAt: task.EnqueuedAt.UnixMilli(),
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks (up to timeout) for the next queued task, matching
// redis_client.rs::dequeue's BRPOP.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (scorecore.AnalyzerTask, bool, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return scorecore.AnalyzerTask{}, false, nil
	}
	if err != nil {
		return scorecore.AnalyzerTask{}, false, err
	}
	// BRPop returns [key, value]; the payload is result[1].
	var wire analyzerTaskWire
	if err := json.Unmarshal([]byte(result[1]), &wire); err != nil {
		return scorecore.AnalyzerTask{}, false, err
	}
	return scorecore.AnalyzerTask{
		DecisionID: wire.DecisionID,
		Domain:     wire.Domain,
		URL:        wire.URL,
		Features:   wire.Features,
		EnqueuedAt: time.UnixMilli(wire.EnqueuedAt),
	}, true, nil
}

// Length reports the current queue depth (redis_client.rs::queue_length).
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Sink implements scorecore.Sink by SET+EXPIRE of each decision under
// a keyPrefix+<decision_id> key, matching redis_client.rs::set, and
// bumping a per-action counter (keyPrefix+"count:"+<action>) with INCR.
type Sink struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewSink returns a Sink writing decision records under keyPrefix with
// the given TTL.
func NewSink(client *redis.Client, keyPrefix string, ttl time.Duration) *Sink {
	return &Sink{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *Sink) Record(rec scorecore.AnalyticsRecord) {
	ctx := context.Background()
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	key := s.keyPrefix + rec.Decision.DecisionID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, payload, 0)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Incr(ctx, s.keyPrefix+"count:"+string(rec.Decision.Action))
	_, _ = pipe.Exec(ctx)
}
