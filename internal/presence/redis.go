package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/metrics"
)

const (
	// OnlineKey holds the set of online user ids.
	OnlineKey = "presence:online"
	// ChangedChannel receives the online user ids as a JSON array after every
	// change.
	ChangedChannel = "presence:changed"

	mirrorTimeout = 2 * time.Second
)

// RedisMirror publishes the online set to Redis so other processes can read
// presence. It never owns presence; failures are logged and dropped.
//
// Publish only queues the snapshot. A background loop writes the most recent
// one, so a slow Redis never stalls connection handling.
type RedisMirror struct {
	client  *redis.Client
	pending chan []string
	done    chan struct{}
	stopped chan struct{}
}

// NewRedisMirror connects to redisURL (redis://...).
func NewRedisMirror(ctx context.Context, redisURL string) (*RedisMirror, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisMirrorFromClient(client), nil
}

// NewRedisMirrorFromClient wraps an existing client.
func NewRedisMirrorFromClient(client *redis.Client) *RedisMirror {
	m := &RedisMirror{
		client:  client,
		pending: make(chan []string, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.run()
	return m
}

// Publish queues online for mirroring without blocking. An unsent older
// snapshot is replaced.
func (m *RedisMirror) Publish(online []string) {
	for {
		select {
		case m.pending <- online:
			return
		default:
		}
		select {
		case <-m.pending:
		default:
		}
	}
}

func (m *RedisMirror) run() {
	defer close(m.stopped)
	for {
		select {
		case online := <-m.pending:
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
			err := m.publish(ctx, online)
			cancel()
			if err != nil {
				metrics.PresenceMirrorErrors.Inc()
				logger.Warnf("[presence] redis mirror: %v", err)
			}
		case <-m.done:
			return
		}
	}
}

func (m *RedisMirror) publish(ctx context.Context, online []string) error {
	payload, err := json.Marshal(online)
	if err != nil {
		return err
	}

	_, err = m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, OnlineKey)
		if len(online) > 0 {
			members := make([]any, len(online))
			for i, id := range online {
				members[i] = id
			}
			pipe.SAdd(ctx, OnlineKey, members...)
		}
		pipe.Publish(ctx, ChangedChannel, payload)
		return nil
	})
	return err
}

// Online reads the mirrored online set.
func (m *RedisMirror) Online(ctx context.Context) ([]string, error) {
	return m.client.SMembers(ctx, OnlineKey).Result()
}

// Close stops the publish loop, clears the mirrored set and closes the
// client.
func (m *RedisMirror) Close() error {
	close(m.done)
	<-m.stopped

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	_ = m.client.Del(ctx, OnlineKey).Err()
	return m.client.Close()
}
