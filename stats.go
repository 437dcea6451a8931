/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// pairStats holds the community answer tally for a single media pair.
type pairStats struct {
	Attempts int64
	Correct  int64
}

func (s pairStats) successRate() float64 {
	if s.Attempts == 0 {
		return 0
	}

	return float64(s.Correct) / float64(s.Attempts) * 100
}

// statsRecorder tracks how often players spot the AI for each pair.
type statsRecorder interface {
	Record(ctx context.Context, pairID int64, correct bool) (pairStats, error)
}

type redisStats struct {
	client *redis.Client
}

func newRedisStats(ctx context.Context, url string) (*redisStats, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisStats{client: client}, nil
}

func (r *redisStats) Record(ctx context.Context, pairID int64, correct bool) (pairStats, error) {
	attemptsKey := fmt.Sprintf("fakeout:pair:%d:attempts", pairID)
	correctKey := fmt.Sprintf("fakeout:pair:%d:correct", pairID)

	var attempts, correctCount *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		attempts = pipe.Incr(ctx, attemptsKey)

		if correct {
			correctCount = pipe.Incr(ctx, correctKey)
		} else {
			correctCount = pipe.IncrBy(ctx, correctKey, 0)
		}

		return nil
	})
	if err != nil {
		return pairStats{}, err
	}

	return pairStats{
		Attempts: attempts.Val(),
		Correct:  correctCount.Val(),
	}, nil
}

func (r *redisStats) Close() error {
	return r.client.Close()
}

// memoryStats keeps tallies in-process when no Redis URL is configured.
// Counts reset on restart.
type memoryStats struct {
	mu    sync.Mutex
	pairs map[int64]pairStats
}

func newMemoryStats() *memoryStats {
	return &memoryStats{
		pairs: make(map[int64]pairStats),
	}
}

func (m *memoryStats) Record(_ context.Context, pairID int64, correct bool) (pairStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.pairs[pairID]

	s.Attempts++
	if correct {
		s.Correct++
	}

	m.pairs[pairID] = s

	return s, nil
}
