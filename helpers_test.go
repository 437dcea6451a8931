/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeCatalog serves a fixed pair list without a database.
type fakeCatalog struct {
	pairs     []MediaPair
	quizzes   []Quiz
	quizPairs map[int64][]MediaPair
	err       error
}

func (f *fakeCatalog) ActivePairs(_ context.Context) ([]MediaPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pairs, nil
}

func (f *fakeCatalog) QuizPairs(_ context.Context, quizID int64) ([]MediaPair, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	for _, q := range f.quizzes {
		if q.ID == quizID {
			return f.quizPairs[quizID], q.IsRandom, nil
		}
	}
	return nil, false, fmt.Errorf("quiz %d not found", quizID)
}

func (f *fakeCatalog) Quizzes(_ context.Context) ([]Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quizzes, nil
}

// fakeLeaderboard collects saved scores in memory.
type fakeLeaderboard struct {
	mu      sync.Mutex
	entries []LeaderboardEntry
	err     error
}

func (f *fakeLeaderboard) SaveScore(_ context.Context, entry LeaderboardEntry) (LeaderboardEntry, error) {
	if f.err != nil {
		return LeaderboardEntry{}, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry.ID = int64(len(f.entries) + 1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)

	return entry, nil
}

func (f *fakeLeaderboard) Top(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]LeaderboardEntry, len(f.entries))
	copy(out, f.entries)
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func imagePairs(n int) []MediaPair {
	pairs := make([]MediaPair, 0, n)
	for i := 1; i <= n; i++ {
		pairs = append(pairs, MediaPair{
			ID:         int64(i),
			Category:   Category{ID: 1, Name: "portraits"},
			MediaType:  mediaImage,
			Difficulty: "medium",
			RealMedia:  fmt.Sprintf("real/%d.webp", i),
			AIMedia:    fmt.Sprintf("ai/%d.webp", i),
			Hint:       fmt.Sprintf("hint %d", i),
		})
	}
	return pairs
}

func testConfig() *Config {
	return &Config{
		bind:           "127.0.0.1",
		port:           8080,
		mediaBaseURL:   "http://media.local",
		playerTimeout:  time.Minute,
		roomTimeout:    time.Hour,
		sessionTimeout: time.Hour,
	}
}
