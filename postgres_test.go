/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres brings up a throwaway database and returns a migrated pool.
// Requires a working Docker socket; use -short to skip.
func startPostgres(t *testing.T) *postgresCatalog {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fakeout"),
		postgres.WithUsername("fakeout"),
		postgres.WithPassword("fakeout"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := newDatabasePool(ctx, connStr)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return newPostgresCatalog(pool)
}

func seedCatalog(t *testing.T, pc *postgresCatalog) {
	t.Helper()

	ctx := context.Background()

	_, err := pc.pool.Exec(ctx, `
		INSERT INTO categories (id, name, description)
		VALUES (1, 'portraits', 'Face shots');

		INSERT INTO media_pairs
			(id, category_id, media_type, difficulty, real_media, ai_media, hint, active)
		VALUES
			(1, 1, 'image', 'easy', 'real/1.webp', 'ai/1.webp', 'look at the hands', TRUE),
			(2, 1, 'image', 'hard', 'real/2.webp', 'ai/2.webp', 'background blur', TRUE),
			(3, 1, 'image', 'easy', 'real/3.webp', 'ai/3.webp', 'retired', FALSE);

		INSERT INTO media_pairs
			(id, category_id, media_type, audio_media, is_real, hint, active)
		VALUES
			(4, 1, 'audio', 'clips/4.mp3', TRUE, 'breathing pattern', TRUE);

		INSERT INTO quizzes (id, name, description, is_random, active)
		VALUES (1, 'starter', 'A gentle warmup', FALSE, TRUE);

		INSERT INTO quiz_pairs (quiz_id, pair_id, position)
		VALUES (1, 2, 1), (1, 1, 2);
	`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestPostgresCatalog(t *testing.T) {
	pc := startPostgres(t)
	seedCatalog(t, pc)

	ctx := context.Background()

	pairs, err := pc.ActivePairs(ctx)
	if err != nil {
		t.Fatalf("active pairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("got %d active pairs, want 3", len(pairs))
	}
	for _, p := range pairs {
		if p.ID == 3 {
			t.Error("inactive pair returned")
		}
		if p.Category.Name != "portraits" {
			t.Errorf("pair %d category %q", p.ID, p.Category.Name)
		}
	}

	quizPairs, isRandom, err := pc.QuizPairs(ctx, 1)
	if err != nil {
		t.Fatalf("quiz pairs: %v", err)
	}
	if isRandom {
		t.Error("curated quiz reported random")
	}
	if len(quizPairs) != 2 || quizPairs[0].ID != 2 || quizPairs[1].ID != 1 {
		t.Fatalf("quiz order wrong: %+v", quizPairs)
	}

	quizzes, err := pc.Quizzes(ctx)
	if err != nil {
		t.Fatalf("quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].PairsCount != 2 {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}

	if _, _, err := pc.QuizPairs(ctx, 99); err == nil {
		t.Error("unknown quiz did not error")
	}
}

func TestPostgresLeaderboard(t *testing.T) {
	pc := startPostgres(t)
	lb := newPostgresLeaderboard(pc.pool)

	ctx := context.Background()

	for _, seed := range []LeaderboardEntry{
		{Pseudo: "first", Score: 300, TimeTotalMs: 9000, AudienceType: audiencePublic},
		{Pseudo: "tied-fast", Score: 200, TimeTotalMs: 4000, AudienceType: audiencePublic},
		{Pseudo: "tied-slow", Score: 200, TimeTotalMs: 8000, AudienceType: audienceSchool},
		{Pseudo: "last", Score: 100, TimeTotalMs: 1000, AudienceType: audiencePublic},
	} {
		if _, err := lb.SaveScore(ctx, seed); err != nil {
			t.Fatalf("save %s: %v", seed.Pseudo, err)
		}
	}

	top, err := lb.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("got %d entries, want 3", len(top))
	}

	// Ties broken by fastest total time.
	want := []string{"first", "tied-fast", "tied-slow"}
	for i, entry := range top {
		if entry.Pseudo != want[i] {
			t.Errorf("rank %d: got %s, want %s", i+1, entry.Pseudo, want[i])
		}
	}
}
