/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const databaseTimeout = 3 * time.Second

const databaseSchema = `
CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS media_pairs (
	id BIGSERIAL PRIMARY KEY,
	category_id BIGINT NOT NULL REFERENCES categories (id),
	media_type TEXT NOT NULL,
	difficulty TEXT NOT NULL DEFAULT 'medium',
	real_media TEXT NOT NULL DEFAULT '',
	ai_media TEXT NOT NULL DEFAULT '',
	audio_media TEXT NOT NULL DEFAULT '',
	is_real BOOLEAN NOT NULL DEFAULT FALSE,
	hint TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS quizzes (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_random BOOLEAN NOT NULL DEFAULT FALSE,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS quiz_pairs (
	quiz_id BIGINT NOT NULL REFERENCES quizzes (id),
	pair_id BIGINT NOT NULL REFERENCES media_pairs (id),
	position INT NOT NULL DEFAULT 0,
	PRIMARY KEY (quiz_id, pair_id)
);

CREATE TABLE IF NOT EXISTS leaderboard_entries (
	id BIGSERIAL PRIMARY KEY,
	pseudo TEXT NOT NULL,
	score INT NOT NULL,
	streak_max INT NOT NULL DEFAULT 0,
	time_total_ms BIGINT NOT NULL DEFAULT 0,
	audience_type TEXT NOT NULL DEFAULT 'public',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS leaderboard_entries_score_idx
	ON leaderboard_entries (score DESC, time_total_ms ASC);
`

func newDatabasePool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, databaseTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return pool, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, databaseSchema)

	return err
}

// postgresCatalog serves the question catalog out of Postgres.
type postgresCatalog struct {
	pool *pgxpool.Pool
}

func newPostgresCatalog(pool *pgxpool.Pool) *postgresCatalog {
	return &postgresCatalog{pool: pool}
}

const pairColumns = `p.id, c.id, c.name, c.description, p.media_type,
	p.difficulty, p.real_media, p.ai_media, p.audio_media, p.is_real, p.hint`

func (pc *postgresCatalog) ActivePairs(ctx context.Context) ([]MediaPair, error) {
	rows, err := pc.pool.Query(ctx, `
		SELECT `+pairColumns+`
		FROM media_pairs p
		JOIN categories c ON c.id = p.category_id
		WHERE p.active AND c.active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPairs(rows)
}

func (pc *postgresCatalog) QuizPairs(ctx context.Context, quizID int64) ([]MediaPair, bool, error) {
	var isRandom bool

	err := pc.pool.QueryRow(ctx,
		`SELECT is_random FROM quizzes WHERE id = $1 AND active`,
		quizID).Scan(&isRandom)
	if err != nil {
		return nil, false, err
	}

	if isRandom {
		pairs, err := pc.ActivePairs(ctx)

		return pairs, true, err
	}

	rows, err := pc.pool.Query(ctx, `
		SELECT `+pairColumns+`
		FROM quiz_pairs q
		JOIN media_pairs p ON p.id = q.pair_id
		JOIN categories c ON c.id = p.category_id
		WHERE q.quiz_id = $1 AND p.active AND c.active
		ORDER BY q.position`,
		quizID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	pairs, err := scanPairs(rows)

	return pairs, false, err
}

func (pc *postgresCatalog) Quizzes(ctx context.Context) ([]Quiz, error) {
	rows, err := pc.pool.Query(ctx, `
		SELECT q.id, q.name, q.description, q.is_random,
			(SELECT COUNT(*) FROM quiz_pairs qp
				JOIN media_pairs p ON p.id = qp.pair_id
				WHERE qp.quiz_id = q.id AND p.active)
		FROM quizzes q
		WHERE q.active
		ORDER BY q.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []Quiz

	for rows.Next() {
		var q Quiz

		err := rows.Scan(&q.ID, &q.Name, &q.Description, &q.IsRandom, &q.PairsCount)
		if err != nil {
			return nil, err
		}

		quizzes = append(quizzes, q)
	}

	return quizzes, rows.Err()
}

type pairRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPairs(rows pairRows) ([]MediaPair, error) {
	var pairs []MediaPair

	for rows.Next() {
		var p MediaPair

		err := rows.Scan(&p.ID, &p.Category.ID, &p.Category.Name,
			&p.Category.Description, &p.MediaType, &p.Difficulty,
			&p.RealMedia, &p.AIMedia, &p.AudioMedia, &p.IsReal, &p.Hint)
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// postgresLeaderboard persists solo scores.
type postgresLeaderboard struct {
	pool *pgxpool.Pool
}

func newPostgresLeaderboard(pool *pgxpool.Pool) *postgresLeaderboard {
	return &postgresLeaderboard{pool: pool}
}

func (pl *postgresLeaderboard) SaveScore(ctx context.Context, entry LeaderboardEntry) (LeaderboardEntry, error) {
	err := pl.pool.QueryRow(ctx, `
		INSERT INTO leaderboard_entries
			(pseudo, score, streak_max, time_total_ms, audience_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		entry.Pseudo, entry.Score, entry.StreakMax, entry.TimeTotalMs,
		entry.AudienceType).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return LeaderboardEntry{}, err
	}

	return entry, nil
}

func (pl *postgresLeaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := pl.pool.Query(ctx, `
		SELECT id, pseudo, score, streak_max, time_total_ms, audience_type, created_at
		FROM leaderboard_entries
		ORDER BY score DESC, time_total_ms ASC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry

	for rows.Next() {
		var e LeaderboardEntry

		err := rows.Scan(&e.ID, &e.Pseudo, &e.Score, &e.StreakMax,
			&e.TimeTotalMs, &e.AudienceType, &e.CreatedAt)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
