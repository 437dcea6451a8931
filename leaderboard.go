/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// Audience types a solo run can be tagged with, for separate rankings in
// downstream tooling.
const (
	audiencePublic = "public"
	audienceSchool = "school"
)

// LeaderboardEntry is a persisted solo score. Entries are ranked by score
// descending, fastest total time first on ties.
type LeaderboardEntry struct {
	ID           int64     `json:"id"`
	Pseudo       string    `json:"pseudo"`
	Score        int       `json:"score"`
	StreakMax    int       `json:"streak_max"`
	TimeTotalMs  int64     `json:"time_total_ms"`
	AudienceType string    `json:"audience_type"`
	CreatedAt    time.Time `json:"created_at"`
}

type leaderboardStore interface {
	SaveScore(ctx context.Context, entry LeaderboardEntry) (LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// leaderboardHandler handles GET /api/leaderboard.
func leaderboardHandler(cfg *Config, store leaderboardStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		limit := defaultLeaderboardLimit

		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				writeError(w, http.StatusBadRequest, validationErr("Invalid limit"))
				return
			}

			limit = parsed
		}

		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}

		entries, err := store.Top(r.Context(), limit)
		if err != nil {
			logf(cfg, "SERVE: Leaderboard query failed: %v", err)
			writeError(w, http.StatusInternalServerError, err)

			return
		}

		rank := make([]map[string]any, 0, len(entries))
		for i, e := range entries {
			rank = append(rank, map[string]any{
				"rank":          i + 1,
				"pseudo":        e.Pseudo,
				"score":         e.Score,
				"streak_max":    e.StreakMax,
				"time_total_ms": e.TimeTotalMs,
				"created_at":    e.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"leaderboard": rank,
		})
	}
}

// quizzesHandler handles GET /api/quizzes.
func quizzesHandler(cfg *Config, catalog Catalog) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		quizzes, err := catalog.Quizzes(r.Context())
		if err != nil {
			logf(cfg, "SERVE: Quiz listing failed: %v", err)
			writeError(w, http.StatusInternalServerError, err)

			return
		}

		if quizzes == nil {
			quizzes = []Quiz{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"quizzes": quizzes,
		})
	}
}

func registerCatalog(cfg *Config, mux *httprouter.Router, catalog Catalog, store leaderboardStore) {
	mux.GET(cfg.prefix+"/api/quizzes", quizzesHandler(cfg, catalog))
	mux.GET(cfg.prefix+"/api/leaderboard", leaderboardHandler(cfg, store))
}
