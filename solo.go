/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// soloAnswer is one recorded answer inside a solo session.
type soloAnswer struct {
	PairID         int64  `json:"pair_id"`
	Choice         string `json:"choice"`
	IsCorrect      bool   `json:"is_correct"`
	PointsEarned   int    `json:"points_earned"`
	ResponseTimeMs int    `json:"response_time_ms"`
}

// soloSession is a single-player run through up to ten questions. Sessions
// live in memory only; the score survives through the leaderboard once the
// player saves it under a pseudo.
type soloSession struct {
	key         string
	audience    string
	pairs       []MediaPair
	realSides   map[int64]string
	answers     []soloAnswer
	score       int
	streak      int
	streakMax   int
	timeTotalMs int64
	saved       bool
	createdAt   time.Time
	lastActive  time.Time
}

func (s *soloSession) complete() bool {
	return len(s.answers) >= len(s.pairs)
}

func (s *soloSession) pair(pairID int64) (MediaPair, bool) {
	for _, p := range s.pairs {
		if p.ID == pairID {
			return p, true
		}
	}

	return MediaPair{}, false
}

func (s *soloSession) answered(pairID int64) bool {
	for _, a := range s.answers {
		if a.PairID == pairID {
			return true
		}
	}

	return false
}

func (s *soloSession) realSide(pairID int64) string {
	if side, ok := s.realSides[pairID]; ok {
		return side
	}

	return sideLeft
}

// soloStore holds live solo sessions, keyed by an unguessable UUID.
type soloStore struct {
	mu        sync.Mutex
	sessions  map[string]*soloSession
	mediaBase string
}

func newSoloStore(mediaBase string) *soloStore {
	return &soloStore{
		sessions:  make(map[string]*soloSession),
		mediaBase: mediaBase,
	}
}

func (st *soloStore) create(pairs []MediaPair, audience string) *soloSession {
	session := &soloSession{
		key:        uuid.NewString(),
		audience:   audience,
		pairs:      pairs,
		realSides:  make(map[int64]string),
		createdAt:  time.Now(),
		lastActive: time.Now(),
	}

	for _, pair := range pairs {
		if pair.MediaType == mediaAudio {
			continue
		}
		if rand.Intn(2) == 0 {
			session.realSides[pair.ID] = sideLeft
		} else {
			session.realSides[pair.ID] = sideRight
		}
	}

	st.mu.Lock()
	st.sessions[session.key] = session
	st.mu.Unlock()

	return session
}

func (st *soloStore) lookup(key string) (*soloSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[key]
	if ok {
		session.lastActive = time.Now()
	}

	return session, ok
}

// reaperLoop drops sessions idle past the timeout.
func (st *soloStore) reaperLoop(cfg *Config, idleTimeout time.Duration) {
	ticker := time.NewTicker(idleTimeout / 2)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-idleTimeout)

		st.mu.Lock()
		for key, session := range st.sessions {
			if session.lastActive.Before(cutoff) {
				delete(st.sessions, key)
				logf(cfg, "SOLO: Reaped idle session %s", key)
			}
		}
		st.mu.Unlock()
	}
}

// soloQuestionView positions a pair for display the same way live rooms do,
// but the whole list ships up front so the client can run without a round
// trip per question.
type soloQuestionView struct {
	PairID         int64  `json:"pair_id"`
	QuestionNumber int    `json:"question_number"`
	MediaType      string `json:"media_type"`
	Category       string `json:"category"`
	Difficulty     string `json:"difficulty"`
	LeftMedia      string `json:"left_media,omitempty"`
	RightMedia     string `json:"right_media,omitempty"`
	AudioMedia     string `json:"audio_media,omitempty"`
}

func (st *soloStore) questionViews(session *soloSession) []soloQuestionView {
	views := make([]soloQuestionView, 0, len(session.pairs))

	for i, pair := range session.pairs {
		view := soloQuestionView{
			PairID:         pair.ID,
			QuestionNumber: i + 1,
			MediaType:      pair.MediaType,
			Category:       pair.Category.Name,
			Difficulty:     pair.Difficulty,
		}

		switch {
		case pair.MediaType == mediaAudio:
			view.AudioMedia = mediaURL(st.mediaBase, pair.AudioMedia)
		case session.realSide(pair.ID) == sideLeft:
			view.LeftMedia = mediaURL(st.mediaBase, pair.RealMedia)
			view.RightMedia = mediaURL(st.mediaBase, pair.AIMedia)
		default:
			view.LeftMedia = mediaURL(st.mediaBase, pair.AIMedia)
			view.RightMedia = mediaURL(st.mediaBase, pair.RealMedia)
		}

		views = append(views, view)
	}

	return views
}

// createSessionHandler handles POST /api/sessions.
func createSessionHandler(cfg *Config, catalog Catalog, store *soloStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			QuizID   int64  `json:"quiz_id"`
			Audience string `json:"audience_type"`
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		switch body.Audience {
		case "":
			body.Audience = audiencePublic
		case audiencePublic, audienceSchool:
		default:
			writeError(w, http.StatusBadRequest, validationErr("Invalid audience type"))
			return
		}

		pairs, err := selectPairs(r.Context(), catalog, body.QuizID)
		if err != nil {
			logf(cfg, "SOLO: Pair selection failed: %v", err)
			writeError(w, http.StatusInternalServerError, err)

			return
		}
		if len(pairs) == 0 {
			writeError(w, http.StatusBadRequest, validationErr("No questions available"))
			return
		}

		session := store.create(pairs, body.Audience)
		logf(cfg, "SOLO: Created session %s (%d questions)", session.key, len(pairs))

		writeJSON(w, http.StatusCreated, map[string]any{
			"session_key":     session.key,
			"total_questions": len(pairs),
			"questions":       store.questionViews(session),
		})
	}
}

// sessionAnswerHandler handles POST /api/sessions/:key/answer.
func sessionAnswerHandler(cfg *Config, store *soloStore, stats statsRecorder) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var body struct {
			PairID         int64  `json:"pair_id"`
			Choice         string `json:"choice"`
			ResponseTimeMs int    `json:"response_time_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, validationErr("Invalid JSON"))
			return
		}

		switch body.Choice {
		case sideLeft, sideRight, choiceReal, choiceAI:
		default:
			writeError(w, http.StatusBadRequest, validationErr("Invalid choice"))
			return
		}
		if body.ResponseTimeMs < 0 {
			writeError(w, http.StatusBadRequest, validationErr("Invalid response time"))
			return
		}

		session, ok := store.lookup(ps.ByName("key"))
		if !ok {
			writeError(w, http.StatusNotFound, validationErr("Session not found"))
			return
		}

		store.mu.Lock()

		if session.complete() {
			store.mu.Unlock()
			writeError(w, http.StatusBadRequest, validationErr("Session already completed"))

			return
		}

		pair, ok := session.pair(body.PairID)
		if !ok {
			store.mu.Unlock()
			writeError(w, http.StatusBadRequest, validationErr("Unknown question"))

			return
		}

		if session.answered(pair.ID) {
			store.mu.Unlock()
			writeError(w, http.StatusBadRequest, errDuplicateAnswer)

			return
		}

		realSide := session.realSide(pair.ID)
		correct := isCorrectChoice(pair, body.Choice, realSide)

		if correct {
			session.streak++
			if session.streak > session.streakMax {
				session.streakMax = session.streak
			}
		} else {
			session.streak = 0
		}

		points := soloPoints(correct, session.streak, body.ResponseTimeMs)

		session.answers = append(session.answers, soloAnswer{
			PairID:         pair.ID,
			Choice:         body.Choice,
			IsCorrect:      correct,
			PointsEarned:   points,
			ResponseTimeMs: body.ResponseTimeMs,
		})
		session.score += points
		session.timeTotalMs += int64(body.ResponseTimeMs)

		streak := session.streak
		total := session.score
		done := session.complete()

		store.mu.Unlock()

		aiPosition := aiSide(realSide)
		if pair.MediaType == mediaAudio {
			if pair.IsReal {
				aiPosition = choiceReal
			} else {
				aiPosition = choiceAI
			}
		}

		resp := map[string]any{
			"is_correct":          correct,
			"ai_position":         aiPosition,
			"hint":                pair.Hint,
			"points_earned":       points,
			"streak":              streak,
			"total_score":         total,
			"is_session_complete": done,
		}

		// Community stats are best-effort: a recorder failure never fails
		// the answer itself.
		tally, err := stats.Record(r.Context(), pair.ID, correct)
		if err != nil {
			logf(cfg, "SOLO: Stats recording failed for pair %d: %v", pair.ID, err)
		} else {
			resp["global_stats"] = map[string]any{
				"attempts":     tally.Attempts,
				"correct":      tally.Correct,
				"success_rate": tally.successRate(),
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// sessionResultHandler handles GET /api/sessions/:key/result.
func sessionResultHandler(store *soloStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		session, ok := store.lookup(ps.ByName("key"))
		if !ok {
			writeError(w, http.StatusNotFound, validationErr("Session not found"))
			return
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		correct := 0
		for _, a := range session.answers {
			if a.IsCorrect {
				correct++
			}
		}

		answers := make([]soloAnswer, len(session.answers))
		copy(answers, session.answers)

		writeJSON(w, http.StatusOK, map[string]any{
			"score":               session.score,
			"total_questions":     len(session.pairs),
			"answered":            len(session.answers),
			"correct_count":       correct,
			"streak_max":          session.streakMax,
			"time_total_ms":       session.timeTotalMs,
			"is_session_complete": session.complete(),
			"answers":             answers,
		})
	}
}

// saveResultHandler handles POST /api/sessions/:key/result, persisting the
// session score to the leaderboard under a pseudo.
func saveResultHandler(cfg *Config, store *soloStore, lb leaderboardStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var body struct {
			Pseudo string `json:"pseudo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, validationErr("Invalid JSON"))
			return
		}

		pseudo := strings.TrimSpace(body.Pseudo)
		if len(pseudo) < 2 || len(pseudo) > 50 {
			writeError(w, http.StatusBadRequest, validationErr("Pseudo must be between 2 and 50 characters"))
			return
		}

		session, ok := store.lookup(ps.ByName("key"))
		if !ok {
			writeError(w, http.StatusNotFound, validationErr("Session not found"))
			return
		}

		store.mu.Lock()

		if !session.complete() {
			store.mu.Unlock()
			writeError(w, http.StatusBadRequest, validationErr("Session not completed"))

			return
		}
		if session.saved {
			store.mu.Unlock()
			writeError(w, http.StatusBadRequest, validationErr("Score already saved"))

			return
		}

		entry := LeaderboardEntry{
			Pseudo:       pseudo,
			Score:        session.score,
			StreakMax:    session.streakMax,
			TimeTotalMs:  session.timeTotalMs,
			AudienceType: session.audience,
		}
		session.saved = true

		store.mu.Unlock()

		entry, err := lb.SaveScore(r.Context(), entry)
		if err != nil {
			store.mu.Lock()
			session.saved = false
			store.mu.Unlock()

			logf(cfg, "SOLO: Leaderboard save failed: %v", err)
			writeError(w, http.StatusInternalServerError, err)

			return
		}

		logf(cfg, "SOLO: Saved score %d for %q", entry.Score, pseudo)

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":            entry.ID,
			"pseudo":        entry.Pseudo,
			"score":         entry.Score,
			"streak_max":    entry.StreakMax,
			"time_total_ms": entry.TimeTotalMs,
			"created_at":    entry.CreatedAt,
		})
	}
}

func registerSoloGame(cfg *Config, mux *httprouter.Router, catalog Catalog, store *soloStore, stats statsRecorder, lb leaderboardStore) {
	mux.POST(cfg.prefix+"/api/sessions", createSessionHandler(cfg, catalog, store))
	mux.POST(cfg.prefix+"/api/sessions/:key/answer", sessionAnswerHandler(cfg, store, stats))
	mux.GET(cfg.prefix+"/api/sessions/:key/result", sessionResultHandler(store))
	mux.POST(cfg.prefix+"/api/sessions/:key/result", saveResultHandler(cfg, store, lb))
}
