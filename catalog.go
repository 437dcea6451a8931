package main

import (
	"context"
	"strings"
)

// Media types a pair can hold. Image and video pairs carry a real file and an
// AI file shown side by side; audio entries carry a single clip plus a flag
// recording whether it is real.
const (
	mediaImage = "image"
	mediaVideo = "video"
	mediaAudio = "audio"
)

// Sides for non-audio questions. A side carries no meaning beyond the random
// assignment made when a game starts.
const (
	sideLeft  = "left"
	sideRight = "right"
)

const (
	choiceReal = "real"
	choiceAI   = "ai"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MediaPair is one catalog entry: a real/AI pair, or a single audio clip.
// Media fields hold paths relative to the media base URL.
type MediaPair struct {
	ID         int64    `json:"id"`
	Category   Category `json:"category"`
	MediaType  string   `json:"media_type"`
	Difficulty string   `json:"difficulty"`
	RealMedia  string   `json:"-"`
	AIMedia    string   `json:"-"`
	AudioMedia string   `json:"-"`
	IsReal     bool     `json:"-"`
	Hint       string   `json:"-"`
}

// Quiz is a curated question list. When isRandom is set the quiz is only a
// label and questions are sampled from the whole active catalog instead.
type Quiz struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRandom    bool   `json:"is_random"`
	PairsCount  int    `json:"pairs_count"`
}

// Catalog is the read-only question source consumed by both the live rooms
// and the solo flow.
type Catalog interface {
	// ActivePairs returns every active catalog entry, in no particular order.
	ActivePairs(ctx context.Context) ([]MediaPair, error)

	// QuizPairs returns the active entries of a curated quiz in their defined
	// order, along with whether the quiz is a random one.
	QuizPairs(ctx context.Context, quizID int64) ([]MediaPair, bool, error)

	// Quizzes lists the curated quizzes with their pair counts.
	Quizzes(ctx context.Context) ([]Quiz, error)
}

func mediaURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
