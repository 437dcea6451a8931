package main

import "encoding/json"

// Inbound actions, the closed set a connection may send. Anything else is
// answered with a point-to-point error event.
const (
	actionHostJoin     = "host.join"
	actionPlayerJoin   = "player.join"
	actionGameStart    = "game.start"
	actionNextQuestion = "game.next_question"
	actionSkip         = "game.skip"
	actionShowAnswer   = "game.show_answer"
	actionPlayerAnswer = "player.answer"
	actionGameEnd      = "game.end"

	// actionMalformed is synthesized by the read pump when a frame
	// fails to decode, so the sender still gets an error back.
	actionMalformed = "malformed"
)

// actionMessage is the envelope for every inbound message. Fields beyond
// Action are only meaningful for the actions that require them.
type actionMessage struct {
	Action         string `json:"action"`
	Name           string `json:"name,omitempty"`
	Choice         string `json:"choice,omitempty"`
	ResponseTimeMs int    `json:"response_time_ms,omitempty"`
}

// event is the envelope for every outbound message. Payload fields are
// flattened next to the discriminant, matching what the frontend consumes.
type event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"-"`
}

func (e event) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		body[k] = v
	}
	body["type"] = e.Type
	return json.Marshal(body)
}

func newEvent(eventType string, payload map[string]any) event {
	return event{Type: eventType, Payload: payload}
}

func errorEvent(err error) event {
	ge := asGameError(err)
	return newEvent("error", map[string]any{
		"code":    ge.code,
		"message": ge.message,
	})
}

// rosterEntry is one line of the connected-players roster.
type rosterEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// questionView is what every viewer sees while a question is open. It never
// discloses which side is real: media URLs are keyed purely by display side,
// and the audio flag is withheld until reveal.
type questionView struct {
	PairID         int64  `json:"pair_id"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
	MediaType      string `json:"media_type"`
	Category       string `json:"category"`
	Difficulty     string `json:"difficulty"`
	LeftMedia      string `json:"left_media,omitempty"`
	RightMedia     string `json:"right_media,omitempty"`
	AudioMedia     string `json:"audio_media,omitempty"`
}

// playerResult is one submitted answer as shown at reveal, in arrival order.
type playerResult struct {
	Name           string `json:"name"`
	IsCorrect      bool   `json:"is_correct"`
	PointsEarned   int    `json:"points_earned"`
	ResponseTimeMs int    `json:"response_time_ms"`
}

// answerView is the reveal payload: the true side (or "real"/"ai" for audio),
// the hint, and every answer submitted for the current question.
type answerView struct {
	PairID        int64          `json:"pair_id"`
	AIPosition    string         `json:"ai_position"`
	Hint          string         `json:"hint"`
	PlayerResults []playerResult `json:"player_results"`
}

type podiumEntry struct {
	Rank  int    `json:"rank"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
