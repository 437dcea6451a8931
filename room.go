package main

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type roomStatus string

const (
	statusWaiting       roomStatus = "waiting"
	statusPlaying       roomStatus = "playing"
	statusShowingAnswer roomStatus = "showing_answer"
	statusFinished      roomStatus = "finished"
)

const questionsPerGame = 10

// Player is a scored participant of one room. The connection binding is an
// explicit, rebindable field: a dropped connection marks the player
// disconnected without discarding identity, score, or join order, and a later
// join under the same name (case-insensitive) rebinds instead of re-creating.
type Player struct {
	ID             string
	Name           string
	Score          int
	ReconnectToken string
	Connected      bool
	JoinedAt       time.Time

	client *liveClient
}

// Answer records one submission. It is immutable once created: the points
// reflect the arrival rank among correct answers at the moment the submit was
// serialized, and are never recomputed.
type Answer struct {
	PlayerID       string
	PairID         int64
	Choice         string
	IsCorrect      bool
	PointsEarned   int
	ResponseTimeMs int
	Order          int
}

// Room owns one live session. Every mutation goes through its methods, which
// serialize on the room mutex; the fan-out layer never touches fields
// directly. Rooms share no mutable state with each other.
type Room struct {
	mu sync.Mutex

	code      string
	quizID    int64 // 0 means no curated quiz bound
	status    roomStatus
	mediaBase string

	pairs     []MediaPair
	realSides map[int64]string // pair id -> side showing the real media
	index     int

	players []*Player // join order, preserved for podium tiebreaks
	answers map[int64][]*Answer

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code string, quizID int64, mediaBase string) *Room {
	now := time.Now()
	return &Room{
		code:       code,
		quizID:     quizID,
		status:     statusWaiting,
		mediaBase:  mediaBase,
		realSides:  make(map[int64]string),
		answers:    make(map[int64][]*Answer),
		createdAt:  now,
		lastActive: now,
	}
}

func (rm *Room) Code() string {
	return rm.code
}

func (rm *Room) Status() roomStatus {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.status
}

func (rm *Room) LastActive() time.Time {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.lastActive
}

func (rm *Room) touchLocked() {
	rm.lastActive = time.Now()
}

// Join connects a player by display name. A name matching a previous player
// (case-insensitive) is always treated as a reconnection, whatever the room
// status; a brand-new name is only accepted while the room is still waiting,
// and only if no connected player already holds it.
func (rm *Room) Join(name string, client *liveClient) (*Player, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, validationErr("Name required")
	}
	if len(name) > 50 {
		return nil, false, validationErr("Name too long (max 50 characters)")
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	for _, p := range rm.players {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		if p.Connected {
			return nil, false, errNameConflict
		}
		p.Connected = true
		p.client = client
		return p, true, nil
	}

	if rm.status != statusWaiting {
		return nil, false, errLateJoinRejected
	}

	p := &Player{
		ID:             uuid.NewString(),
		Name:           name,
		ReconnectToken: uuid.NewString(),
		Connected:      true,
		JoinedAt:       time.Now(),
		client:         client,
	}
	rm.players = append(rm.players, p)

	return p, false, nil
}

// Disconnect marks a player as gone without deleting it, so score and join
// order survive for the podium and a later reconnection.
func (rm *Room) Disconnect(playerID string) *Player {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	for _, p := range rm.players {
		if p.ID == playerID {
			p.Connected = false
			p.client = nil
			return p
		}
	}
	return nil
}

// Start selects the question set and moves the room into play. Calling it in
// any status other than waiting is rejected, never silently ignored.
func (rm *Room) Start(ctx context.Context, catalog Catalog) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.status != statusWaiting {
		return errInvalidTransition
	}

	pairs, err := selectPairs(ctx, catalog, rm.quizID)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return validationErr("No questions available")
	}

	rm.pairs = pairs
	rm.index = 0
	for _, pair := range pairs {
		if pair.MediaType == mediaAudio {
			continue
		}
		// Fixed once per room: every reveal for this pair reuses the draw.
		if rand.Intn(2) == 0 {
			rm.realSides[pair.ID] = sideLeft
		} else {
			rm.realSides[pair.ID] = sideRight
		}
	}
	rm.status = statusPlaying

	return nil
}

func selectPairs(ctx context.Context, catalog Catalog, quizID int64) ([]MediaPair, error) {
	if quizID != 0 {
		pairs, isRandom, err := catalog.QuizPairs(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if !isRandom {
			if len(pairs) > questionsPerGame {
				pairs = pairs[:questionsPerGame]
			}
			return pairs, nil
		}
	}

	all, err := catalog.ActivePairs(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]MediaPair, len(all))
	copy(pairs, all)
	rand.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
	if len(pairs) > questionsPerGame {
		pairs = pairs[:questionsPerGame]
	}
	return pairs, nil
}

// realSideLocked returns the side showing the real media, defaulting to left
// when no assignment was recorded.
func (rm *Room) realSideLocked(pairID int64) string {
	if side, ok := rm.realSides[pairID]; ok {
		return side
	}
	return sideLeft
}

// CurrentQuestion returns the view of the open question, or nil once the
// index has run past the end. The view positions media by display side only.
func (rm *Room) CurrentQuestion() *questionView {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.currentQuestionLocked()
}

func (rm *Room) currentQuestionLocked() *questionView {
	if rm.index >= len(rm.pairs) {
		return nil
	}

	pair := rm.pairs[rm.index]
	view := &questionView{
		PairID:         pair.ID,
		QuestionNumber: rm.index + 1,
		TotalQuestions: len(rm.pairs),
		MediaType:      pair.MediaType,
		Category:       pair.Category.Name,
		Difficulty:     pair.Difficulty,
	}

	if pair.MediaType == mediaAudio {
		view.AudioMedia = mediaURL(rm.mediaBase, pair.AudioMedia)
		return view
	}

	if rm.realSideLocked(pair.ID) == sideLeft {
		view.LeftMedia = mediaURL(rm.mediaBase, pair.RealMedia)
		view.RightMedia = mediaURL(rm.mediaBase, pair.AIMedia)
	} else {
		view.LeftMedia = mediaURL(rm.mediaBase, pair.AIMedia)
		view.RightMedia = mediaURL(rm.mediaBase, pair.RealMedia)
	}

	return view
}

// ShowAnswer moves the room to showing_answer and returns the reveal view:
// the true AI side (or real/ai flag for audio), the hint, and all answers for
// the current question in arrival order. Re-revealing while already in
// showing_answer returns the same view again.
func (rm *Room) ShowAnswer() (*answerView, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.status != statusPlaying && rm.status != statusShowingAnswer {
		return nil, errInvalidTransition
	}
	if rm.index >= len(rm.pairs) {
		return nil, errNoCurrentQuestion
	}

	rm.status = statusShowingAnswer

	pair := rm.pairs[rm.index]
	view := &answerView{
		PairID: pair.ID,
		Hint:   pair.Hint,
	}

	if pair.MediaType == mediaAudio {
		if pair.IsReal {
			view.AIPosition = choiceReal
		} else {
			view.AIPosition = choiceAI
		}
	} else {
		view.AIPosition = aiSide(rm.realSideLocked(pair.ID))
	}

	for _, ans := range rm.answers[pair.ID] {
		view.PlayerResults = append(view.PlayerResults, playerResult{
			Name:           rm.playerNameLocked(ans.PlayerID),
			IsCorrect:      ans.IsCorrect,
			PointsEarned:   ans.PointsEarned,
			ResponseTimeMs: ans.ResponseTimeMs,
		})
	}

	return view, nil
}

func (rm *Room) playerNameLocked(playerID string) string {
	for _, p := range rm.players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return ""
}

// Advance moves to the next question and reports whether one exists. When it
// returns false the caller decides the transition to finished.
func (rm *Room) Advance() (bool, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	switch rm.status {
	case statusPlaying, statusShowingAnswer:
	default:
		return false, errInvalidTransition
	}

	rm.index++
	if rm.index >= len(rm.pairs) {
		return false, nil
	}
	rm.status = statusPlaying
	return true, nil
}

// Finish ends the game from any non-terminal status.
func (rm *Room) Finish() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.status == statusFinished {
		return errInvalidTransition
	}
	rm.status = statusFinished
	return nil
}

type answerOutcome struct {
	PlayerName     string
	IsCorrect      bool
	PointsEarned   int
	TotalScore     int
	AllAnswered    bool
	ResponseTimeMs int
}

// SubmitAnswer records a player's choice for the current question. Rank for
// the position bonus is the order in which submissions acquire the room lock,
// not transport arrival order. A failed submit leaves no trace.
func (rm *Room) SubmitAnswer(playerID, choice string, responseTimeMs int) (*answerOutcome, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.status != statusPlaying {
		return nil, errNotPlaying
	}
	if rm.index >= len(rm.pairs) {
		return nil, errNoCurrentQuestion
	}

	var player *Player
	for _, p := range rm.players {
		if p.ID == playerID {
			player = p
			break
		}
	}
	if player == nil {
		return nil, validationErr("You must join first")
	}

	pair := rm.pairs[rm.index]
	submitted := rm.answers[pair.ID]

	for _, ans := range submitted {
		if ans.PlayerID == playerID {
			return nil, errDuplicateAnswer
		}
	}

	correctBefore := 0
	for _, ans := range submitted {
		if ans.IsCorrect {
			correctBefore++
		}
	}

	correct := isCorrectChoice(pair, choice, rm.realSideLocked(pair.ID))
	points := livePoints(correct, correctBefore)

	rm.answers[pair.ID] = append(submitted, &Answer{
		PlayerID:       playerID,
		PairID:         pair.ID,
		Choice:         choice,
		IsCorrect:      correct,
		PointsEarned:   points,
		ResponseTimeMs: responseTimeMs,
		Order:          len(submitted) + 1,
	})
	player.Score += points

	return &answerOutcome{
		PlayerName:     player.Name,
		IsCorrect:      correct,
		PointsEarned:   points,
		TotalScore:     player.Score,
		AllAnswered:    rm.allAnsweredLocked(),
		ResponseTimeMs: responseTimeMs,
	}, nil
}

// AllAnswered reports whether every currently-connected player has answered
// the current question. Disconnected players are excluded from both sides of
// the comparison, so an absent player never blocks the game.
func (rm *Room) AllAnswered() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.allAnsweredLocked()
}

func (rm *Room) allAnsweredLocked() bool {
	if rm.index >= len(rm.pairs) {
		return true
	}

	connected := 0
	connectedIDs := make(map[string]bool)
	for _, p := range rm.players {
		if p.Connected {
			connected++
			connectedIDs[p.ID] = true
		}
	}

	answered := 0
	for _, ans := range rm.answers[rm.pairs[rm.index].ID] {
		if connectedIDs[ans.PlayerID] {
			answered++
		}
	}

	return answered >= connected
}

// Roster returns the connected players in join order.
func (rm *Room) Roster() []rosterEntry {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	roster := make([]rosterEntry, 0, len(rm.players))
	for _, p := range rm.players {
		if !p.Connected {
			continue
		}
		roster = append(roster, rosterEntry{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return roster
}

// ConnectedCount returns the number of currently-connected players.
func (rm *Room) ConnectedCount() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	n := 0
	for _, p := range rm.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// Podium ranks every player (connected or not) by score descending, ties
// broken by earliest join. The sort is stable over join order by
// construction: players are kept in join order and insertion sort only moves
// an entry past strictly lower scores.
func (rm *Room) Podium() []podiumEntry {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	ranked := make([]*Player, len(rm.players))
	copy(ranked, rm.players)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Score > ranked[j-1].Score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	podium := make([]podiumEntry, 0, len(ranked))
	for i, p := range ranked {
		podium = append(podium, podiumEntry{
			Rank:  i + 1,
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
		})
	}
	return podium
}

// clients returns a snapshot of the currently-bound player connections.
func (rm *Room) clients() []*liveClient {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	out := make([]*liveClient, 0, len(rm.players))
	for _, p := range rm.players {
		if p.Connected && p.client != nil {
			out = append(out, p.client)
		}
	}
	return out
}
