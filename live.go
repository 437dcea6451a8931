// Fakeout live rooms
//
// One host and many players share a room over persistent WebSocket
// connections. The host drives progression (start, reveal, advance, end);
// players join by display name and race to spot the AI-generated media.
//
// Features:
// - WebSockets per room code: /ws/rooms/:code (codes are case-insensitive)
// - The connection that sends host.join controls the game; hosts are not scored
// - Players reconnect under the same name with score and join order intact
// - Answer confirmations and errors go point-to-point, never broadcast
// - player.answered never reveals the choice before the reveal
// - First correct answer earns +50, second +30, third +10 on top of 100 base
// - Rooms auto-reaped after a configurable idle timeout
// - Random 6-char room codes via crypto/rand, with server-side collision check
// - In-browser QR button to share the join URL, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type liveClient struct {
	conn *websocket.Conn
	send chan event

	// Owned by the hub goroutine after registration.
	isHost   bool
	playerID string
}

type clientAction struct {
	client *liveClient
	msg    actionMessage
}

// liveHub owns the fan-out for one room: the set of attached connections,
// broadcast and point-to-point delivery, and the dispatch of inbound actions
// into the room state machine. All handling happens on the run goroutine, so
// commands are serialized and broadcasts triggered by one command reach every
// recipient in the order the handler issued them.
type liveHub struct {
	room    *Room
	catalog Catalog
	cfg     *Config

	clients  map[*liveClient]bool
	register chan *liveClient
	unreg    chan *liveClient
	actions  chan clientAction
	done     chan struct{}
}

func newLiveHub(cfg *Config, room *Room, catalog Catalog) *liveHub {
	return &liveHub{
		room:     room,
		catalog:  catalog,
		cfg:      cfg,
		clients:  make(map[*liveClient]bool),
		register: make(chan *liveClient),
		unreg:    make(chan *liveClient),
		actions:  make(chan clientAction),
		done:     make(chan struct{}),
	}
}

func (h *liveHub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unreg:
			h.detach(c)

		case action := <-h.actions:
			h.dispatch(action.client, action.msg)

		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
				_ = c.conn.Close()
			}
			return
		}
	}
}

// detach removes a connection. A bound player is marked disconnected (never
// deleted) and the remaining connections learn about it; the detaching
// connection itself receives nothing further.
func (h *liveHub) detach(c *liveClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)

	if c.playerID == "" {
		return
	}
	if player := h.room.Disconnect(c.playerID); player != nil {
		logf(h.cfg, "LIVE: Player %q left room %s", player.Name, h.room.Code())
		h.broadcast(newEvent("player.left", map[string]any{
			"player_id": player.ID,
		}))
	}
}

// dispatch routes one inbound action. The action set is closed: anything
// unrecognized earns the sender a point-to-point error, not a disconnect.
func (h *liveHub) dispatch(c *liveClient, msg actionMessage) {
	switch msg.Action {
	case actionHostJoin:
		h.handleHostJoin(c)
	case actionPlayerJoin:
		h.handlePlayerJoin(c, msg)
	case actionGameStart:
		h.handleGameStart(c)
	case actionNextQuestion, actionSkip:
		h.handleNextQuestion(c)
	case actionShowAnswer:
		h.handleShowAnswer(c)
	case actionPlayerAnswer:
		h.handlePlayerAnswer(c, msg)
	case actionGameEnd:
		h.handleGameEnd(c)
	case actionMalformed:
		h.sendTo(c, errorEvent(validationErr("Invalid JSON")))
	default:
		h.sendTo(c, errorEvent(validationErr("Unknown action: "+msg.Action)))
	}
}

func (h *liveHub) handleHostJoin(c *liveClient) {
	c.isHost = true
	logf(h.cfg, "LIVE: Host joined room %s", h.room.Code())

	h.sendTo(c, newEvent("host.joined", map[string]any{
		"room_code": h.room.Code(),
		"players":   h.room.Roster(),
		"status":    h.room.Status(),
	}))
}

func (h *liveHub) handlePlayerJoin(c *liveClient, msg actionMessage) {
	// One player per connection; a rebind would leave the first player
	// marked connected with nobody behind it.
	if c.playerID != "" {
		h.sendTo(c, errorEvent(validationErr("Already joined")))
		return
	}

	player, reconnected, err := h.room.Join(msg.Name, c)
	if err != nil {
		h.sendTo(c, errorEvent(err))
		return
	}

	c.playerID = player.ID

	if reconnected {
		logf(h.cfg, "LIVE: Player %q reconnected to room %s", player.Name, h.room.Code())
	} else {
		logf(h.cfg, "LIVE: Player %q joined room %s", player.Name, h.room.Code())
	}

	h.sendTo(c, newEvent("player.joined", map[string]any{
		"player_id":       player.ID,
		"name":            player.Name,
		"room_code":       h.room.Code(),
		"room_status":     h.room.Status(),
		"reconnect_token": player.ReconnectToken,
	}))

	// A reconnecting player mid-game needs the open question to resume.
	if h.room.Status() == statusPlaying {
		if question := h.room.CurrentQuestion(); question != nil {
			h.sendTo(c, newEvent("game.started", map[string]any{
				"question": question,
			}))
		}
	}

	h.broadcast(newEvent("players.updated", map[string]any{
		"players": h.room.Roster(),
	}))
}

func (h *liveHub) requireHost(c *liveClient) bool {
	if !c.isHost {
		h.sendTo(c, errorEvent(errPermissionDenied))
		return false
	}
	return true
}

func (h *liveHub) handleGameStart(c *liveClient) {
	if !h.requireHost(c) {
		return
	}

	if err := h.room.Start(context.Background(), h.catalog); err != nil {
		h.sendTo(c, errorEvent(err))
		return
	}

	logf(h.cfg, "LIVE: Game started in room %s", h.room.Code())

	h.broadcast(newEvent("game.started", map[string]any{
		"question": h.room.CurrentQuestion(),
	}))
}

func (h *liveHub) handleNextQuestion(c *liveClient) {
	if !h.requireHost(c) {
		return
	}

	hasNext, err := h.room.Advance()
	if err != nil {
		h.sendTo(c, errorEvent(err))
		return
	}

	if !hasNext {
		h.finishGame()
		return
	}

	h.broadcast(newEvent("game.new_question", map[string]any{
		"question": h.room.CurrentQuestion(),
	}))
}

func (h *liveHub) handleShowAnswer(c *liveClient) {
	if !h.requireHost(c) {
		return
	}

	view, err := h.room.ShowAnswer()
	if err != nil {
		h.sendTo(c, errorEvent(err))
		return
	}

	h.broadcast(newEvent("game.answer_revealed", map[string]any{
		"answer": view,
	}))
}

func (h *liveHub) handlePlayerAnswer(c *liveClient, msg actionMessage) {
	switch msg.Choice {
	case sideLeft, sideRight, choiceReal, choiceAI:
	default:
		h.sendTo(c, errorEvent(validationErr("Invalid choice")))
		return
	}
	if msg.ResponseTimeMs < 0 {
		h.sendTo(c, errorEvent(validationErr("Invalid response time")))
		return
	}
	if c.playerID == "" {
		h.sendTo(c, errorEvent(validationErr("You must join first")))
		return
	}

	outcome, err := h.room.SubmitAnswer(c.playerID, msg.Choice, msg.ResponseTimeMs)
	if err != nil {
		h.sendTo(c, errorEvent(err))
		return
	}

	h.sendTo(c, newEvent("answer.submitted", map[string]any{
		"is_correct":    outcome.IsCorrect,
		"points_earned": outcome.PointsEarned,
		"total_score":   outcome.TotalScore,
	}))

	// Everyone learns who answered; nobody learns what, until the reveal.
	h.broadcast(newEvent("player.answered", map[string]any{
		"player_id": c.playerID,
		"name":      outcome.PlayerName,
	}))

	if outcome.AllAnswered {
		h.broadcast(newEvent("game.all_answered", nil))
	}
}

func (h *liveHub) handleGameEnd(c *liveClient) {
	if !h.requireHost(c) {
		return
	}
	h.finishGame()
}

func (h *liveHub) finishGame() {
	if err := h.room.Finish(); err != nil {
		// Already finished; re-broadcasting the podium is harmless.
		logf(h.cfg, "LIVE: Room %s finished twice", h.room.Code())
	}

	logf(h.cfg, "LIVE: Game finished in room %s", h.room.Code())

	h.broadcast(newEvent("game.finished", map[string]any{
		"podium": h.room.Podium(),
	}))
}

// sendTo queues an event for one connection, dropping the connection if its
// buffer is full.
func (h *liveHub) sendTo(c *liveClient, msg event) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.detach(c)
	}
}

func (h *liveHub) broadcast(msg event) {
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

// liveManager holds one hub per room code so each room is its own isolated
// session with a single serializing goroutine.
type liveManager struct {
	mu   sync.Mutex
	hubs map[string]*liveHub

	cfg     *Config
	catalog Catalog
}

func newLiveManager(cfg *Config, catalog Catalog) *liveManager {
	return &liveManager{
		hubs:    make(map[string]*liveHub),
		cfg:     cfg,
		catalog: catalog,
	}
}

func (lm *liveManager) getHub(room *Room) *liveHub {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if hub, ok := lm.hubs[room.Code()]; ok {
		return hub
	}

	hub := newLiveHub(lm.cfg, room, lm.catalog)
	lm.hubs[room.Code()] = hub
	go hub.run()
	return hub
}

// closeRoom shuts down a room's hub, disconnecting everyone. Used by the
// registry reaper.
func (lm *liveManager) closeRoom(code string) {
	lm.mu.Lock()
	hub, ok := lm.hubs[code]
	if ok {
		delete(lm.hubs, code)
	}
	lm.mu.Unlock()

	if ok {
		close(hub.done)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWSForRoom attaches a connection to the hub for :code.
func serveWSForRoom(cfg *Config, reg *Registry, lm *liveManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := reg.Lookup(ps.ByName("code"))
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		hub := lm.getHub(room)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &liveClient{
			conn: conn,
			send: make(chan event, 16),
		}

		// The hub may have been shut down between lookup and upgrade.
		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

// deliver hands an action to the hub, giving up once the hub has shut down so
// a dying room never strands its readers.
func (h *liveHub) deliver(action clientAction) bool {
	select {
	case h.actions <- action:
		return true
	case <-h.done:
		return false
	}
}

func (c *liveClient) readPump(h *liveHub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		if h.cfg.playerTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(h.cfg.playerTimeout))
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg actionMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// Malformed payloads get an answer, not a disconnect; a silent
			// drop would leave the client hanging.
			if !h.deliver(clientAction{client: c, msg: actionMessage{Action: actionMalformed}}) {
				return
			}
			continue
		}

		if !h.deliver(clientAction{client: c, msg: msg}) {
			return
		}
	}
}

func (c *liveClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// createRoomHandler handles POST /api/rooms.
func createRoomHandler(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body struct {
			QuizID int64 `json:"quiz_id"`
		}
		if r.Body != nil {
			// An empty or absent body means a random-catalog room.
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		room := reg.CreateRoom(body.QuizID)
		logf(cfg, "ROOMS: Created room %s", room.Code())

		writeJSON(w, http.StatusCreated, map[string]any{
			"room_code": room.Code(),
			"status":    room.Status(),
		})
	}
}

// roomDetailHandler handles GET /api/rooms/:code.
func roomDetailHandler(reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := reg.Lookup(ps.ByName("code"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"room_code":     room.Code(),
			"status":        room.Status(),
			"players_count": room.ConnectedCount(),
		})
	}
}

// roomQRHandler generates a PNG QR code for a room's join URL using go-qrcode.
func roomQRHandler(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := reg.Lookup(ps.ByName("code"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/join/" + room.Code()

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerLiveGame sets up routes so that:
//   - POST /api/rooms            → create a room with a fresh 6-char code
//   - GET  /api/rooms/:code      → room snapshot
//   - GET  /api/rooms/:code/qr   → PNG QR code for the join URL
//   - GET  /ws/rooms/:code       → WebSocket for that room
func registerLiveGame(cfg *Config, mux *httprouter.Router, reg *Registry, lm *liveManager) {
	mux.POST(cfg.prefix+"/api/rooms", createRoomHandler(cfg, reg))
	mux.GET(cfg.prefix+"/api/rooms/:code", roomDetailHandler(reg))
	mux.GET(cfg.prefix+"/api/rooms/:code/qr", roomQRHandler(cfg, reg))
	mux.GET(cfg.prefix+"/ws/rooms/:code", serveWSForRoom(cfg, reg, lm))
}
