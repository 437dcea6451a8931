package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// roomCodeAlphabet matches what shows well on a projector: uppercase plus
// digits, six characters.
const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Registry is the process-wide room table, created per server (and per test)
// rather than held in a package global. Rooms are owned by a single process;
// cross-room operations only touch the registry lock.
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	mediaBase string
}

func newRegistry(mediaBase string) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		mediaBase: mediaBase,
	}
}

// CreateRoom generates a fresh unique code and an empty waiting room. quizID
// of zero leaves the room on the random catalog.
func (reg *Registry) CreateRoom(quizID int64) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := reg.newRoomCodeLocked()
	room := newRoom(code, quizID, reg.mediaBase)
	reg.rooms[code] = room

	return room
}

// Lookup finds a room by code. Codes are case-insensitive on the wire and
// normalized to uppercase here.
func (reg *Registry) Lookup(code string) (*Room, error) {
	code = strings.ToUpper(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return nil, errRoomNotFound
	}
	return room, nil
}

// newRoomCodeLocked draws crypto-random codes until one is free. Collisions
// are vanishingly rare at six alphanumeric characters but checked anyway.
func (reg *Registry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// remove drops a room from the table. Used by the reaper only; the core
// exposes no deletion API.
func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// reaperLoop periodically removes rooms idle longer than idleTimeout and
// closes their hubs.
func (reg *Registry) reaperLoop(cfg *Config, lm *liveManager, idleTimeout time.Duration) {
	ticker := time.NewTicker(idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-idleTimeout)

		reg.mu.Lock()
		var expired []*Room
		for code, room := range reg.rooms {
			if room.LastActive().Before(cutoff) {
				expired = append(expired, room)
				delete(reg.rooms, code)
			}
		}
		reg.mu.Unlock()

		for _, room := range expired {
			logf(cfg, "ROOMS: Reaped idle room %s", room.Code())
			lm.closeRoom(room.Code())
		}
	}
}
