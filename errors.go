/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// gameError is the closed set of failures a player or host can cause. All of
// them are recovered at the connection boundary: live connections receive a
// point-to-point error event, HTTP callers a JSON error body. None of them
// terminates a connection, and a failed operation leaves room state untouched.
type gameError struct {
	code    string
	message string
}

func (e *gameError) Error() string {
	return e.message
}

func gameErr(code, message string) *gameError {
	return &gameError{code: code, message: message}
}

var (
	errRoomNotFound      = gameErr("room_not_found", "Room not found")
	errInvalidTransition = gameErr("invalid_transition", "Game already started")
	errPermissionDenied  = gameErr("permission_denied", "Only the host can control the game")
	errDuplicateAnswer   = gameErr("duplicate_answer", "Already answered")
	errNotPlaying        = gameErr("not_playing", "Game not in progress")
	errNoCurrentQuestion = gameErr("no_current_question", "No current question")
	errNameConflict      = gameErr("name_conflict", "That name is already taken, please choose another")
	errLateJoinRejected  = gameErr("late_join_rejected", "The game has already started")
	errInternal          = gameErr("internal_error", "Something went wrong, please try again")
)

func validationErr(message string) *gameError {
	return gameErr("validation_error", message)
}

// asGameError maps any error to the taxonomy, hiding internals behind a
// generic failure. Unexpected errors are logged separately by the caller.
func asGameError(err error) *gameError {
	var ge *gameError
	if errors.As(err, &ge) {
		return ge
	}
	return errInternal
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	ge := asGameError(err)
	writeJSON(w, status, map[string]string{
		"error": ge.message,
		"code":  ge.code,
	})
}
