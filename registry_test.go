/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"strings"
	"testing"
)

func TestRoomCodeFormat(t *testing.T) {
	reg := newRegistry("")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		room := reg.CreateRoom(0)
		code := room.Code()

		if len(code) != roomCodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, c := range code {
			if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				t.Fatalf("code %q contains %q", code, c)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = true
	}
}

func TestLookupNormalizesCase(t *testing.T) {
	reg := newRegistry("")
	room := reg.CreateRoom(0)

	lower, err := reg.Lookup(strings.ToLower(room.Code()))
	if err != nil {
		t.Fatalf("lowercase lookup: %v", err)
	}
	if lower != room {
		t.Error("lowercase lookup returned a different room")
	}
}

func TestLookupUnknownCode(t *testing.T) {
	reg := newRegistry("")

	_, err := reg.Lookup("NOSUCH")
	if !errors.Is(err, errRoomNotFound) {
		t.Errorf("got %v, want room not found", err)
	}
}

func TestRemoveRoom(t *testing.T) {
	reg := newRegistry("")
	room := reg.CreateRoom(0)

	reg.remove(room.Code())

	if _, err := reg.Lookup(room.Code()); !errors.Is(err, errRoomNotFound) {
		t.Errorf("got %v, want room not found after removal", err)
	}
}
