/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
)

func TestIsCorrectChoice(t *testing.T) {
	image := MediaPair{ID: 1, MediaType: mediaImage}

	// Real on the left means the AI sits on the right.
	if !isCorrectChoice(image, sideRight, sideLeft) {
		t.Error("picking the AI side should be correct")
	}
	if isCorrectChoice(image, sideLeft, sideLeft) {
		t.Error("picking the real side should be incorrect")
	}

	// And mirrored when the draw goes the other way.
	if !isCorrectChoice(image, sideLeft, sideRight) {
		t.Error("picking the AI side should be correct after a flipped draw")
	}
	if isCorrectChoice(image, sideRight, sideRight) {
		t.Error("picking the real side should be incorrect after a flipped draw")
	}
}

func TestIsCorrectChoiceAudio(t *testing.T) {
	realClip := MediaPair{ID: 2, MediaType: mediaAudio, IsReal: true}
	aiClip := MediaPair{ID: 3, MediaType: mediaAudio, IsReal: false}

	if !isCorrectChoice(realClip, choiceReal, "") {
		t.Error("calling a real clip real should be correct")
	}
	if isCorrectChoice(realClip, choiceAI, "") {
		t.Error("calling a real clip AI should be incorrect")
	}
	if !isCorrectChoice(aiClip, choiceAI, "") {
		t.Error("calling an AI clip AI should be correct")
	}
	if isCorrectChoice(aiClip, choiceReal, "") {
		t.Error("calling an AI clip real should be incorrect")
	}
}

func TestLivePoints(t *testing.T) {
	tests := []struct {
		name          string
		correct       bool
		correctBefore int
		want          int
	}{
		{"wrong answer", false, 0, 0},
		{"first correct", true, 0, 150},
		{"second correct", true, 1, 130},
		{"third correct", true, 2, 110},
		{"fourth correct", true, 3, 100},
		{"tenth correct", true, 9, 100},
	}

	for _, tc := range tests {
		if got := livePoints(tc.correct, tc.correctBefore); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestSoloPoints(t *testing.T) {
	if got := soloPoints(false, 5, 100); got != 0 {
		t.Errorf("wrong answer earned %d points", got)
	}

	// Streak bonus is 10 per consecutive correct, capped at 50. The streak
	// counts this answer, so a first correct answer already carries +10.
	if got := soloPoints(true, 1, 6000); got != 110 {
		t.Errorf("first correct: got %d, want 110", got)
	}
	if got := soloPoints(true, 3, 6000); got != 130 {
		t.Errorf("streak of 3: got %d, want 130", got)
	}
	if got := soloPoints(true, 12, 6000); got != 150 {
		t.Errorf("capped streak: got %d, want 150", got)
	}

	// Time bonus only under five seconds.
	if got := soloPoints(true, 1, 1000); got != 150 {
		t.Errorf("1s answer: got %d, want 150", got)
	}
	if got := soloPoints(true, 1, 4999); got != 110 {
		t.Errorf("4999ms answer: got %d, want 110", got)
	}
	if got := soloPoints(true, 1, 5000); got != 110 {
		t.Errorf("5000ms answer: got %d, want 110", got)
	}
	if got := soloPoints(true, 1, 0); got != 160 {
		t.Errorf("instant answer: got %d, want 160", got)
	}
}

func TestAISide(t *testing.T) {
	if got := aiSide(sideLeft); got != sideRight {
		t.Errorf("got %s, want %s", got, sideRight)
	}
	if got := aiSide(sideRight); got != sideLeft {
		t.Errorf("got %s, want %s", got, sideLeft)
	}
}
