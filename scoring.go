package main

// Scoring rules shared by the live and solo flows.
//
// The player's objective is always to find the AI-generated media, not the
// real one. For image/video pairs a choice is correct when it names the side
// holding the AI media, i.e. the opposite of the side assigned to the real
// media. For audio the choice ("real"/"ai") is compared against the clip's
// flag directly. This asymmetry is intentional; do not flip it.

// isCorrectChoice reports whether choice wins for the given pair. realSide is
// the side showing the real media and is ignored for audio entries.
func isCorrectChoice(pair MediaPair, choice, realSide string) bool {
	if pair.MediaType == mediaAudio {
		return (choice == choiceReal && pair.IsReal) ||
			(choice == choiceAI && !pair.IsReal)
	}
	return choice == aiSide(realSide)
}

func aiSide(realSide string) string {
	if realSide == sideLeft {
		return sideRight
	}
	return sideLeft
}

const liveBasePoints = 100

// livePoints computes the points for a live answer. correctBefore is the
// number of correct answers already recorded for the question at the moment
// this one is serialized; the resulting rank never changes afterwards.
func livePoints(correct bool, correctBefore int) int {
	if !correct {
		return 0
	}

	points := liveBasePoints
	switch correctBefore {
	case 0:
		points += 50
	case 1:
		points += 30
	case 2:
		points += 10
	}

	return points
}

// soloPoints computes the points for a single-player answer: 100 base, a
// streak bonus of 10 per consecutive correct answer capped at 50, and up to
// 50 bonus points for answering within five seconds. streak already includes
// this answer.
func soloPoints(correct bool, streak, responseTimeMs int) int {
	if !correct {
		return 0
	}

	points := 100

	bonus := streak * 10
	if bonus > 50 {
		bonus = 50
	}
	points += bonus

	if responseTimeMs < 5000 {
		points += (5000 - responseTimeMs) / 100
	}

	return points
}
