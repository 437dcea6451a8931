package games

// Players are shown two pieces of media side by side: one real, one AI-generated
// (audio rounds show a single clip instead, and players call it real or AI)
// Everyone answers the same question at once, racing to spot the fake
// The host controls pacing: start the game, reveal the answer, advance, end early
// After the reveal, everyone sees which side was the AI, a hint explaining the tell,
// and how each player answered

// Scoring:
// - 100 points for spotting the AI
// - First three correct answers earn a speed bonus: +50, +30, +10
// - Solo runs instead earn a streak bonus (+10 per consecutive correct, capped at +50)
//   and a time bonus for answering inside five seconds

// Implementation details:
// - Rooms are identified by a 6-character code, shareable as a QR code
// - One websocket per connection, one hub goroutine per room
// - Players reconnect by rejoining under the same name; score and join order survive
// - New names can only join while the room is still waiting

// How to play
// - The host creates a room and shares the code or QR
// - Players join by name from their phones
// - The host starts the game once everyone is in
// - Ten questions, then a podium
