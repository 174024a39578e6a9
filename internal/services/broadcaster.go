package services

import "divehouse-backend/internal/game"

// Broadcaster receives session lifecycle events for fan-out to connected
// clients. Implementations must not block.
type Broadcaster interface {
	SessionStarted(s *game.DiveSession)
	RoundPlayed(s *game.DiveSession, out game.Outcome)
	SessionLost(s *game.DiveSession, finalRound uint16)
	SessionCashedOut(s *game.DiveSession, payout uint64)
	SessionCleaned(s *game.DiveSession, released uint64)
}
