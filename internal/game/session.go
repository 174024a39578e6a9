package game

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusLost      SessionStatus = "lost"
	StatusCashedOut SessionStatus = "cashed_out"
)

// DiveSession is one player's open wager. Created by session-open, mutated in
// place while active, destroyed on loss or cash-out. The seed is fixed for the
// life of the session; only the round number varies across resolutions.
type DiveSession struct {
	Player          int64         `json:"player"`
	Vault           string        `json:"vault"`
	SessionIndex    uint64        `json:"session_index"`
	Status          SessionStatus `json:"status"`
	BetAmount       uint64        `json:"bet_amount"`
	CurrentTreasure uint64        `json:"current_treasure"`
	MaxPayout       uint64        `json:"max_payout"`
	RoundNumber     uint16        `json:"round_number"`
	Seed            Seed          `json:"seed"`
	CreatedAt       int64         `json:"created_at"`
	LastActiveAt    int64         `json:"last_active_at"`
}

// Addr returns the session's deterministic record address.
func (s *DiveSession) Addr() string {
	return SessionAddr(s.Player, s.SessionIndex)
}

// EnsureActive gates every operation that requires live gameplay.
func (s *DiveSession) EnsureActive() error {
	if s.Status != StatusActive {
		return ErrInvalidSessionStatus
	}
	return nil
}

// MarkLost transitions Active -> Lost. Terminal states never transition again.
func (s *DiveSession) MarkLost() error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	s.Status = StatusLost
	s.CurrentTreasure = 0
	return nil
}

// MarkCashedOut transitions Active -> CashedOut.
func (s *DiveSession) MarkCashedOut() error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	s.Status = StatusCashedOut
	return nil
}

// ApplySurvival records a survived round after revalidating the result. The
// engine only produces compliant values; these checks exist so a bug upstream
// surfaces as TreasureInvalid instead of corrupting the ledger.
func (s *DiveSession) ApplySurvival(newTreasure uint64) error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	if newTreasure < s.CurrentTreasure {
		return ErrTreasureInvalid
	}
	if newTreasure > s.MaxPayout {
		return ErrTreasureInvalid
	}
	s.CurrentTreasure = newTreasure
	s.RoundNumber++
	return nil
}
