package game

import "errors"

// Every operation in this package and in the engine fails with exactly one of
// these kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvalidConfig           = errors.New("invalid game configuration")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrAlreadyExists           = errors.New("record already exists")
	ErrNotFound                = errors.New("record not found")
	ErrInvalidSessionStatus    = errors.New("session is not active")
	ErrInvalidBetAmount        = errors.New("bet amount outside configured bounds")
	ErrHouseLocked             = errors.New("house vault is locked")
	ErrRoundMismatch           = errors.New("round number mismatch")
	ErrTreasureInvalid         = errors.New("treasure amount invalid or exceeds max payout")
	ErrInsufficientVaultBalance = errors.New("insufficient vault balance")
	ErrInsufficientTreasure    = errors.New("cannot cash out with treasure less than or equal to bet")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrOverflow                = errors.New("arithmetic overflow")
	ErrMaxRoundsReached        = errors.New("maximum number of rounds reached")
	ErrSessionNotExpired       = errors.New("session has not expired")
	ErrVaultHasReservedFunds   = errors.New("vault still has reserved funds")
)
