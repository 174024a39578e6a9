package store

import (
	"fmt"
	"time"

	"divehouse-backend/internal/game"
)

// Account keys for the balance ledger. Player wallets and vault backing
// balances live in the same keyed space.
func WalletAccount(player int64) string {
	return fmt.Sprintf("wallet:%d", player)
}

func VaultBankAccount(vaultAddr string) string {
	return fmt.Sprintf("bank:%s", vaultAddr)
}

// HistoryEntry is one line of a player's game history, the persisted form of
// a lifecycle event.
type HistoryEntry struct {
	ID        string `json:"id"`
	Player    int64  `json:"player"`
	Type      string `json:"type"`
	Session   string `json:"session"`
	Amount    uint64 `json:"amount"`
	Round     uint16 `json:"round"`
	CreatedAt int64  `json:"created_at"`
}

// Store hosts the ledger records. Each record mutation is atomic with respect
// to its key; multi-record atomicity is the engine's job (it serializes per
// vault). Missing records surface as game.ErrNotFound, duplicate creations as
// game.ErrAlreadyExists.
type Store interface {
	GetConfig() (*game.GameConfig, error)
	CreateConfig(cfg *game.GameConfig) error
	ReplaceConfig(cfg *game.GameConfig) error

	GetVault(addr string) (*game.HouseVault, error)
	CreateVault(addr string, v *game.HouseVault) error
	SaveVault(addr string, v *game.HouseVault) error
	ListVaults() ([]string, error)

	GetSession(addr string) (*game.DiveSession, error)
	CreateSession(s *game.DiveSession) error
	SaveSession(s *game.DiveSession) error
	DeleteSession(s *game.DiveSession) error
	VaultSessions(vaultAddr string) ([]string, error)

	// Balance ledger: unsigned smallest-unit integers, atomic per account.
	Balance(account string) (uint64, error)
	InitBalance(account string, amount uint64) (bool, error)
	Credit(account string, amount uint64) error
	Debit(account string, amount uint64) error
	Transfer(from, to string, amount uint64) error

	AppendHistory(player int64, entry *HistoryEntry) error
	History(player int64, limit int64) ([]*HistoryEntry, error)

	CheckRateLimit(userID int64, action string, limit int, window time.Duration) (bool, error)

	Close() error
}

// History entry types, one per lifecycle event.
const (
	HistorySessionStarted   = "session_started"
	HistoryRoundPlayed      = "round_played"
	HistorySessionLost      = "session_lost"
	HistorySessionCashedOut = "session_cashed_out"
	HistorySessionCleaned   = "session_cleaned"
)

// MaxHistoryEntries caps per-player history length.
const MaxHistoryEntries = 100
