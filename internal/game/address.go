package game

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fixed seed strings for record address derivation.
const (
	configSeed = "game_config"
	vaultSeed  = "house_vault"
	sessionSeed = "session"
)

// ConfigAddr is the address of the singleton config record.
func ConfigAddr() string {
	return deriveAddr(configSeed)
}

// VaultAddr derives a vault's record address from its authority identity.
func VaultAddr(authority int64) string {
	return deriveAddr(vaultSeed, authority)
}

// SessionAddr derives a session's record address from the player identity and
// the player-chosen session index.
func SessionAddr(player int64, sessionIndex uint64) string {
	return deriveAddr(sessionSeed, player, sessionIndex)
}

// deriveAddr hashes the seed string and identifying fields into a hex address.
// Fields are written fixed-width little-endian, so distinct inputs can never
// collide by concatenation.
func deriveAddr(seed string, fields ...any) string {
	h := sha256.New()
	h.Write([]byte(seed))
	for _, f := range fields {
		binary.Write(h, binary.LittleEndian, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
