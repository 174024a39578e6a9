package game

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// SeedSize is the fixed length of a session seed in bytes.
const SeedSize = 32

// Seed is the opaque random value bound to a session at creation. It never
// changes afterward; every round derives its roll from the seed plus the
// round number.
type Seed [SeedSize]byte

func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

func (s Seed) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Seed) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("seed must be a hex string")
	}
	raw, err := hex.DecodeString(string(data[1 : len(data)-1]))
	if err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	if len(raw) != SeedSize {
		return fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(raw))
	}
	copy(s[:], raw)
	return nil
}

// DeriveSeed mixes an unpredictable entropy value with the player identity and
// session index. The entropy must not be known to the player before the open
// operation is admitted; binding player and index guarantees two simultaneous
// opens never share a seed.
func DeriveSeed(entropy [SeedSize]byte, player int64, sessionIndex uint64) Seed {
	h := sha256.New()
	h.Write(entropy[:])
	binary.Write(h, binary.LittleEndian, player)
	binary.Write(h, binary.LittleEndian, sessionIndex)
	var seed Seed
	copy(seed[:], h.Sum(nil))
	return seed
}

// RollForRound derives the round's roll in [0,100) from the seed and round
// number. Same inputs always produce the same roll; the seed itself is never
// advanced.
func RollForRound(seed Seed, roundNumber uint16) uint8 {
	h := sha256.New()
	h.Write(seed[:])
	binary.Write(h, binary.LittleEndian, roundNumber)
	digest := h.Sum(nil)
	raw := binary.LittleEndian.Uint64(digest[:8])
	return uint8(raw % 100)
}

// Outcome is the result of resolving one round.
type Outcome struct {
	Survived    bool
	Roll        uint8
	Threshold   uint8
	NewTreasure uint64 // meaningful only when Survived
}

// Resolve is the pure round-resolution function: deterministic in (config,
// seed, round number) and free of side effects. Callers apply the outcome to
// the session under their own validation.
func Resolve(cfg *GameConfig, seed Seed, roundNumber uint16, currentTreasure, maxPayout uint64) Outcome {
	threshold := cfg.SurvivalThreshold(roundNumber)
	roll := RollForRound(seed, roundNumber)
	out := Outcome{Roll: roll, Threshold: threshold}
	if roll < threshold {
		out.Survived = true
		out.NewTreasure = cfg.NextTreasure(currentTreasure, maxPayout)
	}
	return out
}
