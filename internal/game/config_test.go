package game

import (
	"errors"
	"testing"
)

func validConfig() *GameConfig {
	cfg, err := NewConfig(1, ConfigParams{})
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(42, ConfigParams{})
	if err != nil {
		t.Fatalf("NewConfig with defaults failed: %v", err)
	}

	if cfg.Admin != 42 {
		t.Errorf("expected admin 42, got %d", cfg.Admin)
	}
	if cfg.BaseSurvivalPpm != DefaultBaseSurvivalPpm {
		t.Errorf("expected base %d, got %d", DefaultBaseSurvivalPpm, cfg.BaseSurvivalPpm)
	}
	if cfg.TreasureMultiplierNum != 19 || cfg.TreasureMultiplierDen != 10 {
		t.Errorf("expected 19/10 multiplier, got %d/%d", cfg.TreasureMultiplierNum, cfg.TreasureMultiplierDen)
	}
	if cfg.MaxRounds != 5 {
		t.Errorf("expected 5 max rounds, got %d", cfg.MaxRounds)
	}
}

func TestNewConfigOverrides(t *testing.T) {
	base := uint32(900_000)
	maxBet := uint64(0)
	cfg, err := NewConfig(1, ConfigParams{BaseSurvivalPpm: &base, MaxBet: &maxBet})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.BaseSurvivalPpm != 900_000 {
		t.Errorf("override not applied: %d", cfg.BaseSurvivalPpm)
	}
	if cfg.MaxBet != 0 {
		t.Errorf("expected unbounded max bet, got %d", cfg.MaxBet)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GameConfig)
	}{
		{"zero denominator", func(c *GameConfig) { c.TreasureMultiplierDen = 0 }},
		{"zero numerator", func(c *GameConfig) { c.TreasureMultiplierNum = 0 }},
		{"zero payout multiplier", func(c *GameConfig) { c.MaxPayoutMultiplier = 0 }},
		{"base above 100%", func(c *GameConfig) { c.BaseSurvivalPpm = PpmScale + 1 }},
		{"floor above base", func(c *GameConfig) { c.MinSurvivalPpm = c.BaseSurvivalPpm + 1 }},
		{"zero max rounds", func(c *GameConfig) { c.MaxRounds = 0 }},
		{"min bet above max bet", func(c *GameConfig) { c.MinBet = 200; c.MaxBet = 100 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateMaxBetZeroIsUnbounded(t *testing.T) {
	cfg := validConfig()
	cfg.MinBet = 1000
	cfg.MaxBet = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("max bet 0 should be valid: %v", err)
	}
}

func TestValidateBetBounds(t *testing.T) {
	cfg := validConfig()
	cfg.MinBet = 10_000_000
	cfg.MaxBet = 500_000_000

	cases := []struct {
		stake uint64
		ok    bool
	}{
		{0, false},
		{9_999_999, false},
		{10_000_000, true},  // exact lower boundary
		{50_000_000, true},
		{500_000_000, true}, // exact upper boundary
		{500_000_001, false},
	}

	for _, tc := range cases {
		err := cfg.ValidateBet(tc.stake)
		if tc.ok && err != nil {
			t.Errorf("stake %d should be accepted, got %v", tc.stake, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidBetAmount) {
			t.Errorf("stake %d should fail ErrInvalidBetAmount, got %v", tc.stake, err)
		}
	}
}

func TestValidateBetUnbounded(t *testing.T) {
	cfg := validConfig()
	cfg.MinBet = 1
	cfg.MaxBet = 0
	if err := cfg.ValidateBet(1 << 62); err != nil {
		t.Errorf("unbounded config should accept large stakes: %v", err)
	}
}
