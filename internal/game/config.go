package game

// PpmScale is the fixed-point scale for survival probabilities:
// 1_000_000 ppm = 100%.
const PpmScale = 1_000_000

// Default parameters applied by NewConfig when a field is left unset.
const (
	DefaultBaseSurvivalPpm     = 700_000 // 70% on round 1
	DefaultDecayPerRoundPpm    = 8_000   // -0.8% per round
	DefaultMinSurvivalPpm      = 50_000  // 5% floor
	DefaultTreasureNum         = 19      // 1.9x per survived round
	DefaultTreasureDen         = 10
	DefaultMaxPayoutMultiplier = 100 // 100x bet cap
	DefaultMaxRounds           = 5
	DefaultMinBet              = 50_000_000
	DefaultMaxBet              = 100_000_000
)

// GameConfig is the singleton registry of game parameters. It is written once
// by the admin (or fully replaced under the same validation) and read-only to
// everything else.
type GameConfig struct {
	Admin                 int64  `json:"admin"`
	BaseSurvivalPpm       uint32 `json:"base_survival_ppm"`
	DecayPerRoundPpm      uint32 `json:"decay_per_round_ppm"`
	MinSurvivalPpm        uint32 `json:"min_survival_ppm"`
	TreasureMultiplierNum uint16 `json:"treasure_multiplier_num"`
	TreasureMultiplierDen uint16 `json:"treasure_multiplier_den"`
	MaxPayoutMultiplier   uint16 `json:"max_payout_multiplier"`
	MaxRounds             uint16 `json:"max_rounds"`
	MinBet                uint64 `json:"min_bet"`
	MaxBet                uint64 `json:"max_bet"` // 0 means unbounded
}

// ConfigParams carries optional overrides for config creation. Nil fields fall
// back to the documented defaults.
type ConfigParams struct {
	BaseSurvivalPpm       *uint32 `json:"base_survival_ppm"`
	DecayPerRoundPpm      *uint32 `json:"decay_per_round_ppm"`
	MinSurvivalPpm        *uint32 `json:"min_survival_ppm"`
	TreasureMultiplierNum *uint16 `json:"treasure_multiplier_num"`
	TreasureMultiplierDen *uint16 `json:"treasure_multiplier_den"`
	MaxPayoutMultiplier   *uint16 `json:"max_payout_multiplier"`
	MaxRounds             *uint16 `json:"max_rounds"`
	MinBet                *uint64 `json:"min_bet"`
	MaxBet                *uint64 `json:"max_bet"`
}

// NewConfig builds and validates a config record for the given admin. Nothing
// is written anywhere on failure.
func NewConfig(admin int64, params ConfigParams) (*GameConfig, error) {
	cfg := &GameConfig{
		Admin:                 admin,
		BaseSurvivalPpm:       u32Default(params.BaseSurvivalPpm, DefaultBaseSurvivalPpm),
		DecayPerRoundPpm:      u32Default(params.DecayPerRoundPpm, DefaultDecayPerRoundPpm),
		MinSurvivalPpm:        u32Default(params.MinSurvivalPpm, DefaultMinSurvivalPpm),
		TreasureMultiplierNum: u16Default(params.TreasureMultiplierNum, DefaultTreasureNum),
		TreasureMultiplierDen: u16Default(params.TreasureMultiplierDen, DefaultTreasureDen),
		MaxPayoutMultiplier:   u16Default(params.MaxPayoutMultiplier, DefaultMaxPayoutMultiplier),
		MaxRounds:             u16Default(params.MaxRounds, DefaultMaxRounds),
		MinBet:                u64Default(params.MinBet, DefaultMinBet),
		MaxBet:                u64Default(params.MaxBet, DefaultMaxBet),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate is the single source of truth for config validation, used both at
// creation and at replacement.
func (c *GameConfig) Validate() error {
	if c.TreasureMultiplierDen == 0 || c.TreasureMultiplierNum == 0 {
		return ErrInvalidConfig
	}
	if c.MaxPayoutMultiplier == 0 {
		return ErrInvalidConfig
	}
	if c.BaseSurvivalPpm > PpmScale {
		return ErrInvalidConfig
	}
	if c.MinSurvivalPpm > c.BaseSurvivalPpm {
		return ErrInvalidConfig
	}
	if c.MaxRounds == 0 {
		return ErrInvalidConfig
	}
	if c.MaxBet > 0 && c.MinBet > c.MaxBet {
		return ErrInvalidConfig
	}
	return nil
}

// ValidateBet checks a stake against the configured bounds. Both boundaries
// are inclusive; MaxBet == 0 leaves the upper bound open.
func (c *GameConfig) ValidateBet(stake uint64) error {
	if stake == 0 || stake < c.MinBet {
		return ErrInvalidBetAmount
	}
	if c.MaxBet > 0 && stake > c.MaxBet {
		return ErrInvalidBetAmount
	}
	return nil
}

func u32Default(v *uint32, fallback uint32) uint32 {
	if v != nil {
		return *v
	}
	return fallback
}

func u16Default(v *uint16, fallback uint16) uint16 {
	if v != nil {
		return *v
	}
	return fallback
}

func u64Default(v *uint64, fallback uint64) uint64 {
	if v != nil {
		return *v
	}
	return fallback
}
