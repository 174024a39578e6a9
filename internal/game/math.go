package game

import "math/bits"

// SurvivalPpm returns the survival probability for a round in ppm. The curve
// decays linearly from the base, clamps at the floor, and never re-increases.
func (c *GameConfig) SurvivalPpm(roundNumber uint16) uint32 {
	elapsed := uint32(0)
	if roundNumber > 1 {
		elapsed = uint32(roundNumber - 1)
	}
	reduction, overflow := mul32(c.DecayPerRoundPpm, elapsed)
	if overflow || reduction > c.BaseSurvivalPpm {
		return c.MinSurvivalPpm
	}
	ppm := c.BaseSurvivalPpm - reduction
	if ppm < c.MinSurvivalPpm {
		return c.MinSurvivalPpm
	}
	return ppm
}

// SurvivalThreshold maps the round's survival probability to an integer
// percentage in [0,100]; a roll below it survives.
func (c *GameConfig) SurvivalThreshold(roundNumber uint16) uint8 {
	return uint8(c.SurvivalPpm(roundNumber) / (PpmScale / 100))
}

// MaxPayoutForBet is the fixed payout ceiling reserved against the vault for
// the life of a session.
func MaxPayoutForBet(stake uint64, multiplier uint16) (uint64, error) {
	hi, lo := bits.Mul64(stake, uint64(multiplier))
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// NextTreasure grows the current treasure by the configured per-round
// multiplier, truncating toward zero and capping at maxPayout. Intermediate
// math is 128-bit wide so large stakes cannot overflow.
func (c *GameConfig) NextTreasure(current, maxPayout uint64) uint64 {
	hi, lo := bits.Mul64(current, uint64(c.TreasureMultiplierNum))
	den := uint64(c.TreasureMultiplierDen)
	if hi >= den {
		// Quotient would not fit in 64 bits; the cap applies regardless.
		return maxPayout
	}
	q, _ := bits.Div64(hi, lo, den)
	if q > maxPayout {
		return maxPayout
	}
	return q
}

func mul32(a, b uint32) (uint32, bool) {
	p := uint64(a) * uint64(b)
	return uint32(p), p > uint64(^uint32(0))
}
