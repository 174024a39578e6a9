package game

import "fmt"

// HouseVault is the shared pool underwriting payouts for all sessions opened
// against one authority. Reserved tracks the sum of max payouts over currently
// active sessions and must never exceed the vault's backing balance.
type HouseVault struct {
	Authority int64  `json:"authority"`
	Locked    bool   `json:"locked"`
	Reserved  uint64 `json:"reserved"`
	CreatedAt int64  `json:"created_at"`
}

// Reserve admits new liability against the vault's backing balance. The
// balance comparison happens before the reservation is taken, so a vault can
// never owe more than it holds.
func (v *HouseVault) Reserve(amount, vaultBalance uint64) error {
	total := v.Reserved + amount
	if total < v.Reserved {
		return ErrOverflow
	}
	if total > vaultBalance {
		return ErrInsufficientVaultBalance
	}
	v.Reserved = total
	return nil
}

// Release returns liability that a paired Reserve added. Amounts always come
// from a session's stored max payout, so an underflow here means the
// accounting invariant was already broken upstream and there is nothing safe
// left to do.
func (v *HouseVault) Release(amount uint64) {
	if amount > v.Reserved {
		panic(fmt.Sprintf("vault %d: release %d exceeds reserved %d", v.Authority, amount, v.Reserved))
	}
	v.Reserved -= amount
}

// FreeLiquidity is the portion of the backing balance not pledged to open
// sessions, available for authority withdrawal.
func (v *HouseVault) FreeLiquidity(vaultBalance uint64) uint64 {
	if v.Reserved > vaultBalance {
		return 0
	}
	return vaultBalance - v.Reserved
}
