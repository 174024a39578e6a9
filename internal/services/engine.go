package services

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"divehouse-backend/internal/game"
	"divehouse-backend/internal/store"

	"github.com/google/uuid"
)

// EntropySource supplies the hidden entropy mixed into session seeds.
type EntropySource func() ([game.SeedSize]byte, error)

// CryptoEntropy reads entropy from the operating system's CSPRNG.
func CryptoEntropy() ([game.SeedSize]byte, error) {
	var b [game.SeedSize]byte
	if _, err := rand.Read(b[:]); err != nil {
		return b, fmt.Errorf("failed to read entropy: %w", err)
	}
	return b, nil
}

// Engine orchestrates the dive game: config administration, vault liquidity,
// and the session lifecycle. Store mutations touching a vault and its sessions
// are serialized per vault address so the reserved-liability invariant holds
// across the multi-record updates a single operation performs.
type Engine struct {
	store       store.Store
	entropy     EntropySource
	broadcaster Broadcaster

	mu     sync.Mutex
	vaults map[string]*sync.Mutex
}

func NewEngine(s store.Store, entropy EntropySource, broadcaster Broadcaster) *Engine {
	if entropy == nil {
		entropy = CryptoEntropy
	}
	return &Engine{
		store:       s,
		entropy:     entropy,
		broadcaster: broadcaster,
		vaults:      make(map[string]*sync.Mutex),
	}
}

func (e *Engine) vaultLock(addr string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.vaults[addr]
	if !ok {
		lock = &sync.Mutex{}
		e.vaults[addr] = lock
	}
	return lock
}

// InitConfig creates the singleton game config. The caller becomes its admin.
func (e *Engine) InitConfig(admin int64, params game.ConfigParams) (*game.GameConfig, error) {
	cfg, err := game.NewConfig(admin, params)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig replaces config parameters. Nil params keep their current
// values. Only the recorded admin may update, and the merged config must pass
// the same validation as creation.
func (e *Engine) UpdateConfig(caller int64, params game.ConfigParams) (*game.GameConfig, error) {
	cfg, err := e.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, game.ErrUnauthorized
	}

	next := *cfg
	if params.BaseSurvivalPpm != nil {
		next.BaseSurvivalPpm = *params.BaseSurvivalPpm
	}
	if params.DecayPerRoundPpm != nil {
		next.DecayPerRoundPpm = *params.DecayPerRoundPpm
	}
	if params.MinSurvivalPpm != nil {
		next.MinSurvivalPpm = *params.MinSurvivalPpm
	}
	if params.TreasureMultiplierNum != nil {
		next.TreasureMultiplierNum = *params.TreasureMultiplierNum
	}
	if params.TreasureMultiplierDen != nil {
		next.TreasureMultiplierDen = *params.TreasureMultiplierDen
	}
	if params.MaxPayoutMultiplier != nil {
		next.MaxPayoutMultiplier = *params.MaxPayoutMultiplier
	}
	if params.MaxRounds != nil {
		next.MaxRounds = *params.MaxRounds
	}
	if params.MinBet != nil {
		next.MinBet = *params.MinBet
	}
	if params.MaxBet != nil {
		next.MaxBet = *params.MaxBet
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if err := e.store.ReplaceConfig(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (e *Engine) Config() (*game.GameConfig, error) {
	return e.store.GetConfig()
}

// OpenVault creates an unlocked vault for the given authority with zero
// reserved liability.
func (e *Engine) OpenVault(authority int64) (*game.HouseVault, error) {
	v := &game.HouseVault{
		Authority: authority,
		CreatedAt: time.Now().Unix(),
	}
	if err := e.store.CreateVault(game.VaultAddr(authority), v); err != nil {
		return nil, err
	}
	return v, nil
}

// ToggleLock flips the vault's lock flag. Only the vault authority may do it.
func (e *Engine) ToggleLock(caller int64, vaultAddr string) (*game.HouseVault, error) {
	lock := e.vaultLock(vaultAddr)
	lock.Lock()
	defer lock.Unlock()

	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return nil, err
	}
	if caller != v.Authority {
		return nil, game.ErrUnauthorized
	}
	v.Locked = !v.Locked
	if err := e.store.SaveVault(vaultAddr, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DepositHouse credits the vault's backing balance. Funding arrives from
// outside the player ledger, so this is a plain credit rather than a
// transfer.
func (e *Engine) DepositHouse(caller int64, vaultAddr string, amount uint64) error {
	lock := e.vaultLock(vaultAddr)
	lock.Lock()
	defer lock.Unlock()

	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	if caller != v.Authority {
		return game.ErrUnauthorized
	}
	return e.store.Credit(store.VaultBankAccount(vaultAddr), amount)
}

// WithdrawHouse moves free liquidity from the vault's backing balance to the
// authority's wallet. Reserved funds never leave the vault.
func (e *Engine) WithdrawHouse(caller int64, vaultAddr string, amount uint64) error {
	lock := e.vaultLock(vaultAddr)
	lock.Lock()
	defer lock.Unlock()

	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	if caller != v.Authority {
		return game.ErrUnauthorized
	}
	balance, err := e.store.Balance(store.VaultBankAccount(vaultAddr))
	if err != nil {
		return err
	}
	if amount > v.FreeLiquidity(balance) {
		return game.ErrInsufficientVaultBalance
	}
	return e.store.Transfer(store.VaultBankAccount(vaultAddr), store.WalletAccount(caller), amount)
}

// ResetVaultReserved zeroes the reserved counter. It exists as an escape
// hatch for operators after all sessions have been cleaned; a vault with live
// reservations refuses the reset.
func (e *Engine) ResetVaultReserved(caller int64, vaultAddr string) error {
	lock := e.vaultLock(vaultAddr)
	lock.Lock()
	defer lock.Unlock()

	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return err
	}
	if caller != v.Authority {
		return game.ErrUnauthorized
	}
	sessions, err := e.store.VaultSessions(vaultAddr)
	if err != nil {
		return err
	}
	if len(sessions) > 0 {
		return game.ErrVaultHasReservedFunds
	}
	v.Reserved = 0
	return e.store.SaveVault(vaultAddr, v)
}

// VaultStatus reports a vault together with its backing balance and the
// liquidity still available for new reservations.
type VaultStatus struct {
	Vault         *game.HouseVault `json:"vault"`
	Balance       uint64           `json:"balance"`
	FreeLiquidity uint64           `json:"free_liquidity"`
	OpenSessions  int              `json:"open_sessions"`
}

func (e *Engine) VaultStatus(vaultAddr string) (*VaultStatus, error) {
	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return nil, err
	}
	balance, err := e.store.Balance(store.VaultBankAccount(vaultAddr))
	if err != nil {
		return nil, err
	}
	sessions, err := e.store.VaultSessions(vaultAddr)
	if err != nil {
		return nil, err
	}
	return &VaultStatus{
		Vault:         v,
		Balance:       balance,
		FreeLiquidity: v.FreeLiquidity(balance),
		OpenSessions:  len(sessions),
	}, nil
}

// EnsureWallet seeds a player wallet with the starter balance on first sight.
// Existing wallets are left untouched.
func (e *Engine) EnsureWallet(player int64, starterBalance uint64) (uint64, error) {
	if _, err := e.store.InitBalance(store.WalletAccount(player), starterBalance); err != nil {
		return 0, err
	}
	return e.store.Balance(store.WalletAccount(player))
}

func (e *Engine) Balance(player int64) (uint64, error) {
	return e.store.Balance(store.WalletAccount(player))
}

// StartSession opens a new dive for the player against the given vault. The
// stake moves into the vault bank first, then the max payout is reserved
// against the enlarged balance, so a session is only admitted when the vault
// can cover its worst case.
func (e *Engine) StartSession(player int64, vaultAddr string, sessionIndex uint64, stake uint64) (*game.DiveSession, error) {
	cfg, err := e.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBet(stake); err != nil {
		return nil, err
	}
	maxPayout, err := game.MaxPayoutForBet(stake, cfg.MaxPayoutMultiplier)
	if err != nil {
		return nil, err
	}

	lock := e.vaultLock(vaultAddr)
	lock.Lock()
	defer lock.Unlock()

	v, err := e.store.GetVault(vaultAddr)
	if err != nil {
		return nil, err
	}
	if v.Locked {
		return nil, game.ErrHouseLocked
	}

	bank := store.VaultBankAccount(vaultAddr)
	if err := e.store.Transfer(store.WalletAccount(player), bank, stake); err != nil {
		return nil, err
	}
	balance, err := e.store.Balance(bank)
	if err != nil {
		e.store.Transfer(bank, store.WalletAccount(player), stake)
		return nil, err
	}
	if err := v.Reserve(maxPayout, balance); err != nil {
		e.store.Transfer(bank, store.WalletAccount(player), stake)
		return nil, err
	}

	entropy, err := e.entropy()
	if err != nil {
		e.store.Transfer(bank, store.WalletAccount(player), stake)
		return nil, err
	}
	now := time.Now().Unix()
	s := &game.DiveSession{
		Player:          player,
		Vault:           vaultAddr,
		SessionIndex:    sessionIndex,
		Status:          game.StatusActive,
		BetAmount:       stake,
		CurrentTreasure: stake,
		MaxPayout:       maxPayout,
		RoundNumber:     1,
		Seed:            game.DeriveSeed(entropy, player, sessionIndex),
		CreatedAt:       now,
		LastActiveAt:    now,
	}
	if err := e.store.CreateSession(s); err != nil {
		e.store.Transfer(bank, store.WalletAccount(player), stake)
		return nil, err
	}
	if err := e.store.SaveVault(vaultAddr, v); err != nil {
		e.store.DeleteSession(s)
		e.store.Transfer(bank, store.WalletAccount(player), stake)
		return nil, err
	}

	e.recordHistory(player, store.HistorySessionStarted, s.Addr(), stake, 0)
	if e.broadcaster != nil {
		e.broadcaster.SessionStarted(s)
	}
	return s, nil
}

// RoundResult is what the player sees after a resolved round.
type RoundResult struct {
	Session  *game.DiveSession `json:"session"`
	Outcome  game.Outcome      `json:"outcome"`
	Finished bool              `json:"finished"`
}

// ResolveRound plays the session's next round. On survival the treasure grows
// and the session stays active; on failure the session is lost, the stake
// stays in the vault bank, and the reservation is released. A nonzero
// expectedRound must name the round count the caller expects after this
// resolution, which rejects stale or duplicated calls.
func (e *Engine) ResolveRound(caller int64, sessionAddr string, expectedRound uint16) (*RoundResult, error) {
	cfg, err := e.store.GetConfig()
	if err != nil {
		return nil, err
	}

	s, err := e.store.GetSession(sessionAddr)
	if err != nil {
		return nil, err
	}

	lock := e.vaultLock(s.Vault)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the vault lock; the first read only located the vault.
	s, err = e.store.GetSession(sessionAddr)
	if err != nil {
		return nil, err
	}
	if caller != s.Player {
		return nil, game.ErrUnauthorized
	}
	if err := s.EnsureActive(); err != nil {
		return nil, err
	}
	if expectedRound != 0 && expectedRound != s.RoundNumber+1 {
		return nil, game.ErrRoundMismatch
	}
	if s.RoundNumber > cfg.MaxRounds {
		return nil, game.ErrMaxRoundsReached
	}

	out := game.Resolve(cfg, s.Seed, s.RoundNumber, s.CurrentTreasure, s.MaxPayout)
	round := s.RoundNumber

	if out.Survived {
		if err := s.ApplySurvival(out.NewTreasure); err != nil {
			return nil, err
		}
		s.LastActiveAt = time.Now().Unix()
		if err := e.store.SaveSession(s); err != nil {
			return nil, err
		}
		e.recordHistory(s.Player, store.HistoryRoundPlayed, sessionAddr, s.CurrentTreasure, round)
		if e.broadcaster != nil {
			e.broadcaster.RoundPlayed(s, out)
		}
		return &RoundResult{Session: s, Outcome: out}, nil
	}

	if err := e.loseSessionLocked(s); err != nil {
		return nil, err
	}
	e.recordHistory(s.Player, store.HistorySessionLost, sessionAddr, s.BetAmount, round)
	if e.broadcaster != nil {
		e.broadcaster.SessionLost(s, round)
	}
	return &RoundResult{Session: s, Outcome: out, Finished: true}, nil
}

// CashOut banks the session's current treasure into the player's wallet.
// Requires at least one survived round and an unlocked vault.
func (e *Engine) CashOut(caller int64, sessionAddr string) (uint64, error) {
	s, err := e.store.GetSession(sessionAddr)
	if err != nil {
		return 0, err
	}

	lock := e.vaultLock(s.Vault)
	lock.Lock()
	defer lock.Unlock()

	s, err = e.store.GetSession(sessionAddr)
	if err != nil {
		return 0, err
	}
	if caller != s.Player {
		return 0, game.ErrUnauthorized
	}
	if err := s.EnsureActive(); err != nil {
		return 0, err
	}

	v, err := e.store.GetVault(s.Vault)
	if err != nil {
		return 0, err
	}
	if v.Locked {
		return 0, game.ErrHouseLocked
	}
	if s.CurrentTreasure <= s.BetAmount {
		return 0, game.ErrInsufficientTreasure
	}

	bank := store.VaultBankAccount(s.Vault)
	balance, err := e.store.Balance(bank)
	if err != nil {
		return 0, err
	}
	if balance < s.CurrentTreasure {
		return 0, game.ErrInsufficientVaultBalance
	}

	payout := s.CurrentTreasure
	if err := e.store.Transfer(bank, store.WalletAccount(s.Player), payout); err != nil {
		return 0, err
	}
	v.Release(s.MaxPayout)
	if err := s.MarkCashedOut(); err != nil {
		return 0, err
	}
	if err := e.store.SaveVault(s.Vault, v); err != nil {
		return 0, err
	}
	if err := e.store.DeleteSession(s); err != nil {
		return 0, err
	}

	e.recordHistory(s.Player, store.HistorySessionCashedOut, sessionAddr, payout, s.RoundNumber)
	if e.broadcaster != nil {
		e.broadcaster.SessionCashedOut(s, payout)
	}
	return payout, nil
}

// LoseSession forfeits an active session without resolving a round. The
// player walks away, the stake stays with the house. Unlike cash-out this
// works on a locked vault, since it only shrinks liability.
func (e *Engine) LoseSession(caller int64, sessionAddr string) error {
	s, err := e.store.GetSession(sessionAddr)
	if err != nil {
		return err
	}

	lock := e.vaultLock(s.Vault)
	lock.Lock()
	defer lock.Unlock()

	s, err = e.store.GetSession(sessionAddr)
	if err != nil {
		return err
	}
	if caller != s.Player {
		return game.ErrUnauthorized
	}
	if err := s.EnsureActive(); err != nil {
		return err
	}

	round := s.RoundNumber
	if err := e.loseSessionLocked(s); err != nil {
		return err
	}
	e.recordHistory(s.Player, store.HistorySessionLost, sessionAddr, s.BetAmount, round)
	if e.broadcaster != nil {
		e.broadcaster.SessionLost(s, round)
	}
	return nil
}

// loseSessionLocked runs the shared loss path: mark lost, release the
// reservation, drop the session record. Caller holds the vault lock.
func (e *Engine) loseSessionLocked(s *game.DiveSession) error {
	v, err := e.store.GetVault(s.Vault)
	if err != nil {
		return err
	}
	if err := s.MarkLost(); err != nil {
		return err
	}
	v.Release(s.MaxPayout)
	if err := e.store.SaveVault(s.Vault, v); err != nil {
		return err
	}
	return e.store.DeleteSession(s)
}

// CleanupExpiredSessions sweeps every vault for sessions idle longer than the
// timeout and forfeits them, freeing their reservations. Returns the number
// of sessions cleaned.
func (e *Engine) CleanupExpiredSessions(timeout time.Duration) (int, error) {
	vaultAddrs, err := e.store.ListVaults()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-timeout).Unix()
	cleaned := 0
	for _, vaultAddr := range vaultAddrs {
		lock := e.vaultLock(vaultAddr)
		lock.Lock()
		sessionAddrs, err := e.store.VaultSessions(vaultAddr)
		if err != nil {
			lock.Unlock()
			return cleaned, err
		}
		for _, addr := range sessionAddrs {
			s, err := e.store.GetSession(addr)
			if err != nil {
				continue
			}
			if s.LastActiveAt > cutoff {
				continue
			}
			round := s.RoundNumber
			if err := e.loseSessionLocked(s); err != nil {
				lock.Unlock()
				return cleaned, err
			}
			released := s.MaxPayout
			e.recordHistory(s.Player, store.HistorySessionCleaned, addr, s.BetAmount, round)
			if e.broadcaster != nil {
				e.broadcaster.SessionCleaned(s, released)
			}
			cleaned++
		}
		lock.Unlock()
	}
	return cleaned, nil
}

// Session returns a session by address, restricted to its owner.
func (e *Engine) Session(caller int64, sessionAddr string) (*game.DiveSession, error) {
	s, err := e.store.GetSession(sessionAddr)
	if err != nil {
		return nil, err
	}
	if caller != s.Player {
		return nil, game.ErrUnauthorized
	}
	return s, nil
}

// ActiveSessions lists the player's open sessions across all vaults.
func (e *Engine) ActiveSessions(player int64) ([]*game.DiveSession, error) {
	vaultAddrs, err := e.store.ListVaults()
	if err != nil {
		return nil, err
	}
	var sessions []*game.DiveSession
	for _, vaultAddr := range vaultAddrs {
		addrs, err := e.store.VaultSessions(vaultAddr)
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			s, err := e.store.GetSession(addr)
			if err != nil {
				continue
			}
			if s.Player == player {
				sessions = append(sessions, s)
			}
		}
	}
	return sessions, nil
}

func (e *Engine) History(player int64, limit int64) ([]*store.HistoryEntry, error) {
	return e.store.History(player, limit)
}

func (e *Engine) recordHistory(player int64, entryType, sessionAddr string, amount uint64, round uint16) {
	e.store.AppendHistory(player, &store.HistoryEntry{
		ID:        uuid.New().String(),
		Player:    player,
		Type:      entryType,
		Session:   sessionAddr,
		Amount:    amount,
		Round:     round,
		CreatedAt: time.Now().Unix(),
	})
}
