package services

import (
	"errors"
	"testing"
	"time"

	"divehouse-backend/internal/game"
	"divehouse-backend/internal/store"
)

const (
	testAdmin  = int64(1)
	testPlayer = int64(7)

	starterBalance = uint64(10_000_000_000)
	houseFunds     = uint64(10_000_000_000)
	testStake      = uint64(50_000_000)
)

func u32p(v uint32) *uint32 { return &v }
func u16p(v uint16) *uint16 { return &v }
func u64p(v uint64) *uint64 { return &v }

// surviveParams forces the survival threshold to 100 so every roll survives.
func surviveParams() game.ConfigParams {
	return game.ConfigParams{
		BaseSurvivalPpm:  u32p(game.PpmScale),
		DecayPerRoundPpm: u32p(0),
		MinSurvivalPpm:   u32p(game.PpmScale),
	}
}

// failParams forces the survival threshold to 0 so every roll fails.
func failParams() game.ConfigParams {
	return game.ConfigParams{
		BaseSurvivalPpm: u32p(0),
		MinSurvivalPpm:  u32p(0),
	}
}

type recordingBroadcaster struct {
	started   int
	rounds    int
	lost      int
	cashedOut int
	cleaned   int
}

func (r *recordingBroadcaster) SessionStarted(*game.DiveSession)            { r.started++ }
func (r *recordingBroadcaster) RoundPlayed(*game.DiveSession, game.Outcome) { r.rounds++ }
func (r *recordingBroadcaster) SessionLost(*game.DiveSession, uint16)       { r.lost++ }
func (r *recordingBroadcaster) SessionCashedOut(*game.DiveSession, uint64)  { r.cashedOut++ }
func (r *recordingBroadcaster) SessionCleaned(*game.DiveSession, uint64)    { r.cleaned++ }

func fixedEntropy() ([game.SeedSize]byte, error) {
	var b [game.SeedSize]byte
	for i := range b {
		b[i] = byte(i)
	}
	return b, nil
}

type testEnv struct {
	store     *store.MemoryStore
	engine    *Engine
	events    *recordingBroadcaster
	vaultAddr string
}

func newTestEnv(t *testing.T, params game.ConfigParams) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	events := &recordingBroadcaster{}
	eng := NewEngine(st, fixedEntropy, events)

	if _, err := eng.InitConfig(testAdmin, params); err != nil {
		t.Fatalf("init config: %v", err)
	}
	v, err := eng.OpenVault(testAdmin)
	if err != nil {
		t.Fatalf("open vault: %v", err)
	}
	vaultAddr := game.VaultAddr(v.Authority)
	if err := eng.DepositHouse(testAdmin, vaultAddr, houseFunds); err != nil {
		t.Fatalf("deposit house: %v", err)
	}
	if _, err := eng.EnsureWallet(testPlayer, starterBalance); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	return &testEnv{store: st, engine: eng, events: events, vaultAddr: vaultAddr}
}

// totalFunds sums every account the tests touch. Game operations only move
// value between these accounts, so the total must never change.
func (env *testEnv) totalFunds(t *testing.T) uint64 {
	t.Helper()
	total := uint64(0)
	for _, account := range []string{
		store.WalletAccount(testPlayer),
		store.WalletAccount(testAdmin),
		store.VaultBankAccount(env.vaultAddr),
	} {
		balance, err := env.store.Balance(account)
		if err != nil {
			t.Fatalf("balance %s: %v", account, err)
		}
		total += balance
	}
	return total
}

func (env *testEnv) vault(t *testing.T) *game.HouseVault {
	t.Helper()
	v, err := env.store.GetVault(env.vaultAddr)
	if err != nil {
		t.Fatalf("get vault: %v", err)
	}
	return v
}

func (env *testEnv) bankBalance(t *testing.T) uint64 {
	t.Helper()
	balance, err := env.store.Balance(store.VaultBankAccount(env.vaultAddr))
	if err != nil {
		t.Fatalf("bank balance: %v", err)
	}
	return balance
}

func (env *testEnv) walletBalance(t *testing.T, player int64) uint64 {
	t.Helper()
	balance, err := env.store.Balance(store.WalletAccount(player))
	if err != nil {
		t.Fatalf("wallet balance: %v", err)
	}
	return balance
}

func TestStartSessionReservesAndDebits(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	before := env.totalFunds(t)

	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if s.Status != game.StatusActive || s.RoundNumber != 1 {
		t.Errorf("expected active round 1, got %s round %d", s.Status, s.RoundNumber)
	}
	if s.CurrentTreasure != testStake {
		t.Errorf("treasure must start at the stake, got %d", s.CurrentTreasure)
	}
	if want := testStake * 100; s.MaxPayout != want {
		t.Errorf("expected max payout %d, got %d", want, s.MaxPayout)
	}
	if got := env.walletBalance(t, testPlayer); got != starterBalance-testStake {
		t.Errorf("wallet should be debited the stake, got %d", got)
	}
	if got := env.bankBalance(t); got != houseFunds+testStake {
		t.Errorf("stake should land in the vault bank, got %d", got)
	}
	if v := env.vault(t); v.Reserved != s.MaxPayout {
		t.Errorf("reserved must equal the max payout, got %d", v.Reserved)
	}
	if env.totalFunds(t) != before {
		t.Error("funds must be conserved across session start")
	}
	if env.events.started != 1 {
		t.Errorf("expected one start event, got %d", env.events.started)
	}
}

func TestStartSessionUnderfundedVault(t *testing.T) {
	env := newTestEnv(t, surviveParams())

	// Drain the bank so the reservation cannot be covered.
	if err := env.engine.WithdrawHouse(testAdmin, env.vaultAddr, houseFunds); err != nil {
		t.Fatalf("withdraw house: %v", err)
	}
	before := env.totalFunds(t)

	_, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if !errors.Is(err, game.ErrInsufficientVaultBalance) {
		t.Fatalf("expected insufficient vault balance, got %v", err)
	}

	if got := env.walletBalance(t, testPlayer); got != starterBalance {
		t.Errorf("failed start must refund the stake, wallet %d", got)
	}
	if v := env.vault(t); v.Reserved != 0 {
		t.Errorf("failed start must not leave a reservation, got %d", v.Reserved)
	}
	if _, err := env.store.GetSession(game.SessionAddr(testPlayer, 0)); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("failed start must not create a session, got %v", err)
	}
	if env.totalFunds(t) != before {
		t.Error("funds must be conserved across a rejected start")
	}
}

func TestStartSessionValidations(t *testing.T) {
	env := newTestEnv(t, surviveParams())

	if _, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, 1); !errors.Is(err, game.ErrInvalidBetAmount) {
		t.Errorf("stake below min bet must fail, got %v", err)
	}
	if _, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, 500_000_000); !errors.Is(err, game.ErrInvalidBetAmount) {
		t.Errorf("stake above max bet must fail, got %v", err)
	}

	if _, err := env.engine.ToggleLock(testAdmin, env.vaultAddr); err != nil {
		t.Fatalf("toggle lock: %v", err)
	}
	if _, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake); !errors.Is(err, game.ErrHouseLocked) {
		t.Errorf("locked vault must refuse new sessions, got %v", err)
	}
	if _, err := env.engine.ToggleLock(testAdmin, env.vaultAddr); err != nil {
		t.Fatalf("toggle lock: %v", err)
	}

	if _, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake); err != nil {
		t.Fatalf("start session: %v", err)
	}
	before := env.totalFunds(t)
	if _, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake); !errors.Is(err, game.ErrAlreadyExists) {
		t.Errorf("duplicate session index must fail, got %v", err)
	}
	if env.totalFunds(t) != before {
		t.Error("rejected duplicate start must not move funds")
	}
	if v := env.vault(t); v.Reserved != testStake*100 {
		t.Errorf("rejected duplicate start must not change reserved, got %d", v.Reserved)
	}
}

func TestResolveRoundSurvival(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	before := env.totalFunds(t)

	res, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if !res.Outcome.Survived || res.Finished {
		t.Fatalf("forced survival config must survive, got %+v", res.Outcome)
	}
	if want := testStake * 19 / 10; res.Session.CurrentTreasure != want {
		t.Errorf("expected treasure %d, got %d", want, res.Session.CurrentTreasure)
	}
	if res.Session.RoundNumber != 2 {
		t.Errorf("expected round 2, got %d", res.Session.RoundNumber)
	}

	stored, err := env.store.GetSession(s.Addr())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.CurrentTreasure != res.Session.CurrentTreasure {
		t.Error("survival must be persisted")
	}
	if stored.Seed != s.Seed {
		t.Error("the seed must never change across resolutions")
	}
	if v := env.vault(t); v.Reserved != s.MaxPayout {
		t.Errorf("survival must not change reserved, got %d", v.Reserved)
	}
	if env.totalFunds(t) != before {
		t.Error("round resolution must not move funds")
	}
	if env.events.rounds != 1 {
		t.Errorf("expected one round event, got %d", env.events.rounds)
	}
}

func TestResolveRoundLoss(t *testing.T) {
	env := newTestEnv(t, failParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	before := env.totalFunds(t)

	res, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0)
	if err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if res.Outcome.Survived || !res.Finished {
		t.Fatalf("forced failure config must lose, got %+v", res.Outcome)
	}
	if res.Session.Status != game.StatusLost || res.Session.CurrentTreasure != 0 {
		t.Errorf("lost session must be terminal with zero treasure, got %+v", res.Session)
	}

	if _, err := env.store.GetSession(s.Addr()); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("lost session must be removed, got %v", err)
	}
	if v := env.vault(t); v.Reserved != 0 {
		t.Errorf("loss must release the reservation, got %d", v.Reserved)
	}
	if got := env.bankBalance(t); got != houseFunds+testStake {
		t.Errorf("stake stays with the house on loss, bank %d", got)
	}
	if got := env.walletBalance(t, testPlayer); got != starterBalance-testStake {
		t.Errorf("player keeps nothing on loss, wallet %d", got)
	}
	if env.totalFunds(t) != before {
		t.Error("funds must be conserved across a loss")
	}
	if env.events.lost != 1 {
		t.Errorf("expected one loss event, got %d", env.events.lost)
	}
}

func TestResolveRoundAuthorizationAndMismatch(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if _, err := env.engine.ResolveRound(testPlayer+1, s.Addr(), 0); !errors.Is(err, game.ErrUnauthorized) {
		t.Errorf("foreign caller must be rejected, got %v", err)
	}
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 1); !errors.Is(err, game.ErrRoundMismatch) {
		t.Errorf("stale round number must be rejected, got %v", err)
	}
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 3); !errors.Is(err, game.ErrRoundMismatch) {
		t.Errorf("future round number must be rejected, got %v", err)
	}

	stored, err := env.store.GetSession(s.Addr())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.RoundNumber != 1 || stored.CurrentTreasure != testStake {
		t.Error("rejected resolves must not mutate the session")
	}

	// The caller names the round count they expect after the resolution.
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 2); err != nil {
		t.Errorf("matching expected round must resolve, got %v", err)
	}
}

func TestResolveRoundMaxRoundsCeiling(t *testing.T) {
	params := surviveParams()
	params.MaxRounds = u16p(2)
	env := newTestEnv(t, params)

	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	for round := uint16(1); round <= 2; round++ {
		if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), round+1); err != nil {
			t.Fatalf("resolve round %d: %v", round, err)
		}
	}

	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0); !errors.Is(err, game.ErrMaxRoundsReached) {
		t.Fatalf("round past the ceiling must fail, got %v", err)
	}

	// The session survives the ceiling and can still cash out.
	payout, err := env.engine.CashOut(testPlayer, s.Addr())
	if err != nil {
		t.Fatalf("cash out after ceiling: %v", err)
	}
	if want := testStake * 19 / 10 * 19 / 10; payout != want {
		t.Errorf("expected payout %d, got %d", want, payout)
	}
}

func TestCashOut(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0); err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	before := env.totalFunds(t)

	payout, err := env.engine.CashOut(testPlayer, s.Addr())
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	want := testStake * 19 / 10
	if payout != want {
		t.Errorf("expected payout %d, got %d", want, payout)
	}
	if got := env.walletBalance(t, testPlayer); got != starterBalance-testStake+want {
		t.Errorf("payout must land in the wallet, got %d", got)
	}
	if got := env.bankBalance(t); got != houseFunds+testStake-want {
		t.Errorf("payout must leave the bank, got %d", got)
	}
	if v := env.vault(t); v.Reserved != 0 {
		t.Errorf("cash-out must release the reservation, got %d", v.Reserved)
	}
	if _, err := env.store.GetSession(s.Addr()); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("cashed-out session must be removed, got %v", err)
	}
	if env.totalFunds(t) != before {
		t.Error("funds must be conserved across cash-out")
	}
	if env.events.cashedOut != 1 {
		t.Errorf("expected one cash-out event, got %d", env.events.cashedOut)
	}
}

func TestCashOutRequiresProfit(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := env.engine.CashOut(testPlayer, s.Addr()); !errors.Is(err, game.ErrInsufficientTreasure) {
		t.Errorf("cash-out without a survived round must fail, got %v", err)
	}
	stored, err := env.store.GetSession(s.Addr())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Status != game.StatusActive {
		t.Error("rejected cash-out must leave the session active")
	}
}

func TestLockBlocksCashOutNotRounds(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := env.engine.ToggleLock(testAdmin, env.vaultAddr); err != nil {
		t.Fatalf("toggle lock: %v", err)
	}

	// Rounds keep playing under a lock.
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0); err != nil {
		t.Fatalf("resolve under lock: %v", err)
	}
	if _, err := env.engine.CashOut(testPlayer, s.Addr()); !errors.Is(err, game.ErrHouseLocked) {
		t.Errorf("cash-out under lock must fail, got %v", err)
	}

	// Forfeit shrinks liability, so the lock does not block it.
	if err := env.engine.LoseSession(testPlayer, s.Addr()); err != nil {
		t.Fatalf("forfeit under lock: %v", err)
	}
	if v := env.vault(t); v.Reserved != 0 {
		t.Errorf("forfeit must release the reservation, got %d", v.Reserved)
	}
}

func TestLoseSessionForfeits(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if err := env.engine.LoseSession(testPlayer+1, s.Addr()); !errors.Is(err, game.ErrUnauthorized) {
		t.Errorf("foreign forfeit must fail, got %v", err)
	}
	if err := env.engine.LoseSession(testPlayer, s.Addr()); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if _, err := env.store.GetSession(s.Addr()); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("forfeited session must be removed, got %v", err)
	}
	if got := env.bankBalance(t); got != houseFunds+testStake {
		t.Errorf("stake stays with the house on forfeit, bank %d", got)
	}
}

func TestUpdateConfig(t *testing.T) {
	env := newTestEnv(t, surviveParams())

	if _, err := env.engine.UpdateConfig(testAdmin+1, game.ConfigParams{MinBet: u64p(1)}); !errors.Is(err, game.ErrUnauthorized) {
		t.Errorf("non-admin update must fail, got %v", err)
	}

	updated, err := env.engine.UpdateConfig(testAdmin, game.ConfigParams{MinBet: u64p(1), MaxBet: u64p(0)})
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if updated.MinBet != 1 || updated.MaxBet != 0 {
		t.Errorf("expected min bet 1 max bet 0, got %d/%d", updated.MinBet, updated.MaxBet)
	}
	if updated.BaseSurvivalPpm != game.PpmScale {
		t.Error("omitted params must keep their current values")
	}

	if _, err := env.engine.UpdateConfig(testAdmin, game.ConfigParams{TreasureMultiplierDen: u16p(0)}); !errors.Is(err, game.ErrInvalidConfig) {
		t.Errorf("invalid merged config must fail, got %v", err)
	}
	cfg, err := env.engine.Config()
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if cfg.TreasureMultiplierDen == 0 {
		t.Error("rejected update must not be persisted")
	}
}

func TestWithdrawHouseRespectsReserved(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	free := env.bankBalance(t) - s.MaxPayout
	if err := env.engine.WithdrawHouse(testAdmin, env.vaultAddr, free+1); !errors.Is(err, game.ErrInsufficientVaultBalance) {
		t.Errorf("withdrawing into reserved funds must fail, got %v", err)
	}
	if err := env.engine.WithdrawHouse(testAdmin, env.vaultAddr, free); err != nil {
		t.Fatalf("withdraw free liquidity: %v", err)
	}
	if got := env.walletBalance(t, testAdmin); got != free {
		t.Errorf("withdrawal must land in the authority wallet, got %d", got)
	}
	if err := env.engine.WithdrawHouse(testAdmin+1, env.vaultAddr, 1); !errors.Is(err, game.ErrUnauthorized) {
		t.Errorf("foreign withdrawal must fail, got %v", err)
	}
}

func TestResetVaultReserved(t *testing.T) {
	env := newTestEnv(t, failParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	if err := env.engine.ResetVaultReserved(testAdmin, env.vaultAddr); !errors.Is(err, game.ErrVaultHasReservedFunds) {
		t.Errorf("reset with open sessions must fail, got %v", err)
	}
	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0); err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if err := env.engine.ResetVaultReserved(testAdmin, env.vaultAddr); err != nil {
		t.Errorf("reset with no open sessions should succeed: %v", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	stale, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start stale session: %v", err)
	}
	fresh, err := env.engine.StartSession(testPlayer, env.vaultAddr, 1, testStake)
	if err != nil {
		t.Fatalf("start fresh session: %v", err)
	}

	stale.LastActiveAt = time.Now().Add(-2 * time.Hour).Unix()
	if err := env.store.SaveSession(stale); err != nil {
		t.Fatalf("age session: %v", err)
	}

	cleaned, err := env.engine.CleanupExpiredSessions(time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if cleaned != 1 {
		t.Fatalf("expected 1 cleaned session, got %d", cleaned)
	}
	if _, err := env.store.GetSession(stale.Addr()); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("stale session must be removed, got %v", err)
	}
	if _, err := env.store.GetSession(fresh.Addr()); err != nil {
		t.Errorf("fresh session must survive the sweep: %v", err)
	}
	if v := env.vault(t); v.Reserved != fresh.MaxPayout {
		t.Errorf("sweep must release only the stale reservation, got %d", v.Reserved)
	}
	if env.events.cleaned != 1 {
		t.Errorf("expected one cleanup event, got %d", env.events.cleaned)
	}
}

func TestSeedStableAcrossEngines(t *testing.T) {
	a := newTestEnv(t, surviveParams())
	b := newTestEnv(t, surviveParams())

	sa, err := a.engine.StartSession(testPlayer, a.vaultAddr, 3, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	sb, err := b.engine.StartSession(testPlayer, b.vaultAddr, 3, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sa.Seed != sb.Seed {
		t.Error("same entropy, player and index must derive the same seed")
	}

	sc, err := a.engine.StartSession(testPlayer, a.vaultAddr, 4, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sa.Seed == sc.Seed {
		t.Error("different session indices must derive different seeds")
	}
}

func TestActiveSessionsAndHistory(t *testing.T) {
	env := newTestEnv(t, surviveParams())
	s, err := env.engine.StartSession(testPlayer, env.vaultAddr, 0, testStake)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	active, err := env.engine.ActiveSessions(testPlayer)
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(active) != 1 || active[0].Addr() != s.Addr() {
		t.Fatalf("expected the open session, got %d entries", len(active))
	}

	if _, err := env.engine.ResolveRound(testPlayer, s.Addr(), 0); err != nil {
		t.Fatalf("resolve round: %v", err)
	}
	if _, err := env.engine.CashOut(testPlayer, s.Addr()); err != nil {
		t.Fatalf("cash out: %v", err)
	}

	active, err = env.engine.ActiveSessions(testPlayer)
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no open sessions, got %d", len(active))
	}

	history, err := env.engine.History(testPlayer, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected start, round and cash-out entries, got %d", len(history))
	}
	if history[0].Type != store.HistorySessionCashedOut {
		t.Errorf("history must be newest first, got %s", history[0].Type)
	}
}
