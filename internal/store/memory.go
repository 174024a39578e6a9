package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"divehouse-backend/internal/game"
)

// MemoryStore keeps every record in process memory behind one mutex. It backs
// tests and single-node development runs; the semantics match RedisStore.
type MemoryStore struct {
	mu        sync.Mutex
	config    []byte
	vaults    map[string][]byte
	sessions  map[string][]byte
	vaultSets map[string]map[string]bool
	balances  map[string]uint64
	history   map[int64][]*HistoryEntry
	rates     map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vaults:    make(map[string][]byte),
		sessions:  make(map[string][]byte),
		vaultSets: make(map[string]map[string]bool),
		balances:  make(map[string]uint64),
		history:   make(map[int64][]*HistoryEntry),
		rates:     make(map[string]*rateWindow),
	}
}

func (m *MemoryStore) GetConfig() (*game.GameConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return nil, game.ErrNotFound
	}
	var cfg game.GameConfig
	if err := json.Unmarshal(m.config, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (m *MemoryStore) CreateConfig(cfg *game.GameConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config != nil {
		return game.ErrAlreadyExists
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	m.config = data
	return nil
}

func (m *MemoryStore) ReplaceConfig(cfg *game.GameConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return game.ErrNotFound
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	m.config = data
	return nil
}

func (m *MemoryStore) GetVault(addr string) (*game.HouseVault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.vaults[addr]
	if !ok {
		return nil, game.ErrNotFound
	}
	var v game.HouseVault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (m *MemoryStore) CreateVault(addr string, v *game.HouseVault) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vaults[addr]; ok {
		return game.ErrAlreadyExists
	}
	return m.putVaultLocked(addr, v)
}

func (m *MemoryStore) SaveVault(addr string, v *game.HouseVault) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vaults[addr]; !ok {
		return game.ErrNotFound
	}
	return m.putVaultLocked(addr, v)
}

func (m *MemoryStore) putVaultLocked(addr string, v *game.HouseVault) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.vaults[addr] = data
	return nil
}

func (m *MemoryStore) ListVaults() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addrs := make([]string, 0, len(m.vaults))
	for addr := range m.vaults {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs, nil
}

func (m *MemoryStore) GetSession(addr string) (*game.DiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.sessions[addr]
	if !ok {
		return nil, game.ErrNotFound
	}
	var s game.DiveSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) CreateSession(s *game.DiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := s.Addr()
	if _, ok := m.sessions[addr]; ok {
		return game.ErrAlreadyExists
	}
	if err := m.putSessionLocked(addr, s); err != nil {
		return err
	}
	set, ok := m.vaultSets[s.Vault]
	if !ok {
		set = make(map[string]bool)
		m.vaultSets[s.Vault] = set
	}
	set[addr] = true
	return nil
}

func (m *MemoryStore) SaveSession(s *game.DiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := s.Addr()
	if _, ok := m.sessions[addr]; !ok {
		return game.ErrNotFound
	}
	return m.putSessionLocked(addr, s)
}

func (m *MemoryStore) putSessionLocked(addr string, s *game.DiveSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[addr] = data
	return nil
}

func (m *MemoryStore) DeleteSession(s *game.DiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	addr := s.Addr()
	delete(m.sessions, addr)
	if set, ok := m.vaultSets[s.Vault]; ok {
		delete(set, addr)
	}
	return nil
}

func (m *MemoryStore) VaultSessions(vaultAddr string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.vaultSets[vaultAddr]
	addrs := make([]string, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs, nil
}

func (m *MemoryStore) Balance(account string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

func (m *MemoryStore) InitBalance(account string, amount uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[account]; ok {
		return false, nil
	}
	m.balances[account] = amount
	return true, nil
}

func (m *MemoryStore) Credit(account string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.balances[account] + amount
	if next < m.balances[account] {
		return game.ErrOverflow
	}
	m.balances[account] = next
	return nil
}

func (m *MemoryStore) Debit(account string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(account, amount)
}

func (m *MemoryStore) debitLocked(account string, amount uint64) error {
	if m.balances[account] < amount {
		return game.ErrInsufficientBalance
	}
	m.balances[account] -= amount
	return nil
}

func (m *MemoryStore) Transfer(from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.debitLocked(from, amount); err != nil {
		return err
	}
	next := m.balances[to] + amount
	if next < m.balances[to] {
		m.balances[from] += amount
		return game.ErrOverflow
	}
	m.balances[to] = next
	return nil
}

func (m *MemoryStore) AppendHistory(player int64, entry *HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append(m.history[player], entry)
	if len(entries) > MaxHistoryEntries {
		entries = entries[len(entries)-MaxHistoryEntries:]
	}
	m.history[player] = entries
	return nil
}

func (m *MemoryStore) History(player int64, limit int64) ([]*HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.history[player]
	if limit <= 0 || limit > MaxHistoryEntries {
		limit = 50
	}
	// Newest first, like the redis sorted-set range.
	out := make([]*HistoryEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (m *MemoryStore) CheckRateLimit(userID int64, action string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := WalletAccount(userID) + ":" + action
	now := time.Now()
	w, ok := m.rates[key]
	if !ok || now.After(w.resetAt) {
		m.rates[key] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}
	w.count++
	return w.count <= limit, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
