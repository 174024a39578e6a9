package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"divehouse-backend/internal/config"
	"divehouse-backend/internal/game"
)

const (
	keyConfig        = "config"
	keyVaultIndex    = "vaults"
	keyVault         = "vault:%s"
	keySession       = "session:%s"
	keyVaultSessions = "vault:%s:sessions"
	keyAccount       = "account:%s"
	keyHistory       = "player:%d:history"
	keyRateLimit     = "ratelimit:%d:%s"
)

// RedisStore hosts the ledger records in redis: JSON per record, a set of
// session addresses per vault, integer accounts with Lua-scripted transfers,
// and a trimmed sorted set per player for history.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ctx: ctx}, nil
}

func (s *RedisStore) GetConfig() (*game.GameConfig, error) {
	var cfg game.GameConfig
	if err := s.getJSON(keyConfig, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *RedisStore) CreateConfig(cfg *game.GameConfig) error {
	return s.createJSON(keyConfig, cfg)
}

func (s *RedisStore) ReplaceConfig(cfg *game.GameConfig) error {
	return s.replaceJSON(keyConfig, cfg)
}

func (s *RedisStore) GetVault(addr string) (*game.HouseVault, error) {
	var v game.HouseVault
	if err := s.getJSON(fmt.Sprintf(keyVault, addr), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *RedisStore) CreateVault(addr string, v *game.HouseVault) error {
	if err := s.createJSON(fmt.Sprintf(keyVault, addr), v); err != nil {
		return err
	}
	return s.client.SAdd(s.ctx, keyVaultIndex, addr).Err()
}

func (s *RedisStore) ListVaults() ([]string, error) {
	addrs, err := s.client.SMembers(s.ctx, keyVaultIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	return addrs, nil
}

func (s *RedisStore) SaveVault(addr string, v *game.HouseVault) error {
	return s.replaceJSON(fmt.Sprintf(keyVault, addr), v)
}

func (s *RedisStore) GetSession(addr string) (*game.DiveSession, error) {
	var sess game.DiveSession
	if err := s.getJSON(fmt.Sprintf(keySession, addr), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) CreateSession(sess *game.DiveSession) error {
	addr := sess.Addr()
	if err := s.createJSON(fmt.Sprintf(keySession, addr), sess); err != nil {
		return err
	}
	if err := s.client.SAdd(s.ctx, fmt.Sprintf(keyVaultSessions, sess.Vault), addr).Err(); err != nil {
		return fmt.Errorf("failed to track session in vault set: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveSession(sess *game.DiveSession) error {
	return s.replaceJSON(fmt.Sprintf(keySession, sess.Addr()), sess)
}

func (s *RedisStore) DeleteSession(sess *game.DiveSession) error {
	addr := sess.Addr()
	if err := s.client.Del(s.ctx, fmt.Sprintf(keySession, addr)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return s.client.SRem(s.ctx, fmt.Sprintf(keyVaultSessions, sess.Vault), addr).Err()
}

func (s *RedisStore) VaultSessions(vaultAddr string) ([]string, error) {
	addrs, err := s.client.SMembers(s.ctx, fmt.Sprintf(keyVaultSessions, vaultAddr)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list vault sessions: %w", err)
	}
	return addrs, nil
}

func (s *RedisStore) Balance(account string) (uint64, error) {
	val, err := s.client.Get(s.ctx, fmt.Sprintf(keyAccount, account)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return strconv.ParseUint(val, 10, 64)
}

func (s *RedisStore) InitBalance(account string, amount uint64) (bool, error) {
	ok, err := s.client.SetNX(s.ctx, fmt.Sprintf(keyAccount, account), strconv.FormatUint(amount, 10), 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to init balance: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Credit(account string, amount uint64) error {
	return s.client.IncrBy(s.ctx, fmt.Sprintf(keyAccount, account), int64(amount)).Err()
}

var debitScript = redis.NewScript(`
	local key = KEYS[1]
	local amount = tonumber(ARGV[1])

	local balance = tonumber(redis.call("GET", key) or "0")
	if balance < amount then
		return redis.error_reply("insufficient balance")
	end

	redis.call("DECRBY", key, ARGV[1])
	return "OK"
`)

func (s *RedisStore) Debit(account string, amount uint64) error {
	err := debitScript.Run(s.ctx, s.client, []string{fmt.Sprintf(keyAccount, account)}, amount).Err()
	if err != nil && strings.Contains(err.Error(), "insufficient balance") {
		return game.ErrInsufficientBalance
	}
	return err
}

var transferScript = redis.NewScript(`
	local from = KEYS[1]
	local to = KEYS[2]
	local amount = tonumber(ARGV[1])

	local balance = tonumber(redis.call("GET", from) or "0")
	if balance < amount then
		return redis.error_reply("insufficient balance")
	end

	redis.call("DECRBY", from, ARGV[1])
	redis.call("INCRBY", to, ARGV[1])
	return "OK"
`)

func (s *RedisStore) Transfer(from, to string, amount uint64) error {
	keys := []string{fmt.Sprintf(keyAccount, from), fmt.Sprintf(keyAccount, to)}
	err := transferScript.Run(s.ctx, s.client, keys, amount).Err()
	if err != nil && strings.Contains(err.Error(), "insufficient balance") {
		return game.ErrInsufficientBalance
	}
	return err
}

func (s *RedisStore) AppendHistory(player int64, entry *HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := fmt.Sprintf(keyHistory, player)
	if err := s.client.ZAdd(s.ctx, key, redis.Z{
		Score:  float64(entry.CreatedAt),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	// Keep only the most recent entries.
	s.client.ZRemRangeByRank(s.ctx, key, 0, -(MaxHistoryEntries + 1))
	return nil
}

func (s *RedisStore) History(player int64, limit int64) ([]*HistoryEntry, error) {
	if limit <= 0 || limit > MaxHistoryEntries {
		limit = 50
	}

	raw, err := s.client.ZRevRange(s.ctx, fmt.Sprintf(keyHistory, player), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]*HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (s *RedisStore) CheckRateLimit(userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(keyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}
	return count <= int64(limit), nil
}

// DeleteVault and DeleteAccount exist for test cleanup; vaults are never
// destroyed in normal operation.
func (s *RedisStore) DeleteVault(addr string) error {
	s.client.SRem(s.ctx, keyVaultIndex, addr)
	return s.client.Del(s.ctx, fmt.Sprintf(keyVault, addr), fmt.Sprintf(keyVaultSessions, addr)).Err()
}

func (s *RedisStore) DeleteAccount(account string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(keyAccount, account)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) getJSON(key string, out any) error {
	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return game.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *RedisStore) createJSON(key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	ok, err := s.client.SetNX(s.ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}
	if !ok {
		return game.ErrAlreadyExists
	}
	return nil
}

func (s *RedisStore) replaceJSON(key string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	ok, err := s.client.SetXX(s.ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	if !ok {
		return game.ErrNotFound
	}
	return nil
}
