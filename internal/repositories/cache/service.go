package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"loyalty/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService is the Redis-backed wallet snapshot cache.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// GenerateKey builds a namespaced cache key.
func GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

func walletKey(walletID uint) string {
	return GenerateKey("wallet", "id", walletID)
}

// GetWallet returns the cached snapshot. Cache errors count as misses.
func (s *CacheService) GetWallet(ctx context.Context, walletID uint) (*models.MemberWallet, bool) {
	var wallet models.MemberWallet
	found, err := s.Get(ctx, walletKey(walletID), &wallet)
	if err != nil {
		log.Printf("⚠️ wallet cache read %d: %v", walletID, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &wallet, true
}

func (s *CacheService) SetWallet(ctx context.Context, wallet *models.MemberWallet) error {
	return s.Set(ctx, walletKey(wallet.ID), wallet)
}

func (s *CacheService) InvalidateWallet(ctx context.Context, walletID uint) error {
	return s.Delete(ctx, walletKey(walletID))
}

// walletKeyPattern matches every wallet snapshot key and nothing else, so
// lock keys held by other instances survive a purge.
var walletKeyPattern = GenerateKey("wallet", "id", "*")

// PurgeWallets deletes every cached wallet snapshot and returns how many keys
// were removed.
func (s *CacheService) PurgeWallets(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, walletKeyPattern, 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("purge wallet snapshots: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan wallet snapshots: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("purge wallet snapshots: %w", err)
	}
	return removed, nil
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}

// NoopCache never stores anything. It stands in when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetWallet(context.Context, uint) (*models.MemberWallet, bool) { return nil, false }
func (NoopCache) SetWallet(context.Context, *models.MemberWallet) error        { return nil }
func (NoopCache) InvalidateWallet(context.Context, uint) error                 { return nil }
