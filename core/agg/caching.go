package agg

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/pulsecheck/core/norm"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// currentCacheVersion defines the version of the cached day table layout
const currentCacheVersion = 1

// maxCacheAge is how long an entry stays usable even when the files are unchanged
const maxCacheAge = 7 * 24 * time.Hour

// CachedLoadDays is LoadDays backed by the day cache of mgr.
// The key covers the data directory, the range and a fingerprint of every
// category's files, so any change to the raw data forces a reload.
func CachedLoadDays(ctx context.Context, cfg *contract.Config, store contract.RecordStore, mgr contract.CacheManager) (norm.Result, error) {
	var days contract.CacheStore
	if mgr != nil {
		days = mgr.GetDayStore()
	}
	if days == nil {
		// Fallback to direct computation
		return LoadDays(ctx, store, cfg.Range)
	}

	key, err := generateCacheKey(ctx, cfg, store)
	if err != nil {
		return LoadDays(ctx, store, cfg.Range)
	}

	// Check for cache hit
	if result := checkCacheHit(days, key, time.Now()); result != nil {
		return *result, nil
	}

	// Cache miss: compute and store
	return computeAndStore(ctx, cfg, store, days, key)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(days contract.CacheStore, key string, now time.Time) *norm.Result {
	data, version, ts, err := days.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || now.Sub(time.Unix(ts, 0)) > maxCacheAge {
		return nil
	}
	var result norm.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore computes the result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, store contract.RecordStore, days contract.CacheStore, key string) (norm.Result, error) {
	result, err := LoadDays(ctx, store, cfg.Range)
	if err != nil {
		return norm.Result{}, err
	}

	if data, err := json.Marshal(result); err == nil {
		_ = days.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
	return result, nil
}

// generateCacheKey creates a unique key based on the data directory, range and file fingerprints
func generateCacheKey(ctx context.Context, cfg *contract.Config, store contract.RecordStore) (string, error) {
	parts := []string{
		cfg.DataDir,
		cfg.Range.Start.Format(schema.DayLayout),
		cfg.Range.End.Format(schema.DayLayout),
	}
	for _, c := range schema.AllCategories {
		fp, err := store.Fingerprint(ctx, c, cfg.Range)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", c, err)
		}
		parts = append(parts, string(c)+"="+fp)
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(strings.Join(parts, ":")))), nil
}
