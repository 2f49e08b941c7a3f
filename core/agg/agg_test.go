package agg

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/pulsecheck/core/norm"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/internal/datastore"
	"github.com/huangsam/pulsecheck/internal/iocache"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testRange = schema.NewDateRange(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 7)

// recordStore returns a mock store serving records for daily summaries and nothing else.
func recordStore(records []schema.RawRecord) *datastore.MockRecordStore {
	store := &datastore.MockRecordStore{}
	for _, c := range schema.AllCategories {
		if c == schema.DailySummaries {
			store.On("LoadRecords", mock.Anything, c, testRange).Return(records, nil)
			continue
		}
		store.On("LoadRecords", mock.Anything, c, testRange).Return([]schema.RawRecord{}, nil)
	}
	return store
}

func summaryRecords() []schema.RawRecord {
	return []schema.RawRecord{
		{Category: schema.DailySummaries, Date: "2026-01-10", Source: "a.json", Payload: map[string]any{"restingHeartRate": 50.0}},
		{Category: schema.DailySummaries, Date: "2026-01-11", Source: "b.json", Payload: map[string]any{"restingHeartRate": 52.0}},
		{Category: schema.DailySummaries, Source: "old.json", Payload: map[string]any{"calendarDate": "2025-06-01", "restingHeartRate": 60.0}},
	}
}

func TestLoadDays(t *testing.T) {
	store := recordStore(summaryRecords())
	res, err := LoadDays(context.Background(), store, testRange)
	require.NoError(t, err)
	require.Len(t, res.Days, 2, "the out-of-range day is filtered")
	assert.Equal(t, 50.0, *res.Days[0].RestingHR)
	assert.Equal(t, 52.0, *res.Days[1].RestingHR)
	assert.Equal(t, 3, res.Counts[schema.DailySummaries])
	store.AssertExpectations(t)
}

func TestLoadDaysCountsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		path := filepath.Join(dir, string(schema.DailySummaries), name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	write("2026-01-10.json", `{"totalSteps": 8000}`)
	write("2026-01-11.json", `{"totalSteps": 50`)

	res, err := LoadDays(context.Background(), datastore.NewFileStore(dir, nil), testRange)
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	require.Len(t, res.Dropped, 1, "a truncated file is a dropped record")
	assert.Equal(t, schema.DailySummaries, res.Dropped[0].Category)
	assert.Contains(t, res.Dropped[0].Source, "2026-01-11.json")
}

func TestLoadDaysError(t *testing.T) {
	store := &datastore.MockRecordStore{}
	store.On("LoadRecords", mock.Anything, mock.Anything, testRange).Return(nil, errors.New("disk on fire"))
	_, err := LoadDays(context.Background(), store, testRange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestFilterRange(t *testing.T) {
	days := []schema.DayRecord{
		{Date: time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)},
	}
	got := FilterRange(days, testRange)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].Date.Day())
	assert.Equal(t, 15, got[1].Date.Day())
	assert.Len(t, days, 4)
}

func TestCheckCacheHit(t *testing.T) {
	now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	stored := norm.Result{Days: []schema.DayRecord{{Date: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)}}}
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
		hit     bool
	}{
		{"hit", data, currentCacheVersion, now.Add(-time.Hour).Unix(), nil, true},
		{"version mismatch", data, currentCacheVersion + 1, now.Unix(), nil, false},
		{"stale", data, currentCacheVersion, now.Add(-8 * 24 * time.Hour).Unix(), nil, false},
		{"store error", nil, 0, int64(0), errors.New("not found"), false},
		{"bad payload", []byte("{"), currentCacheVersion, now.Unix(), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "key").Return(tt.data, tt.version, tt.ts, tt.err)
			got := checkCacheHit(store, "key", now)
			if !tt.hit {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Len(t, got.Days, 1)
			assert.Equal(t, 10, got.Days[0].Date.Day())
			store.AssertExpectations(t)
		})
	}
}

func testConfig() *contract.Config {
	return &contract.Config{DataDir: "/data", Range: testRange}
}

func fingerprints(store *datastore.MockRecordStore, value string) {
	store.On("Fingerprint", mock.Anything, mock.Anything, testRange).Return(value, nil)
}

func TestGenerateCacheKey(t *testing.T) {
	a := &datastore.MockRecordStore{}
	fingerprints(a, "v1")
	b := &datastore.MockRecordStore{}
	fingerprints(b, "v2")

	k1, err := generateCacheKey(context.Background(), testConfig(), a)
	require.NoError(t, err)
	k1again, err := generateCacheKey(context.Background(), testConfig(), a)
	require.NoError(t, err)
	k2, err := generateCacheKey(context.Background(), testConfig(), b)
	require.NoError(t, err)

	assert.Len(t, k1, 64)
	assert.Equal(t, k1, k1again)
	assert.NotEqual(t, k1, k2, "changed files change the key")

	other := testConfig()
	other.DataDir = "/elsewhere"
	k3, err := generateCacheKey(context.Background(), other, a)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestCachedLoadDaysMissStores(t *testing.T) {
	store := recordStore(summaryRecords())
	fingerprints(store, "v1")
	days := &iocache.MockCacheStore{}
	days.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))
	days.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetDayStore").Return(days)

	res, err := CachedLoadDays(context.Background(), testConfig(), store, mgr)
	require.NoError(t, err)
	assert.Len(t, res.Days, 2)
	days.AssertExpectations(t)
}

func TestCachedLoadDaysHitSkipsLoad(t *testing.T) {
	store := &datastore.MockRecordStore{}
	fingerprints(store, "v1")
	cached := norm.Result{Days: []schema.DayRecord{{Date: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)}}}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	days := &iocache.MockCacheStore{}
	days.On("Get", mock.Anything).Return(data, currentCacheVersion, time.Now().Unix(), nil)
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetDayStore").Return(days)

	res, err := CachedLoadDays(context.Background(), testConfig(), store, mgr)
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	assert.Equal(t, 12, res.Days[0].Date.Day())
	store.AssertNotCalled(t, "LoadRecords", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedLoadDaysWithoutCache(t *testing.T) {
	store := recordStore(summaryRecords())
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetDayStore").Return(nil)

	res, err := CachedLoadDays(context.Background(), testConfig(), store, mgr)
	require.NoError(t, err)
	assert.Len(t, res.Days, 2)

	res, err = CachedLoadDays(context.Background(), testConfig(), store, nil)
	require.NoError(t, err)
	assert.Len(t, res.Days, 2)
}
