// Package agg loads raw records for every category and reduces them to the day table.
package agg

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangsam/pulsecheck/core/norm"
	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
)

// LoadDays reads every category of r from store in parallel, normalizes the
// records and keeps only the days inside r. Records from files that are not
// date-named can resolve to days outside the range, so the final filter matters.
func LoadDays(ctx context.Context, store contract.RecordStore, r schema.DateRange) (norm.Result, error) {
	batches, err := loadBatches(ctx, store, r)
	if err != nil {
		return norm.Result{}, err
	}
	res := norm.Normalize(batches)
	res.Days = FilterRange(res.Days, r)
	return res, nil
}

// loadBatches fans out one goroutine per category and collects the first error.
func loadBatches(ctx context.Context, store contract.RecordStore, r schema.DateRange) (map[schema.Category][]schema.RawRecord, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	batches := make(map[schema.Category][]schema.RawRecord, len(schema.AllCategories))
	for _, c := range schema.AllCategories {
		wg.Go(func() {
			records, err := store.LoadRecords(ctx, c, r)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("load %s: %w", c, err)
				}
				return
			}
			batches[c] = records
		})
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return batches, nil
}

// FilterRange returns the days that fall inside r. The input is not modified.
func FilterRange(days []schema.DayRecord, r schema.DateRange) []schema.DayRecord {
	out := make([]schema.DayRecord, 0, len(days))
	for _, d := range days {
		if r.Contains(d.Date) {
			out = append(out, d)
		}
	}
	return out
}
