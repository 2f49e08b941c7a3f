package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/pulsecheck/schema"
)

// allTime covers every date-named file.
var allTime = schema.DateRange{Start: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}

// Status counts the files of every category and the date span they cover.
func (s *FileStore) Status() (schema.DataStatus, error) {
	status := schema.DataStatus{Dir: s.dir, Categories: make(map[schema.Category]schema.DataCount)}
	for c := range schema.ValidCategories {
		files, err := s.listFiles(c, allTime)
		if err != nil {
			return status, err
		}
		count := schema.DataCount{Files: len(files)}
		for _, f := range files {
			if f.date == "" {
				continue
			}
			d, _ := schema.ParseDay(f.date)
			if count.Oldest.IsZero() || d.Before(count.Oldest) {
				count.Oldest = d
			}
			if d.After(count.Newest) {
				count.Newest = d
			}
		}
		status.Categories[c] = count
	}
	return status, nil
}

// Clear deletes the JSON files of the given categories and returns how many were removed.
// Other files in the category directories are left alone.
func (s *FileStore) Clear(categories []schema.Category) (int, error) {
	removed := 0
	for _, c := range categories {
		files, err := s.listFiles(c, allTime)
		if err != nil {
			return removed, err
		}
		for _, f := range files {
			if !strings.HasPrefix(f.path, filepath.Clean(s.dir)) {
				return removed, fmt.Errorf("refusing to remove %s outside %s", f.path, s.dir)
			}
			if err := os.Remove(f.path); err != nil {
				return removed, fmt.Errorf("remove %s: %w", f.path, err)
			}
			removed++
		}
	}
	return removed, nil
}
