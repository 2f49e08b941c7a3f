// Package datastore reads the per-category JSON file cache written by the fetch collaborator.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"go.uber.org/zap"
)

// ErrUnknownCategory is returned for a category the store does not understand.
var ErrUnknownCategory = errors.New("unknown category")

// FileStore loads raw records from <dir>/<category>/*.json.
// Files named YYYY-MM-DD.json carry their date in the name. Other files are
// loaded regardless of range and dated from their payload during normalization.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

var _ contract.RecordStore = &FileStore{} // Compile-time check

// NewFileStore creates a store rooted at dir. A nil logger discards logs.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// CategoryDir returns the directory holding one category's files.
func (s *FileStore) CategoryDir(category schema.Category) string {
	return filepath.Join(s.dir, string(category))
}

// dataFile is one JSON file with its optional name-derived date.
type dataFile struct {
	path string
	date string // empty when the file name is not a date
	info fs.FileInfo
}

// listFiles returns the category's JSON files in name order, keeping only
// date-named files inside r. A missing directory yields no files.
func (s *FileStore) listFiles(category schema.Category, r schema.DateRange) ([]dataFile, error) {
	if _, ok := schema.ValidCategories[category]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	entries, err := os.ReadDir(s.CategoryDir(category))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", category, err)
	}

	files := make([]dataFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		f := dataFile{path: filepath.Join(s.CategoryDir(category), e.Name())}
		stem := strings.TrimSuffix(e.Name(), ".json")
		if d, err := schema.ParseDay(stem); err == nil && len(stem) == len(schema.DayLayout) {
			if !r.Contains(d) {
				continue
			}
			f.date = stem
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		f.info = info
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// LoadRecords implements contract.RecordStore.
// A file that cannot be read or decoded yields one record with Err set and no
// payload, so the normalizer counts it as dropped.
func (s *FileStore) LoadRecords(ctx context.Context, category schema.Category, r schema.DateRange) ([]schema.RawRecord, error) {
	files, err := s.listFiles(category, r)
	if err != nil {
		return nil, err
	}

	records := make([]schema.RawRecord, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payloads, err := readPayloads(f.path)
		if err != nil {
			s.logger.Debug("unreadable data file",
				zap.String("category", string(category)),
				zap.String("file", f.path),
				zap.Error(err))
			records = append(records, schema.RawRecord{Category: category, Date: f.date, Source: f.path, Err: err.Error()})
			continue
		}
		for i, p := range payloads {
			source := f.path
			if len(payloads) > 1 {
				source = fmt.Sprintf("%s#%d", f.path, i)
			}
			records = append(records, schema.RawRecord{Category: category, Date: f.date, Source: source, Payload: p})
		}
	}
	s.logger.Debug("loaded records",
		zap.String("category", string(category)),
		zap.Int("files", len(files)),
		zap.Int("records", len(records)))
	return records, nil
}

// Fingerprint implements contract.RecordStore using file names, sizes and mtimes.
func (s *FileStore) Fingerprint(_ context.Context, category schema.Category, r schema.DateRange) (string, error) {
	files, err := s.listFiles(category, r)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, f := range files {
		_, _ = fmt.Fprintf(h, "%s|%d|%d\n", filepath.Base(f.path), f.info.Size(), f.info.ModTime().UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// readPayloads decodes a file holding either one JSON object or an array of objects.
func readPayloads(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]any
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return []map[string]any{obj}, nil
}
