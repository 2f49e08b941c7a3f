package datastore

import (
	"context"

	"github.com/huangsam/pulsecheck/internal/contract"
	"github.com/huangsam/pulsecheck/schema"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore is a mock implementation of RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

var _ contract.RecordStore = &MockRecordStore{} // Compile-time check

// LoadRecords implements the RecordStore interface.
func (m *MockRecordStore) LoadRecords(ctx context.Context, category schema.Category, r schema.DateRange) ([]schema.RawRecord, error) {
	args := m.Called(ctx, category, r)
	records, _ := args.Get(0).([]schema.RawRecord)
	return records, args.Error(1)
}

// Fingerprint implements the RecordStore interface.
func (m *MockRecordStore) Fingerprint(ctx context.Context, category schema.Category, r schema.DateRange) (string, error) {
	args := m.Called(ctx, category, r)
	return args.String(0), args.Error(1)
}
