package service

import (
	"context"

	"github.com/songkhoe/backend/internal/audit"
	"github.com/songkhoe/backend/pkg/model"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore is a mock implementation of RecordStoreInterface
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Append(ctx context.Context, record model.HealthRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecordStore) Records() []model.HealthRecord {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.HealthRecord)
}

func (m *MockRecordStore) Recent(n int) []model.HealthRecord {
	args := m.Called(n)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.HealthRecord)
}

func (m *MockRecordStore) Len() int {
	args := m.Called()
	return args.Int(0)
}

// MockAdvisoryBoard is a mock implementation of AdvisoryBoardInterface
type MockAdvisoryBoard struct {
	mock.Mock
}

func (m *MockAdvisoryBoard) Reset() {
	m.Called()
}

// MockAuditLogger is a mock implementation of AuditLoggerInterface
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
