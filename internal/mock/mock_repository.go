package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mch-analysis/internal/repository"
)

// MockProfileRepository is a mock implementation of the ProfileRepository interface.
type MockProfileRepository struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method. A non-zero int64 first return value is
// assigned to run.ID.
func (m *MockProfileRepository) SaveRun(ctx context.Context, run *repository.ProfileRun) error {
	args := m.Called(ctx, run)
	if err := args.Error(1); err != nil {
		return err
	}
	if id, ok := args.Get(0).(int64); ok && id != 0 {
		run.ID = id
	}
	return nil
}

// GetRun mocks the GetRun method.
func (m *MockProfileRepository) GetRun(ctx context.Context, id int64) (*repository.ProfileRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProfileRun), args.Error(1)
}

// ListRuns mocks the ListRuns method.
func (m *MockProfileRepository) ListRuns(ctx context.Context, limit int) ([]*repository.ProfileRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ProfileRun), args.Error(1)
}

// FindByDigest mocks the FindByDigest method.
func (m *MockProfileRepository) FindByDigest(ctx context.Context, digest string) (*repository.ProfileRun, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ProfileRun), args.Error(1)
}

// EntryHistory mocks the EntryHistory method.
func (m *MockProfileRepository) EntryHistory(ctx context.Context, path string, limit int) ([]repository.HistoryPoint, error) {
	args := m.Called(ctx, path, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.HistoryPoint), args.Error(1)
}

// DeleteRun mocks the DeleteRun method.
func (m *MockProfileRepository) DeleteRun(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ExpectSaveRun sets up an expectation for SaveRun assigning id.
func (m *MockProfileRepository) ExpectSaveRun(id int64, err error) *mock.Call {
	return m.On("SaveRun", mock.Anything, mock.AnythingOfType("*repository.ProfileRun")).Return(id, err)
}

// ExpectFindByDigest sets up an expectation for FindByDigest.
func (m *MockProfileRepository) ExpectFindByDigest(run *repository.ProfileRun, err error) *mock.Call {
	return m.On("FindByDigest", mock.Anything, mock.Anything).Return(run, err)
}
