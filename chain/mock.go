package chain

import (
	"context"

	"github.com/autonode/bls-cleanse/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockChainQuery mocks the ChainQuery interface
type MockChainQuery struct {
	mock.Mock
}

// GetValidatorInfo mocks the GetValidatorInfo method
func (m *MockChainQuery) GetValidatorInfo(ctx context.Context, address string) (*interfaces.ValidatorRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ValidatorRecord), args.Error(1)
}

// GetNodeMetadata mocks the GetNodeMetadata method
func (m *MockChainQuery) GetNodeMetadata(ctx context.Context) (*interfaces.NodeMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.NodeMetadata), args.Error(1)
}

// GetLatestHeader mocks the GetLatestHeader method
func (m *MockChainQuery) GetLatestHeader(ctx context.Context) (*interfaces.Header, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.Header), args.Error(1)
}

// GetShardForKey mocks the GetShardForKey method
func (m *MockChainQuery) GetShardForKey(ctx context.Context, key interfaces.BLSKeyID) (uint32, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(uint32), args.Error(1)
}

// RemoveKey mocks the RemoveKey method
func (m *MockChainQuery) RemoveKey(ctx context.Context, key interfaces.BLSKeyID) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ListAllValidators mocks the ListAllValidators method
func (m *MockChainQuery) ListAllValidators(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
