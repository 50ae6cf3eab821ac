package cleanse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/autonode/bls-cleanse/chain"
	"github.com/autonode/bls-cleanse/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEpochSynchronizer_WaitForSafeWindow(t *testing.T) {
	tests := []struct {
		name          string
		heights       []uint64
		expectedBlock uint64
		expectedPolls int
	}{
		{
			name:          "start of epoch waits until margin is passed",
			heights:       []uint64{0, 3, 6, 50},
			expectedBlock: 6,
			expectedPolls: 3,
		},
		{
			name:          "last block of previous epoch is already outside the margin",
			heights:       []uint64{99, 0, 3, 6, 50},
			expectedBlock: 99,
			expectedPolls: 1,
		},
		{
			name:          "margin is evaluated per epoch",
			heights:       []uint64{105, 205, 306},
			expectedBlock: 306,
			expectedPolls: 3,
		},
		{
			name:          "last block of the margin keeps polling",
			heights:       []uint64{5, 7},
			expectedBlock: 7,
			expectedPolls: 2,
		},
		{
			name:          "middle of epoch returns immediately",
			heights:       []uint64{50},
			expectedBlock: 50,
			expectedPolls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := chain.NewMockChain("one1val")
			mc.SetEpoch(100, tt.heights...)

			sync := NewEpochSynchronizer(mc, 0, testLogger())
			header, err := sync.WaitForSafeWindow(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedBlock, header.BlockNumber)
			assert.Equal(t, tt.expectedPolls, mc.HeaderCalls())
		})
	}
}

func TestEpochSynchronizer_EpochTooShort(t *testing.T) {
	for _, blocksPerEpoch := range []uint64{0, 1, SafeMargin} {
		mc := chain.NewMockChain("one1val")
		mc.SetEpoch(blocksPerEpoch, 50)

		sync := NewEpochSynchronizer(mc, 0, testLogger())
		_, err := sync.WaitForSafeWindow(context.Background())
		assert.ErrorIs(t, err, interfaces.ErrEpochTooShort)
		assert.Zero(t, mc.HeaderCalls(), "no polling when the precondition does not hold")
	}
}

func TestEpochSynchronizer_ContextCanceled(t *testing.T) {
	mc := chain.NewMockChain("one1val")
	mc.SetEpoch(100, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sync := NewEpochSynchronizer(mc, time.Millisecond, testLogger())
	_, err := sync.WaitForSafeWindow(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, mc.HeaderCalls(), 1)
}

func TestEpochSynchronizer_HeaderError(t *testing.T) {
	mq := &chain.MockChainQuery{}
	mq.On("GetNodeMetadata", mock.Anything).Return(&interfaces.NodeMetadata{BlocksPerEpoch: 100}, nil)
	mq.On("GetLatestHeader", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	sync := NewEpochSynchronizer(mq, 0, testLogger())
	_, err := sync.WaitForSafeWindow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	mq.AssertExpectations(t)
	mq.AssertNumberOfCalls(t, "GetLatestHeader", 1)
}

func TestEpochSynchronizer_MetadataError(t *testing.T) {
	mq := &chain.MockChainQuery{}
	mq.On("GetNodeMetadata", mock.Anything).Return(nil, errors.New("timeout"))

	sync := NewEpochSynchronizer(mq, 0, testLogger())
	_, err := sync.WaitForSafeWindow(context.Background())
	require.Error(t, err)
	mq.AssertNotCalled(t, "GetLatestHeader", mock.Anything)
}
