package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageError_Unwrap(t *testing.T) {
	err := NewStageError("cam0", StageWrite, fmt.Errorf("save photo: %w", ErrWriteFailure))
	require.ErrorIs(t, err, ErrWriteFailure)
	require.Contains(t, err.Error(), "feed cam0: write")

	stage, ok := StageOf(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	require.Equal(t, StageWrite, stage)
}

func TestNewStageError_Nil(t *testing.T) {
	require.NoError(t, NewStageError("cam0", StageAcquire, nil))

	_, ok := StageOf(ErrInvalidImage)
	require.False(t, ok)
}
