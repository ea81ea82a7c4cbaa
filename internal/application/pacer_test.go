package app

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
)

func TestNewPacer_Validation(t *testing.T) {
	_, err := NewPacer(3, 0)
	require.ErrorIs(t, err, entity.ErrConfiguration)

	_, err = NewPacer(3, -5)
	require.ErrorIs(t, err, entity.ErrConfiguration)

	_, err = NewPacer(0, 10)
	require.ErrorIs(t, err, entity.ErrConfiguration)

	for _, bad := range []float64{math.NaN(), math.Inf(1)} {
		_, err = NewPacer(bad, 10)
		require.ErrorIs(t, err, entity.ErrConfiguration)
		_, err = NewPacer(3, bad)
		require.ErrorIs(t, err, entity.ErrConfiguration)
	}
}

func TestPacer_Interval(t *testing.T) {
	p, err := NewPacer(3, 10)
	require.NoError(t, err)
	require.Equal(t, 18*time.Second, p.Interval())

	p, err = NewPacer(3, 60)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, p.Interval())
}

func TestPacer_WaitRespectsLowerBound(t *testing.T) {
	// 0.1 м при 60 м/мин дают 100 мс
	p, err := NewPacer(0.1, 60)
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, p.Interval())

	start := time.Now()
	require.NoError(t, p.Wait(context.Background(), start))
	require.GreaterOrEqual(t, time.Since(start), p.Interval())
}

func TestPacer_WaitReturnsImmediatelyWhenLate(t *testing.T) {
	p, err := NewPacer(0.1, 60)
	require.NoError(t, err)

	begin := time.Now()
	require.NoError(t, p.Wait(context.Background(), begin.Add(-time.Second)))
	require.Less(t, time.Since(begin), 50*time.Millisecond)
}

func TestPacer_WaitCancelled(t *testing.T) {
	p, err := NewPacer(3, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	err = p.Wait(ctx, begin)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(begin), time.Second)
}
