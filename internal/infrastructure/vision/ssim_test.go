package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
)

func TestSSIMScorer_IdenticalFrames(t *testing.T) {
	ref := gradient(64, 48)
	cur := gradient(64, 48)

	res, err := NewSSIMScorer().Score(ref, cur)
	require.NoError(t, err)
	require.Equal(t, 1.0, res.Score)
	require.Equal(t, ref.Bounds(), res.Diff.Bounds())
	for _, v := range res.Diff.Pix {
		require.Zero(t, v)
	}
}

func TestSSIMScorer_Monotonic(t *testing.T) {
	scorer := NewSSIMScorer()
	ref := gradient(120, 80)

	prev := 1.0
	for _, side := range []int{2, 6, 10, 16, 24, 36} {
		cur := withSquare(ref, image.Rect(40, 20, 40+side, 20+side), 0)
		res, err := scorer.Score(ref, cur)
		require.NoError(t, err)
		require.LessOrEqual(t, res.Score, prev, "side %d", side)
		require.GreaterOrEqual(t, res.Score, -1.0)
		prev = res.Score
	}
	require.Less(t, prev, 0.9)
}

func TestSSIMScorer_Symmetric(t *testing.T) {
	scorer := NewSSIMScorer()
	ref := gradient(50, 40)
	cur := withSquare(ref, image.Rect(10, 10, 25, 25), 250)

	ab, err := scorer.Score(ref, cur)
	require.NoError(t, err)
	ba, err := scorer.Score(cur, ref)
	require.NoError(t, err)
	require.InDelta(t, ab.Score, ba.Score, 1e-9)
}

func TestSSIMScorer_DiffMarksChangedArea(t *testing.T) {
	ref := plainGray(60, 60, 128)
	cur := withSquare(ref, image.Rect(25, 25, 35, 35), 0)

	res, err := NewSSIMScorer().Score(ref, cur)
	require.NoError(t, err)
	require.Greater(t, res.Diff.GrayAt(30, 30).Y, uint8(200))
	require.Zero(t, res.Diff.GrayAt(5, 5).Y)
}

func TestSSIMScorer_Errors(t *testing.T) {
	scorer := NewSSIMScorer()

	_, err := scorer.Score(plainGray(20, 20, 1), plainGray(21, 20, 1))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = scorer.Score(plainGray(5, 5, 1), plainGray(5, 5, 1))
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = scorer.Score(nil, plainGray(20, 20, 1))
	require.ErrorIs(t, err, entity.ErrInvalidImage)
}

func TestReflectSymmetric(t *testing.T) {
	require.Equal(t, 0, reflectSymmetric(-1, 4))
	require.Equal(t, 2, reflectSymmetric(-3, 4))
	require.Equal(t, 3, reflectSymmetric(4, 4))
	require.Equal(t, 0, reflectSymmetric(-5, 1))
}
