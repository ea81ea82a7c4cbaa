package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func maskFrom(rows []string) ([]bool, int, int) {
	h := len(rows)
	w := len(rows[0])
	mask := make([]bool, w*h)
	for y, row := range rows {
		for x, c := range row {
			mask[y*w+x] = c == '#'
		}
	}
	return mask, w, h
}

func TestExternalBlobs_DiagonalIsConnected(t *testing.T) {
	mask, w, h := maskFrom([]string{
		"......",
		".#....",
		"..#...",
		"...#..",
		"......",
	})

	blobs := externalBlobs(mask, w, h)
	require.Len(t, blobs, 1)
	require.Equal(t, 3, blobs[0].area)
	require.Equal(t, image.Rect(1, 1, 4, 4), blobs[0].rect)
}

func TestExternalBlobs_RasterOrder(t *testing.T) {
	mask, w, h := maskFrom([]string{
		"....##",
		"#.....",
		"#...#.",
	})

	blobs := externalBlobs(mask, w, h)
	require.Len(t, blobs, 3)
	require.Equal(t, image.Pt(4, 0), blobs[0].first)
	require.Equal(t, image.Pt(0, 1), blobs[1].first)
	require.Equal(t, image.Pt(4, 2), blobs[2].first)
}

func TestExternalBlobs_DropsComponentInsideHole(t *testing.T) {
	mask, w, h := maskFrom([]string{
		".......",
		".#####.",
		".#...#.",
		".#.#.#.",
		".#...#.",
		".#####.",
		".......",
	})

	blobs := externalBlobs(mask, w, h)
	require.Len(t, blobs, 1)
	require.Equal(t, 16, blobs[0].area)
}

func TestExternalBlobs_OpenRingKeepsInner(t *testing.T) {
	// Кольцо с разрывом: внутренняя точка связана с внешним фоном.
	mask, w, h := maskFrom([]string{
		".......",
		".##.##.",
		".#...#.",
		".#.#.#.",
		".#...#.",
		".#####.",
		".......",
	})

	blobs := externalBlobs(mask, w, h)
	require.Len(t, blobs, 2)
}
