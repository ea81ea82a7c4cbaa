package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"line-inspector/internal/domain/entity"
)

func TestInspectionService_BuildProfile(t *testing.T) {
	svc := newVisionService()

	profile, err := svc.BuildProfile("ref.png", plainFrame(400, 200, 200), 200, 100)
	require.NoError(t, err)
	require.Equal(t, "ref.png", profile.Source)
	require.Equal(t, image.Rect(0, 0, 200, 100), profile.Image.Bounds())

	_, err = svc.BuildProfile("ref.png", nil, 200, 100)
	require.ErrorIs(t, err, entity.ErrInvalidImage)

	_, err = svc.BuildProfile("ref.png", plainFrame(10, 10, 0), 0, 100)
	require.ErrorIs(t, err, entity.ErrConfiguration)
}

func TestInspectionService_IdenticalFrameNotTriggered(t *testing.T) {
	svc := newVisionService()
	ref := plainFrame(200, 100, 200)

	profile, err := svc.BuildProfile("ref", ref, 200, 100)
	require.NoError(t, err)

	out, err := svc.Inspect("cam", profile, ref)
	require.NoError(t, err)
	require.Equal(t, 1.0, out.Result.Score)
	require.False(t, out.Triggered)
	require.False(t, out.HasDefects())
}

func TestInspectionService_SquareTriggers(t *testing.T) {
	svc := newVisionService()
	ref := plainFrame(200, 100, 200)

	profile, err := svc.BuildProfile("ref", ref, 200, 100)
	require.NoError(t, err)

	out, err := svc.Inspect("cam", profile, frameWithSquare(ref, image.Rect(90, 40, 110, 60)))
	require.NoError(t, err)
	require.Less(t, out.Result.Score, 0.98)
	require.True(t, out.HasDefects())

	hit := false
	for _, r := range out.Regions {
		if r.Rect().Overlaps(image.Rect(90, 40, 110, 60)) {
			hit = true
		}
	}
	require.True(t, hit, "regions %v miss the square", out.Regions)
}

func TestInspectionService_StageOfErrors(t *testing.T) {
	svc := newVisionService()
	profile, err := svc.BuildProfile("ref", plainFrame(20, 10, 50), 20, 10)
	require.NoError(t, err)

	_, err = svc.Inspect("cam", profile, image.NewRGBA(image.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, entity.ErrInvalidImage)
	stage, ok := entity.StageOf(err)
	require.True(t, ok)
	require.Equal(t, entity.StageNormalize, stage)
}

func TestInspectionService_NotConfigured(t *testing.T) {
	svc := NewInspectionService(nil, nil, nil)

	_, err := svc.BuildProfile("ref", plainFrame(4, 4, 0), 4, 4)
	require.Error(t, err)

	_, err = svc.Inspect("cam", &entity.ReferenceProfile{Width: 4, Height: 4}, plainFrame(4, 4, 0))
	require.Error(t, err)
}
