package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedState_CanTransition(t *testing.T) {
	require.True(t, FeedStarting.CanTransition(FeedRunning))
	require.True(t, FeedStarting.CanTransition(FeedDraining))
	require.True(t, FeedRunning.CanTransition(FeedDraining))
	require.True(t, FeedDraining.CanTransition(FeedStopped))

	require.False(t, FeedRunning.CanTransition(FeedStarting))
	require.False(t, FeedRunning.CanTransition(FeedStopped))
	require.False(t, FeedStopped.CanTransition(FeedRunning))
}

func TestFeedStatus_Failed(t *testing.T) {
	require.False(t, FeedStatus{Feed: "0", State: FeedStopped}.Failed())
	require.True(t, FeedStatus{Feed: "0", Err: errors.New("boom")}.Failed())
}

func TestFeedTag(t *testing.T) {
	cases := map[string]string{
		"0":                    "0",
		"cam-1":                "cam-1",
		"/videos/line.mp4":     "videos-line-mp4",
		"rtsp://10.0.0.5/live": "rtsp-10-0-0-5-live",
		"///":                  "feed",
	}
	for in, want := range cases {
		require.Equal(t, want, FeedTag(in), in)
	}
}
