package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posecoach/pkg/pose"
	"github.com/teslashibe/go-posecoach/pkg/tracking"
)

func TestRanges_Default(t *testing.T) {
	rg, err := ranges(options{})
	require.NoError(t, err)
	assert.Equal(t, tracking.DefaultSyntheticRanges(), rg)
}

func TestRanges_AroundPose(t *testing.T) {
	rg, err := ranges(options{pose: pose.DefaultLibraryKey, jitter: 5})
	require.NoError(t, err)

	ex, err := pose.DefaultLibrary().Get(pose.DefaultLibraryKey)
	require.NoError(t, err)
	for j, target := range ex.Targets {
		r := rg[j]
		assert.LessOrEqual(t, float64(r.Min), target, j)
		assert.Greater(t, float64(r.Max), target, j)
		assert.Equal(t, 11, r.Max-r.Min, j)
	}
}

func TestRanges_UnknownPose(t *testing.T) {
	_, err := ranges(options{pose: "nope"})
	assert.ErrorIs(t, err, pose.ErrUnknownExercise)
}

// Frames decode back to the angles they were built from.
func TestFrame_RoundTripsThroughLandmarkSource(t *testing.T) {
	ctx := context.Background()
	src := tracking.NewSyntheticSource(7, nil)
	require.NoError(t, src.Open(ctx))

	now := time.Now()
	data, reading, err := frame(ctx, src, pose.BlazePoseSkeleton(), now)
	require.NoError(t, err)

	lm := tracking.NewLandmarkSource()
	require.NoError(t, lm.Open(ctx))
	require.NoError(t, lm.FeedMessage(data))

	got, err := lm.Next(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(reading))
	for j, deg := range reading {
		assert.InDelta(t, deg, got[j], 1e-6, j)
	}
}
