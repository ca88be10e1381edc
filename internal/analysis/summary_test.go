package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

func TestSummaryEmpty(t *testing.T) {
	var got models.SummaryMetrics
	assert.NotPanics(t, func() { got = Summary(nil) })

	assert.Equal(t, 0, got.TotalTrips)
	assert.Nil(t, got.AvgDuration)
	assert.Nil(t, got.MedianDuration)
	assert.Nil(t, got.AvgDistance)
	assert.Nil(t, got.MaxDistance)
}

func TestSummary(t *testing.T) {
	trips := exampleTrips()
	trips[0].DurationMinutes, trips[0].DistanceMiles = 4, 0.5
	trips[1].DurationMinutes, trips[1].DistanceMiles = -2, 1.5
	trips[2].DurationMinutes, trips[2].DistanceMiles = 10, 3.0
	trips[3].DurationMinutes, trips[3].DistanceMiles = 8, 0

	got := Summary(trips)

	assert.Equal(t, 4, got.TotalTrips)
	require.NotNil(t, got.AvgDuration)
	assert.InDelta(t, 5.0, *got.AvgDuration, 1e-9)
	assert.InDelta(t, 6.0, *got.MedianDuration, 1e-9)
	assert.InDelta(t, 1.25, *got.AvgDistance, 1e-9)
	assert.InDelta(t, 3.0, *got.MaxDistance, 1e-9)
}

func TestUserTypeSplit(t *testing.T) {
	split := UserTypeSplit(exampleTrips())

	assert.InDelta(t, 0.5, split[models.MemberTypeMember], 1e-9)
	assert.InDelta(t, 0.5, split[models.MemberTypeCasual], 1e-9)

	sum := 0.0
	for _, v := range split {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	empty := UserTypeSplit(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAvgDurationByUserType(t *testing.T) {
	trips := exampleTrips()
	trips[2].DurationMinutes = 30

	got := AvgDurationByUserType(trips)
	assert.InDelta(t, 10.0, got[models.MemberTypeMember], 1e-9)
	assert.InDelta(t, 20.0, got[models.MemberTypeCasual], 1e-9)
}

func TestTripExtremes(t *testing.T) {
	assert.Nil(t, TripExtremes(nil))

	trips := exampleTrips()
	trips[1].DistanceMiles = 4
	trips[3].DistanceMiles = 0

	got := TripExtremes(trips)
	require.NotNil(t, got)
	assert.Equal(t, "A->B", got.Longest.RideID)
	assert.Equal(t, 4.0, got.Longest.DistanceMiles)
	assert.Equal(t, "A->A", got.Shortest.RideID)
}

func TestCenter(t *testing.T) {
	assert.Nil(t, Center(nil))

	trips := exampleTrips()
	trips[0].StartLat, trips[0].StartLng = 37.0, -122.0
	trips[1].StartLat, trips[1].StartLng = 38.0, -123.0
	trips[2].StartLat, trips[2].StartLng = 38.0, -123.0
	trips[3].StartLat, trips[3].StartLng = 37.0, -122.0

	got := Center(trips)
	require.NotNil(t, got)
	assert.InDelta(t, 37.5, got.Lat, 1e-9)
	assert.InDelta(t, -122.5, got.Lng, 1e-9)
}

func TestDistanceHistogram(t *testing.T) {
	trips := exampleTrips()
	trips[0].DistanceMiles = 0
	trips[1].DistanceMiles = 1
	trips[2].DistanceMiles = 2.5
	trips[3].DistanceMiles = 4

	got, err := DistanceHistogram(trips, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 1, 1, 1}, []int{got[0].Count, got[1].Count, got[2].Count, got[3].Count})
	assert.InDelta(t, 3.0, got[3].Lower, 1e-9)
	assert.InDelta(t, 4.0, got[3].Upper, 1e-9)

	zero := exampleTrips()
	for i := range zero {
		zero[i].DistanceMiles = 0
	}
	got, err = DistanceHistogram(zero, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, got[0].Count)

	got, err = DistanceHistogram(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DistanceHistogram(trips, 0)
	assert.True(t, apperr.IsInvalidParam(err))
}
