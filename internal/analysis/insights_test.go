package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

func TestBuildInsights(t *testing.T) {
	ins := BuildInsights(exampleTrips())

	require.NotNil(t, ins.BusiestStation)
	assert.Equal(t, models.RankedCount{Key: "A", Count: 3}, *ins.BusiestStation)

	require.NotNil(t, ins.LeastUsedStation)
	assert.Equal(t, "B", ins.LeastUsedStation.Key)

	require.NotNil(t, ins.PeakHour)
	assert.Equal(t, 8, ins.PeakHour.Hour)

	require.NotNil(t, ins.WeekendTopStation)
	assert.Equal(t, "A", ins.WeekendTopStation.Key)
	require.NotNil(t, ins.WeekdayTopStation)
	assert.Equal(t, models.RankedCount{Key: "A", Count: 2}, *ins.WeekdayTopStation)

	assert.Len(t, ins.RareRoutes, 2)
	for _, r := range ins.RareRoutes {
		assert.Equal(t, 1, r.Count)
	}

	require.NotNil(t, ins.MostImbalancedStation)
	assert.Equal(t, "B", ins.MostImbalancedStation.StationName)
	assert.InDelta(t, 0.5, ins.UserShare[models.MemberTypeMember], 1e-9)
}

func TestBuildInsightsEmpty(t *testing.T) {
	var ins models.Insights
	assert.NotPanics(t, func() { ins = BuildInsights(nil) })

	assert.Nil(t, ins.BusiestStation)
	assert.Nil(t, ins.LeastUsedStation)
	assert.Nil(t, ins.Extremes)
	assert.Nil(t, ins.PeakHour)
	assert.Nil(t, ins.WeekendTopStation)
	assert.Nil(t, ins.MostImbalancedStation)
	assert.Empty(t, ins.RareRoutes)
	assert.Empty(t, ins.UserShare)
}
