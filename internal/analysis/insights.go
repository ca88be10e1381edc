package analysis

import (
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// rareRouteCandidates is how many top station pairs are scanned for one-off routes
const rareRouteCandidates = 10

// BuildInsights assembles the editorial highlights of a trip collection.
// Every field degrades to nil or empty when there is no data to support it.
func BuildInsights(trips []models.Trip) models.Insights {
	ins := models.Insights{
		UserShare:             UserTypeSplit(trips),
		AvgDurationByUserType: AvgDurationByUserType(trips),
		Extremes:              TripExtremes(trips),
		LeastUsedStation:      leastUsedStart(trips),
		RareRoutes:            []models.PairCount{},
	}

	if top, err := TopStations(trips, StartStation, 1); err == nil && len(top) > 0 {
		ins.BusiestStation = &top[0]
	}

	if hour, count := HourlyCounts(trips, models.AllDays).Peak(); count > 0 {
		ins.PeakHour = &models.HourCount{Hour: hour, Count: count}
	}

	var weekend, weekday []models.Trip
	for i := range trips {
		if trips[i].IsWeekend {
			weekend = append(weekend, trips[i])
		} else {
			weekday = append(weekday, trips[i])
		}
	}
	if top, err := TopStations(weekend, StartStation, 1); err == nil && len(top) > 0 {
		ins.WeekendTopStation = &top[0]
	}
	if top, err := TopStations(weekday, StartStation, 1); err == nil && len(top) > 0 {
		ins.WeekdayTopStation = &top[0]
	}

	if pairs, err := StationFlowPairs(trips, rareRouteCandidates); err == nil {
		for _, p := range pairs {
			if p.Count == 1 {
				ins.RareRoutes = append(ins.RareRoutes, p)
			}
		}
	}

	if imbalance := StationImbalance(trips); len(imbalance) > 0 {
		ins.MostImbalancedStation = &imbalance[0]
	}

	return ins
}
