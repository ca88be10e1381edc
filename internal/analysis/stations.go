package analysis

import (
	"sort"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// StationField selects which end of a trip a station ranking groups by
type StationField string

// StationField constants
const (
	StartStation StationField = "start"
	EndStation   StationField = "end"
)

// Hour windows of the morning and evening activity rankings
const (
	MorningFromHour = 7
	MorningToHour   = 9
	EveningFromHour = 17
	EveningToHour   = 19
)

// Trips without a station name at one end still count in every trip-level
// aggregate but are left out of station groupings at that end.

// addStation counts name unless it is blank
func addStation(c *counter[string], name string) {
	if name != "" {
		c.add(name)
	}
}

// TopStations ranks stations by the number of trips starting (or ending) there.
// At most n entries are returned, by count descending; ties keep the order in
// which stations were first encountered.
func TopStations(trips []models.Trip, field StationField, n int) ([]models.RankedCount, error) {
	if err := validateN("topStations", n); err != nil {
		return nil, err
	}
	if field != StartStation && field != EndStation {
		return nil, apperr.InvalidParam("topStations", "field", string(field), "must be start or end")
	}

	c := newCounter[string]()
	for i := range trips {
		if field == StartStation {
			addStation(c, trips[i].StartStationName)
		} else {
			addStation(c, trips[i].EndStationName)
		}
	}
	return rankedCounts(c, n), nil
}

// StationFlowPairs ranks directed (start, end) station pairs by trip count
func StationFlowPairs(trips []models.Trip, n int) ([]models.PairCount, error) {
	if err := validateN("stationFlowPairs", n); err != nil {
		return nil, err
	}

	c := newCounter[models.StationPair]()
	for i := range trips {
		start, end := trips[i].StartStationName, trips[i].EndStationName
		if start == "" || end == "" {
			continue
		}
		c.add(models.StationPair{StartStation: start, EndStation: end})
	}

	pairs := c.top(n)
	result := make([]models.PairCount, len(pairs))
	for i, p := range pairs {
		result[i] = models.PairCount{Pair: p, Count: c.counts[p]}
	}
	return result, nil
}

// StationImbalance computes start/end counts for every named station that
// appears as either a start or an end, ordered by imbalance descending. Stations are
// rebuilt from the full trip set on every call.
func StationImbalance(trips []models.Trip) []models.StationStats {
	index := make(map[string]int)
	var result []models.StationStats

	station := func(name string) *models.StationStats {
		i, ok := index[name]
		if !ok {
			i = len(result)
			index[name] = i
			result = append(result, models.StationStats{StationName: name})
		}
		return &result[i]
	}

	for i := range trips {
		if name := trips[i].StartStationName; name != "" {
			station(name).StartCount++
		}
		if name := trips[i].EndStationName; name != "" {
			station(name).EndCount++
		}
	}

	for i := range result {
		result[i].Imbalance = result[i].EndCount - result[i].StartCount
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Imbalance > result[j].Imbalance
	})

	if result == nil {
		return []models.StationStats{}
	}
	return result
}

// WindowStations ranks start stations over trips starting within the
// inclusive hour window [fromHour, toHour]
func WindowStations(trips []models.Trip, fromHour, toHour, n int) ([]models.RankedCount, error) {
	if err := validateHour("windowStations", "fromHour", fromHour); err != nil {
		return nil, err
	}
	if err := validateHour("windowStations", "toHour", toHour); err != nil {
		return nil, err
	}
	if fromHour > toHour {
		return nil, apperr.InvalidParam("windowStations", "toHour", toHour, "must not be before fromHour")
	}

	return filteredTopStarts("windowStations", trips, n, func(t *models.Trip) bool {
		return t.Hour >= fromHour && t.Hour <= toHour
	})
}

// RushHourStations ranks start stations over rush-hour trips
func RushHourStations(trips []models.Trip, n int) ([]models.RankedCount, error) {
	return filteredTopStarts("rushHourStations", trips, n, func(t *models.Trip) bool {
		return t.IsRushHour
	})
}

func filteredTopStarts(op string, trips []models.Trip, n int, keep func(*models.Trip) bool) ([]models.RankedCount, error) {
	if err := validateN(op, n); err != nil {
		return nil, err
	}

	c := newCounter[string]()
	for i := range trips {
		if keep(&trips[i]) {
			addStation(c, trips[i].StartStationName)
		}
	}
	return rankedCounts(c, n), nil
}

// leastUsedStart returns the start station with the fewest trips; ties keep
// the first encountered. Returns nil for no trips.
func leastUsedStart(trips []models.Trip) *models.RankedCount {
	c := newCounter[string]()
	for i := range trips {
		addStation(c, trips[i].StartStationName)
	}

	var least *models.RankedCount
	for _, name := range c.order {
		if least == nil || c.counts[name] < least.Count {
			least = &models.RankedCount{Key: name, Count: c.counts[name]}
		}
	}
	return least
}

func rankedCounts(c *counter[string], n int) []models.RankedCount {
	keys := c.top(n)
	result := make([]models.RankedCount, len(keys))
	for i, k := range keys {
		result[i] = models.RankedCount{Key: k, Count: c.counts[k]}
	}
	return result
}
