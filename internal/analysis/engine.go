package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// QueryType names an aggregate query
type QueryType string

// QueryType constants
const (
	QuerySummary               QueryType = "summary"
	QueryTopStartStations      QueryType = "top_start_stations"
	QueryTopEndStations        QueryType = "top_end_stations"
	QueryStationPairs          QueryType = "station_pairs"
	QueryStationImbalance      QueryType = "station_imbalance"
	QueryHourlyCounts          QueryType = "hourly_counts"
	QueryDailyCounts           QueryType = "daily_counts"
	QueryUserTypeSplit         QueryType = "user_type_split"
	QueryUserHourlyTrends      QueryType = "user_hourly_trends"
	QueryDayUserUsage          QueryType = "day_user_usage"
	QueryRushHourStations      QueryType = "rush_hour_stations"
	QueryMorningStations       QueryType = "morning_stations"
	QueryEveningStations       QueryType = "evening_stations"
	QueryWindowStations        QueryType = "window_stations"
	QueryLocationActivity      QueryType = "location_activity"
	QueryTripExtremes          QueryType = "trip_extremes"
	QueryAvgDurationByUserType QueryType = "avg_duration_by_user_type"
	QueryCenter                QueryType = "center"
	QueryDistanceHistogram     QueryType = "distance_histogram"
	QueryInsights              QueryType = "insights"
)

// Analyzer computes one query over an enriched trip collection.
// Analyzers are pure: the result depends only on trips and params.
type Analyzer func(trips []models.Trip, params models.QueryParams) (any, error)

// analyzers maps query types to analyzers. It is filled once at init and
// read-only afterwards.
var analyzers = make(map[QueryType]Analyzer)

func register(qt QueryType, a Analyzer) {
	if _, dup := analyzers[qt]; dup {
		panic(fmt.Sprintf("analysis: duplicate analyzer %q", qt))
	}
	analyzers[qt] = a
}

func init() {
	register(QuerySummary, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return Summary(trips), nil
	})
	register(QueryTopStartStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return TopStations(trips, StartStation, p.N)
	})
	register(QueryTopEndStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return TopStations(trips, EndStation, p.N)
	})
	register(QueryStationPairs, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return StationFlowPairs(trips, p.N)
	})
	register(QueryStationImbalance, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return StationImbalance(trips), nil
	})
	register(QueryHourlyCounts, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return HourlyCounts(trips, p.Day), nil
	})
	register(QueryDailyCounts, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return DailyCounts(trips), nil
	})
	register(QueryUserTypeSplit, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return UserTypeSplit(trips), nil
	})
	register(QueryUserHourlyTrends, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return UserHourlyTrends(trips), nil
	})
	register(QueryDayUserUsage, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return DayUserUsage(trips), nil
	})
	register(QueryRushHourStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return RushHourStations(trips, p.N)
	})
	register(QueryMorningStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return WindowStations(trips, MorningFromHour, MorningToHour, p.N)
	})
	register(QueryEveningStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return WindowStations(trips, EveningFromHour, EveningToHour, p.N)
	})
	register(QueryWindowStations, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return WindowStations(trips, p.FromHour, p.ToHour, p.N)
	})
	register(QueryLocationActivity, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return LocationActivity(trips, p.Hour, p.Day)
	})
	register(QueryTripExtremes, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return TripExtremes(trips), nil
	})
	register(QueryAvgDurationByUserType, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return AvgDurationByUserType(trips), nil
	})
	register(QueryCenter, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return Center(trips), nil
	})
	register(QueryDistanceHistogram, func(trips []models.Trip, p models.QueryParams) (any, error) {
		return DistanceHistogram(trips, p.Bins)
	})
	register(QueryInsights, func(trips []models.Trip, _ models.QueryParams) (any, error) {
		return BuildInsights(trips), nil
	})
}

// GetAnalyzer retrieves the analyzer for a query type
func GetAnalyzer(qt QueryType) (Analyzer, bool) {
	a, ok := analyzers[qt]
	return a, ok
}

// ParseQueryType validates a query type name
func ParseQueryType(s string) (QueryType, error) {
	qt := QueryType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := analyzers[qt]; !ok {
		return "", apperr.InvalidParam("query", "queryType", s, "unknown query type")
	}
	return qt, nil
}

// QueryTypes lists the registered query types in name order
func QueryTypes() []QueryType {
	types := make([]QueryType, 0, len(analyzers))
	for qt := range analyzers {
		types = append(types, qt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Run dispatches a query to its analyzer
func Run(qt QueryType, trips []models.Trip, params models.QueryParams) (any, error) {
	a, ok := analyzers[qt]
	if !ok {
		return nil, apperr.InvalidParam("query", "queryType", string(qt), "unknown query type")
	}
	return a(trips, params)
}
