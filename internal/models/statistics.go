package models

import "time"

// SummaryMetrics holds scalar summaries over a trip collection.
// Means, medians and extrema are nil when there is no data.
type SummaryMetrics struct {
	TotalTrips     int      `json:"total_trips"`
	AvgDuration    *float64 `json:"avg_duration"`    // Minutes
	MedianDuration *float64 `json:"median_duration"` // Minutes
	P90Duration    *float64 `json:"p90_duration"`    // Minutes
	AvgDistance    *float64 `json:"avg_distance"`    // Miles
	MaxDistance    *float64 `json:"max_distance"`    // Miles
}

// RankedCount is one (grouping key, count) entry of a ranking
type RankedCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// StationPair identifies a directed station-to-station flow
type StationPair struct {
	StartStation string `json:"start_station"`
	EndStation   string `json:"end_station"`
}

// PairCount is one entry of a station-pair flow ranking
type PairCount struct {
	Pair  StationPair `json:"pair"`
	Count int         `json:"count"`
}

// StationStats describes start/end activity at one station
type StationStats struct {
	StationName string `json:"station_name"`
	StartCount  int    `json:"start_count"`
	EndCount    int    `json:"end_count"`
	Imbalance   int    `json:"imbalance"` // EndCount - StartCount; positive means bikes accumulate
}

// HourlyCounts maps hour of day (index) to trip count
type HourlyCounts [24]int

// Peak returns the busiest hour and its count; ties go to the earliest hour
func (h HourlyCounts) Peak() (hour, count int) {
	for i, c := range h {
		if c > count {
			hour, count = i, c
		}
	}
	return hour, count
}

// HourCount is the trip count of one hour of the day
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DailyCount is the number of trips started on one calendar date
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// DayUserCount is the trip count for one weekday and user type
type DayUserCount struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	UserType  MemberType   `json:"user_type"`
	Count     int          `json:"count"`
}

// LocationCount is the number of trips starting at one coordinate
type LocationCount struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}

// TripRef summarizes one notable trip
type TripRef struct {
	RideID        string  `json:"ride_id"`
	StartStation  string  `json:"start_station"`
	EndStation    string  `json:"end_station"`
	DistanceMiles float64 `json:"distance_miles"`
}

// TripExtremes holds the longest and shortest trip by distance
type TripExtremes struct {
	Longest  TripRef `json:"longest"`
	Shortest TripRef `json:"shortest"`
}

// Coordinate is a point in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HistogramBin is one equal-width bin of a distribution
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Insights is the editorial summary of a trip collection
type Insights struct {
	BusiestStation        *RankedCount           `json:"busiest_station"`
	LeastUsedStation      *RankedCount           `json:"least_used_station"`
	Extremes              *TripExtremes          `json:"extremes"`
	UserShare             map[MemberType]float64 `json:"user_share"`
	PeakHour              *HourCount             `json:"peak_hour"`
	WeekendTopStation     *RankedCount           `json:"weekend_top_station"`
	WeekdayTopStation     *RankedCount           `json:"weekday_top_station"`
	RareRoutes            []PairCount            `json:"rare_routes"`
	AvgDurationByUserType map[MemberType]float64 `json:"avg_duration_by_user_type"`
	MostImbalancedStation *StationStats          `json:"most_imbalanced_station"`
}
