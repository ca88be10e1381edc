package models

import "time"

// RawTrip is one trip record as supplied by the surrounding application
// (CSV row, database row). Coordinates are nil when the source value is
// missing or unparseable.
type RawTrip struct {
	RideID       string `json:"ride_id" db:"ride_id"`
	RideableType string `json:"rideable_type,omitempty" db:"rideable_type"`

	// Temporal info, unparsed
	StartedAt string `json:"started_at" db:"started_at"`
	EndedAt   string `json:"ended_at" db:"ended_at"`

	// Stations
	StartStationName string `json:"start_station_name" db:"start_station_name"`
	StartStationID   string `json:"start_station_id,omitempty" db:"start_station_id"`
	EndStationName   string `json:"end_station_name" db:"end_station_name"`
	EndStationID     string `json:"end_station_id,omitempty" db:"end_station_id"`

	// Coordinates (degrees)
	StartLat *float64 `json:"start_lat" db:"start_lat"`
	StartLng *float64 `json:"start_lng" db:"start_lng"`
	EndLat   *float64 `json:"end_lat" db:"end_lat"`
	EndLng   *float64 `json:"end_lng" db:"end_lng"`

	MemberCasual string `json:"member_casual" db:"member_casual"` // member, casual
}

// Trip is a validated trip record with its derived features.
// Trips are never mutated after derivation.
type Trip struct {
	RideID       string `json:"ride_id"`
	RideableType string `json:"rideable_type,omitempty"`

	StartLat float64 `json:"start_lat"`
	StartLng float64 `json:"start_lng"`
	EndLat   float64 `json:"end_lat"`
	EndLng   float64 `json:"end_lng"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	StartStationName string     `json:"start_station_name"`
	EndStationName   string     `json:"end_station_name"`
	MemberCasual     MemberType `json:"member_casual"`

	// Derived features
	DurationMinutes float64      `json:"duration_minutes"` // may be negative, see pipeline.DurationPolicy
	Date            string       `json:"date"`             // YYYY-MM-DD
	Hour            int          `json:"hour"`             // 0-23
	DayOfWeek       time.Weekday `json:"day_of_week"`
	IsWeekend       bool         `json:"is_weekend"`
	IsRushHour      bool         `json:"is_rush_hour"`
	DistanceMiles   float64      `json:"distance_miles"`
}

// MemberType is the rider category of a trip
type MemberType string

// MemberType constants
const (
	MemberTypeMember  MemberType = "member"
	MemberTypeCasual  MemberType = "casual"
	MemberTypeUnknown MemberType = "unknown"
)

// RushHours are the commuter hours flagged by Trip.IsRushHour
var RushHours = []int{7, 8, 9, 16, 17, 18}

// TripSet is a validated and feature-enriched trip collection.
// Version identifies the raw input it was derived from and is part of
// every cache fingerprint computed over the set.
type TripSet struct {
	Version     uint64    `json:"version"`
	Trips       []Trip    `json:"-"`
	InputRows   int       `json:"input_rows"`
	KeptRows    int       `json:"kept_rows"`
	DroppedRows int       `json:"dropped_rows"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Len returns the number of trips in the set
func (s *TripSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Trips)
}
