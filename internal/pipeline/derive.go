package pipeline

import (
	"strings"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/spatial"
)

// Derive computes the derived features of a validated record. It is total:
// any Record produced by Validate derives without error.
//
// Hour, date and weekday come from StartedAt in the location it was parsed in.
// Distance is the spherical great-circle distance (see spatial.HaversineDistance).
func Derive(rec Record) models.Trip {
	r := rec.Raw
	start := rec.StartedAt

	return models.Trip{
		RideID:           r.RideID,
		RideableType:     r.RideableType,
		StartLat:         *r.StartLat,
		StartLng:         *r.StartLng,
		EndLat:           *r.EndLat,
		EndLng:           *r.EndLng,
		StartedAt:        rec.StartedAt,
		EndedAt:          rec.EndedAt,
		StartStationName: strings.TrimSpace(r.StartStationName),
		EndStationName:   strings.TrimSpace(r.EndStationName),
		MemberCasual:     ParseMemberType(r.MemberCasual),

		DurationMinutes: rec.EndedAt.Sub(rec.StartedAt).Minutes(),
		Date:            start.Format("2006-01-02"),
		Hour:            start.Hour(),
		DayOfWeek:       start.Weekday(),
		IsWeekend:       IsWeekend(start.Weekday()),
		IsRushHour:      IsRushHour(start.Hour()),
		DistanceMiles:   spatial.DistanceMiles(*r.StartLat, *r.StartLng, *r.EndLat, *r.EndLng),
	}
}

// IsWeekend reports whether d is Saturday or Sunday
func IsWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// IsRushHour reports whether hour is one of models.RushHours
func IsRushHour(hour int) bool {
	for _, h := range models.RushHours {
		if h == hour {
			return true
		}
	}
	return false
}

// ParseMemberType normalizes a member_casual value
func ParseMemberType(s string) models.MemberType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "subscriber":
		return models.MemberTypeMember
	case "casual", "customer":
		return models.MemberTypeCasual
	default:
		return models.MemberTypeUnknown
	}
}
