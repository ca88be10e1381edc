package analysis

import (
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// trip builds an enriched trip starting on 2024-10-07 (a Monday) plus offset days
func trip(start, end string, hour int, dayOffset int, member models.MemberType) models.Trip {
	startedAt := time.Date(2024, 10, 7+dayOffset, hour, 0, 0, 0, time.UTC)
	weekday := startedAt.Weekday()
	return models.Trip{
		RideID:           start + "->" + end,
		StartStationName: start,
		EndStationName:   end,
		StartLat:         37.77,
		StartLng:         -122.41,
		EndLat:           37.78,
		EndLng:           -122.42,
		StartedAt:        startedAt,
		EndedAt:          startedAt.Add(10 * time.Minute),
		MemberCasual:     member,
		DurationMinutes:  10,
		Date:             startedAt.Format("2006-01-02"),
		Hour:             hour,
		DayOfWeek:        weekday,
		IsWeekend:        weekday == time.Saturday || weekday == time.Sunday,
		IsRushHour:       hour == 7 || hour == 8 || hour == 9 || hour == 16 || hour == 17 || hour == 18,
		DistanceMiles:    1,
	}
}

// exampleTrips: two A->B, one B->A, one A->A
func exampleTrips() []models.Trip {
	return []models.Trip{
		trip("A", "B", 8, 0, models.MemberTypeMember),
		trip("A", "B", 9, 0, models.MemberTypeMember),
		trip("B", "A", 17, 1, models.MemberTypeCasual),
		trip("A", "A", 12, 5, models.MemberTypeCasual),
	}
}
