package analysis

import (
	"sort"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// weekOrder lists weekdays Monday first
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// HourlyCounts counts trips by start hour, optionally restricted to one weekday
func HourlyCounts(trips []models.Trip, day models.DayFilter) models.HourlyCounts {
	var counts models.HourlyCounts
	for i := range trips {
		if day.Match(trips[i].DayOfWeek) {
			counts[trips[i].Hour]++
		}
	}
	return counts
}

// DailyCounts counts trips by start date, in date order
func DailyCounts(trips []models.Trip) []models.DailyCount {
	c := newCounter[string]()
	for i := range trips {
		c.add(trips[i].Date)
	}

	dates := make([]string, len(c.order))
	copy(dates, c.order)
	sort.Strings(dates)

	result := make([]models.DailyCount, len(dates))
	for i, d := range dates {
		result[i] = models.DailyCount{Date: d, Count: c.counts[d]}
	}
	return result
}

// UserHourlyTrends counts trips by start hour for each user type
func UserHourlyTrends(trips []models.Trip) map[models.MemberType]models.HourlyCounts {
	trends := make(map[models.MemberType]models.HourlyCounts)
	for i := range trips {
		counts := trends[trips[i].MemberCasual]
		counts[trips[i].Hour]++
		trends[trips[i].MemberCasual] = counts
	}
	return trends
}

// DayUserUsage counts trips per weekday and user type, Monday first and user
// types in name order within a day. Combinations without trips are omitted.
func DayUserUsage(trips []models.Trip) []models.DayUserCount {
	type key struct {
		day  time.Weekday
		user models.MemberType
	}

	counts := make(map[key]int)
	users := make(map[models.MemberType]struct{})
	for i := range trips {
		counts[key{trips[i].DayOfWeek, trips[i].MemberCasual}]++
		users[trips[i].MemberCasual] = struct{}{}
	}

	userOrder := make([]models.MemberType, 0, len(users))
	for u := range users {
		userOrder = append(userOrder, u)
	}
	sort.Slice(userOrder, func(i, j int) bool { return userOrder[i] < userOrder[j] })

	result := []models.DayUserCount{}
	for _, d := range weekOrder {
		for _, u := range userOrder {
			if n := counts[key{d, u}]; n > 0 {
				result = append(result, models.DayUserCount{DayOfWeek: d, UserType: u, Count: n})
			}
		}
	}
	return result
}

// LocationActivity groups trips starting in the given hour (and day) by start
// coordinate, by count descending with first-seen tie order. This is the
// per-frame payload of the timelapse.
func LocationActivity(trips []models.Trip, hour int, day models.DayFilter) ([]models.LocationCount, error) {
	if err := validateHour("locationActivity", "hour", hour); err != nil {
		return nil, err
	}

	c := newCounter[models.Coordinate]()
	for i := range trips {
		if trips[i].Hour == hour && day.Match(trips[i].DayOfWeek) {
			c.add(models.Coordinate{Lat: trips[i].StartLat, Lng: trips[i].StartLng})
		}
	}

	keys := c.ranked()
	result := make([]models.LocationCount, len(keys))
	for i, k := range keys {
		result[i] = models.LocationCount{Lat: k.Lat, Lng: k.Lng, Count: c.counts[k]}
	}
	return result, nil
}
