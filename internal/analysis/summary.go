package analysis

import (
	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/spatial"
	"github.com/jengzang/bikeshare-insights-go/internal/stats"
)

// Summary computes totals, means, medians and extrema. On empty input every
// metric except TotalTrips is nil.
func Summary(trips []models.Trip) models.SummaryMetrics {
	if len(trips) == 0 {
		return models.SummaryMetrics{}
	}

	durations := make([]float64, len(trips))
	distances := make([]float64, len(trips))
	for i := range trips {
		durations[i] = trips[i].DurationMinutes
		distances[i] = trips[i].DistanceMiles
	}

	return models.SummaryMetrics{
		TotalTrips:     len(trips),
		AvgDuration:    stats.Ptr(stats.Mean(durations)),
		MedianDuration: stats.Ptr(stats.Median(durations)),
		P90Duration:    stats.Ptr(stats.Percentile(durations, 90)),
		AvgDistance:    stats.Ptr(stats.Mean(distances)),
		MaxDistance:    stats.Ptr(stats.Max(distances)),
	}
}

// UserTypeSplit returns the fraction of trips per user type. The fractions sum
// to 1 over non-empty input; empty input gives an empty map.
func UserTypeSplit(trips []models.Trip) map[models.MemberType]float64 {
	split := make(map[models.MemberType]float64)
	if len(trips) == 0 {
		return split
	}

	counts := make(map[models.MemberType]int)
	for i := range trips {
		counts[trips[i].MemberCasual]++
	}
	for u, n := range counts {
		split[u] = float64(n) / float64(len(trips))
	}
	return split
}

// AvgDurationByUserType returns mean trip duration in minutes per user type
func AvgDurationByUserType(trips []models.Trip) map[models.MemberType]float64 {
	durations := make(map[models.MemberType][]float64)
	for i := range trips {
		u := trips[i].MemberCasual
		durations[u] = append(durations[u], trips[i].DurationMinutes)
	}

	result := make(map[models.MemberType]float64, len(durations))
	for u, d := range durations {
		result[u] = stats.Mean(d)
	}
	return result
}

// TripExtremes finds the longest and shortest trip by distance; ties go to the
// earliest trip in the collection. Returns nil for no trips.
func TripExtremes(trips []models.Trip) *models.TripExtremes {
	if len(trips) == 0 {
		return nil
	}

	longest, shortest := 0, 0
	for i := 1; i < len(trips); i++ {
		if trips[i].DistanceMiles > trips[longest].DistanceMiles {
			longest = i
		}
		if trips[i].DistanceMiles < trips[shortest].DistanceMiles {
			shortest = i
		}
	}

	return &models.TripExtremes{
		Longest:  tripRef(&trips[longest]),
		Shortest: tripRef(&trips[shortest]),
	}
}

func tripRef(t *models.Trip) models.TripRef {
	return models.TripRef{
		RideID:        t.RideID,
		StartStation:  t.StartStationName,
		EndStation:    t.EndStationName,
		DistanceMiles: t.DistanceMiles,
	}
}

// Center returns the mean start coordinate, used to center a map view.
// Returns nil for no trips.
func Center(trips []models.Trip) *models.Coordinate {
	if len(trips) == 0 {
		return nil
	}

	points := make([]spatial.Point, len(trips))
	for i := range trips {
		points[i] = spatial.Point{Lat: trips[i].StartLat, Lon: trips[i].StartLng}
	}
	c := spatial.Centroid(points)
	return &models.Coordinate{Lat: c.Lat, Lng: c.Lon}
}

// DistanceHistogram buckets trip distances into bins equal-width bins over
// [0, max distance]. The maximum falls into the last bin.
func DistanceHistogram(trips []models.Trip, bins int) ([]models.HistogramBin, error) {
	if bins <= 0 {
		return nil, apperr.InvalidParam("distanceHistogram", "bins", bins, "must be positive")
	}
	if len(trips) == 0 {
		return []models.HistogramBin{}, nil
	}

	distances := make([]float64, len(trips))
	for i := range trips {
		distances[i] = trips[i].DistanceMiles
	}
	max := stats.Max(distances)
	width := max / float64(bins)

	hist := make([]models.HistogramBin, bins)
	for i := range hist {
		hist[i].Lower = float64(i) * width
		hist[i].Upper = float64(i+1) * width
	}

	for _, d := range distances {
		idx := 0
		if width > 0 {
			idx = int(d / width)
		}
		if idx >= bins {
			idx = bins - 1
		}
		hist[idx].Count++
	}
	return hist, nil
}
