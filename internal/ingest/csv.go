package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// Errors wrapped in DataErrors by ReadTrips
var (
	ErrMissingHeader  = errors.New("csv input has no header row")
	ErrMissingColumns = errors.New("csv header lacks required columns")
)

// Column names of the trip export format
const (
	colRideID           = "ride_id"
	colRideableType     = "rideable_type"
	colStartedAt        = "started_at"
	colEndedAt          = "ended_at"
	colStartStationName = "start_station_name"
	colStartStationID   = "start_station_id"
	colEndStationName   = "end_station_name"
	colEndStationID     = "end_station_id"
	colStartLat         = "start_lat"
	colStartLng         = "start_lng"
	colEndLat           = "end_lat"
	colEndLng           = "end_lng"
	colMemberCasual     = "member_casual"
)

// RequiredColumns must all be present in the header. Other columns are
// optional and read as empty when absent.
var RequiredColumns = []string{colStartedAt, colEndedAt, colStartLat, colStartLng, colEndLat, colEndLng}

// ReadTrips parses a trip CSV export. Values that are missing or do not parse
// are left empty (coordinates nil) for the validator to drop; only a missing
// header, missing required columns or malformed CSV fail the whole input.
func ReadTrips(r io.Reader) ([]models.RawTrip, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	idx, err := parseHeader(cr)
	if err != nil {
		return nil, err
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []models.RawTrip
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Data("readTrips", fmt.Errorf("read row: %w", err))
		}

		out = append(out, models.RawTrip{
			RideID:           get(row, colRideID),
			RideableType:     get(row, colRideableType),
			StartedAt:        get(row, colStartedAt),
			EndedAt:          get(row, colEndedAt),
			StartStationName: get(row, colStartStationName),
			StartStationID:   get(row, colStartStationID),
			EndStationName:   get(row, colEndStationName),
			EndStationID:     get(row, colEndStationID),
			StartLat:         parseCoord(get(row, colStartLat)),
			StartLng:         parseCoord(get(row, colStartLng)),
			EndLat:           parseCoord(get(row, colEndLat)),
			EndLng:           parseCoord(get(row, colEndLng)),
			MemberCasual:     get(row, colMemberCasual),
		})
	}
	return out, nil
}

// ReadFile parses the trip CSV at path
func ReadFile(path string) ([]models.RawTrip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	trips, err := ReadTrips(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return trips, nil
}

func parseHeader(cr *csv.Reader) (map[string]int, error) {
	headers, err := cr.Read()
	if err == io.EOF {
		return nil, apperr.Data("readTrips", ErrMissingHeader)
	}
	if err != nil {
		return nil, apperr.Data("readTrips", fmt.Errorf("read header: %w", err))
	}

	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Data("readTrips", fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", ")))
	}
	return idx, nil
}

func parseCoord(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
