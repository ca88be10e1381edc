package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/bikeshare-insights-go/internal/database"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// TripRepository reads and stores raw trip rows. Derived features and query
// results are never persisted.
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// ListRaw returns every stored trip row in insertion order
func (r *TripRepository) ListRaw(ctx context.Context) ([]models.RawTrip, error) {
	query := `SELECT ride_id, rideable_type, started_at, ended_at,
		start_station_name, start_station_id, end_station_name, end_station_id,
		start_lat, start_lng, end_lat, end_lng, member_casual
		FROM trips ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.RawTrip
	for rows.Next() {
		var (
			t                                          models.RawTrip
			startName, startID, endName, endID, member sql.NullString
			startLat, startLng, endLat, endLng         sql.NullFloat64
		)
		err := rows.Scan(
			&t.RideID, &t.RideableType, &t.StartedAt, &t.EndedAt,
			&startName, &startID, &endName, &endID,
			&startLat, &startLng, &endLat, &endLng, &member,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}

		t.StartStationName = startName.String
		t.StartStationID = startID.String
		t.EndStationName = endName.String
		t.EndStationID = endID.String
		t.MemberCasual = member.String
		t.StartLat = floatPtr(startLat)
		t.StartLng = floatPtr(startLng)
		t.EndLat = floatPtr(endLat)
		t.EndLng = floatPtr(endLng)

		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}

	return trips, nil
}

// InsertRaw stores trip rows in one transaction and returns how many were
// written. Rows whose ride_id is already stored are skipped; rows without a
// ride_id are always written.
func (r *TripRepository) InsertRaw(ctx context.Context, trips []models.RawTrip) (int, error) {
	query := `INSERT OR IGNORE INTO trips (ride_id, rideable_type, started_at, ended_at,
		start_station_name, start_station_id, end_station_name, end_station_id,
		start_lat, start_lng, end_lat, end_lng, member_casual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	written := 0
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := range trips {
			t := &trips[i]
			res, err := stmt.ExecContext(ctx,
				t.RideID, t.RideableType, t.StartedAt, t.EndedAt,
				t.StartStationName, t.StartStationID, t.EndStationName, t.EndStationID,
				nullFloat(t.StartLat), nullFloat(t.StartLng), nullFloat(t.EndLat), nullFloat(t.EndLng),
				t.MemberCasual,
			)
			if err != nil {
				return fmt.Errorf("failed to insert trip %d: %w", i, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				written += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Count returns the number of stored trip rows
func (r *TripRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return total, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
