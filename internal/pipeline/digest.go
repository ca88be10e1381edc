package pipeline

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// Digest fingerprints raw input together with the options that shape its
// derivation. Equal digests mean equal derived trip sets.
func Digest(records []models.RawTrip, opts Options) uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeString := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	writeCoord := func(v *float64) {
		if v == nil {
			writeString("nil")
			return
		}
		bits := math.Float64bits(*v)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		_, _ = d.Write(buf[:])
	}

	writeString(opts.location().String())
	writeString(string(opts.durations()))
	writeString(strconv.Itoa(len(records)))

	for _, r := range records {
		writeString(r.RideID)
		writeString(r.RideableType)
		writeString(r.StartedAt)
		writeString(r.EndedAt)
		writeString(r.StartStationName)
		writeString(r.StartStationID)
		writeString(r.EndStationName)
		writeString(r.EndStationID)
		writeCoord(r.StartLat)
		writeCoord(r.StartLng)
		writeCoord(r.EndLat)
		writeCoord(r.EndLng)
		writeString(r.MemberCasual)
	}

	return d.Sum64()
}
