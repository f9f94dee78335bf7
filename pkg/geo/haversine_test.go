package geo

import (
	"math"
	"testing"

	"github.com/curocart/curocart-backend/pkg/types"
)

func TestDistanceKM(t *testing.T) {
	t.Parallel()

	// Connaught Place to India Gate, roughly 2.4 km.
	from := types.GeoPoint{Lat: 28.6315, Lng: 77.2167}
	to := types.GeoPoint{Lat: 28.6129, Lng: 77.2295}

	got := DistanceKM(from, to)
	if got < 2.0 || got > 3.0 {
		t.Fatalf("expected roughly 2.4 km, got %f", got)
	}
}

func TestDistanceKMZeroForSamePoint(t *testing.T) {
	t.Parallel()

	point := types.GeoPoint{Lat: 19.076, Lng: 72.8777}
	if got := DistanceKM(point, point); math.Abs(got) > 1e-9 {
		t.Fatalf("expected zero distance, got %f", got)
	}
}
