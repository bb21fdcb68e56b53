package geo_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/geo"
	"github.com/oggyb/campus-match/internal/logger"
)

func TestParseCoordinates(t *testing.T) {
	p, err := geo.ParseCoordinates(" 51.5074 , -0.1278 ")
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 51.5074, Lng: -0.1278}, p)
	assert.Equal(t, "51.507400,-0.127800", p.String())

	for _, bad := range []string{"", "51.5", "a,b", "1,b", "91,0", "0,181", "NaN,0", "1,2,3"} {
		_, err := geo.ParseCoordinates(bad)
		assert.ErrorIs(t, err, svcErr.ErrValidation, bad)
	}
}

func TestHaversineReference(t *testing.T) {
	// (0,0) → (10,10) is about 1568.5 km on a 6371 km sphere
	d := geo.Haversine(geo.Point{}, geo.Point{Lat: 10, Lng: 10})
	assert.InEpsilon(t, 1568.52, d, 0.001)

	// London → Paris
	d = geo.Haversine(geo.Point{Lat: 51.5074, Lng: -0.1278}, geo.Point{Lat: 48.8566, Lng: 2.3522})
	assert.InEpsilon(t, 343.56, d, 0.001)

	assert.Equal(t, 0.0, geo.Haversine(geo.Point{Lat: 3, Lng: 4}, geo.Point{Lat: 3, Lng: 4}))

	// antipodes: half the circumference
	d = geo.Haversine(geo.Point{Lat: 0, Lng: 0}, geo.Point{Lat: 0, Lng: 180})
	assert.InEpsilon(t, math.Pi*geo.EarthRadiusKM, d, 0.001)
}

func TestHaversineAntipodalSweep(t *testing.T) {
	half := math.Pi * geo.EarthRadiusKM
	for lat := -89.0; lat <= 89.0; lat += 0.37 {
		for lng := -179.0; lng <= 0; lng += 0.5 {
			a := geo.Point{Lat: lat, Lng: lng}
			b := geo.Point{Lat: -lat, Lng: lng + 180}
			d := geo.Haversine(a, b)
			require.False(t, math.IsNaN(d), "%v -> %v", a, b)
			require.InDelta(t, half, d, 0.01, "%v -> %v", a, b)
		}
	}

	// an antipode is inside a radius just over half the circumference
	hits, err := geo.Nearby(geo.Point{Lat: -86.78, Lng: -179},
		20100, []geo.Candidate{{ID: 1, Coordinates: "86.78,1"}}, logger.Discard())
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestNearbyFiltersAndOrders(t *testing.T) {
	candidates := []geo.Candidate{
		{ID: 5, Coordinates: "10,10"},
		{ID: 3, Coordinates: "0.001,0"},
		{ID: 2, Coordinates: "0,0.001"},
		{ID: 1, Coordinates: "0.005,0"},
		{ID: 9, Coordinates: "garbage"},
	}

	hits, err := geo.Nearby(geo.Point{}, 1, candidates, logger.Discard())
	require.NoError(t, err)

	ids := make([]uint64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	// 2 and 3 are equidistant; ties order by id
	assert.Equal(t, []uint64{2, 3, 1}, ids)
	assert.InEpsilon(t, 0.1112, hits[0].DistanceKM, 0.001)
}

func TestNearbyValidation(t *testing.T) {
	_, err := geo.Nearby(geo.Point{}, -1, nil, nil)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = geo.Nearby(geo.Point{Lat: 100}, 1, nil, nil)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	hits, err := geo.Nearby(geo.Point{}, 0, []geo.Candidate{{ID: 1, Coordinates: "0,0"}, {ID: 2, Coordinates: "0,0.1"}}, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].ID)
}

type catalogStub struct {
	candidates []geo.Candidate
	err        error
}

func (c catalogStub) ListCandidates(context.Context) ([]geo.Candidate, error) {
	return c.candidates, c.err
}

func TestIndexNearbyLocations(t *testing.T) {
	idx := geo.NewIndex(catalogStub{candidates: []geo.Candidate{
		{ID: 1, Coordinates: "10,10"},
		{ID: 2, Coordinates: "0.002,0.002"},
	}}, logger.Discard())

	hits, err := idx.NearbyLocations(context.Background(), "0,0", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(2), hits[0].ID)

	_, err = idx.NearbyLocations(context.Background(), "0;0", 1)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	boom := errors.New("boom")
	_, err = geo.NewIndex(catalogStub{err: boom}, nil).NearbyLocations(context.Background(), "0,0", 1)
	assert.ErrorIs(t, err, boom)
}
