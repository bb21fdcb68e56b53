// Package geo parses "lat,lng" coordinates, measures great-circle distance
// and finds catalog locations within a radius of a point.
package geo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	svcErr "github.com/oggyb/campus-match/internal/errors"
)

// EarthRadiusKM is the mean Earth radius used by Haversine.
const EarthRadiusKM = 6371.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// String formats the point as "lat,lng".
func (p Point) String() string { return FormatCoordinates(p) }

// ParseCoordinates parses a "latitude,longitude" pair.
func ParseCoordinates(s string) (Point, error) {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return Point{}, svcErr.Validation("coordinates %q must be \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Point{}, svcErr.Validation("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Point{}, svcErr.Validation("invalid longitude %q", lngStr)
	}
	p := Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// FormatCoordinates is the inverse of ParseCoordinates.
func FormatCoordinates(p Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// Validate checks the point is finite and within WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return svcErr.Validation("coordinates must be finite")
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return svcErr.Validation("coordinates out of range")
	}
	return nil
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h just outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKM * c
}

// Candidate is anything with an id and stored coordinates.
type Candidate struct {
	ID          uint64
	Coordinates string
}

// Hit is a candidate inside the search radius.
type Hit struct {
	ID         uint64
	Point      Point
	DistanceKM float64
}

// Nearby returns candidates within radiusKM of origin, nearest first with
// ties broken by ascending id. Candidates whose stored coordinates do not
// parse are skipped and reported through log.
func Nearby(origin Point, radiusKM float64, candidates []Candidate, log *slog.Logger) ([]Hit, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKM) || radiusKM < 0 {
		return nil, svcErr.Validation("radius must be >= 0")
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		p, err := ParseCoordinates(c.Coordinates)
		if err != nil {
			if log != nil {
				log.Warn("skipping candidate with bad coordinates", "id", c.ID, "coordinates", c.Coordinates)
			}
			continue
		}
		if d := Haversine(origin, p); d <= radiusKM {
			hits = append(hits, Hit{ID: c.ID, Point: p, DistanceKM: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKM != hits[j].DistanceKM {
			return hits[i].DistanceKM < hits[j].DistanceKM
		}
		return hits[i].ID < hits[j].ID
	})
	return hits, nil
}

// Catalog supplies the candidate locations for NearbyLocations.
type Catalog interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
}

// Index answers proximity queries against a Catalog.
type Index struct {
	catalog Catalog
	log     *slog.Logger
}

// NewIndex creates an Index over catalog.
func NewIndex(catalog Catalog, log *slog.Logger) *Index {
	return &Index{catalog: catalog, log: log}
}

// NearbyLocations parses origin ("lat,lng") and returns catalog entries
// within radiusKM of it.
func (i *Index) NearbyLocations(ctx context.Context, origin string, radiusKM float64) ([]Hit, error) {
	p, err := ParseCoordinates(origin)
	if err != nil {
		return nil, err
	}
	candidates, err := i.catalog.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return Nearby(p, radiusKM, candidates, i.log)
}
