package patrimonial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"
)

// Transformer converts between WGS84 {lon, lat} degrees and Lambert-93
// {easting, northing} metres. Axis order is always x first.
//
// RGF93 and WGS84 are treated as coincident, which is the null datum shift
// applied between EPSG:4326 and EPSG:2154, so only the conic projection on
// the GRS80 ellipsoid is evaluated.
type Transformer struct {
	Source *CRS
	Target *CRS

	projected wgs84.ProjectedReferenceSystem
}

// NewLambert93Transformer returns the EPSG:4326 -> EPSG:2154 transformer.
func NewLambert93Transformer() *Transformer {
	target := Lambert93()

	projected, ok := wgs84.EPSG().Code(target.Code).(wgs84.ProjectedReferenceSystem)
	if !ok {
		// Fallback for a registry without EPSG:2154.
		projected = wgs84.RGF93FranceLambert()
	}

	return &Transformer{
		Source:    WGS84(),
		Target:    target,
		projected: projected,
	}
}

// Transform projects a WGS84 point, rejecting coordinates outside the
// geographic domain.
func (t *Transformer) Transform(p orb.Point) (orb.Point, error) {
	lon, lat := p.Lon(), p.Lat()
	if !isFinite(lon) || !isFinite(lat) || lon < -180 || lon > 180 || lat <= -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("%w: (%v, %v) outside %s", ErrInvalidCoordinate, lon, lat, t.Source)
	}

	out := project.Point(p, t.Forward)
	if !isFinite(out[0]) || !isFinite(out[1]) {
		return orb.Point{}, fmt.Errorf("%w: (%v, %v) has no image in %s", ErrInvalidCoordinate, lon, lat, t.Target)
	}
	return out, nil
}

// Forward is the orb.Projection from {lon, lat} degrees to {easting, northing}.
func (t *Transformer) Forward(p orb.Point) orb.Point {
	east, north := t.projected.Projection.FromLonLat(p.Lon(), p.Lat(), t.projected.Datum)
	return orb.Point{east, north}
}

// Inverse is the orb.Projection from {easting, northing} back to {lon, lat} degrees.
func (t *Transformer) Inverse(p orb.Point) orb.Point {
	lon, lat := t.projected.Projection.ToLonLat(p[0], p[1], t.projected.Datum)
	return orb.Point{lon, lat}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
