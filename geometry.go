package patrimonial

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// geometryToFGB converts an orb.Geometry to a FlatGeobuf writer.Geometry.
// Only points are exported; anything else yields nil.
func geometryToFGB(geom orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	p, ok := geom.(orb.Point)
	if !ok {
		return nil
	}

	g := writer.NewGeometry(builder)
	g.SetType(flattypes.GeometryTypePoint)
	g.SetXY([]float64{p[0], p[1]})
	return g
}

// geometryFromFGB converts a FlatGeobuf point back to an orb.Point.
func geometryFromFGB(fgbGeom *flattypes.Geometry) orb.Geometry {
	if fgbGeom == nil || fgbGeom.XyLength() < 2 {
		return nil
	}
	return orb.Point{fgbGeom.Xy(0), fgbGeom.Xy(1)}
}

// boundOf returns the envelope of the features' point geometries.
func boundOf(points []orb.Point) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}
	b := points[0].Bound()
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}
