package patrimonial

import (
	"fmt"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb/geojson"
)

// readFlatGeobuf decodes a FlatGeobuf dataset written by FlatGeobufWriter.
// Features come back in spatial index order, not in write order.
func readFlatGeobuf(data []byte) (*geojson.FeatureCollection, *CRS, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, nil, fmt.Errorf("open flatgeobuf: %w", err)
	}

	h := fgb.Header()
	if h == nil {
		return nil, nil, fmt.Errorf("%w: missing flatgeobuf header", ErrInvalidArchive)
	}

	var crs *CRS
	var c flattypes.Crs
	if h.Crs(&c) != nil {
		crs = &CRS{
			Code: int(c.Code()),
			Name: string(c.Name()),
			WKT:  string(c.Description()),
		}
	}

	fc := geojson.NewFeatureCollection()
	if h.FeaturesCount() == 0 {
		return fc, crs, nil
	}

	// Iteration needs the index and the header envelope.
	if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return nil, nil, fmt.Errorf("%w: flatgeobuf has no spatial index", ErrInvalidArchive)
	}

	features, err := fgb.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
	if err != nil {
		return nil, nil, fmt.Errorf("search flatgeobuf: %w", err)
	}

	for _, fgbFeature := range features {
		f, err := convertFeature(fgbFeature, h)
		if err != nil {
			return nil, nil, err
		}
		fc.Append(f)
	}

	return fc, crs, nil
}

// convertFeature converts a FlatGeobuf feature to a geojson.Feature.
func convertFeature(fgbFeature *flattypes.Feature, header *flattypes.Header) (*geojson.Feature, error) {
	var geomObj flattypes.Geometry
	geom := geometryFromFGB(fgbFeature.Geometry(&geomObj))
	if geom == nil {
		return nil, fmt.Errorf("%w: feature without point geometry", ErrInvalidArchive)
	}

	feature := geojson.NewFeature(geom)

	propsLen := fgbFeature.PropertiesLength()
	if propsLen > 0 {
		propsBytes := make([]byte, propsLen)
		for i := 0; i < propsLen; i++ {
			propsBytes[i] = byte(fgbFeature.Properties(i))
		}
		props, err := decodeProperties(propsBytes, header)
		if err != nil {
			return nil, err
		}
		feature.Properties = props
	}

	return feature, nil
}
