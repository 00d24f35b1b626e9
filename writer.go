package patrimonial

import (
	"fmt"
	"os"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
)

// FlatGeobufWriter writes point features to a single-file FlatGeobuf dataset.
// Features are buffered until Close, which writes the header, the optional
// spatial index and the features in one pass.
type FlatGeobufWriter struct {
	path         string
	schema       Schema
	crs          *CRS
	includeIndex bool
	features     []*geojson.Feature
	closed       bool
}

// CreateFlatGeobuf prepares a FlatGeobuf dataset at path. The file itself is
// created by Close.
func CreateFlatGeobuf(path string, schema Schema, crs *CRS) (*FlatGeobufWriter, error) {
	return &FlatGeobufWriter{
		path:         path,
		schema:       schema,
		crs:          crs,
		includeIndex: true,
	}, nil
}

// Write appends one feature.
func (w *FlatGeobufWriter) Write(f *geojson.Feature) error {
	if w.closed {
		return ErrDatasetClosed
	}
	if err := w.schema.Validate(f); err != nil {
		return err
	}
	w.features = append(w.features, f)
	return nil
}

// Close writes the dataset to disk.
func (w *FlatGeobufWriter) Close() error {
	if w.closed {
		return ErrDatasetClosed
	}
	w.closed = true

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create flatgeobuf: %w", err)
	}

	// The packed R-tree cannot be built over zero features.
	includeIndex := w.includeIndex && len(w.features) > 0

	if err := writeFlatGeobuf(file, w.features, w.schema, w.crs, includeIndex); err != nil {
		_ = file.Close()
		return fmt.Errorf("write flatgeobuf: %w", err)
	}
	return file.Close()
}

// writeFlatGeobuf encodes features with a column layout taken from schema.
func writeFlatGeobuf(file *os.File, features []*geojson.Feature, schema Schema, crs *CRS, includeIndex bool) error {
	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(flattypes.GeometryTypePoint)
	header.SetName(DatasetName)

	columns := schemaColumns(schema, builder)
	header.SetColumns(columns)

	if crs != nil {
		c := writer.NewCrs(builder)
		c.SetOrg("EPSG")
		c.SetCode(int32(crs.Code))
		if crs.Name != "" {
			c.SetName(crs.Name)
		}
		if crs.WKT != "" {
			c.SetDescription(crs.WKT)
		}
		header.SetCrs(c)
	}

	gen := &featureGenerator{
		features: features,
		schema:   schema,
	}

	fgbWriter := writer.NewWriter(header, includeIndex, gen, nil)
	if _, err := fgbWriter.Write(file); err != nil {
		return err
	}
	return gen.err
}

// featureGenerator feeds buffered features to the FlatGeobuf writer.
type featureGenerator struct {
	features []*geojson.Feature
	schema   Schema
	index    int
	err      error
}

func (g *featureGenerator) Generate() *writer.Feature {
	if g.err != nil || g.index >= len(g.features) {
		return nil
	}

	f := g.features[g.index]
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	fgbGeom := geometryToFGB(f.Geometry, builder)
	if fgbGeom == nil {
		g.err = fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
		return nil
	}

	props, err := encodeProperties(f.Properties, g.schema)
	if err != nil {
		g.err = err
		return nil
	}

	feature := writer.NewFeature(builder)
	feature.SetGeometry(fgbGeom)
	feature.SetProperties(props)

	return feature
}
