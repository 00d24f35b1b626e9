package patrimonial

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Encoding declared in the .cpg sidecar.
const shapefileEncoding = "UTF-8"

// ShapefileWriter writes point features to an ESRI Shapefile
// (.shp, .shx, .dbf) and its .prj and .cpg sidecars.
type ShapefileWriter struct {
	path   string // path of the .shp file
	schema Schema
	crs    *CRS
	shp    *shp.Writer
	count  int
}

// CreateShapefile creates the shapefile at path, which must end in ".shp".
func CreateShapefile(path string, schema Schema, crs *CRS) (*ShapefileWriter, error) {
	if !strings.HasSuffix(path, ".shp") {
		return nil, fmt.Errorf("shapefile path %q must end in .shp", path)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return nil, fmt.Errorf("create shapefile: %w", err)
	}

	fields := make([]shp.Field, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		switch f.Type {
		case FieldString:
			fields = append(fields, shp.StringField(f.Name, f.Width))
		case FieldFloat:
			fields = append(fields, shp.FloatField(f.Name, f.Width, f.Precision))
		}
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return nil, fmt.Errorf("set shapefile fields: %w", err)
	}

	return &ShapefileWriter{
		path:   path,
		schema: schema,
		crs:    crs,
		shp:    w,
	}, nil
}

// Write appends one feature. Features keep the order in which they are written.
func (w *ShapefileWriter) Write(f *geojson.Feature) error {
	if w.shp == nil {
		return ErrDatasetClosed
	}
	if err := w.schema.Validate(f); err != nil {
		return err
	}

	p := f.Geometry.(orb.Point)
	row := int(w.shp.Write(&shp.Point{X: p.X(), Y: p.Y()}))

	for i, field := range w.schema.Fields {
		value := f.Properties[field.Name]
		if field.Type == FieldString {
			value = truncateUTF8(value.(string), int(field.Width))
		}
		if err := w.shp.WriteAttribute(row, i, value); err != nil {
			return fmt.Errorf("write attribute %q of feature %d: %w", field.Name, row, err)
		}
	}

	w.count++
	return nil
}

// Count returns the number of features written so far.
func (w *ShapefileWriter) Count() int {
	return w.count
}

// Close finalizes the shapefile headers and writes the sidecars.
func (w *ShapefileWriter) Close() error {
	if w.shp == nil {
		return ErrDatasetClosed
	}
	w.shp.Close()
	w.shp = nil

	base := strings.TrimSuffix(w.path, ".shp")

	// go-shp names the table base+"dbf", without the dot.
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("rename attribute table: %w", err)
	}

	if w.crs != nil && w.crs.WKT != "" {
		if err := os.WriteFile(base+".prj", []byte(w.crs.WKT), 0o644); err != nil {
			return fmt.Errorf("write projection sidecar: %w", err)
		}
	}
	if err := os.WriteFile(base+".cpg", []byte(shapefileEncoding), 0o644); err != nil {
		return fmt.Errorf("write encoding sidecar: %w", err)
	}

	return nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// readShapefile reads every feature of the shapefile at path, typing
// attributes by the schema.
func readShapefile(path string, schema Schema) (*geojson.FeatureCollection, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	// Map schema fields to dBase column positions.
	columns := make(map[string]int)
	for i, f := range r.Fields() {
		columns[strings.ToLower(strings.TrimRight(f.String(), "\x00"))] = i
	}

	fc := geojson.NewFeatureCollection()
	for r.Next() {
		row, shape := r.Shape()
		p, ok := shape.(*shp.Point)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, shape)
		}

		f := geojson.NewFeature(orb.Point{p.X, p.Y})
		for _, field := range schema.Fields {
			col, ok := columns[field.Name]
			if !ok {
				return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, field.Name)
			}
			raw := strings.TrimSpace(strings.Trim(r.ReadAttribute(row, col), "\x00"))

			switch field.Type {
			case FieldString:
				f.Properties[field.Name] = raw
			case FieldFloat:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("parse %q of feature %d: %w", field.Name, row, err)
				}
				f.Properties[field.Name] = v
			}
		}
		fc.Append(f)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}

	return fc, nil
}
