package patrimonial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FieldType is the type of an attribute field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldFloat
)

func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "str"
	case FieldFloat:
		return "float"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field describes one attribute column. Width and Precision size the
// dBase column of a shapefile.
type Field struct {
	Name      string
	Type      FieldType
	Width     uint8
	Precision uint8
}

// Schema is the fixed layout of every feature in a dataset.
type Schema struct {
	Geometry string // Geometry type name, always "Point" here
	Fields   []Field
}

// OccurrenceSchema returns the schema of the exported dataset.
func OccurrenceSchema() Schema {
	return Schema{
		Geometry: "Point",
		Fields: []Field{
			{Name: FieldSpecies, Type: FieldString, Width: 80},
			{Name: FieldColor, Type: FieldString, Width: 80},
			{Name: FieldLatitude, Type: FieldFloat, Width: 24, Precision: 15},
			{Name: FieldLongitude, Type: FieldFloat, Width: 24, Precision: 15},
		},
	}
}

// Validate checks that f carries a point geometry and a value of the right
// type for every field of the schema.
func (s Schema) Validate(f *geojson.Feature) error {
	if f == nil || f.Geometry == nil {
		return fmt.Errorf("%w: missing geometry", ErrSchemaMismatch)
	}
	if _, ok := f.Geometry.(orb.Point); !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
	}

	for _, field := range s.Fields {
		v, ok := f.Properties[field.Name]
		if !ok {
			return fmt.Errorf("%w: missing %q", ErrSchemaMismatch, field.Name)
		}
		switch field.Type {
		case FieldString:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("%w: %q is %T, want string", ErrSchemaMismatch, field.Name, v)
			}
		case FieldFloat:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("%w: %q is %T, want float64", ErrSchemaMismatch, field.Name, v)
			}
		}
	}

	return nil
}

// NewFeature builds the output feature of a record: the projected point as
// geometry and the original WGS84 coordinates as attributes.
func NewFeature(rec CompleteRecord, projected orb.Point) *geojson.Feature {
	f := geojson.NewFeature(projected)
	f.Properties = geojson.Properties{
		FieldSpecies:   rec.Species,
		FieldColor:     rec.Color,
		FieldLatitude:  rec.Latitude(),
		FieldLongitude: rec.Longitude(),
	}
	return f
}
