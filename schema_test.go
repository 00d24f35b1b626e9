package patrimonial

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func validFeature() *geojson.Feature {
	f := geojson.NewFeature(orb.Point{652469, 6862035})
	f.Properties = geojson.Properties{
		FieldSpecies:   "Quercus robur",
		FieldColor:     "green",
		FieldLatitude:  48.8566,
		FieldLongitude: 2.3522,
	}
	return f
}

func TestOccurrenceSchema(t *testing.T) {
	schema := OccurrenceSchema()

	if schema.Geometry != "Point" {
		t.Errorf("expected Point geometry, got %q", schema.Geometry)
	}

	expected := []struct {
		name string
		typ  FieldType
	}{
		{"species", FieldString},
		{"color", FieldString},
		{"latitude", FieldFloat},
		{"longitude", FieldFloat},
	}
	if len(schema.Fields) != len(expected) {
		t.Fatalf("expected %d fields, got %d", len(expected), len(schema.Fields))
	}
	for i, want := range expected {
		got := schema.Fields[i]
		if got.Name != want.name || got.Type != want.typ {
			t.Errorf("field %d: expected %s:%s, got %s:%s", i, want.name, want.typ, got.Name, got.Type)
		}
		if len(got.Name) > 10 {
			t.Errorf("field %q does not fit a dBase column name", got.Name)
		}
	}
}

func TestSchema_Validate(t *testing.T) {
	schema := OccurrenceSchema()

	if err := schema.Validate(validFeature()); err != nil {
		t.Fatalf("expected valid feature, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(f *geojson.Feature)
		want   error
	}{
		{"nil geometry", func(f *geojson.Feature) { f.Geometry = nil }, ErrSchemaMismatch},
		{"line geometry", func(f *geojson.Feature) { f.Geometry = orb.LineString{{0, 0}, {1, 1}} }, ErrUnsupportedGeometry},
		{"missing species", func(f *geojson.Feature) { delete(f.Properties, FieldSpecies) }, ErrSchemaMismatch},
		{"numeric color", func(f *geojson.Feature) { f.Properties[FieldColor] = 3 }, ErrSchemaMismatch},
		{"string latitude", func(f *geojson.Feature) { f.Properties[FieldLatitude] = "48.8" }, ErrSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeature()
			tt.mutate(f)
			if err := schema.Validate(f); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewFeature(t *testing.T) {
	rec := CompleteRecord{Species: "Abies alba", Color: "red", Point: orb.Point{6.1, 45.2}}
	f := NewFeature(rec, orb.Point{950000, 6460000})

	if p, ok := f.Geometry.(orb.Point); !ok || p != (orb.Point{950000, 6460000}) {
		t.Errorf("expected projected geometry, got %v", f.Geometry)
	}
	if f.Properties[FieldLatitude] != 45.2 || f.Properties[FieldLongitude] != 6.1 {
		t.Errorf("expected original coordinates as attributes, got %v", f.Properties)
	}
	if f.Properties[FieldSpecies] != "Abies alba" || f.Properties[FieldColor] != "red" {
		t.Errorf("unexpected string attributes: %v", f.Properties)
	}
	if err := OccurrenceSchema().Validate(f); err != nil {
		t.Errorf("feature does not satisfy the schema: %v", err)
	}
}
