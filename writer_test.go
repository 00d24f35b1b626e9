package patrimonial

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func writeFlatGeobufFile(t *testing.T, features []*geojson.Feature) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DatasetName+".fgb")
	w, err := CreateFlatGeobuf(path, OccurrenceSchema(), Lambert93())
	if err != nil {
		t.Fatalf("CreateFlatGeobuf failed: %v", err)
	}
	for _, f := range features {
		if err := w.Write(f); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestFlatGeobuf_MagicBytes(t *testing.T) {
	path := writeFlatGeobufFile(t, []*geojson.Feature{validFeature(), validFeature()})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 8 {
		t.Fatal("output too short")
	}

	expectedMagic := []byte{0x66, 0x67, 0x62, 0x03, 0x66, 0x67, 0x62, 0x00}
	for i, b := range expectedMagic {
		if data[i] != b {
			t.Errorf("magic byte %d: expected 0x%02x, got 0x%02x", i, b, data[i])
		}
	}
}

func TestFlatGeobuf_RoundTrip(t *testing.T) {
	var features []*geojson.Feature
	for i := 0; i < 10; i++ {
		rec := CompleteRecord{
			Species: "species",
			Color:   "color",
			Point:   orb.Point{float64(i), 40 + float64(i)},
		}
		features = append(features, NewFeature(rec, orb.Point{500000 + float64(i)*10, 6200000 + float64(i)*20}))
	}
	features[4].Properties[FieldSpecies] = "Quercus robur"

	path := writeFlatGeobufFile(t, features)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	fc, crs, err := readFlatGeobuf(data)
	if err != nil {
		t.Fatalf("readFlatGeobuf failed: %v", err)
	}

	if crs == nil || crs.Code != 2154 {
		t.Errorf("expected EPSG:2154 header, got %+v", crs)
	}
	if len(fc.Features) != len(features) {
		t.Fatalf("expected %d features, got %d", len(features), len(fc.Features))
	}

	// Index order differs from write order, compare by longitude.
	sort.Slice(fc.Features, func(i, j int) bool {
		return fc.Features[i].Properties[FieldLongitude].(float64) < fc.Features[j].Properties[FieldLongitude].(float64)
	})

	for i, got := range fc.Features {
		want := features[i]
		if got.Geometry.(orb.Point) != want.Geometry.(orb.Point) {
			t.Errorf("feature %d: expected geometry %v, got %v", i, want.Geometry, got.Geometry)
		}
		for _, name := range []string{FieldSpecies, FieldColor, FieldLatitude, FieldLongitude} {
			if got.Properties[name] != want.Properties[name] {
				t.Errorf("feature %d: expected %s=%v, got %v", i, name, want.Properties[name], got.Properties[name])
			}
		}
	}
}

func TestFlatGeobuf_Empty(t *testing.T) {
	path := writeFlatGeobufFile(t, nil)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	fc, _, err := readFlatGeobuf(data)
	if err != nil {
		t.Fatalf("readFlatGeobuf failed: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Errorf("expected no features, got %d", len(fc.Features))
	}
}

func TestFlatGeobuf_WriteInvalid(t *testing.T) {
	w, err := CreateFlatGeobuf(filepath.Join(t.TempDir(), "x.fgb"), OccurrenceSchema(), nil)
	if err != nil {
		t.Fatalf("CreateFlatGeobuf failed: %v", err)
	}

	f := validFeature()
	f.Geometry = orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
	if err := w.Write(f); !errors.Is(err, ErrUnsupportedGeometry) {
		t.Errorf("expected ErrUnsupportedGeometry, got %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Write(validFeature()); !errors.Is(err, ErrDatasetClosed) {
		t.Errorf("expected ErrDatasetClosed, got %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrDatasetClosed) {
		t.Errorf("expected ErrDatasetClosed on second close, got %v", err)
	}
}

func TestCreateDataset(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format  Format
		file    string
		wantErr bool
	}{
		{FormatShapefile, DatasetName + ".shp", false},
		{FormatFlatGeobuf, DatasetName + ".fgb", false},
		{"gpkg", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			ds, err := CreateDataset(dir, tt.format, OccurrenceSchema(), Lambert93())
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateDataset failed: %v", err)
			}
			second := validFeature()
			second.Geometry = orb.Point{700000, 6600000}
			for _, f := range []*geojson.Feature{validFeature(), second} {
				if err := ds.Write(f); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
			}
			if err := ds.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, tt.file)); err != nil {
				t.Errorf("expected %s: %v", tt.file, err)
			}
		})
	}
}
