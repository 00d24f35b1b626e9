package main

import (
	"context"
	"encoding/base64"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"

	patrimonial "github.com/tingold/patrimonial-export"
)

func exportBody(t *testing.T, format string) string {
	t.Helper()

	lat, lon, species := 48.8566, 2.3522, "Quercus robur"
	lat2, lon2 := 43.2965, 5.3698
	e := patrimonial.NewExporter(&patrimonial.Options{ScratchDir: t.TempDir()})
	res, err := e.Export(context.Background(), &patrimonial.Request{
		Format: format,
		Occurrences: []patrimonial.Occurrence{
			{DecimalLatitude: &lat, DecimalLongitude: &lon, SpeciesName: &species},
			{DecimalLatitude: &lat2, DecimalLongitude: &lon2},
		},
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return res.Body
}

func TestInspect_Base64WGS84(t *testing.T) {
	body := exportBody(t, "shapefile")

	out, ds, err := inspect([]byte(body+"\n"), true, true, false)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if ds.Format != patrimonial.FormatShapefile {
		t.Errorf("expected shapefile, got %s", ds.Format)
	}

	fc, err := geojson.UnmarshalFeatureCollection(out)
	if err != nil {
		t.Fatalf("output is not GeoJSON: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}

	p := fc.Features[0].Point()
	if math.Abs(p.Lon()-2.3522) > 1e-9 || math.Abs(p.Lat()-48.8566) > 1e-9 {
		t.Errorf("expected WGS84 position, got %v", p)
	}
	if fc.Features[0].Properties["species"] != "Quercus robur" {
		t.Errorf("unexpected properties %v", fc.Features[0].Properties)
	}
}

func TestInspect_ZipIndented(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(exportBody(t, "flatgeobuf"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ds, err := inspect(raw, false, false, true)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if ds.Format != patrimonial.FormatFlatGeobuf {
		t.Errorf("expected flatgeobuf, got %s", ds.Format)
	}
	if !strings.Contains(string(out), "\n  ") {
		t.Error("expected indented output")
	}
	if ds.CRS == nil || ds.CRS.Code != 2154 {
		t.Errorf("expected EPSG:2154, got %+v", ds.CRS)
	}
}

func TestInspect_Invalid(t *testing.T) {
	if _, _, err := inspect([]byte("***"), true, false, false); err == nil {
		t.Error("expected base64 error")
	}
	if _, _, err := inspect([]byte("not a zip"), false, false, false); err == nil {
		t.Error("expected archive error")
	}
}
