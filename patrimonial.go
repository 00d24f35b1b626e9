// Package patrimonial exports species occurrence records as a zipped vector dataset
// reprojected from WGS84 (EPSG:4326) to Lambert-93 (EPSG:2154).
// The default dataset is an ESRI Shapefile; FlatGeobuf is available as an alternative format.
package patrimonial

import (
	"errors"
	"fmt"
)

// Common errors returned by this package.
var (
	ErrInvalidCoordinate   = errors.New("patrimonial: invalid coordinate")
	ErrUnsupportedFormat   = errors.New("patrimonial: unsupported export format")
	ErrInvalidArchive      = errors.New("patrimonial: invalid archive")
	ErrNoDataset           = errors.New("patrimonial: archive contains no dataset")
	ErrSchemaMismatch      = errors.New("patrimonial: feature does not match schema")
	ErrDatasetClosed       = errors.New("patrimonial: dataset already closed")
	ErrUnsupportedGeometry = errors.New("patrimonial: unsupported geometry type")
)

// ErrNoOccurrences is returned for a request without occurrences.
// Its text is sent to the client verbatim.
var ErrNoOccurrences = errors.New("No occurrences data provided.") //nolint:staticcheck

const (
	// DatasetName is the base name shared by every file of the exported dataset.
	DatasetName = "patrimonial_species"
	// ArchiveName is the download filename suggested to clients.
	ArchiveName = DatasetName + ".zip"
	// DefaultValue replaces an absent species name or color.
	DefaultValue = "N/A"
)

// Attribute field names of the exported dataset.
const (
	FieldSpecies   = "species"
	FieldColor     = "color"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
)

// CRS represents a coordinate reference system.
type CRS struct {
	Code int    // EPSG code (e.g., 4326 for WGS84)
	Name string // CRS name
	WKT  string // ESRI flavoured Well-Known Text, written to the .prj sidecar
}

// String returns the "EPSG:<code>" form of the CRS.
func (c *CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// WGS84 returns the geographic source CRS (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
		WKT: `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],` +
			`PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`,
	}
}

// Lambert93 returns the projected target CRS (EPSG:2154, RGF93 / Lambert-93).
func Lambert93() *CRS {
	return &CRS{
		Code: 2154,
		Name: "RGF93 v1 / Lambert-93",
		WKT: `PROJCS["RGF93_Lambert_93",GEOGCS["GCS_RGF_1993",DATUM["D_RGF_1993",` +
			`SPHEROID["GRS_1980",6378137.0,298.257222101]],PRIMEM["Greenwich",0.0],` +
			`UNIT["Degree",0.0174532925199433]],PROJECTION["Lambert_Conformal_Conic"],` +
			`PARAMETER["False_Easting",700000.0],PARAMETER["False_Northing",6600000.0],` +
			`PARAMETER["Central_Meridian",3.0],PARAMETER["Standard_Parallel_1",49.0],` +
			`PARAMETER["Standard_Parallel_2",44.0],PARAMETER["Latitude_Of_Origin",46.5],` +
			`UNIT["Meter",1.0]]`,
	}
}

// Format selects the on-disk vector format of the exported dataset.
type Format string

const (
	FormatShapefile  Format = "shapefile"
	FormatFlatGeobuf Format = "flatgeobuf"
)

// ParseFormat resolves a requested format name. An empty name yields def.
func ParseFormat(name string, def Format) (Format, error) {
	switch Format(name) {
	case "":
		return def, nil
	case FormatShapefile, FormatFlatGeobuf:
		return Format(name), nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, name)
	}
}

// Options configures an export.
type Options struct {
	ScratchDir    string // Parent of the per-invocation scratch directory (default: os.TempDir())
	DefaultFormat Format // Format used when the request names none
}

// DefaultOptions returns default options for exporting occurrences.
func DefaultOptions() *Options {
	return &Options{
		DefaultFormat: FormatShapefile,
	}
}
