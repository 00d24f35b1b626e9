package patrimonial

import (
	"fmt"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
)

// DatasetWriter writes fixed-schema point features to a dataset on disk.
// Close must be called before the files are read back.
type DatasetWriter interface {
	Write(f *geojson.Feature) error
	Close() error
}

// CreateDataset opens a new dataset named DatasetName inside dir.
func CreateDataset(dir string, format Format, schema Schema, crs *CRS) (DatasetWriter, error) {
	switch format {
	case FormatShapefile:
		return CreateShapefile(filepath.Join(dir, DatasetName+".shp"), schema, crs)
	case FormatFlatGeobuf:
		return CreateFlatGeobuf(filepath.Join(dir, DatasetName+".fgb"), schema, crs)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}
