package patrimonial

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/paulmach/orb/geojson"
)

// ZipDir compresses every regular file directly inside dir into an
// in-memory zip archive. Entries are named by base name and deflated.
// It returns the archive and the entry names in archive order.
func ZipDir(dir string) (*bytes.Buffer, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("list scratch directory: %w", err)
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := addFile(zw, filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
			_ = zw.Close()
			return nil, nil, err
		}
		names = append(names, entry.Name())
	}

	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf, names, nil
}

func addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}
	return nil
}

// EncodeArchive returns the base64 text of the whole archive.
func EncodeArchive(r io.Reader) (string, error) {
	var out bytes.Buffer
	enc := base64.NewEncoder(base64.StdEncoding, &out)
	if _, err := io.Copy(enc, r); err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	return out.String(), nil
}

// Dataset is the content of an exported archive, read back.
type Dataset struct {
	Format   Format
	Files    []string // archive entry names
	CRS      *CRS
	Features *geojson.FeatureCollection
}

// ReadArchive decodes an archive produced by Export.
func ReadArchive(data []byte) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	dir, err := os.MkdirTemp("", "patrimonial-read-")
	if err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}
	defer os.RemoveAll(dir)

	ds := &Dataset{}
	var shpPath, fgbPath string

	for _, zf := range zr.File {
		name := path.Base(zf.Name)
		if name != zf.Name || name == "." || name == "/" {
			return nil, fmt.Errorf("%w: unexpected entry %q", ErrInvalidArchive, zf.Name)
		}
		ds.Files = append(ds.Files, name)

		dst := filepath.Join(dir, name)
		if err := extractFile(zf, dst); err != nil {
			return nil, err
		}

		switch filepath.Ext(name) {
		case ".shp":
			shpPath = dst
		case ".fgb":
			fgbPath = dst
		}
	}

	schema := OccurrenceSchema()

	switch {
	case shpPath != "":
		ds.Format = FormatShapefile
		ds.Features, err = readShapefile(shpPath, schema)
		if err != nil {
			return nil, err
		}
		prj, err := os.ReadFile(shpPath[:len(shpPath)-len(".shp")] + ".prj")
		if err == nil {
			ds.CRS = crsFromWKT(string(prj))
		}

	case fgbPath != "":
		ds.Format = FormatFlatGeobuf
		raw, err := os.ReadFile(fgbPath)
		if err != nil {
			return nil, fmt.Errorf("read flatgeobuf: %w", err)
		}
		ds.Features, ds.CRS, err = readFlatGeobuf(raw)
		if err != nil {
			return nil, err
		}

	default:
		return nil, ErrNoDataset
	}

	return ds, nil
}

func extractFile(zf *zip.File, dst string) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrInvalidArchive, zf.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	return out.Close()
}

// crsFromWKT recognizes the projections this package writes.
func crsFromWKT(wkt string) *CRS {
	for _, c := range []*CRS{Lambert93(), WGS84()} {
		if c.WKT == wkt {
			return c
		}
	}
	return &CRS{WKT: wkt}
}
