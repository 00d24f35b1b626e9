package patrimonial

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// ErrorKind tells the caller how an export failed.
type ErrorKind int

const (
	// KindValidation means the request itself is unusable; nothing was written.
	KindValidation ErrorKind = iota + 1
	// KindProcessing covers decoding, projection, dataset and archive failures.
	KindProcessing
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindProcessing:
		return "processing"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error returned by Exporter.
type Error struct {
	Kind ErrorKind
	Op   string // pipeline stage
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}

func validationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func processingError(op string, err error) *Error {
	return &Error{Kind: KindProcessing, Op: op, Err: err}
}

// Result is a successful export.
type Result struct {
	Format      Format
	Body        string    // base64 of the zip archive
	ArchiveSize int       // zip size in bytes
	Files       []string  // archive entries
	Written     int       // features written
	Skipped     int       // occurrences missing a coordinate
	Bound       orb.Bound // extent of the projected features
}

// Exporter runs the occurrence export pipeline. It holds no per-request
// state and may be reused across invocations.
type Exporter struct {
	opts        *Options
	schema      Schema
	transformer *Transformer
}

// NewExporter returns an exporter. A nil opts means DefaultOptions().
func NewExporter(opts *Options) *Exporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = FormatShapefile
	}
	return &Exporter{
		opts:        opts,
		schema:      OccurrenceSchema(),
		transformer: NewLambert93Transformer(),
	}
}

// ExportBody decodes a JSON request body and exports it.
func (e *Exporter) ExportBody(ctx context.Context, body []byte) (*Result, error) {
	req, err := ParseRequest(body)
	if err != nil {
		return nil, processingError("decode", err)
	}
	return e.Export(ctx, req)
}

// Export writes the complete occurrences of req to a dataset projected to
// Lambert-93, zips it and returns the base64 archive.
func (e *Exporter) Export(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || len(req.Occurrences) == 0 {
		return nil, validationError("validate", ErrNoOccurrences)
	}

	format, err := ParseFormat(req.Format, e.opts.DefaultFormat)
	if err != nil {
		return nil, validationError("validate", err)
	}

	complete, incomplete := NormalizeAll(req.Occurrences)
	for _, rec := range incomplete {
		log.Debug().
			Int("index", rec.Index).
			Strs("missing", rec.Missing).
			Msg("Occurrence skipped")
	}

	res := &Result{
		Format:  format,
		Skipped: len(incomplete),
	}

	err = WithScratchDir(e.opts.ScratchDir, func(dir string) error {
		points, err := e.writeDataset(ctx, dir, format, complete)
		if err != nil {
			return err
		}
		res.Written = len(points)
		res.Bound = boundOf(points)

		if err := ctx.Err(); err != nil {
			return processingError("archive", err)
		}

		buf, files, err := ZipDir(dir)
		if err != nil {
			return processingError("archive", err)
		}
		res.Files = files
		res.ArchiveSize = buf.Len()

		res.Body, err = EncodeArchive(buf)
		if err != nil {
			return processingError("encode", err)
		}
		return nil
	})
	if err != nil {
		var exportErr *Error
		if errors.As(err, &exportErr) {
			return nil, exportErr
		}
		return nil, processingError("scratch", err)
	}

	return res, nil
}

// writeDataset projects and writes every record, then closes the dataset.
// It returns the projected points in write order.
func (e *Exporter) writeDataset(ctx context.Context, dir string, format Format, records []CompleteRecord) ([]orb.Point, error) {
	ds, err := CreateDataset(dir, format, e.schema, e.transformer.Target)
	if err != nil {
		return nil, processingError("create", err)
	}

	points := make([]orb.Point, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			_ = ds.Close()
			return nil, processingError("write", err)
		}

		projected, err := e.transformer.Transform(rec.Point)
		if err != nil {
			_ = ds.Close()
			return nil, processingError("transform", fmt.Errorf("occurrence %d: %w", rec.Index, err))
		}

		if err := ds.Write(NewFeature(rec, projected)); err != nil {
			_ = ds.Close()
			return nil, processingError("write", fmt.Errorf("occurrence %d: %w", rec.Index, err))
		}
		points = append(points, projected)
	}

	if err := ds.Close(); err != nil {
		return nil, processingError("close", err)
	}
	return points, nil
}
