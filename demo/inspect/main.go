package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"github.com/rs/zerolog/log"

	patrimonial "github.com/tingold/patrimonial-export"
	"github.com/tingold/patrimonial-export/internal/logger"
)

// Options are the inspector flags.
type Options struct {
	Base64 bool `short:"b" long:"base64" description:"Input is the base64 response body instead of a zip file"`
	WGS84  bool `short:"w" long:"wgs84"  description:"Project geometries back to WGS84 before printing"`
	Indent bool `short:"i" long:"indent" description:"Indent the GeoJSON output"`

	Args struct {
		Input string `positional-arg-name:"FILE" description:"Archive to read, - or empty for stdin"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := logger.Setup("info", "console"); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	input := opts.Args.Input
	if input == "" {
		input = "-"
	}
	data, err := readInput(input)
	if err != nil {
		log.Fatal().Err(err).Str("input", input).Msg("Failed to read input")
	}

	out, ds, err := inspect(data, opts.Base64, opts.WGS84, opts.Indent)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to inspect archive")
	}

	log.Info().
		Str("format", string(ds.Format)).
		Strs("files", ds.Files).
		Int("features", len(ds.Features.Features)).
		Msg("Archive read")

	_, _ = os.Stdout.Write(out)
	fmt.Println()
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// inspect decodes an export archive and renders its features as GeoJSON.
func inspect(data []byte, isBase64, toWGS84, indent bool) ([]byte, *patrimonial.Dataset, error) {
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
		if err != nil {
			return nil, nil, fmt.Errorf("decode base64: %w", err)
		}
		data = decoded
	}

	ds, err := patrimonial.ReadArchive(data)
	if err != nil {
		return nil, nil, err
	}

	fc := ds.Features
	if toWGS84 {
		inverse := patrimonial.NewLambert93Transformer().Inverse
		projected := geojson.NewFeatureCollection()
		for _, f := range fc.Features {
			g := geojson.NewFeature(project.Geometry(f.Geometry, orb.Projection(inverse)))
			g.Properties = f.Properties
			projected.Append(g)
		}
		fc = projected
	}

	var out []byte
	if indent {
		out, err = json.MarshalIndent(fc, "", "  ")
	} else {
		out, err = fc.MarshalJSON()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("encode geojson: %w", err)
	}
	return out, ds, nil
}
