package patrimonial

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Request is the JSON payload accepted by the export function.
type Request struct {
	Occurrences []Occurrence `json:"occurrences"`
	Format      string       `json:"format,omitempty"`
}

// Occurrence is one species observation as sent by the client.
// Absent or null fields decode to nil.
type Occurrence struct {
	DecimalLatitude  *float64 `json:"decimalLatitude"`
	DecimalLongitude *float64 `json:"decimalLongitude"`
	SpeciesName      *string  `json:"speciesName"`
	Color            *string  `json:"color"`
}

// ParseRequest decodes a request body.
func ParseRequest(body []byte) (*Request, error) {
	var req *Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if req == nil {
		return nil, errors.New("decode request: body is null")
	}
	return req, nil
}

// Record is the normalized form of an Occurrence: either a CompleteRecord
// or an IncompleteRecord.
type Record interface {
	// Position returns the index of the occurrence in the request.
	Position() int
	record()
}

// CompleteRecord has both coordinates and is written to the dataset.
type CompleteRecord struct {
	Index   int
	Species string
	Color   string
	Point   orb.Point // WGS84 {longitude, latitude}
}

// IncompleteRecord lacks at least one coordinate and is dropped.
type IncompleteRecord struct {
	Index   int
	Missing []string // JSON names of the missing coordinate fields
}

func (r CompleteRecord) Position() int   { return r.Index }
func (r IncompleteRecord) Position() int { return r.Index }

func (CompleteRecord) record()   {}
func (IncompleteRecord) record() {}

// Longitude returns the original WGS84 longitude.
func (r CompleteRecord) Longitude() float64 { return r.Point.Lon() }

// Latitude returns the original WGS84 latitude.
func (r CompleteRecord) Latitude() float64 { return r.Point.Lat() }

// Normalize classifies an occurrence and applies the string defaults.
func Normalize(index int, occ Occurrence) Record {
	var missing []string
	if occ.DecimalLatitude == nil {
		missing = append(missing, "decimalLatitude")
	}
	if occ.DecimalLongitude == nil {
		missing = append(missing, "decimalLongitude")
	}
	if len(missing) > 0 {
		return IncompleteRecord{Index: index, Missing: missing}
	}

	return CompleteRecord{
		Index:   index,
		Species: stringOrDefault(occ.SpeciesName),
		Color:   stringOrDefault(occ.Color),
		Point:   orb.Point{*occ.DecimalLongitude, *occ.DecimalLatitude},
	}
}

// NormalizeAll splits occurrences into complete records, in input order,
// and the incomplete ones.
func NormalizeAll(occs []Occurrence) ([]CompleteRecord, []IncompleteRecord) {
	complete := make([]CompleteRecord, 0, len(occs))
	var incomplete []IncompleteRecord

	for i, occ := range occs {
		switch r := Normalize(i, occ).(type) {
		case CompleteRecord:
			complete = append(complete, r)
		case IncompleteRecord:
			incomplete = append(incomplete, r)
		}
	}

	return complete, incomplete
}

func stringOrDefault(s *string) string {
	if s == nil {
		return DefaultValue
	}
	return *s
}
