package patrimonial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
)

// schemaColumns declares one FlatGeobuf column per schema field, in order.
func schemaColumns(schema Schema, builder *flatbuffers.Builder) []*writer.Column {
	columns := make([]*writer.Column, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		col := writer.NewColumn(builder)
		col.SetName(f.Name)
		col.SetTitle(f.Name) // Set title to match name for JS library compatibility
		col.SetType(columnType(f.Type))
		col.SetNullable(false)
		columns = append(columns, col)
	}
	return columns
}

// columnType maps a schema field type to its FlatGeobuf column type.
func columnType(t FieldType) flattypes.ColumnType {
	switch t {
	case FieldFloat:
		return flattypes.ColumnTypeDouble
	default:
		return flattypes.ColumnTypeString
	}
}

// encodeProperties encodes feature properties in schema order.
// The format is: [2-byte column index][value bytes]... repeated for each field.
// Strings are prefixed with their uint32 byte length, doubles are 8 bytes.
func encodeProperties(props geojson.Properties, schema Schema) ([]byte, error) {
	var buf bytes.Buffer

	for i, field := range schema.Fields {
		value, ok := props[field.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrSchemaMismatch, field.Name)
		}

		_ = binary.Write(&buf, binary.LittleEndian, uint16(i))

		switch field.Type {
		case FieldString:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q is %T", ErrSchemaMismatch, field.Name, value)
			}
			_ = binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
			buf.WriteString(s)

		case FieldFloat:
			v, ok := value.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: %q is %T", ErrSchemaMismatch, field.Name, value)
			}
			_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
		}
	}

	return buf.Bytes(), nil
}

// decodeProperties decodes FlatGeobuf binary properties to geojson.Properties.
func decodeProperties(data []byte, header *flattypes.Header) (geojson.Properties, error) {
	props := make(geojson.Properties)
	offset := 0

	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated column index", ErrInvalidArchive)
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return nil, fmt.Errorf("%w: unknown column %d", ErrInvalidArchive, colIndex)
		}

		value, n, err := readPropertyValue(data[offset:], col.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", string(col.Name()), err)
		}
		offset += n

		props[string(col.Name())] = value
	}

	return props, nil
}

// readPropertyValue reads one value and returns it with the number of bytes consumed.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (interface{}, int, error) {
	switch colType {
	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0, fmt.Errorf("%w: truncated double", ErrInvalidArchive)
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data[:8])), 8, nil

	case flattypes.ColumnTypeString:
		if len(data) < 4 {
			return nil, 0, fmt.Errorf("%w: truncated string length", ErrInvalidArchive)
		}
		length := int(binary.LittleEndian.Uint32(data[:4]))
		if len(data) < 4+length {
			return nil, 0, fmt.Errorf("%w: truncated string", ErrInvalidArchive)
		}
		return string(data[4 : 4+length]), 4 + length, nil

	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidArchive, flattypes.EnumNamesColumnType[colType])
	}
}
