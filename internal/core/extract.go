package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrRowLength marks a row whose column count differs from its header.
	ErrRowLength = errors.New("row length does not match header")

	// ErrFiltered marks a row rejected by a field filter.
	ErrFiltered = errors.New("row rejected by filter")
)

// Extract converts row into a Record. It returns ErrRowLength for ragged rows
// and ErrFiltered as soon as any filter fails; no partial record is built.
// Coordinates that do not parse become NaN rather than rejecting the row.
func (b *Binding) Extract(row []string) (Record, error) {
	if len(row) != len(b.header) {
		return Record{}, ErrRowLength
	}

	for _, ff := range b.filters {
		if !ff.filter(b.cell(row, ff.field)) {
			return Record{}, ErrFiltered
		}
	}

	return Record{
		Latitude:  ParseCoordinate(b.cell(row, FieldLatitude)),
		Longitude: ParseCoordinate(b.cell(row, FieldLongitude)),
		Country:   b.cell(row, FieldCountry),
		State:     b.cell(row, FieldState),
	}, nil
}

// cell returns the raw value of field, or "" when the field is unmapped.
func (b *Binding) cell(row []string, f Field) string {
	idx := b.index[f]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ParseCoordinate parses a decimal coordinate. Surrounding whitespace is
// ignored; empty or malformed text yields NaN.
func ParseCoordinate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
