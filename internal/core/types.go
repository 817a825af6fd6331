package core

import (
	"context"
	"math"
	"strings"
)

// Any is the scope value meaning "unconstrained".
const Any = "any"

// Field identifies one of the logical fields of a Record.
type Field int

const (
	FieldLatitude Field = iota
	FieldLongitude
	FieldCountry
	FieldState

	numFields
)

// Fields lists every logical field in declaration order.
var Fields = [numFields]Field{FieldLatitude, FieldLongitude, FieldCountry, FieldState}

// String returns the field name used in log output and error messages.
func (f Field) String() string {
	switch f {
	case FieldLatitude:
		return "latitude"
	case FieldLongitude:
		return "longitude"
	case FieldCountry:
		return "country"
	case FieldState:
		return "state"
	default:
		return "unknown"
	}
}

// Required reports whether a layout must map this field to a column.
// State is optional; records from layouts without a state column carry "".
func (f Field) Required() bool {
	return f != FieldState
}

// Record is the normalized, geo-tagged unit extracted from one CSV row.
// Latitude and Longitude are NaN when the source text was not a number.
type Record struct {
	Latitude  float64
	Longitude float64
	Country   string
	State     string
}

// Key is the identity of a Record. Two records with equal keys are the same
// entity regardless of where they were read from.
type Key struct {
	Country   string
	Latitude  uint64
	Longitude uint64
	State     string
}

// Key returns the identity key of r.
//
// Coordinates compare by exact value. NaN is canonicalized so that a NaN
// coordinate matches a stored NaN coordinate, and -0 is folded into +0.
func (r Record) Key() Key {
	return Key{
		Country:   r.Country,
		Latitude:  coordinateBits(r.Latitude),
		Longitude: coordinateBits(r.Longitude),
		State:     r.State,
	}
}

func coordinateBits(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return math.Float64bits(math.NaN())
	case f == 0:
		return 0
	}
	return math.Float64bits(f)
}

// Scope narrows extraction and synchronization to one country and/or state.
// An empty component or Any leaves that component unconstrained.
type Scope struct {
	Country string
	State   string
}

// AnyScope returns the unconstrained scope.
func AnyScope() Scope {
	return Scope{Country: Any, State: Any}
}

// NewScope builds a scope, treating empty and case-insensitive "any" values as
// unconstrained.
func NewScope(country, state string) Scope {
	return Scope{Country: normalizeScopeValue(country), State: normalizeScopeValue(state)}
}

func normalizeScopeValue(v string) string {
	if v == "" || strings.EqualFold(v, Any) {
		return Any
	}
	return v
}

// HasCountry reports whether the scope constrains the country.
func (s Scope) HasCountry() bool {
	return s.Country != "" && s.Country != Any
}

// HasState reports whether the scope constrains the state.
func (s Scope) HasState() bool {
	return s.State != "" && s.State != Any
}

// Contains reports whether r falls inside the scope.
func (s Scope) Contains(r Record) bool {
	if s.HasCountry() && r.Country != s.Country {
		return false
	}
	if s.HasState() && r.State != s.State {
		return false
	}
	return true
}

// Stats aggregates the counters of one ingestion run.
type Stats struct {
	FilesSeen    int // directory entries considered
	FilesSkipped int // entries that contributed nothing: not CSV, unrecognized header, or failed
	FilesFailed  int // subset of FilesSkipped that hit an I/O error
	RowsRead     int // data rows read from recognized files
	RowsMatched  int // rows that produced a record
	RowsRejected int // rows rejected by a filter, a length mismatch, or a parse error
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.FilesSeen += o.FilesSeen
	s.FilesSkipped += o.FilesSkipped
	s.FilesFailed += o.FilesFailed
	s.RowsRead += o.RowsRead
	s.RowsMatched += o.RowsMatched
	s.RowsRejected += o.RowsRejected
}

// Store is the persistence boundary used by synchronization. The core only
// reads scoped records and appends new ones; it never updates or deletes.
type Store interface {
	Find(ctx context.Context, scope Scope) ([]Record, error)
	InsertMany(ctx context.Context, records []Record) (int64, error)
}

// Mirror keeps the local copy of the dataset present and current.
type Mirror interface {
	// EnsureCloned makes sure the local copy exists. It is idempotent.
	EnsureCloned(ctx context.Context) error
	// Pull fetches remote updates and reports whether local content changed.
	Pull(ctx context.Context) (bool, error)
	// DataPath returns the directory holding the daily CSV files.
	DataPath() string
}
