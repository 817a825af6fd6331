package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotRecognized is returned by Resolve when no binding matches a header.
	ErrNotRecognized = errors.New("header not recognized")

	// ErrUnmappedField is returned when a layout leaves a required field
	// without a column, or names a column missing from its header.
	ErrUnmappedField = errors.New("field not mapped to a column")
)

// Filter decides whether a raw cell value is acceptable.
type Filter func(value string) bool

// Layout declares one known CSV header and which columns feed each logical
// field. Layouts are static; bindings are built from them per scope.
type Layout struct {
	Name    string
	Header  []string
	Columns map[Field]string
}

type fieldFilter struct {
	field  Field
	filter Filter
}

// Binding is a Layout resolved to column indexes, with the filters that rows
// must pass. A Binding is read-only once built and safe for concurrent use.
type Binding struct {
	name    string
	header  []string
	index   [numFields]int
	filters []fieldFilter
}

// NewBinding resolves layout's column names to indexes. Every required field
// must map to a column present in the header.
func NewBinding(layout Layout) (*Binding, error) {
	b := &Binding{
		name:   layout.Name,
		header: append([]string(nil), layout.Header...),
	}

	for _, f := range Fields {
		b.index[f] = -1

		column, ok := layout.Columns[f]
		if !ok {
			if f.Required() {
				return nil, fmt.Errorf("layout %q: %s: %w", layout.Name, f, ErrUnmappedField)
			}
			continue
		}

		idx := indexOf(b.header, column)
		if idx < 0 {
			return nil, fmt.Errorf("layout %q: %s: column %q not in header: %w", layout.Name, f, column, ErrUnmappedField)
		}
		b.index[f] = idx
	}

	return b, nil
}

// AddFilter attaches a filter to field. Filters run in the order they were
// added; the first one to fail rejects the row.
func (b *Binding) AddFilter(field Field, filter Filter) *Binding {
	b.filters = append(b.filters, fieldFilter{field: field, filter: filter})
	return b
}

// Name returns the layout name the binding was built from.
func (b *Binding) Name() string { return b.name }

// Columns returns the number of columns a row must have.
func (b *Binding) Columns() int { return len(b.header) }

// Matches reports whether header is exactly this binding's header, ignoring
// non-ASCII bytes in the input.
func (b *Binding) Matches(header []string) bool {
	if len(header) != len(b.header) {
		return false
	}
	for i, h := range header {
		if stripNonASCII(h) != b.header[i] {
			return false
		}
	}
	return true
}

// scopeFilters returns the filters a scope imposes, keyed by field, in the
// order country then state. Unconstrained components produce no filter.
func scopeFilters(scope Scope) []fieldFilter {
	var out []fieldFilter
	if scope.HasCountry() {
		country := scope.Country
		out = append(out, fieldFilter{FieldCountry, func(v string) bool { return v == country }})
	}
	if scope.HasState() {
		state := scope.State
		out = append(out, fieldFilter{FieldState, func(v string) bool { return v == state }})
	}
	return out
}

// Registry is an ordered set of bindings. Resolution is first-match-wins.
type Registry struct {
	bindings []*Binding
}

// NewRegistry builds one binding per layout, in order, each carrying the
// filters derived from scope.
func NewRegistry(scope Scope, layouts ...Layout) (*Registry, error) {
	r := &Registry{bindings: make([]*Binding, 0, len(layouts))}
	filters := scopeFilters(scope)

	for _, layout := range layouts {
		b, err := NewBinding(layout)
		if err != nil {
			return nil, err
		}
		for _, ff := range filters {
			b.AddFilter(ff.field, ff.filter)
		}
		r.bindings = append(r.bindings, b)
	}

	return r, nil
}

// Register appends a prebuilt binding. Later bindings have lower priority.
func (r *Registry) Register(b *Binding) {
	r.bindings = append(r.bindings, b)
}

// Resolve returns the first binding whose header equals header.
// Returns ErrNotRecognized if none does.
func (r *Registry) Resolve(header []string) (*Binding, error) {
	for _, b := range r.bindings {
		if b.Matches(header) {
			return b, nil
		}
	}
	return nil, ErrNotRecognized
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	return len(r.bindings)
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

// stripNonASCII drops every byte >= 0x80. Upstream headers sometimes carry a
// byte-order mark or stray non-ASCII characters.
func stripNonASCII(s string) string {
	if isASCII(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x80 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
