package core

import (
	"errors"
	"testing"
)

var testLayout = Layout{
	Name:   "test",
	Header: []string{"Country_Region", "Lat", "Long_"},
	Columns: map[Field]string{
		FieldCountry:   "Country_Region",
		FieldLatitude:  "Lat",
		FieldLongitude: "Long_",
	},
}

var testStateLayout = Layout{
	Name:   "test_state",
	Header: []string{"Province_State", "Country_Region", "Lat", "Long_"},
	Columns: map[Field]string{
		FieldState:     "Province_State",
		FieldCountry:   "Country_Region",
		FieldLatitude:  "Lat",
		FieldLongitude: "Long_",
	},
}

func TestNewBinding(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{
			name:   "state is optional",
			layout: testLayout,
		},
		{
			name:   "all fields mapped",
			layout: testStateLayout,
		},
		{
			name: "missing required field",
			layout: Layout{
				Name:    "no_country",
				Header:  []string{"Lat", "Long_"},
				Columns: map[Field]string{FieldLatitude: "Lat", FieldLongitude: "Long_"},
			},
			wantErr: true,
		},
		{
			name: "column not in header",
			layout: Layout{
				Name:   "bad_column",
				Header: []string{"Country_Region", "Lat", "Long_"},
				Columns: map[Field]string{
					FieldCountry:   "Country_Region",
					FieldLatitude:  "Latitude",
					FieldLongitude: "Long_",
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBinding(tt.layout)
			if tt.wantErr {
				if !errors.Is(err, ErrUnmappedField) {
					t.Fatalf("NewBinding() error = %v, want ErrUnmappedField", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBinding() error = %v", err)
			}
			if b.Columns() != len(tt.layout.Header) {
				t.Errorf("Columns() = %d, want %d", b.Columns(), len(tt.layout.Header))
			}
		})
	}
}

func TestBindingMatches(t *testing.T) {
	b, err := NewBinding(testLayout)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header []string
		want   bool
	}{
		{"exact", []string{"Country_Region", "Lat", "Long_"}, true},
		{"BOM on first column", []string{"\ufeffCountry_Region", "Lat", "Long_"}, true},
		{"stray non-ASCII inside name", []string{"Country_R\u00e9gi\u00f3n", "Lat", "Long_"}, false},
		{"non-ASCII stripped to match", []string{"Country_Region\u00a0", "Lat", "Long_"}, true},
		{"different order", []string{"Lat", "Country_Region", "Long_"}, false},
		{"extra column", []string{"Country_Region", "Lat", "Long_", "Extra"}, false},
		{"missing column", []string{"Country_Region", "Lat"}, false},
		{"case differs", []string{"country_region", "Lat", "Long_"}, false},
		{"surrounding space differs", []string{" Country_Region", "Lat", "Long_"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Matches(tt.header); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	reg, err := NewRegistry(AnyScope(), testLayout, testStateLayout)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	b, err := reg.Resolve([]string{"Province_State", "Country_Region", "Lat", "Long_"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.Name() != "test_state" {
		t.Errorf("Resolve() = %q, want test_state", b.Name())
	}

	_, err = reg.Resolve([]string{"Foo", "Bar"})
	if !errors.Is(err, ErrNotRecognized) {
		t.Errorf("Resolve(unknown) error = %v, want ErrNotRecognized", err)
	}
}

func TestRegistryResolve_FirstMatchWins(t *testing.T) {
	reg, err := NewRegistry(AnyScope(), testLayout)
	if err != nil {
		t.Fatal(err)
	}

	dup := testLayout
	dup.Name = "duplicate"
	b, err := NewBinding(dup)
	if err != nil {
		t.Fatal(err)
	}
	reg.Register(b)

	got, err := reg.Resolve(testLayout.Header)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name() != "test" {
		t.Errorf("Resolve() = %q, want the earlier registration", got.Name())
	}
}

func TestNewRegistry_InvalidLayout(t *testing.T) {
	_, err := NewRegistry(AnyScope(), testLayout, Layout{Name: "empty"})
	if !errors.Is(err, ErrUnmappedField) {
		t.Errorf("NewRegistry() error = %v, want ErrUnmappedField", err)
	}
}

func TestScopeFilters(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		want  []Field
	}{
		{"any", AnyScope(), nil},
		{"country", NewScope("US", ""), []Field{FieldCountry}},
		{"state", NewScope("any", "Texas"), []Field{FieldState}},
		{"both in order", NewScope("US", "Texas"), []Field{FieldCountry, FieldState}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scopeFilters(tt.scope)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d filters, want %d", len(got), len(tt.want))
			}
			for i, ff := range got {
				if ff.field != tt.want[i] {
					t.Errorf("filter %d field = %s, want %s", i, ff.field, tt.want[i])
				}
			}
		})
	}
}

func TestNewScope(t *testing.T) {
	tests := []struct {
		country, state string
		want           Scope
	}{
		{"", "", AnyScope()},
		{"any", "ANY", AnyScope()},
		{"US", "", Scope{Country: "US", State: Any}},
		{"", "Texas", Scope{Country: Any, State: "Texas"}},
	}

	for _, tt := range tests {
		if got := NewScope(tt.country, tt.state); got != tt.want {
			t.Errorf("NewScope(%q, %q) = %+v, want %+v", tt.country, tt.state, got, tt.want)
		}
	}
}

func TestScopeContains(t *testing.T) {
	rec := Record{Country: "US", State: "Texas"}

	tests := []struct {
		scope Scope
		want  bool
	}{
		{AnyScope(), true},
		{Scope{}, true},
		{NewScope("US", ""), true},
		{NewScope("US", "Texas"), true},
		{NewScope("US", "Ohio"), false},
		{NewScope("France", ""), false},
	}

	for _, tt := range tests {
		if got := tt.scope.Contains(rec); got != tt.want {
			t.Errorf("%+v.Contains(%+v) = %v, want %v", tt.scope, rec, got, tt.want)
		}
	}
}
