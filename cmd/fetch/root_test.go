package main

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/snepalysis/internal/config"
	"github.com/JonMunkholm/snepalysis/internal/core"
)

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no flags", nil, false},
		{"country value", []string{"-c", "US"}, false},
		{"long flags", []string{"--country", "US", "--state", "Texas", "--force"}, false},
		{"bool flags only", []string{"-f", "-o"}, false},
		{"country followed by flag", []string{"-c", "-f"}, true},
		{"state followed by flag", []string{"-s", "-o"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			err := validateFlags(cmd.Flags())
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errFlagValue) {
				t.Errorf("error = %v, want errFlagValue", err)
			}
		})
	}
}

func TestScopeFor(t *testing.T) {
	defaults := config.IngestConfig{Country: "US", State: "any"}

	tests := []struct {
		name string
		args []string
		want core.Scope
	}{
		{"config defaults", nil, core.Scope{Country: "US", State: core.Any}},
		{"flag overrides country", []string{"-c", "France"}, core.Scope{Country: "France", State: core.Any}},
		{"flag sets state", []string{"-s", "Texas"}, core.Scope{Country: "US", State: "Texas"}},
		{"any is unconstrained", []string{"-c", "ANY"}, core.AnyScope()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			country, _ := cmd.Flags().GetString("country")
			state, _ := cmd.Flags().GetString("state")
			got := scopeFor(cmd.Flags(), fetchOptions{country: country, state: state}, defaults)
			if got != tt.want {
				t.Errorf("scopeFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
