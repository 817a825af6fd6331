package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func mustRegistry(t *testing.T, scope Scope, layouts ...Layout) *Registry {
	t.Helper()
	reg, err := NewRegistry(scope, layouts...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestIngest_ScopedCountry(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"01-01-2021.csv": "Country_Region,Lat,Long_\nUS,40.0,-75.0\nCA,45.0,-73.0\n",
	})
	reg := mustRegistry(t, NewScope("US", ""), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	want := Record{Latitude: 40.0, Longitude: -75.0, Country: "US"}
	if set.Len() != 1 || !set.Has(want.Key()) {
		t.Errorf("accepted = %+v, want exactly %+v", set.Records(), want)
	}
	if stats.RowsRead != 2 || stats.RowsMatched != 1 || stats.RowsRejected != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIngest_UnrecognizedHeader(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv": "Foo,Bar\n1,2\n",
		"b.csv": "Country_Region,Lat,Long_\nUS,40.0,-75.0\n",
	})
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if stats.FilesSeen != 2 || stats.FilesSkipped != 1 || stats.FilesFailed != 0 {
		t.Errorf("file stats = %+v, want 2 seen, 1 skipped", stats)
	}
	if set.Len() != 1 {
		t.Errorf("got %d records, want 1 from the recognized sibling", set.Len())
	}
	if stats.RowsRead != 1 {
		t.Errorf("RowsRead = %d, rows of unrecognized files must not count", stats.RowsRead)
	}
}

func TestIngest_SkipsNonDatasetEntries(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"README.md":      "# readme\n",
		".gitignore":     "*.tmp\n",
		"01-01-2021.csv": "Country_Region,Lat,Long_\nUS,40.0,-75.0\n",
	})
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if stats.FilesSeen != 4 || stats.FilesSkipped != 3 {
		t.Errorf("stats = %+v, want 4 seen, 3 skipped", stats)
	}
	if set.Len() != 1 {
		t.Errorf("got %d records, want 1", set.Len())
	}
}

// The stray quote row is accepted as country `bad"quote` under lazy quoting.
func TestIngest_RaggedRowsAndBOM(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bom.csv": "\xEF\xBB\xBFCountry_Region,Lat,Long_\nUS,40.0,-75.0\nUS,41.0\nUS,42.0,-76.0,extra\n\"bad\"quote\",1,2\nFrance,46.2,2.2\n",
	})
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if set.Len() != 3 {
		t.Errorf("got %d records, want 3: %+v", set.Len(), set.Records())
	}
	if stats.RowsRead != 5 || stats.RowsMatched != 3 || stats.RowsRejected != 2 {
		t.Errorf("stats = %+v, want 5 read, 3 matched, 2 rejected", stats)
	}
}

func TestIngest_DeduplicatesAcrossFiles(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 20; i++ {
		files[fmt.Sprintf("%02d.csv", i)] = "Country_Region,Lat,Long_\nUS,40.0,-75.0\nFrance,46.2,2.2\n"
	}
	dir := writeFiles(t, files)
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{MaxOpenFiles: 3})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if set.Len() != 2 {
		t.Errorf("got %d unique records, want 2", set.Len())
	}
	if stats.RowsMatched != 40 {
		t.Errorf("RowsMatched = %d, want 40", stats.RowsMatched)
	}
}

func TestIngest_EmptyFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"empty.csv": ""})
	reg := mustRegistry(t, AnyScope(), testLayout)

	_, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if stats.FilesSkipped != 1 || stats.FilesFailed != 0 {
		t.Errorf("stats = %+v, want 1 skipped, 0 failed", stats)
	}
}

func TestIngest_UnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read files regardless of mode")
	}

	dir := writeFiles(t, map[string]string{
		"locked.csv": "Country_Region,Lat,Long_\nUS,40.0,-75.0\n",
		"open.csv":   "Country_Region,Lat,Long_\nFrance,46.2,2.2\n",
	})
	if err := os.Chmod(filepath.Join(dir, "locked.csv"), 0o000); err != nil {
		t.Fatal(err)
	}
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, stats, err := Ingest(context.Background(), dir, reg, IngestOptions{})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if stats.FilesFailed != 1 || stats.FilesSkipped != 1 {
		t.Errorf("stats = %+v, want 1 failed and skipped", stats)
	}
	if set.Len() != 1 {
		t.Errorf("got %d records, want 1", set.Len())
	}
}

func TestIngest_MissingDirectory(t *testing.T) {
	reg := mustRegistry(t, AnyScope(), testLayout)

	_, _, err := Ingest(context.Background(), filepath.Join(t.TempDir(), "missing"), reg, IngestOptions{})
	if err == nil {
		t.Fatal("Ingest() expected error for missing directory")
	}
}

func TestIngest_Cancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv": "Country_Region,Lat,Long_\nUS,40.0,-75.0\n",
	})
	reg := mustRegistry(t, AnyScope(), testLayout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Ingest(ctx, dir, reg, IngestOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ingest() error = %v, want context.Canceled", err)
	}
}

func TestIngest_CustomExtension(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": "Country_Region,Lat,Long_\nUS,40.0,-75.0\n",
		"b.csv": "Country_Region,Lat,Long_\nFrance,46.2,2.2\n",
	})
	reg := mustRegistry(t, AnyScope(), testLayout)

	set, _, err := Ingest(context.Background(), dir, reg, IngestOptions{Extension: ".txt"})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := Record{Latitude: 40.0, Longitude: -75.0, Country: "US"}
	if set.Len() != 1 || !set.Has(want.Key()) {
		t.Errorf("got %+v, want only the .txt record", set.Records())
	}
}
