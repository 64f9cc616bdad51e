package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestPngName(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{"dapi_001.tif", "dapi_001.png"},
		{"dapi_001.TIFF", "dapi_001.png"},
		{"noext", "noext.png"},
	} {
		if got := pngName(tt.in); got != tt.want {
			t.Errorf("pngName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.TIF", "a.tiff", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// A directory whose name matches the pattern must still be skipped.
	if err := os.Mkdir(filepath.Join(dir, "sub.tif"), 0o755); err != nil {
		t.Fatal(err)
	}

	re := regexp.MustCompile(`(?i)^.*\.tiff?$`)
	got, err := matchingFiles(dir, re)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a.tiff", "b.TIF"}
	if len(got) != len(want) {
		t.Fatalf("matched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matched %v, want %v", got, want)
		}
	}
}

func TestOutcomeFailed(t *testing.T) {
	o := outcome{Image: "x.tif"}

	got := o.failed(fmt.Errorf("boom"))
	if got.Status != statusFailed || got.Error != "boom" {
		t.Errorf("failed() = %+v", got)
	}

	if o.Status != "" {
		t.Errorf("receiver mutated: %+v", o)
	}
}
