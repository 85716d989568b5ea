package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func envMap(values map[string]string) func(string) string {
	return func(name string) string { return values[name] }
}

func TestExpand(t *testing.T) {
	getenv := envMap(map[string]string{"LOCALAPPDATA": "/home/u/appdata", "HOME": "/home/u"})
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"%LOCALAPPDATA%/Google/Cache", "/home/u/appdata/Google/Cache", true},
		{"$HOME/.cache/thumbnails", "/home/u/.cache/thumbnails", true},
		{"${HOME}/x", "/home/u/x", true},
		{"%TEMP%", "", false},
		{"$UNSET/cache", "", false},
		{"/var/tmp/100%", "/var/tmp/100%", true},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := Expand(c.in, getenv)
		if ok != c.ok || got != c.want {
			t.Fatalf("Expand(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestLocationsDropsUnsetAndDuplicates(t *testing.T) {
	templates := []Template{
		{Key: "thumbnails", Description: "Thumbnail cache", Path: "$HOME/.cache/thumbnails"},
		{Key: "missing", Description: "Needs a variable", Path: "$NOPE/cache"},
		{Key: "again", Description: "Same directory", Path: "$HOME/.cache/thumbnails/"},
		{Key: "firefox", Description: "Firefox cache", Path: "$HOME/.cache/mozilla/firefox", ProfileCache: "cache2"},
	}
	got, err := Locations(templates, []string{"/srv/scratch"}, envMap(map[string]string{"HOME": "/home/u"}))
	if err != nil {
		t.Fatalf("Locations returned error: %v", err)
	}

	want := []string{"/home/u/.cache/thumbnails", "/home/u/.cache/mozilla/firefox", "/srv/scratch"}
	if len(got) != len(want) {
		t.Fatalf("expected %d locations, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Path != want[i] {
			t.Fatalf("index %d: want %q, got %q", i, want[i], got[i].Path)
		}
	}
	if got[1].ProfileCache != "cache2" {
		t.Fatalf("expected profile cache to carry over, got %+v", got[1])
	}
	if got[2].Key != "custom-1" {
		t.Fatalf("expected custom key, got %q", got[2].Key)
	}
}

func TestLocationsErrors(t *testing.T) {
	if _, err := Locations(nil, nil, envMap(nil)); !errors.Is(err, ErrNoLocations) {
		t.Fatalf("expected ErrNoLocations, got %v", err)
	}
	if _, err := Locations(nil, []string{"relative/dir"}, envMap(nil)); err == nil {
		t.Fatalf("expected error for relative path")
	}
	if _, err := Locations(nil, []string{"$MISSING/dir"}, envMap(nil)); err == nil {
		t.Fatalf("expected error for unset variable")
	}
}

func TestTemplates(t *testing.T) {
	win := Templates("windows")
	if len(win) != 7 {
		t.Fatalf("expected 7 windows locations, got %d", len(win))
	}
	if win[len(win)-1].ProfileCache != "cache2" {
		t.Fatalf("expected firefox profiles last, got %+v", win[len(win)-1])
	}
	if Templates("plan9") != nil {
		t.Fatalf("expected no locations for unsupported platform")
	}
}

func TestProfileCaches(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"b.default/cache2", "a.release/cache2", "c.empty"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeFile(t, filepath.Join(root, "c.empty", "cache2"))

	got, err := ProfileCaches(root, "cache2")
	if err != nil {
		t.Fatalf("ProfileCaches returned error: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.release", "cache2"),
		filepath.Join(root, "b.default", "cache2"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d caches, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("cache"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
