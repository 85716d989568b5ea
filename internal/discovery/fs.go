package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoLocations indicates that no cleanup location applies to the platform.
var ErrNoLocations = errors.New("no cleanup locations discovered")

// Location is one directory the cleanup pipeline may empty.
type Location struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Path        string `json:"path"`
	// ProfileCache, when set, means Path holds browser profiles and only
	// <profile>/<ProfileCache> is cleaned inside each of them.
	ProfileCache string `json:"profile_cache,omitempty"`
}

// Template is a Location whose path still contains environment references,
// either %NAME% or $NAME.
type Template struct {
	Key          string
	Description  string
	Path         string
	ProfileCache string
}

// Templates returns the built-in cleanup locations for goos.
func Templates(goos string) []Template {
	switch goos {
	case "windows":
		return []Template{
			{Key: "user-temp", Description: "User temporary files", Path: `%TEMP%`},
			{Key: "system-temp", Description: "System temporary files", Path: `C:\Windows\Temp`},
			{Key: "inet-cache", Description: "Internet Explorer cache", Path: `%LOCALAPPDATA%\Microsoft\Windows\INetCache`},
			{Key: "recent", Description: "Recent files", Path: `%APPDATA%\Microsoft\Windows\Recent`},
			{Key: "prefetch", Description: "Prefetch files", Path: `C:\Windows\Prefetch`},
			{Key: "chrome-cache", Description: "Chrome cache", Path: `%LOCALAPPDATA%\Google\Chrome\User Data\Default\Cache`},
			{Key: "firefox-cache", Description: "Firefox cache", Path: `%LOCALAPPDATA%\Mozilla\Firefox\Profiles`, ProfileCache: "cache2"},
		}
	case "darwin":
		return []Template{
			{Key: "user-temp", Description: "User temporary files", Path: `$TMPDIR`},
			{Key: "chrome-cache", Description: "Chrome cache", Path: `$HOME/Library/Caches/Google/Chrome/Default/Cache`},
			{Key: "firefox-cache", Description: "Firefox cache", Path: `$HOME/Library/Caches/Firefox/Profiles`, ProfileCache: "cache2"},
		}
	case "linux":
		return []Template{
			{Key: "thumbnails", Description: "Thumbnail cache", Path: `$HOME/.cache/thumbnails`},
			{Key: "chrome-cache", Description: "Chrome cache", Path: `$HOME/.cache/google-chrome/Default/Cache`},
			{Key: "firefox-cache", Description: "Firefox cache", Path: `$HOME/.cache/mozilla/firefox`, ProfileCache: "cache2"},
		}
	default:
		return nil
	}
}

// Locations expands templates plus any extra user paths. Templates whose
// variables are unset are dropped; duplicates keep their first position.
func Locations(templates []Template, extra []string, getenv func(string) string) ([]Location, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	seen := make(map[string]struct{})
	resolved := make([]Location, 0, len(templates)+len(extra))
	add := func(loc Location) {
		key := strings.ToLower(filepath.Clean(loc.Path))
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		resolved = append(resolved, loc)
	}

	for _, tpl := range templates {
		path, ok := Expand(tpl.Path, getenv)
		if !ok {
			continue
		}
		add(Location{Key: tpl.Key, Description: tpl.Description, Path: path, ProfileCache: tpl.ProfileCache})
	}
	for i, input := range extra {
		path, ok := Expand(strings.TrimSpace(input), getenv)
		if !ok {
			return nil, fmt.Errorf("cleanup path %q references an unset variable", input)
		}
		if !filepath.IsAbs(path) {
			return nil, fmt.Errorf("cleanup path %q must be absolute", input)
		}
		add(Location{Key: fmt.Sprintf("custom-%d", i+1), Description: path, Path: path})
	}

	if len(resolved) == 0 {
		return nil, ErrNoLocations
	}
	return resolved, nil
}

// Expand replaces %NAME% and $NAME / ${NAME} references. It reports false
// when the path is empty or any referenced variable is unset.
func Expand(path string, getenv func(string) string) (string, bool) {
	if path == "" {
		return "", false
	}
	ok := true
	lookup := func(name string) string {
		v := getenv(name)
		if v == "" {
			ok = false
		}
		return v
	}

	var b strings.Builder
	rest := path
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		name := rest[start+1 : start+1+end]
		b.WriteString(rest[:start])
		b.WriteString(lookup(name))
		rest = rest[start+end+2:]
	}

	expanded := os.Expand(b.String(), lookup)
	if !ok || expanded == "" {
		return "", false
	}
	return filepath.Clean(expanded), true
}

// ProfileCaches returns the existing <profile>/<cache> directories beneath a
// profiles root, sorted lexicographically.
func ProfileCaches(root, cache string) ([]string, error) {
	pattern := filepath.Join(root, "*", cache)
	found, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	dirs := make([]string, 0, len(found))
	for _, m := range found {
		info, err := os.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, m)
	}
	sort.Strings(dirs)
	return dirs, nil
}
