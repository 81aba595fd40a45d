// Package pathcache resolves bare executable names against the PATH
// environment variable and memoises the results.
//
// Directories are scanned in reverse of their PATH order. Callers that
// inject new directories at the end of PATH (the MSVC environment bootstrap
// does) rely on those entries shadowing earlier ones.
package pathcache

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Cache is a thread-safe executable lookup cache. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	dirs    []string
	results map[string]string
}

// New creates a cache populated from the current PATH.
func New() *Cache {
	c := &Cache{results: make(map[string]string)}
	c.Update()
	return c
}

// Update re-reads PATH and resets the directory list. Memoised lookups are
// dropped: an environment mutation (the vcvars import) may have changed
// which directory wins. Calling Update twice in a row is harmless.
func (c *Cache) Update() {
	var dirs []string
	for _, dir := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirs = dirs
	c.results = make(map[string]string)
}

// Get returns the absolute path of the first matching executable, or ""
// when the name cannot be resolved. Matches must be non-directory entries;
// on Windows a missing .exe suffix is appended before searching.
func (c *Cache) Get(name string) string {
	c.mu.RLock()
	if hit, ok := c.results[name]; ok {
		c.mu.RUnlock()
		return hit
	}
	dirs := c.dirs
	c.mu.RUnlock()

	searchName := name
	if runtime.GOOS == "windows" && !strings.EqualFold(filepath.Ext(searchName), ".exe") {
		searchName += ".exe"
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		candidate := filepath.Join(dirs[i], searchName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}

		c.mu.Lock()
		c.results[name] = candidate
		c.mu.Unlock()
		return candidate
	}

	return ""
}
