package deps

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Store directory layout:
//
//	storeDir/
//	  <name>/<version>/
//	    .lock           # held while a variant is resolved
//	    .cache.json     # maps variant -> cacheEntry
//	    <variant>/      # install dir: include/ lib/ ...
const cacheFile = ".cache.json"

// cacheEntry records a successful dependency build.
type cacheEntry struct {
	Tag       string    `json:"tag"`
	BuildTime time.Time `json:"build_time"`
}

type buildCache struct {
	Cache map[string]*cacheEntry `json:"cache"`
}

func (c *buildCache) get(variant string) (*cacheEntry, bool) {
	entry, ok := c.Cache[variant]
	return entry, ok
}

func (c *buildCache) set(variant string, entry *cacheEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*cacheEntry)
	}
	c.Cache[variant] = entry
}

// loadCache reads the cache of a module dir. A missing file is an empty
// cache.
func loadCache(dir string) (*buildCache, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &buildCache{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

func saveCache(dir string, cache *buildCache) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}
