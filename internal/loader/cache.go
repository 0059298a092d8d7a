package loader

import (
	"os"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
)

type cacheKey struct {
	path    string
	modTime int64
	size    int64
	year    int
	opts    Options
}

// Cache memoizes LoadFile. Entries are keyed by path, modification time and
// size, so a changed file is always read again.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Result
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Result)}
}

// LoadFile returns the cached result for path when the file is unchanged,
// otherwise it loads the file and caches the result.
func (c *Cache) LoadFile(path string, year int, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: stat %s", path)
	}
	key := cacheKey{
		path:    path,
		modTime: info.ModTime().UnixNano(),
		size:    info.Size(),
		year:    year,
		opts:    opts,
	}

	c.mu.Lock()
	if res, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return res.clone(), nil
	}
	c.misses++
	c.mu.Unlock()

	res, err := LoadFile(path, year, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for k := range c.entries {
		if k.path == path && k.year == year {
			delete(c.entries, k)
		}
	}
	c.entries[key] = res
	c.mu.Unlock()
	return res.clone(), nil
}

// LoadYears is LoadYears backed by the cache.
func (c *Cache) LoadYears(dir string, years []int, opts Options) (*Batch, error) {
	return loadYears(dir, years, opts, c.LoadFile)
}

// Stats returns the number of cache hits and misses.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (r *Result) clone() *Result {
	out := *r
	out.Header = slices.Clone(r.Header)
	out.Records = slices.Clone(r.Records)
	out.Rejected = make(map[Reason]int, len(r.Rejected))
	for k, v := range r.Rejected {
		out.Rejected[k] = v
	}
	return &out
}

