package query

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/grailbio/tiledb/tiledberr"
)

// pinnedKeys are the configuration keys spec.md section 6 requires for
// read queries over variable-length fields. Set rejects any attempt to
// give these a value other than the pinned one, so a caller can never
// silently produce an offsets layout the core's var-length read path
// cannot parse.
var pinnedKeys = map[string]string{
	"sm.var_offsets.bitsize":        "64",
	"sm.var_offsets.mode":           "elements",
	"sm.var_offsets.extra_element":  "true",
}

// Config is an immutable-once-attached key/value store (spec.md section 5:
// "Config objects are immutable once attached to a Query"). Immutability is
// enforced by QueryBuilder.WithConfig freezing the Config it receives; Set/Unset on
// a frozen Config return an error rather than silently mutating a value a
// Query already observed.
type Config struct {
	mu     sync.RWMutex
	values map[string]string
	frozen bool
}

// NewConfig constructs a Config pre-populated with the pinned
// sm.var_offsets.* keys (spec.md section 6), overridable only with their
// required values.
func NewConfig() *Config {
	c := &Config{values: make(map[string]string)}
	for k, v := range pinnedKeys {
		c.values[k] = v
	}
	return c
}

// Get returns the value for key and whether it is set.
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set assigns value to key. A pinned key may only be set to its required
// value (spec.md section 6's "the core requires" list); any other value is
// rejected before it ever reaches the backend.
func (c *Config) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return tiledberr.Invalid("config is frozen: already attached to a Query")
	}
	if required, ok := pinnedKeys[key]; ok && value != required {
		return tiledberr.Invalid(fmt.Sprintf("config key %q is pinned to %q for var-length read support", key, required))
	}
	c.values[key] = value
	return nil
}

// Unset removes key. Pinned keys cannot be unset.
func (c *Config) Unset(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return tiledberr.Invalid("config is frozen: already attached to a Query")
	}
	if _, ok := pinnedKeys[key]; ok {
		return tiledberr.Invalid(fmt.Sprintf("config key %q is pinned and cannot be unset", key))
	}
	delete(c.values, key)
	return nil
}

// Keys returns every set key, sorted -- Compare/iterate at the ABI boundary
// (spec.md section 6) both depend on a stable order.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Freeze marks the Config immutable, called by QueryBuilder.WithConfig.
func (c *Config) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Compare reports whether c and other hold identical key/value pairs
// (spec.md section 6's ABI "compare" entry point).
func (c *Config) Compare(other *Config) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()
	if len(c.values) != len(other.values) {
		return false
	}
	for k, v := range c.values {
		if other.values[k] != v {
			return false
		}
	}
	return true
}

// Save serializes c as gzip-compressed "key=value\n" lines, sorted by key
// for deterministic output. Grounded on encoding/bam/gindex.go's
// github.com/klauspost/compress/gzip.Writer usage.
func (c *Config) Save(w io.Writer) error {
	gz := gzip.NewWriter(w)
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		if _, err := fmt.Fprintf(gz, "%s=%s\n", k, v); err != nil {
			return tiledberr.Wrap(err, tiledberr.Internal, "config: write failed")
		}
	}
	return gz.Close()
}

// Load constructs a new Config (starting from NewConfig's pinned keys) by
// reading gzip-compressed "key=value\n" lines written by Save. Pinned keys
// are still validated through Set.
func Load(r io.Reader) (*Config, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, tiledberr.Wrap(err, tiledberr.Internal, "config: gzip header read failed")
	}
	defer gz.Close()

	c := NewConfig()
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, tiledberr.Invalid(fmt.Sprintf("config: malformed line %q", line))
		}
		if err := c.Set(k, v); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, tiledberr.Wrap(err, tiledberr.Internal, "config: read failed")
	}
	return c, nil
}
