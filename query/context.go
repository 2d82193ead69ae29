// Package query implements the caller-facing core: Context, Config, Array,
// and the Query/QueryBuilder submit state machine of spec.md section 4.8,
// driving the abi package's interfaces. internal/fakebackend is the only
// abi implementation in this repo.
package query

import "sync"

// Context is the error channel shared across Queries against Arrays opened
// through it (spec.md section 5: "shareable across Queries ... last-error
// retrieval is per-context").
type Context struct {
	mu       sync.Mutex
	lastErr  error
	statsMu  sync.Mutex
	counters map[string]uint64
}

// NewContext constructs an empty Context.
func NewContext() *Context {
	return &Context{counters: make(map[string]uint64)}
}

// LastError returns the most recently recorded backend error, or nil.
func (c *Context) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetLastError records err as the context's last error.
func (c *Context) SetLastError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// IncrStat bumps a named counter that Stats later reports: lightweight,
// caller-visible monotonic counts without a metrics library. No code in
// this module calls IncrStat itself; Query.Submit records no counters.
func (c *Context) IncrStat(name string) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.counters[name]++
}

// Stats snapshots the current counter values.
func (c *Context) Stats() map[string]uint64 {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	out := make(map[string]uint64, len(c.counters))
	for k, v := range c.counters {
		out[k] = v
	}
	return out
}
