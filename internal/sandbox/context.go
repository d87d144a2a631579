package sandbox

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/d5/tengo/v2"
)

// Context is the persistent namespace one Executor runs scripts against.
// Globals defined by one run are visible to the next until Clear is called.
//
// The lock is held for the whole of a run, so concurrent executions against
// the same Context are serialized.
type Context struct {
	mu        sync.Mutex
	vars      map[string]tengo.Object
	out       bytes.Buffer
	sessionID string
}

// NewContext creates an empty context for a session.
func NewContext(sessionID string) *Context {
	return &Context{
		vars:      make(map[string]tengo.Object),
		sessionID: sessionID,
	}
}

// Set stores a Go value under name, converting it to a script value.
func (c *Context) Set(name string, value any) error {
	obj, err := tengo.FromInterface(value)
	if err != nil {
		return fmt.Errorf("cannot store %q: %w", name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = obj
	return nil
}

// Get returns the Go value stored under name.
func (c *Context) Get(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.vars[name]
	if !ok {
		return nil, false
	}
	return tengo.ToInterface(obj), true
}

// GetString returns the value under name rendered as text, or "" when unset.
func (c *Context) GetString(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.vars[name]
	if !ok {
		return ""
	}
	if s, ok := tengo.ToString(obj); ok {
		return s
	}
	return obj.String()
}

// Keys returns the stored names in sorted order.
func (c *Context) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.vars))
	for k := range c.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every stored name.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars = make(map[string]tengo.Object)
	c.out.Reset()
}

// SessionID returns the session this context belongs to.
func (c *Context) SessionID() string {
	return c.sessionID
}

// has reports whether name is stored. Callers hold the lock.
func (c *Context) has(name string) bool {
	_, ok := c.vars[name]
	return ok
}
