package fluentdb

import (
	"encoding/json"
	"sync"
	"time"
)

// ProfileEntry is one executed statement in the query log.
type ProfileEntry struct {
	Query      string    `json:"query"`
	Params     []any     `json:"params"`
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"-"`
}

// MarshalJSON renders the timestamp as "2006-01-02 15:04:05".
func (e ProfileEntry) MarshalJSON() ([]byte, error) {
	type plain ProfileEntry
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(e), e.Timestamp.Format(time.DateTime)})
}

// profiler accumulates ProfileEntry values while enabled.
type profiler struct {
	mu      sync.Mutex
	enabled bool
	entries []ProfileEntry
}

// record appends an entry when profiling is on. args is copied.
func (p *profiler) record(query string, args []any, start time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	snap := make([]any, len(args))
	copy(snap, args)
	p.entries = append(p.entries, ProfileEntry{
		Query:      query,
		Params:     snap,
		DurationMS: float64(time.Since(start).Nanoseconds()) / 1e6,
		Timestamp:  start,
	})
}

// EnableProfiling starts recording every Fetch, Execute and Raw call.
func (c *Client) EnableProfiling() *Client {
	c.profile.mu.Lock()
	c.profile.enabled = true
	c.profile.mu.Unlock()
	c.log.Debug("Database Profiling Enabled")
	return c
}

// DisableProfiling stops recording. Existing entries are kept.
func (c *Client) DisableProfiling() *Client {
	c.profile.mu.Lock()
	c.profile.enabled = false
	c.profile.mu.Unlock()
	c.log.Debug("Database Profiling Disabled")
	return c
}

// Profiling reports whether the query log is recording.
func (c *Client) Profiling() bool {
	c.profile.mu.Lock()
	defer c.profile.mu.Unlock()
	return c.profile.enabled
}

// QueryLog returns a copy of the recorded entries in execution order.
// The log grows without bound while enabled; call ClearQueryLog periodically.
func (c *Client) QueryLog() []ProfileEntry {
	c.profile.mu.Lock()
	defer c.profile.mu.Unlock()
	out := make([]ProfileEntry, len(c.profile.entries))
	copy(out, c.profile.entries)
	return out
}

// ClearQueryLog drops every recorded entry.
func (c *Client) ClearQueryLog() *Client {
	c.profile.mu.Lock()
	c.profile.entries = nil
	c.profile.mu.Unlock()
	c.log.Debug("Database Query Log Cleared")
	return c
}
