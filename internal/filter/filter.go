// Package filter holds the cross-view UI context: the selected month filter,
// the add/edit form visibility flag, and the refresh counter that dependent
// views watch to know when cached data went stale.
package filter

import (
	"sync"
	"sync/atomic"
	"time"

	"moneytrack/internal/core"
)

type Context struct {
	mu       sync.Mutex
	month    core.Month
	loc      *time.Location
	now      func() time.Time
	formOpen bool

	refreshes atomic.Uint64
}

// New starts with the current calendar month selected, matching what the
// dashboard shows on first load.
func New(loc *time.Location) *Context {
	if loc == nil {
		loc = time.Local
	}
	return &Context{
		month: core.CurrentMonth(time.Now().In(loc)),
		loc:   loc,
		now:   time.Now,
	}
}

// Month returns the selected month filter.
func (c *Context) Month() core.Month {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.month
}

// SetMonth switches the filter. Invalid tokens are rejected so the selection
// never enters a state Range cannot resolve.
func (c *Context) SetMonth(m core.Month) error {
	if _, err := core.ResolveRange(m, c.now().In(c.loc).Year(), c.loc); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.month = m
	return nil
}

// Range resolves the selected month against the current year. "All" spans
// the whole calendar year.
func (c *Context) Range() core.DateRange {
	c.mu.Lock()
	m := c.month
	c.mu.Unlock()

	now := c.now().In(c.loc)
	rng, err := core.ResolveRange(m, now.Year(), c.loc)
	if err != nil {
		// The setter validates, so this only happens for the zero value;
		// fall back to the current month.
		rng, _ = core.ResolveRange(core.CurrentMonth(now), now.Year(), c.loc)
	}
	return rng
}

// Resolve resolves an arbitrary month token against the context's clock and
// location without touching the current selection, so an explicit token and
// the shared selection always mean the same interval.
func (c *Context) Resolve(m core.Month) (core.DateRange, error) {
	now := c.now().In(c.loc)
	return core.ResolveRange(m, now.Year(), c.loc)
}

// FormOpen reports whether the add/edit form is showing.
func (c *Context) FormOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formOpen
}

func (c *Context) SetFormOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formOpen = open
}

// Refresh bumps the refresh counter. Views compare the counter against the
// value they last rendered with and re-fetch when it moved.
func (c *Context) Refresh() {
	c.refreshes.Add(1)
}

// RefreshCount returns the current counter value.
func (c *Context) RefreshCount() uint64 {
	return c.refreshes.Load()
}
