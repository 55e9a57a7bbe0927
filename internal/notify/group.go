// Package notify groups and de-duplicates the notifications shown for
// requests a policy auto-approved.
package notify

import (
	"fmt"
	"sync"

	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/session"
)

// GroupID identifies notifications for identical requests. SSH requests
// group by their display string, everything else by request id.
type GroupID string

// GroupFor returns the group of req from s.
func GroupFor(s *session.Session, req *request.Request) GroupID {
	key := req.ID
	if ssh, ok := req.Body.(request.SSHSign); ok && ssh.Display != "" {
		key = ssh.Display
	}
	return GroupID(s.ID + "_" + key)
}

// WithCount returns the notification id of the n-th delivery in the group.
func (g GroupID) WithCount(n int) string {
	return fmt.Sprintf("%s_%d", g, n)
}

// Delivery is the next notification to post for a group.
type Delivery struct {
	// ID is the identifier of the new notification.
	ID string
	// Replaces is the notification the new one supersedes, or "".
	Replaces string
	// Count is how many times the request appeared, including this one.
	Count int
}

// Body appends the repeat count to body when the delivery replaces an
// earlier notification, e.g. "root@server.com (5)".
func (d Delivery) Body(body string) string {
	if d.Replaces == "" {
		return body
	}
	return fmt.Sprintf("%s (%d)", body, d.Count)
}

// Counter tracks how many notifications each group has shown. Next is
// linearizable across concurrent deliveries for the same group.
type Counter struct {
	mu     sync.Mutex
	counts map[GroupID]int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[GroupID]int)}
}

// Next reserves the next delivery in group. stillShown reports whether a
// notification id is still on screen; if the group's previous one is
// gone, counting restarts. stillShown runs with the counter locked and
// must not call back into it.
func (c *Counter) Next(group GroupID, stillShown func(id string) bool) Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.counts[group]
	prev := group.WithCount(n)
	d := Delivery{}
	if n > 0 && stillShown != nil && stillShown(prev) {
		d.Replaces = prev
	} else {
		n = 0
	}
	n++
	c.counts[group] = n
	d.ID = group.WithCount(n)
	d.Count = n
	return d
}

// Count returns the current count of group.
func (c *Counter) Count(group GroupID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[group]
}

// Restore sets the count of group to n unless the counter already has one.
// It seeds a fresh counter from state persisted by an earlier process.
func (c *Counter) Restore(group GroupID, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 && c.counts[group] == 0 {
		c.counts[group] = n
	}
}

// Reset forgets group.
func (c *Counter) Reset(group GroupID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, group)
}
