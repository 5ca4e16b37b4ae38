// Copyright 2026 © The Planwright Authors
// SPDX-License-Identifier: Apache-2.0

package testkit

import (
	"context"
	"sync"

	"github.com/planwright/planwright/pkg/core"
)

// EventCollector records workflow events for later assertions. Safe for
// concurrent use.
type EventCollector struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventCollector creates an empty collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{}
}

// Emit implements core.EventEmitter.
func (c *EventCollector) Emit(_ context.Context, e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events.
func (c *EventCollector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Event, len(c.events))
	copy(out, c.events)
	return out
}

// OfType returns the collected events with the given type.
func (c *EventCollector) OfType(t core.EventType) []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given type were collected.
func (c *EventCollector) Count(t core.EventType) int {
	return len(c.OfType(t))
}

// Reset clears the collector.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
