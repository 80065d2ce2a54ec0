package testfixtures

import (
	"fmt"
	"sync/atomic"
)

// IDGenerator yields sequential event identifiers ("evt-1", "evt-2", ...) so
// tests can predict the ids the calendar service assigns. Production wiring
// injects uuid.NewString instead; the service only requires uniqueness.
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator constructs a generator for the given id space. An empty
// prefix defaults to "evt", the persisted-event space.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}

// NextFunc adapts the generator to the `idGenerator func() string` the
// calendar service takes. A nil generator yields empty ids, which the service
// treats as unconfigured.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetCounter overrides the sequence position, enabling deterministic resets
// between sub-tests.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.counter.Store(counter)
}
