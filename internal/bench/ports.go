package bench

import "sync"

// PortAllocator hands out probe ports as basePort + index. No two
// benchmarks in a round ever share a listener port, sequential or not.
type PortAllocator struct {
	mu   sync.Mutex
	base int
	next int
}

func NewPortAllocator(base int) *PortAllocator {
	return &PortAllocator{base: base}
}

// Next returns the next exclusive port.
func (a *PortAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.base + a.next
	a.next++
	return p
}
