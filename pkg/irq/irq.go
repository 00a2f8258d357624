// Package irq models the interrupt-mask discipline shared between interrupt
// handlers and the control loop.
//
// A Section stands in for "disable interrupts, touch shared state, enable
// interrupts". Handlers registered as interrupt sources run inside the same
// section, so a masked read from the control loop can never observe a
// half-applied update.
package irq

import "sync"

// Section is a critical section guarding state that crosses the
// interrupt/main-loop boundary. The zero value is ready to use.
type Section struct {
	mu sync.Mutex
}

// Do runs fn with interrupts masked.
func (s *Section) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Mask disables interrupts and returns the function that re-enables them.
func (s *Section) Mask() (unmask func()) {
	s.mu.Lock()
	return s.mu.Unlock
}
