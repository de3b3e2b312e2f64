package simulator

import (
	"vonsim/internal/cpu"
	"vonsim/internal/events"
)

// StartCPU runs the loaded program to completion in its own goroutine and
// returns the lazy, finite event stream spec.md §4.10 describes. The
// returned channel closes when the CPU halts, hits a fatal error, or Stop
// cancels the run; ranging over it until closed is the idiomatic way to
// drain it, matching a prior implementation's done-channel convention in
// coproc_worker_x86.go.
func (s *Simulator) StartCPU() <-chan events.Event {
	s.mu.Lock()
	ch := make(chan events.Event, 64)
	cancel := make(chan struct{})
	s.eventCh = ch
	s.cancel = cancel
	s.running = true
	core := s.cpu
	s.mu.Unlock()

	go func() {
		defer close(ch)
		for {
			select {
			case <-cancel:
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			default:
			}
			if r := core.Step(); r != cpu.StopNone {
				s.mu.Lock()
				s.running = false
				s.mu.Unlock()
				return
			}
		}
	}()
	return ch
}

// Stop cancels an in-flight StartCPU run at the next instruction boundary
// (spec.md §5: "cancellation is only permitted at instruction boundaries").
// It is a no-op if nothing is running.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	select {
	case <-cancel:
	default:
		close(cancel)
	}
}

// Running reports whether a StartCPU goroutine is currently executing.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
