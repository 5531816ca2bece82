package authsession

import "sync"

// phaseTracker guards the observable flow phase. Callback handling and the
// monitor run on different goroutines.
type phaseTracker struct {
	mu    sync.RWMutex
	phase Phase
}

func (p *phaseTracker) set(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phase
}

func (p *phaseTracker) get() Phase {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phase
}
