package framework

import (
	"sync"
	"sync/atomic"
	"time"
)

// Run phases reported by Progress.
const (
	PhaseIdle         = "idle"
	PhaseInitializing = "initializing"
	PhaseRunning      = "running"
	PhaseFinalizing   = "finalizing"
	PhaseDone         = "done"
)

// ProgressSnapshot is a point-in-time view of a run.
type ProgressSnapshot struct {
	Phase     string    `json:"phase"`
	Processed int64     `json:"processed"`
	Failed    int64     `json:"failed"`
	Status    string    `json:"status,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

type progress struct {
	processed atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	phase     string
	status    string
	startedAt time.Time
}

func (p *progress) setPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if phase == PhaseInitializing {
		p.startedAt = time.Now()
	}
	p.phase = phase
}

func (p *progress) finish(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseDone
	p.status = s.String()
}

func (p *progress) snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	phase := p.phase
	if phase == "" {
		phase = PhaseIdle
	}
	return ProgressSnapshot{
		Phase:     phase,
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Status:    p.status,
		StartedAt: p.startedAt,
	}
}
