package routemap

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CycleReport summarizes one finished render cycle.
type CycleReport struct {
	SessionID     uuid.UUID `json:"session_id"`
	OptionCount   int       `json:"option_count"`
	MarkersDrawn  int       `json:"markers_drawn"`
	BatchesIssued int       `json:"batches_issued"`
	RoutesDrawn   int       `json:"routes_drawn"`
	RoutesFailed  int       `json:"routes_failed"`
	Failures      []string  `json:"failures,omitempty"`
	ParseError    string    `json:"parse_error,omitempty"`
	Skipped       []string  `json:"skipped,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Session is one map surface: an overlay plus the state of the render
// cycle currently drawing on it. Render cycles on a session are serialized
// through AcquireCycle.
type Session struct {
	id      uuid.UUID
	overlay *Overlay

	cycle sync.Mutex

	mu         sync.RWMutex
	status     RenderStatus
	loading    bool
	lastReport *CycleReport
	cycles     int64
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession creates an idle session with an empty overlay.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		id:        uuid.New(),
		overlay:   NewOverlay(),
		status:    StatusIdle,
		createdAt: now,
		updatedAt: now,
	}
}

// NewSessionWithID creates an idle session under a caller-chosen identifier.
func NewSessionWithID(id uuid.UUID) *Session {
	s := NewSession()
	s.id = id
	return s
}

// AcquireCycle blocks until no other render cycle runs on this session and
// returns the function that releases it.
func (s *Session) AcquireCycle() (release func()) {
	s.cycle.Lock()
	return s.cycle.Unlock
}

// TransitionTo moves the session to the target render phase.
func (s *Session) TransitionTo(target RenderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: s.status, To: target}
	}
	s.status = target
	s.updatedAt = time.Now().UTC()
	return nil
}

// ShowLoading raises the loading indicator.
func (s *Session) ShowLoading() {
	s.setLoading(true)
}

// HideLoading lowers the loading indicator.
func (s *Session) HideLoading() {
	s.setLoading(false)
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	s.updatedAt = time.Now().UTC()
}

// RecordCycle stores the report of a finished cycle.
func (s *Session) RecordCycle(report CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = &report
	s.cycles++
	s.updatedAt = time.Now().UTC()
}

// Getters.
func (s *Session) ID() uuid.UUID     { return s.id }
func (s *Session) Overlay() *Overlay { return s.overlay }

func (s *Session) Status() RenderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) LastReport() *CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastReport == nil {
		return nil
	}
	r := *s.lastReport
	return &r
}

func (s *Session) Cycles() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycles
}

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
