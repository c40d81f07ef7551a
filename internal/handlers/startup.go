package handlers

import (
	"net/http"
	"sync"
)

// Startup steps reported by /healthz
const (
	StepDatabase     = "Database connection"
	StepMigrations   = "Running migrations"
	StepGraphBackend = "Relationship store"
	StepServices     = "Initializing services"
)

// StartupStatus tracks initialization progress. As the server's root
// handler it answers /healthz itself and every other request with 503 until
// SetHandler installs the application.
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
	next     http.Handler
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the named steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type healthResponse struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// Health reports startup progress
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Ready:    s.ready,
		Current:  s.current,
		Progress: s.progress,
		Steps:    append([]StartupStep{}, s.steps...),
	}
	s.mu.RUnlock()

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	respondWithJSON(w, status, resp)
}

// SetHandler installs the handler that serves everything but /healthz
func (s *StartupStatus) SetHandler(h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = h
}

func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		s.Health(w, r)
		return
	}

	s.mu.RLock()
	next := s.next
	s.mu.RUnlock()
	if next == nil {
		w.Header().Set("Retry-After", "2")
		respondWithJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Server is starting up"})
		return
	}
	next.ServeHTTP(w, r)
}
