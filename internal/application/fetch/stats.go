package fetch

import (
	"sync"

	"github.com/jgarciad/arbscan/internal/domain"
)

// venueStats acumula contadores por clase de error para observabilidad.
// Cada venue tiene los suyos; los lee el reporte de ciclo.
type venueStats struct {
	mu        sync.Mutex
	transient int
	permanent int
	lastErr   string
}

func (s *venueStats) recordSuccess() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *venueStats) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if domain.IsTransient(err) {
		s.transient++
	} else {
		s.permanent++
	}
	s.lastErr = err.Error()
}

func (s *venueStats) snapshot() (transient, permanent int, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transient, s.permanent, s.lastErr
}
