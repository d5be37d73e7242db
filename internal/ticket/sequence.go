package ticket

import (
	"fmt"
	"sync"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Sequence issues human-readable ticket codes that increase within a
// calendar day and restart at day boundaries. The zero value is usable.
//
// State lives only in the running process: after a restart the sequence
// restarts at 1 for the current day, so codes are unique only within a
// continuously-running process-day. Callers must request exactly one
// code per ticket; every Next call advances the counter.
type Sequence struct {
	// Prefix precedes the dash in generated codes. Defaults to "C".
	Prefix string
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	day     string
	counter int
}

// Next advances the daily counter and returns the formatted code,
// e.g. C-001. Crossing a day boundary resets the counter first.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.today()
	if s.day != today {
		s.day = today
		s.counter = 0
	}
	s.counter++
	return fmt.Sprintf("%s-%03d", s.prefix(), s.counter)
}

// Current reports the last issued number for today without advancing.
// It returns 0 when nothing has been issued today.
func (s *Sequence) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.day != s.today() {
		return 0
	}
	return s.counter
}

// Reset clears the sequence state.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = ""
	s.counter = 0
}

func (s *Sequence) prefix() string {
	if s.Prefix == "" {
		return "C"
	}
	return s.Prefix
}

func (s *Sequence) today() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().Format(dayKeyLayout)
}
