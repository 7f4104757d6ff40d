package directive

import "sync"

// Synchronizer replays an ordered directive list against narration playback
// position. Directives are pre-sorted by offset at parse time, so progress
// updates are a single forward scan from the cursor, never a rescan. The
// cursor only increases within one session; a directive fires at most once.
type Synchronizer struct {
	mu         sync.Mutex
	directives []Directive
	cursor     int // index of the last fired directive, -1 initially
	fire       func(Directive)
}

// NewSynchronizer creates a Synchronizer that invokes fire for each
// triggered directive.
func NewSynchronizer(fire func(Directive)) *Synchronizer {
	return &Synchronizer{cursor: -1, fire: fire}
}

// Load replaces the directive list for a new reply and resets the cursor.
func (s *Synchronizer) Load(directives []Directive) {
	s.mu.Lock()
	s.directives = make([]Directive, len(directives))
	copy(s.directives, directives)
	s.cursor = -1
	s.mu.Unlock()
}

// UpdateProgress fires, in order, every not-yet-fired directive whose
// offset has been passed by the narration position. Repeated or equal
// positions fire nothing new.
func (s *Synchronizer) UpdateProgress(position int) {
	s.mu.Lock()
	var due []Directive
	for s.cursor+1 < len(s.directives) && s.directives[s.cursor+1].Offset <= position {
		s.cursor++
		due = append(due, s.directives[s.cursor])
	}
	fire := s.fire
	s.mu.Unlock()

	if fire != nil {
		for _, d := range due {
			fire(d)
		}
	}
}

// TriggerRemaining fires every unfired directive unconditionally, in offset
// order. Used when narration ends before the last directive's offset so
// state-changing directives are not silently lost.
func (s *Synchronizer) TriggerRemaining() {
	s.mu.Lock()
	var due []Directive
	for s.cursor+1 < len(s.directives) {
		s.cursor++
		due = append(due, s.directives[s.cursor])
	}
	fire := s.fire
	s.mu.Unlock()

	if fire != nil {
		for _, d := range due {
			fire(d)
		}
	}
}

// Progress returns (fired directives)/total, or 1 when the list is empty.
func (s *Synchronizer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.directives) == 0 {
		return 1
	}
	return float64(s.cursor+1) / float64(len(s.directives))
}

// Remaining returns the number of unfired directives.
func (s *Synchronizer) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.directives) - (s.cursor + 1)
}

// Reset discards the directive list and cursor for the next reply.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.directives = nil
	s.cursor = -1
	s.mu.Unlock()
}
