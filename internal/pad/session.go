package pad

import "github.com/cbegin/padseq-go/internal/event"

// MaxFingers is the number of simultaneous touch points.
const MaxFingers = 5

// session groups the motions of all fingers that share one start tick.
type session struct {
	fingers    [MaxFingers]finger
	start      int
	pos        int
	inPlay     bool
	terminated bool
	deleted    bool
}

func newSession(start int, terminated bool) *session {
	return &session{start: start, pos: -1, terminated: terminated}
}

// startPlay reports whether the session is running at tick t, starting it
// when t is its start tick.
func (s *session) startPlay(t int) bool {
	if s.inPlay {
		return true
	}
	if s.start != t {
		return false
	}
	s.inPlay = true
	s.pos = -1
	for i := range s.fingers {
		s.fingers[i].startFromTheTop()
	}
	return true
}

// process advances the session by one tick. It reports true when the
// session finished and was deleted, so the pad can drop it.
func (s *session) process(p *Pad, record, mute bool, sink event.Sink) bool {
	s.pos++
	completed := true
	for i := range s.fingers {
		if !s.fingers[i].process(p, sink, record, mute, s.pos) {
			completed = false
		}
	}
	s.inPlay = !(completed && s.terminated)
	return completed && s.deleted
}

func (s *session) reset() {
	s.inPlay = false
	for i := range s.fingers {
		s.fingers[i].reset()
	}
}

func (s *session) remove() {
	s.deleted = true
	for i := range s.fingers {
		s.fingers[i].remove()
	}
}

func (s *session) terminate() {
	s.terminated = true
	for i := range s.fingers {
		s.fingers[i].terminate()
	}
}
