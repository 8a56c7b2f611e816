package pad

// Sample is one recorded position. T is in ticks since the motion started.
type Sample struct {
	X, Y, T int
}

// MotionRecord is the stored form of a motion.
type MotionRecord struct {
	Finger  int
	Start   int
	Config  Configuration
	Samples []Sample
}

// SessionRecord is the stored form of a session.
type SessionRecord struct {
	Start   int
	Motions []MotionRecord
}

// Sessions returns the recorded sessions, without the live one.
func (p *Pad) Sessions() []SessionRecord {
	var out []SessionRecord
	for _, s := range p.sessions {
		if s == p.current || s.deleted {
			continue
		}
		rec := SessionRecord{Start: s.start}
		for f := range s.fingers {
			for _, m := range s.fingers[f].recorded {
				rec.Motions = append(rec.Motions, MotionRecord{
					Finger:  f,
					Start:   m.start,
					Config:  m.cfg,
					Samples: m.Samples(),
				})
			}
		}
		out = append(out, rec)
	}
	return out
}

// LoadSessions appends stored sessions. Motions for fingers outside the
// pad's range are skipped.
func (p *Pad) LoadSessions(recs []SessionRecord) {
	for _, rec := range recs {
		s := newSession(rec.Start, true)
		for _, mr := range rec.Motions {
			if mr.Finger < 0 || mr.Finger >= MaxFingers {
				continue
			}
			m := newMotion(mr.Config, mr.Start)
			for _, smp := range mr.Samples {
				m.x = append(m.x, smp.X)
				m.y = append(m.y, smp.Y)
				m.t = append(m.t, smp.T)
			}
			m.terminated = true
			s.fingers[mr.Finger].record(m)
		}
		p.sessions = append(p.sessions, s)
	}
}
