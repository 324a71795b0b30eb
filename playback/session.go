package playback

import "github.com/onnwee/alert-overlay/backend/alert"

// Session is the state of the current burst.
type Session struct {
	Active       bool       `json:"active"`
	PreviousKind alert.Kind `json:"previous_kind,omitempty"` // zero when no label was shown yet
	SavedText    string     `json:"saved_text"`
}

func (p *Player) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Player) updateSession(fn func(s *Session)) {
	p.mu.Lock()
	fn(&p.session)
	p.mu.Unlock()
}

func (p *Player) resetSession() {
	p.updateSession(func(s *Session) { *s = Session{} })
}
