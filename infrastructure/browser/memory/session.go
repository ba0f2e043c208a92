package memory

import "booking_automation/domain/interfaces"

// Session hands out a single in-memory page. Closing it is a no-op.
type Session struct {
	page *Page
}

// NewSession wraps page in a session
func NewSession(page *Page) *Session {
	return &Session{page: page}
}

func (s *Session) Page() interfaces.PageHandle {
	return s.page
}

func (s *Session) Close() error {
	return nil
}

var _ interfaces.Session = (*Session)(nil)
