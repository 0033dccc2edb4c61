package session

import "time"

// Session is one authenticated session. Token holds the signed bearer
// string for reference and audit; validation never trusts it over the
// store's own Expires field.
type Session struct {
	ID        string
	UserID    string
	Token     string
	Created   time.Time
	Expires   time.Time
	IP        string
	UserAgent string
	Active    bool
}

// Usable reports whether the session may authenticate requests at the
// given instant: active and not yet expired.
func (s *Session) Usable(now time.Time) bool {
	return s != nil && s.Active && now.Before(s.Expires)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}
