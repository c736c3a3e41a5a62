package store

import "time"

// SetNowForTest overrides the store clock. Test-only.
func (s *Store) SetNowForTest(now func() time.Time) {
	s.now = now
}
