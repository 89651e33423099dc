package proof

import "time"

// SetNow overrides the service clock in tests.
func SetNow(s *Service, now func() time.Time) { s.now = now }

// Now returns the service clock for tests.
func Now(s *Service) func() time.Time { return s.now }
