package notes

// SetSpawn overrides the deferred-embedding runner so tests can run the
// embedding phase synchronously.
func (s *Service) SetSpawn(fn func(func())) {
	s.spawn = fn
}
