package crawler

import "sync"

// SeenSet tracks normalized URLs already claimed for fetching. Claiming and
// marking are a single atomic step, so no two workers can ever claim the
// same URL.
type SeenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSeenSet creates an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// TryClaim atomically checks whether the normalized form of raw has been
// claimed before; if not, it marks it claimed and returns true. URLs that
// fail to normalize are never claimable.
func (s *SeenSet) TryClaim(raw string) bool {
	norm, err := Normalize(raw)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[norm]; ok {
		return false
	}
	s.seen[norm] = struct{}{}
	return true
}

// Len returns the number of claimed URLs.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
