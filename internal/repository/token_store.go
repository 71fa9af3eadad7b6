package repository

// TokenStore is the global set of integrity tokens already issued.
type TokenStore struct {
	used map[string]struct{}
}

// NewTokenStore constructs an empty used-token set.
func NewTokenStore() *TokenStore {
	return &TokenStore{used: make(map[string]struct{})}
}

// IsUsed reports whether token was marked before.
func (s *TokenStore) IsUsed(token string) bool {
	_, ok := s.used[token]
	return ok
}

// MarkUsed records token, rejecting replays.
func (s *TokenStore) MarkUsed(token string) error {
	if _, ok := s.used[token]; ok {
		return ErrTokenUsed
	}
	s.used[token] = struct{}{}
	return nil
}

// Len returns the number of tokens issued so far.
func (s *TokenStore) Len() int {
	return len(s.used)
}
