package repository

// AccessStore keeps per-student viewer grants. Each student owns a dense
// viewer slice plus a viewer->position index so grant and revoke are O(1);
// for every granted pair viewers[s][index[s][v]] == v.
type AccessStore struct {
	granted map[string]map[string]bool
	viewers map[string][]string
	index   map[string]map[string]int
}

// NewAccessStore constructs an empty ACL.
func NewAccessStore() *AccessStore {
	return &AccessStore{
		granted: make(map[string]map[string]bool),
		viewers: make(map[string][]string),
		index:   make(map[string]map[string]int),
	}
}

// Has reports whether student explicitly granted viewer.
func (s *AccessStore) Has(student, viewer string) bool {
	return s.granted[student][viewer]
}

// Grant appends viewer to the student's list.
func (s *AccessStore) Grant(student, viewer string) error {
	if s.Has(student, viewer) {
		return ErrAccessExists
	}
	if s.granted[student] == nil {
		s.granted[student] = make(map[string]bool)
		s.index[student] = make(map[string]int)
	}
	s.granted[student][viewer] = true
	s.index[student][viewer] = len(s.viewers[student])
	s.viewers[student] = append(s.viewers[student], viewer)
	return nil
}

// Revoke removes viewer by moving the last viewer into its slot.
func (s *AccessStore) Revoke(student, viewer string) error {
	if !s.Has(student, viewer) {
		return ErrAccessMissing
	}
	list := s.viewers[student]
	pos := s.index[student][viewer]
	last := len(list) - 1
	if pos != last {
		moved := list[last]
		list[pos] = moved
		s.index[student][moved] = pos
	}
	list[last] = ""
	s.viewers[student] = list[:last]
	delete(s.index[student], viewer)
	delete(s.granted[student], viewer)
	return nil
}

// List returns a copy of the student's current viewers.
func (s *AccessStore) List(student string) []string {
	list := s.viewers[student]
	out := make([]string, len(list))
	copy(out, list)
	return out
}
