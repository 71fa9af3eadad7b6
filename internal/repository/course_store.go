package repository

import "github.com/noah-isme/grade-ledger-api/internal/models"

// CourseStore is the course catalog: code to display name plus the ordered
// list of distinct codes in first-registration order.
type CourseStore struct {
	names map[string]string
	codes []string
}

// NewCourseStore constructs an empty catalog.
func NewCourseStore() *CourseStore {
	return &CourseStore{names: make(map[string]string)}
}

// Name returns the display name, empty for unknown codes.
func (s *CourseStore) Name(code string) string {
	return s.names[code]
}

// Exists reports whether code has been registered.
func (s *CourseStore) Exists(code string) bool {
	_, ok := s.names[code]
	return ok
}

// Put registers or renames a course and reports whether it already existed.
func (s *CourseStore) Put(code, name string) bool {
	_, existed := s.names[code]
	s.names[code] = name
	if !existed {
		s.codes = append(s.codes, code)
	}
	return existed
}

// List returns every course in first-registration order.
func (s *CourseStore) List() []models.Course {
	out := make([]models.Course, 0, len(s.codes))
	for _, code := range s.codes {
		out = append(out, models.Course{Code: code, Name: s.names[code]})
	}
	return out
}
