package models

// Course code length bounds, inclusive.
const (
	CourseCodeMinLen = 3
	CourseCodeMaxLen = 20
)

// Course is a catalog entry.
type Course struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ValidCourseCode checks the code length bounds.
func ValidCourseCode(code string) bool {
	return len(code) >= CourseCodeMinLen && len(code) <= CourseCodeMaxLen
}

// RegisterCourseRequest is the payload accepted when registering a course.
type RegisterCourseRequest struct {
	Code string `json:"code" validate:"required,min=3,max=20"`
	Name string `json:"name" validate:"required"`
}
