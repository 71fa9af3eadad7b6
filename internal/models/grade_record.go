package models

import "time"

// Grade value bounds, inclusive.
const (
	MinGradeValue = 0
	MaxGradeValue = 20
)

// GradeStatus captures the approval workflow stage of a grade record.
type GradeStatus string

const (
	GradeStatusPending            GradeStatus = "PENDING"
	GradeStatusDepartmentVerified GradeStatus = "DEPARTMENT_VERIFIED"
	// GradeStatusDirectorApproved is declared for exhaustive matching by
	// consumers; no transition produces it.
	GradeStatusDirectorApproved GradeStatus = "DIRECTOR_APPROVED"
	GradeStatusFinalized        GradeStatus = "FINALIZED"
)

// GradeStatuses lists every declared status in workflow order.
var GradeStatuses = []GradeStatus{
	GradeStatusPending,
	GradeStatusDepartmentVerified,
	GradeStatusDirectorApproved,
	GradeStatusFinalized,
}

// Valid reports whether s is a declared status.
func (s GradeStatus) Valid() bool {
	switch s {
	case GradeStatusPending, GradeStatusDepartmentVerified, GradeStatusDirectorApproved, GradeStatusFinalized:
		return true
	}
	return false
}

// Text returns the fixed human readable label for the status.
func (s GradeStatus) Text() string {
	switch s {
	case GradeStatusPending:
		return "Pending Department Verification"
	case GradeStatusDepartmentVerified:
		return "Verified by Department Head"
	case GradeStatusDirectorApproved:
		return "Approved by General Director"
	case GradeStatusFinalized:
		return "Finalized"
	default:
		return "Unknown"
	}
}

// Signature pairs a signer with the integrity token produced for it.
type Signature struct {
	Signer string `json:"signer"`
	Token  string `json:"token"`
}

// Present reports whether the slot has been signed.
func (s Signature) Present() bool {
	return s.Signer != "" && s.Token != ""
}

// GradeRecord is a single grade moving through the approval workflow.
type GradeRecord struct {
	ID          uint64      `json:"id"`
	Student     string      `json:"student"`
	CourseCode  string      `json:"courseCode"`
	Grade       int         `json:"grade"`
	Semester    string      `json:"semester"`
	Status      GradeStatus `json:"status"`
	Teacher     Signature   `json:"teacher"`
	Department  Signature   `json:"department"`
	Director    Signature   `json:"director"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	FinalizedAt *time.Time  `json:"finalizedAt,omitempty"`
}

// Finalized reports whether the record reached its terminal state.
func (r GradeRecord) Finalized() bool {
	return r.Status == GradeStatusFinalized
}

// GradeView is the student-facing projection of a record.
type GradeView struct {
	ID         uint64      `json:"id"`
	CourseCode string      `json:"courseCode"`
	CourseName string      `json:"courseName"`
	Grade      int         `json:"grade"`
	Semester   string      `json:"semester"`
	Status     GradeStatus `json:"status"`
	StatusText string      `json:"statusText"`
	Finalized  bool        `json:"finalized"`
}

// SignatureCheck reports whether each stored token matches its recomputation.
type SignatureCheck struct {
	TeacherValid    bool `json:"teacherValid"`
	DepartmentValid bool `json:"departmentValid"`
	DirectorValid   bool `json:"directorValid"`
	AllValid        bool `json:"allValid"`
}

// CourseGradeCheck answers whether a student holds a grade for a course.
type CourseGradeCheck struct {
	Found  bool        `json:"found"`
	Grade  int         `json:"grade"`
	Status GradeStatus `json:"status"`
}

// GradeStats aggregates record counts per status.
type GradeStats struct {
	Total              int    `json:"total"`
	Pending            int    `json:"pending"`
	DepartmentVerified int    `json:"departmentVerified"`
	DirectorApproved   int    `json:"directorApproved"`
	Finalized          int    `json:"finalized"`
	LastSequence       uint64 `json:"lastSequence"`
}

// CreateGradeRequest is the payload a teacher submits to record a grade.
type CreateGradeRequest struct {
	Student    string `json:"student" validate:"required"`
	CourseCode string `json:"courseCode" validate:"required,min=3,max=20"`
	Grade      *int   `json:"grade" validate:"required,min=0,max=20"`
	Semester   string `json:"semester"`
}

// GradeStatusInfo pairs a status with its fixed label.
type GradeStatusInfo struct {
	ID         uint64      `json:"id"`
	Status     GradeStatus `json:"status"`
	StatusText string      `json:"statusText"`
	Finalized  bool        `json:"finalized"`
}
