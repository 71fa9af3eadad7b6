package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/middleware"
	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type gradeWorkflow interface {
	CreateGrade(ctx context.Context, caller string, req models.CreateGradeRequest) (*models.GradeRecord, error)
	VerifyGrade(ctx context.Context, caller string, id uint64) (*models.GradeRecord, error)
	RatifyGrade(ctx context.Context, caller string, id uint64) (*models.GradeRecord, error)
	VerifySignatures(id uint64) (*models.SignatureCheck, error)
	Status(id uint64) (*models.GradeStatusInfo, error)
	GetGradeInfo(caller string, id uint64) (*models.GradeRecord, error)
	ViewGrade(caller string, id uint64) (*models.GradeView, error)
	ViewMyGrades(caller string) ([]models.GradeView, error)
	ViewMyGradeIDs(caller string) ([]uint64, error)
	ViewStudentGrades(caller, student string) ([]models.GradeView, error)
	ViewStudentGradeIDs(caller, student string) ([]uint64, error)
	VerifyStudentGrade(caller, student, courseCode string) (*models.CourseGradeCheck, error)
}

type gradeQueries interface {
	GetGradesByStatus(status models.GradeStatus) ([]uint64, error)
	Stats(ctx context.Context) (models.GradeStats, bool)
}

// GradeHandler exposes the grade workflow and its read paths.
type GradeHandler struct {
	grades  gradeWorkflow
	queries gradeQueries
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeWorkflow, queries gradeQueries) *GradeHandler {
	return &GradeHandler{grades: grades, queries: queries}
}

// Create godoc
// @Summary Record a grade
// @Description Teacher-only. The record starts PENDING with the teacher's integrity token.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	record, err := h.grades.CreateGrade(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Verify godoc
// @Summary Department verification
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades/{id}/verify [post]
func (h *GradeHandler) Verify(c *gin.Context) {
	h.transition(c, h.grades.VerifyGrade)
}

// Ratify godoc
// @Summary Director ratification
// @Description Ratifying finalizes the record.
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades/{id}/ratify [post]
func (h *GradeHandler) Ratify(c *gin.Context) {
	h.transition(c, h.grades.RatifyGrade)
}

func (h *GradeHandler) transition(c *gin.Context, step func(context.Context, string, uint64) (*models.GradeRecord, error)) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := gradeIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := step(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Get godoc
// @Summary Full grade record
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := gradeIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.grades.GetGradeInfo(caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// View godoc
// @Summary Student-facing grade view
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/view [get]
func (h *GradeHandler) View(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := gradeIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.grades.ViewGrade(caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Signatures godoc
// @Summary Recompute and check integrity tokens
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/signatures [get]
func (h *GradeHandler) Signatures(c *gin.Context) {
	id, err := gradeIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	check, err := h.grades.VerifySignatures(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Status godoc
// @Summary Grade workflow status
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /grades/{id}/status [get]
func (h *GradeHandler) Status(c *gin.Context) {
	id, err := gradeIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.grades.Status(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// ListByStatus godoc
// @Summary Grade ids by status
// @Tags Grades
// @Produce json
// @Param status query string true "PENDING, DEPARTMENT_VERIFIED, DIRECTOR_APPROVED or FINALIZED"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) ListByStatus(c *gin.Context) {
	status := models.GradeStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	ids, err := h.queries.GetGradesByStatus(status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// Stats godoc
// @Summary Grade counts per status
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/stats [get]
func (h *GradeHandler) Stats(c *gin.Context) {
	stats, hit := h.queries.Stats(c.Request.Context())
	middleware.SetCacheHit(c, hit)
	middleware.SetSequence(c, stats.LastSequence)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// MyGrades godoc
// @Summary Caller's own grade views
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/grades [get]
func (h *GradeHandler) MyGrades(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.grades.ViewMyGrades(caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// MyGradeIDs godoc
// @Summary Caller's own grade ids
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/grades/ids [get]
func (h *GradeHandler) MyGradeIDs(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ids, err := h.grades.ViewMyGradeIDs(caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// StudentGrades godoc
// @Summary A student's grade views
// @Tags Grades
// @Produce json
// @Param student path string true "Student identity"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{student}/grades [get]
func (h *GradeHandler) StudentGrades(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	views, err := h.grades.ViewStudentGrades(caller, c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// StudentGradeIDs godoc
// @Summary A student's grade ids
// @Tags Grades
// @Produce json
// @Param student path string true "Student identity"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/grades/ids [get]
func (h *GradeHandler) StudentGradeIDs(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ids, err := h.grades.ViewStudentGradeIDs(caller, c.Param("student"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// VerifyStudentCourse godoc
// @Summary Check whether a student holds a grade for a course
// @Tags Grades
// @Produce json
// @Param student path string true "Student identity"
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /students/{student}/courses/{code}/verify [get]
func (h *GradeHandler) VerifyStudentCourse(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	check, err := h.grades.VerifyStudentGrade(caller, c.Param("student"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}
