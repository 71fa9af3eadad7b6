package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	appErrors "github.com/noah-isme/grade-ledger-api/pkg/errors"
	"github.com/noah-isme/grade-ledger-api/pkg/response"
)

type courseService interface {
	RegisterCourse(ctx context.Context, caller string, req models.RegisterCourseRequest) (*models.Course, error)
	GetCourseName(code string) string
	ListCourses() []models.Course
}

// CourseHandler exposes the course catalog.
type CourseHandler struct {
	courses courseService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(courses courseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Register godoc
// @Summary Register or rename a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body models.RegisterCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Register(c *gin.Context) {
	caller, err := callerIdentity(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RegisterCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	course, err := h.courses.RegisterCourse(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.courses.ListCourses(), nil)
}

// Get godoc
// @Summary Get a course
// @Tags Courses
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	code := c.Param("code")
	name := h.courses.GetCourseName(code)
	if name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not registered"))
		return
	}
	response.JSON(c, http.StatusOK, models.Course{Code: code, Name: name}, nil)
}
