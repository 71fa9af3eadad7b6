package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/handler"
	"github.com/noah-isme/grade-ledger-api/internal/middleware"
	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/service"
	"github.com/noah-isme/grade-ledger-api/pkg/config"
	"github.com/noah-isme/grade-ledger-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/grade-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/grade-ledger-api/pkg/middleware/requestid"
)

type routerServices struct {
	auth        *service.AuthService
	roles       *service.RoleService
	courses     *service.CourseService
	access      *service.AccessService
	grades      *service.GradeWorkflowService
	queries     *service.GradeQueryService
	journal     *service.JournalService
	transcripts *service.TranscriptService
	metrics     *service.MetricsService
	ledger      *service.Ledger
	checks      map[string]handler.ReadinessCheck
}

func newRouter(cfg *config.Config, logr *zap.Logger, svc routerServices) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.Identity))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.metrics))

	metricsHandler := handler.NewMetricsHandler(svc.metrics, svc.ledger, svc.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authHandler := handler.NewAuthHandler(svc.auth)
	if cfg.Env != config.EnvProduction {
		api.POST("/auth/token", authHandler.IssueToken)
	}

	transcriptHandler := handler.NewTranscriptHandler(nil)
	if svc.transcripts != nil {
		transcriptHandler = handler.NewTranscriptHandler(svc.transcripts)
	}
	// Signed links carry their own authorization.
	api.GET("/transcripts/:token", transcriptHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.auth))

	roleHandler := handler.NewRoleHandler(svc.roles)
	secured.POST("/roles", roleHandler.Assign)
	secured.GET("/roles", roleHandler.List)
	secured.GET("/roles/:identity", roleHandler.Get)
	secured.DELETE("/roles/:identity", roleHandler.Revoke)

	courseHandler := handler.NewCourseHandler(svc.courses)
	secured.POST("/courses", courseHandler.Register)
	secured.GET("/courses", courseHandler.List)
	secured.GET("/courses/:code", courseHandler.Get)

	gradeHandler := handler.NewGradeHandler(svc.grades, svc.queries)
	secured.POST("/grades", middleware.RequireRoles(svc.roles, models.RoleTeacher), gradeHandler.Create)
	secured.GET("/grades", gradeHandler.ListByStatus)
	secured.GET("/grades/stats", gradeHandler.Stats)
	secured.GET("/grades/:id", gradeHandler.Get)
	secured.GET("/grades/:id/view", gradeHandler.View)
	secured.GET("/grades/:id/signatures", gradeHandler.Signatures)
	secured.GET("/grades/:id/status", gradeHandler.Status)
	secured.POST("/grades/:id/verify", gradeHandler.Verify)
	secured.POST("/grades/:id/ratify", gradeHandler.Ratify)
	secured.GET("/me/grades", gradeHandler.MyGrades)
	secured.GET("/me/grades/ids", gradeHandler.MyGradeIDs)
	secured.GET("/students/:student/grades", gradeHandler.StudentGrades)
	secured.GET("/students/:student/grades/ids", gradeHandler.StudentGradeIDs)
	secured.GET("/students/:student/courses/:code/verify", gradeHandler.VerifyStudentCourse)

	accessHandler := handler.NewAccessHandler(svc.access)
	secured.POST("/access", accessHandler.Grant)
	secured.DELETE("/access/:viewer", accessHandler.Revoke)
	secured.GET("/students/:student/access", accessHandler.List)
	secured.GET("/students/:student/access/:viewer", accessHandler.Check)

	secured.POST("/students/:student/transcripts", transcriptHandler.Generate)

	eventHandler := handler.NewEventHandler(svc.journal)
	secured.GET("/events", middleware.RequireAuthority(svc.ledger.Authority()), eventHandler.List)
	secured.GET("/metrics/summary", middleware.RequireAuthority(svc.ledger.Authority()), metricsHandler.Summary)

	return r
}
