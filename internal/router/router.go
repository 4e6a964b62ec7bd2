package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/classora/classora-api/internal/handler"
	"github.com/classora/classora-api/internal/middleware"
	"github.com/classora/classora-api/internal/service"
	"github.com/classora/classora-api/pkg/config"
	"github.com/classora/classora-api/pkg/logger"
	corsmiddleware "github.com/classora/classora-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classora/classora-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Students    *handler.StudentHandler
	Guardians   *handler.GuardianHandler
	Subjects    *handler.SubjectHandler
	Courses     *handler.CourseHandler
	Enrollments *handler.EnrollmentHandler
	Events      *handler.EventHandler
	Halls       *handler.HallHandler
	Payments    *handler.PaymentHandler
	Roles       *handler.RoleHandler
	Apis        *handler.ApiHandler
	AuditLogs   *handler.AuditLogHandler
	Reports     *handler.ReportHandler
	Metrics     *handler.MetricsHandler
}

// Services carries the cross-cutting services the middleware chain needs.
type Services struct {
	Auth    *service.AuthService
	Roles   *service.RoleService
	Audits  *service.AuditService
	Metrics *service.MetricsService
}

// New assembles the gin engine with the full middleware chain and route
// table. Protected routes require a valid token and a role grant for the
// requested (method, route); every protected request is audited.
func New(cfg *config.Config, logr *zap.Logger, h Handlers, s Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(s.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	authed := auth.Group("")
	authed.Use(middleware.JWT(s.Auth))
	authed.POST("/logout", h.Auth.Logout)
	authed.POST("/change-password", h.Auth.ChangePassword)
	authed.GET("/me", h.Auth.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(s.Auth))
	protected.Use(middleware.Authorize(s.Roles))
	protected.Use(middleware.Audit(s.Audits))

	users := protected.Group("/users")
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	students := protected.Group("/students")
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.POST("", h.Students.Create)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.POST("/:id/payments/admission", h.Students.CreateAdmissionPayment)
	students.POST("/:id/payments/course", h.Students.CreateCoursePayment)

	guardians := protected.Group("/guardians")
	guardians.GET("", h.Guardians.List)
	guardians.GET("/:id", h.Guardians.Get)
	guardians.POST("", h.Guardians.Create)
	guardians.PUT("/:id", h.Guardians.Update)
	guardians.DELETE("/:id", h.Guardians.Delete)

	subjects := protected.Group("/subjects")
	subjects.GET("", h.Subjects.List)
	subjects.GET("/:id", h.Subjects.Get)
	subjects.POST("", h.Subjects.Create)
	subjects.PUT("/:id", h.Subjects.Update)
	subjects.DELETE("/:id", h.Subjects.Delete)

	courses := protected.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", h.Courses.Create)
	courses.PUT("/:id", h.Courses.Update)
	courses.DELETE("/:id", h.Courses.Delete)
	courses.PATCH("/:id/enable", h.Courses.Enable)
	courses.PATCH("/:id/disable", h.Courses.Disable)
	courses.GET("/:id/available-courses", h.Courses.Available)
	courses.GET("/:id/topics", h.Courses.ListTopics)
	courses.POST("/:id/topics", h.Courses.SaveTopics)

	enrollments := protected.Group("/enrollments")
	enrollments.GET("", h.Enrollments.List)
	enrollments.GET("/:id", h.Enrollments.Get)
	enrollments.POST("", h.Enrollments.Create)
	enrollments.PUT("/:id", h.Enrollments.Update)
	enrollments.DELETE("/:id", h.Enrollments.Delete)
	enrollments.GET("/:id/payments", h.Enrollments.ListPayments)

	events := protected.Group("/events")
	events.GET("", h.Events.List)
	events.GET("/:id", h.Events.Get)
	events.POST("", h.Events.Create)
	events.PUT("/:id", h.Events.Update)
	events.DELETE("/:id", h.Events.Delete)

	halls := protected.Group("/halls")
	halls.GET("", h.Halls.List)
	halls.GET("/:id", h.Halls.Get)
	halls.POST("", h.Halls.Create)
	halls.PUT("/:id", h.Halls.Update)
	halls.DELETE("/:id", h.Halls.Delete)

	payments := protected.Group("/payments")
	payments.GET("", h.Payments.List)
	payments.GET("/:id", h.Payments.Get)
	payments.GET("/:id/receipt", h.Payments.Receipt)
	payments.POST("/students/admission", h.Payments.CreateAdmission)
	payments.POST("/students/course", h.Payments.CreateCourse)

	roles := protected.Group("/roles")
	roles.GET("", h.Roles.List)
	roles.GET("/:id", h.Roles.Get)
	roles.POST("", h.Roles.Create)
	roles.PUT("/:id", h.Roles.Update)
	roles.DELETE("/:id", h.Roles.Delete)
	roles.GET("/:id/authorized", h.Roles.ListAuthorized)
	roles.POST("/:id/authorized", h.Roles.SaveAuthorized)

	apis := protected.Group("/apis")
	apis.GET("", h.Apis.List)
	apis.GET("/:id", h.Apis.Get)
	apis.POST("", h.Apis.Create)
	apis.PUT("/:id", h.Apis.Update)
	apis.DELETE("/:id", h.Apis.Delete)

	protected.GET("/auditlogs", h.AuditLogs.List)

	reports := protected.Group("/reports")
	reports.POST("/auditlogs", h.Reports.ExportAuditLogs)
	reports.POST("/payments", h.Reports.ExportPayments)

	// The download link is pre-authorized by its signed token.
	api.GET("/reports/download", h.Reports.Download)

	return r
}
