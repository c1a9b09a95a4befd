package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/middleware"
	"github.com/campuskit/arp-api/internal/service"
)

// Handlers aggregates every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Courses     *CourseHandler
	Marks       *MarksHandler
	Attendance  *AttendanceHandler
	Assignments *AssignmentHandler
	Notices     *NoticeHandler
	Leaves      *LeaveHandler
	Exports     *ExportHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API surface under the given prefix. Everything
// except registration, login, refresh and the health endpoints requires a
// valid access token.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)

	protected.GET("/users", h.Users.List)
	protected.GET("/users/me", h.Users.Me)
	protected.GET("/users/:id", h.Users.Get)
	protected.PUT("/users/:id", h.Users.UpdateProfile)
	protected.POST("/users/:id/approve", h.Users.Approve)
	protected.POST("/users/:id/reject", h.Users.Reject)
	protected.POST("/users/:id/disable", h.Users.Disable)

	protected.GET("/courses", h.Courses.List)
	protected.GET("/courses/mine", h.Courses.MyCourses)
	protected.POST("/courses", h.Courses.Create)
	protected.GET("/courses/:id", h.Courses.Get)
	protected.PUT("/courses/:id", h.Courses.Update)
	protected.DELETE("/courses/:id", h.Courses.Delete)
	protected.GET("/courses/:id/enrollments", h.Courses.Enrollments)
	protected.POST("/courses/:id/enrollments", h.Courses.Enroll)
	protected.PUT("/courses/:id/enrollments/:studentId", h.Courses.SetMembership)

	protected.GET("/courses/:id/marks", h.Marks.ListByCourse)
	protected.POST("/courses/:id/marks", h.Marks.Record)
	protected.GET("/marks/mine", h.Marks.Mine)
	protected.GET("/marks/:id", h.Marks.Get)
	protected.POST("/marks/:id/finalize", h.Marks.Finalize)
	protected.GET("/students/:studentId/cgpa", h.Marks.CGPA)

	protected.GET("/courses/:id/attendance", h.Attendance.ByCourse)
	protected.PUT("/courses/:id/attendance", h.Attendance.Upsert)
	protected.GET("/attendance/mine", h.Attendance.Mine)

	protected.GET("/courses/:id/assignments", h.Assignments.ListByCourse)
	protected.POST("/assignments", h.Assignments.Create)
	protected.GET("/assignments/:id", h.Assignments.Get)
	protected.PUT("/assignments/:id/deadline", h.Assignments.UpdateDeadline)
	protected.DELETE("/assignments/:id", h.Assignments.Delete)
	protected.GET("/assignments/:id/submissions", h.Assignments.Submissions)
	protected.POST("/assignments/:id/submissions", h.Assignments.Submit)
	protected.GET("/submissions/:id", h.Assignments.GetSubmission)

	protected.GET("/notices", h.Notices.List)
	protected.POST("/notices", h.Notices.Create)
	protected.GET("/notices/:id", h.Notices.Get)
	protected.PUT("/notices/:id", h.Notices.Update)
	protected.DELETE("/notices/:id", h.Notices.Delete)

	protected.GET("/leaves/mine", h.Leaves.Mine)
	protected.GET("/leaves/pending", h.Leaves.Pending)
	protected.POST("/leaves", h.Leaves.File)
	protected.GET("/leaves/:id", h.Leaves.Get)
	protected.POST("/leaves/:id/review", h.Leaves.Review)

	protected.GET("/students/:studentId/report-card", h.Exports.ReportCard)
}
