package courseRoutes

import (
	courseControllers "yogalive/controllers/course"
	"yogalive/middleware"
	courseValidators "yogalive/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes wires the public catalog routes.
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	courseGroup.Get("/list", courseValidators.CourseList(), courseControllers.GetAllCourses)
	courseGroup.Get("/featured", courseControllers.GetFeaturedCourses)
	courseGroup.Get("/:id", courseValidators.CourseID(), courseControllers.GetCourse)
}

// SetupAdminCourseRoutes wires course, live session and recorded video admin routes.
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.AdminMiddleware)

	// Course CRUD
	adminGroup.Post("/create", courseValidators.CreateCourse(), courseControllers.AdminCreateCourse)
	adminGroup.Put("/:id", courseValidators.CourseID(), courseValidators.UpdateCourse(), courseControllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", courseValidators.CourseID(), courseControllers.AdminDeleteCourse)
	adminGroup.Post("/:id/featured", courseValidators.CourseID(), courseControllers.AdminToggleFeatured)
	adminGroup.Get("/stats", courseControllers.AdminCourseStats)

	// Live sessions
	adminGroup.Post("/:id/live-session", courseValidators.CourseID(), courseValidators.CreateLiveSession(), courseControllers.AdminCreateLiveSession)
	adminGroup.Get("/:id/live-sessions", courseValidators.CourseID(), courseControllers.AdminListLiveSessions)
	adminGroup.Post("/:id/live-session/:session_id/recording", courseValidators.CourseID(), courseValidators.SessionID(), courseControllers.AdminUploadRecording)

	// Recorded videos
	adminGroup.Post("/:id/video", courseValidators.CourseID(), courseValidators.AddRecordedVideo(), courseControllers.AdminAddRecordedVideo)
}
