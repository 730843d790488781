package enrollmentRoutes

import (
	enrollmentControllers "yogalive/controllers/enrollment"
	"yogalive/middleware"
	enrollmentValidators "yogalive/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// SetupEnrollmentRoutes wires user-facing enrollment routes.
func SetupEnrollmentRoutes(app *fiber.App) {
	enrollGroup := app.Group("/enroll", middleware.JWTMiddleware)

	enrollGroup.Post("/:courseId", enrollmentValidators.CourseID(), enrollmentControllers.EnrollInCourse)
	enrollGroup.Put("/confirm/:enrollmentId", enrollmentValidators.EnrollmentID(), enrollmentControllers.ConfirmPayment)
	enrollGroup.Get("/my-enrollments", enrollmentControllers.GetMyEnrollments)
	enrollGroup.Get("/course-content/:courseId", enrollmentValidators.CourseID(), enrollmentControllers.GetCourseContent)
	enrollGroup.Put("/progress/:enrollmentId", enrollmentValidators.EnrollmentID(), enrollmentValidators.UpdateProgress(), enrollmentControllers.UpdateProgress)
}

// SetupAdminEnrollmentRoutes wires enrollment administration routes.
func SetupAdminEnrollmentRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/enrollments", middleware.JWTMiddleware, middleware.AdminMiddleware)

	adminGroup.Get("/", enrollmentValidators.AdminEnrollmentList(), enrollmentControllers.AdminGetAllEnrollments)
	adminGroup.Get("/stats", enrollmentControllers.AdminEnrollmentStats)
	adminGroup.Put("/:id", enrollmentValidators.AdminUpdateEnrollment(), enrollmentControllers.AdminUpdateEnrollment)
}
