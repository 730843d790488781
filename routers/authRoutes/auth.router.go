package authRoutes

import (
	authControllers "yogalive/controllers/auth"
	"yogalive/middleware"
	authValidators "yogalive/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes wires user and admin authentication routes.
func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Patch("/verify/otp", authValidators.VerifyOTP(), authControllers.VerifyOTP)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)

	adminGroup := app.Group("/admin/auth")
	adminGroup.Post("/register", middleware.JWTMiddleware, middleware.AdminMiddleware, authValidators.Signup(), authControllers.RegisterAdmin)
	adminGroup.Post("/login", authValidators.Login(), authControllers.LoginAdmin)
}
