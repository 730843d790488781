package enrollmentValidator

import (
	"strconv"
	"strings"
	"time"

	"yogalive/middleware"
	courseModels "yogalive/models/course"

	"github.com/gofiber/fiber/v2"
)

// CourseID validates the :courseId route param.
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("courseId"))
		if courseIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
		}

		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// EnrollmentID validates the :enrollmentId route param.
func EnrollmentID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentIDStr := strings.TrimSpace(c.Params("enrollmentId"))
		if enrollmentIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Enrollment ID is required!", nil)
		}

		enrollmentID, err := strconv.Atoi(enrollmentIDStr)
		if err != nil || enrollmentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		c.Locals("enrollmentID", enrollmentID)
		return c.Next()
	}
}

type UpdateProgressRequest struct {
	VideoID            uint    `json:"videoId"`
	ProgressPercentage float64 `json:"progressPercentage"`
}

func UpdateProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProgressRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.VideoID == 0 {
			errors["videoId"] = "videoId is required!"
		}
		if reqData.ProgressPercentage < 0 || reqData.ProgressPercentage > 100 {
			errors["progressPercentage"] = "progressPercentage must be between 0 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProgress", reqData)
		return c.Next()
	}
}

type AdminEnrollmentListQuery struct {
	Status   string `query:"status"`
	CourseID *uint  `query:"courseId"`
	UserID   *uint  `query:"userId"`
}

var validStatuses = map[string]bool{
	courseModels.PaymentStatusPending:  true,
	courseModels.PaymentStatusPaid:     true,
	courseModels.PaymentStatusFree:     true,
	courseModels.PaymentStatusFailed:   true,
	courseModels.PaymentStatusRefunded: true,
}

func AdminEnrollmentList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AdminEnrollmentListQuery)

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		if reqData.Status != "" && !validStatuses[reqData.Status] {
			return middleware.ValidationErrorResponse(c, map[string]string{"status": "Invalid payment status!"})
		}

		c.Locals("validatedEnrollmentQuery", reqData)
		return c.Next()
	}
}

type AdminUpdateEnrollmentRequest struct {
	Status string `json:"status"`
	Access *struct {
		ExpiresAt *string `json:"expiresAt"`
		IsActive  *bool   `json:"isActive"`
	} `json:"access"`
}

func AdminUpdateEnrollment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentIDStr := strings.TrimSpace(c.Params("id"))
		enrollmentID, err := strconv.Atoi(enrollmentIDStr)
		if err != nil || enrollmentID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Enrollment ID!", nil)
		}

		reqData := new(AdminUpdateEnrollmentRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Status != "" && !validStatuses[reqData.Status] {
			errors["status"] = "Invalid payment status!"
		}

		if reqData.Access != nil && reqData.Access.ExpiresAt != nil {
			if _, err := time.Parse(time.RFC3339, *reqData.Access.ExpiresAt); err != nil {
				errors["access.expiresAt"] = "expiresAt must be a valid RFC3339 timestamp!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("enrollmentID", enrollmentID)
		c.Locals("validatedEnrollmentUpdate", reqData)
		return c.Next()
	}
}
