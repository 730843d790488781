package controllers

import (
	"log"
	"time"

	"yogalive/database"
	"yogalive/middleware"
	"yogalive/models"
	courseModels "yogalive/models/course"
	enrollmentValidator "yogalive/validators/enrollment"

	"github.com/gofiber/fiber/v2"
)

// AdminGetAllEnrollments lists enrollments with optional status/course/user filters.
func AdminGetAllEnrollments(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedEnrollmentQuery").(*enrollmentValidator.AdminEnrollmentListQuery)

	db := database.Database.Db.Model(&courseModels.Enrollment{})

	if reqData != nil {
		if reqData.Status != "" {
			db = db.Where("payment_status = ?", reqData.Status)
		}
		if reqData.CourseID != nil {
			db = db.Where("course_id = ?", *reqData.CourseID)
		}
		if reqData.UserID != nil {
			db = db.Where("user_id = ?", *reqData.UserID)
		}
	}

	var enrollments []courseModels.Enrollment
	if err := db.Preload("Course").Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	type EnrollmentWithUser struct {
		courseModels.Enrollment
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	result := make([]EnrollmentWithUser, len(enrollments))
	for i, e := range enrollments {
		var user models.User
		database.Database.Db.Where("id = ?", e.UserID).First(&user)
		result[i] = EnrollmentWithUser{
			Enrollment: e,
			UserName:   user.Name,
			UserEmail:  user.Email,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"count":       len(result),
		"enrollments": result,
	})
}

// AdminUpdateEnrollment overrides payment status and access fields on an
// enrollment. Used for manual reconciliation, refunds and access extension.
func AdminUpdateEnrollment(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	reqData, ok := c.Locals("validatedEnrollmentUpdate").(*enrollmentValidator.AdminUpdateEnrollmentRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Status != "" {
		enrollment.PaymentStatus = reqData.Status
	}

	if reqData.Access != nil {
		if reqData.Access.ExpiresAt != nil {
			expiresAt, _ := time.Parse(time.RFC3339, *reqData.Access.ExpiresAt)
			enrollment.AccessExpiresAt = &expiresAt
		}
		if reqData.Access.IsActive != nil {
			enrollment.AccessIsActive = *reqData.Access.IsActive
		}
	}

	if err := database.Database.Db.Save(&enrollment).Error; err != nil {
		log.Printf("Error updating enrollment %d: %v", enrollment.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update enrollment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment updated!", enrollment)
}

// AdminEnrollmentStats returns enrollment and revenue aggregates.
func AdminEnrollmentStats(c *fiber.Ctx) error {
	db := database.Database.Db

	var overview struct {
		TotalEnrollments int64    `json:"total_enrollments"`
		Free             int64    `json:"free"`
		Paid             int64    `json:"paid"`
		Pending          int64    `json:"pending"`
		TotalRevenue     *float64 `json:"total_revenue"`
	}
	if err := db.Model(&courseModels.Enrollment{}).
		Select("COUNT(*) AS total_enrollments, " +
			"SUM(CASE WHEN payment_status = 'free' THEN 1 ELSE 0 END) AS free, " +
			"SUM(CASE WHEN payment_status = 'paid' THEN 1 ELSE 0 END) AS paid, " +
			"SUM(CASE WHEN payment_status = 'pending' THEN 1 ELSE 0 END) AS pending, " +
			"SUM(CASE WHEN payment_status = 'paid' THEN payment_amount ELSE 0 END) AS total_revenue").
		Scan(&overview).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollment stats!", nil)
	}

	var byCourse []struct {
		CourseID    uint   `json:"course_id"`
		CourseTitle string `json:"course_title"`
		Enrollments int64  `json:"enrollments"`
	}
	if err := db.Table("enrollments").
		Select("enrollments.course_id AS course_id, courses.title AS course_title, COUNT(*) AS enrollments").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.deleted_at IS NULL").
		Group("enrollments.course_id, courses.title").
		Order("enrollments desc").
		Scan(&byCourse).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollment stats!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment stats fetched successfully!", fiber.Map{
		"overview": overview,
		"byCourse": byCourse,
	})
}
