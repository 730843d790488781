package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"yogalive/database"
	"yogalive/middleware"
	"yogalive/models"
	courseModels "yogalive/models/course"
	"yogalive/utils"
	enrollmentValidator "yogalive/validators/enrollment"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// hasContentAccess looks up the enrollment for (user, course) and reports
// whether it currently grants content access.
func hasContentAccess(db *gorm.DB, userID uint, courseID uint) (bool, *courseModels.Enrollment) {
	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		return false, nil
	}
	return enrollment.HasContentAccess(time.Now()), &enrollment
}

// EnrollInCourse enrolls the caller in a course. Free courses grant access
// immediately; paid courses create a pending enrollment plus a payment intent
// and grant nothing until the payment is confirmed.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Friendly duplicate check; the unique index on (user_id, course_id) is
	// the real guard against concurrent enrolls.
	var existing courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ?", userID, crs.ID).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You're already enrolled in this course!", nil)
	}

	// Free course flow
	if crs.IsFree {
		enrollment := courseModels.Enrollment{
			UserID:         userID,
			CourseID:       crs.ID,
			EnrolledAt:     time.Now(),
			PaymentStatus:  courseModels.PaymentStatusFree,
			PaymentAmount:  0,
			AccessIsActive: true,
		}

		// Enrollment and the denormalized membership entry commit together.
		err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&enrollment).Error; err != nil {
				return err
			}
			membership := courseModels.CourseEnrolledUser{
				CourseID:      crs.ID,
				UserID:        userID,
				PaymentStatus: courseModels.PaymentStatusFree,
				EnrolledAt:    enrollment.EnrolledAt,
			}
			return tx.Where("course_id = ? AND user_id = ?", crs.ID, userID).FirstOrCreate(&membership).Error
		})
		if err != nil {
			if isDuplicateEnrollment(database.Database.Db, userID, crs.ID) {
				return middleware.JsonResponse(c, fiber.StatusConflict, false, "You're already enrolled in this course!", nil)
			}
			log.Printf("Error creating free enrollment: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
		}

		utils.SendEnrollmentEmail(user.Email, user.Name, crs.Title)

		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully in free course!", enrollment)
	}

	// Paid course flow. The intent is created before the enrollment row so a
	// gateway failure never leaves a dangling pending enrollment behind.
	orderID := fmt.Sprintf("enroll-%d-%d-%s", userID, crs.ID, uuid.NewString()[:8])

	grossAmount := int64(math.Round(crs.Price))

	intent, err := utils.Payment.CreatePaymentIntent(orderID, grossAmount, user.Name, user.Email, crs.Title)
	if err != nil {
		log.Printf("Error creating payment intent: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Payment gateway unavailable, please try again!", nil)
	}

	// Keep the raw gateway payload on the row for reconciliation.
	rawIntent, _ := json.Marshal(intent)

	enrollment := courseModels.Enrollment{
		UserID:          userID,
		CourseID:        crs.ID,
		EnrolledAt:      time.Now(),
		PaymentStatus:   courseModels.PaymentStatusPending,
		PaymentAmount:   crs.Price,
		TransactionID:   intent.OrderID,
		PaymentResponse: datatypes.JSON(rawIntent),
	}

	if err := database.Database.Db.Create(&enrollment).Error; err != nil {
		if isDuplicateEnrollment(database.Database.Db, userID, crs.ID) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "You're already enrolled in this course!", nil)
		}
		log.Printf("Error creating pending enrollment: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment required to complete enrollment!", fiber.Map{
		"clientSecret": intent.Token,
		"redirectUrl":  intent.RedirectURL,
		"enrollmentId": enrollment.ID,
		"amount":       crs.Price,
	})
}

func isDuplicateEnrollment(db *gorm.DB, userID, courseID uint) bool {
	var existing courseModels.Enrollment
	return db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error == nil
}

// ConfirmPayment transitions a pending enrollment to paid and activates
// access. Confirming anything but a pending enrollment fails cleanly, which
// makes repeated confirmations harmless.
//
// Note: confirmation is client-initiated for compatibility with the existing
// frontend; the gateway's own notification callback should eventually drive
// this instead.
func ConfirmPayment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	if enrollment.PaymentStatus != courseModels.PaymentStatusPending {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment already processed!", nil)
	}

	now := time.Now()
	enrollment.PaymentStatus = courseModels.PaymentStatusPaid
	enrollment.PaymentDate = &now
	enrollment.AccessIsActive = true

	// The paid branch deferred denormalization until confirmation; write the
	// membership entry now, idempotently.
	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&enrollment).Error; err != nil {
			return err
		}
		membership := courseModels.CourseEnrolledUser{
			CourseID:      enrollment.CourseID,
			UserID:        enrollment.UserID,
			PaymentStatus: courseModels.PaymentStatusPaid,
			EnrolledAt:    enrollment.EnrolledAt,
		}
		return tx.Where("course_id = ? AND user_id = ?", enrollment.CourseID, enrollment.UserID).FirstOrCreate(&membership).Error
	})
	if err != nil {
		log.Printf("Error confirming payment for enrollment %d: %v", enrollment.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to confirm payment!", nil)
	}

	var user models.User
	var crs courseModels.Course
	if database.Database.Db.First(&user, enrollment.UserID).Error == nil &&
		database.Database.Db.First(&crs, enrollment.CourseID).Error == nil {
		utils.SendEnrollmentEmail(user.Email, user.Name, crs.Title)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment confirmed and enrollment completed!", enrollment)
}

// GetMyEnrollments lists the caller's enrollments, newest first.
func GetMyEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ?", userID).
		Preload("Course").
		Preload("CompletedVideos").
		Order("enrolled_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"count":       len(enrollments),
		"enrollments": enrollments,
	})
}

// GetCourseContent returns course content for an enrolled user with active
// access. Live sessions are partitioned into upcoming and past at query time.
func GetCourseContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	allowed, enrollment := hasContentAccess(database.Database.Db, userID, uint(courseID))
	if !allowed {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You're not enrolled in this course!", nil)
	}

	var crs courseModels.Course
	if err := database.Database.Db.
		Preload("LiveSessions").
		Preload("RecordedVideos").
		Where("id = ? AND is_deleted = ?", courseID, false).
		First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	now := time.Now()
	upcoming := make([]courseModels.LiveSession, 0)
	past := make([]courseModels.LiveSession, 0)
	for _, session := range crs.LiveSessions {
		if session.DateTime.After(now) {
			upcoming = append(upcoming, session)
		} else {
			past = append(past, session)
		}
	}

	if err := database.Database.Db.Preload("CompletedVideos").First(enrollment, enrollment.ID).Error; err != nil {
		// Serve the content anyway; the snapshot just lacks per-video entries.
		log.Printf("Error loading progress for enrollment %d: %v", enrollment.ID, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"recordedVideos":       crs.RecordedVideos,
		"upcomingLiveSessions": upcoming,
		"pastSessions":         past,
		"enrollmentProgress": fiber.Map{
			"completedVideos":   enrollment.CompletedVideos,
			"overallCompletion": enrollment.OverallCompletion,
			"lastAccessed":      enrollment.LastAccessed,
		},
	})
}

// UpdateProgress upserts one per-video progress entry and recomputes the
// overall completion from the course's actual recorded-video count. The
// upsert and recomputation run in one transaction so concurrent reports for
// different videos cannot lose updates to the aggregate.
func UpdateProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	enrollmentID := c.Locals("enrollmentID").(int)

	reqData, ok := c.Locals("validatedProgress").(*enrollmentValidator.UpdateProgressRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("id = ? AND user_id = ?", enrollmentID, userID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}

	now := time.Now()

	err := database.Database.Db.Transaction(func(tx *gorm.DB) error {
		var entry courseModels.CompletedVideo
		err := tx.Where("enrollment_id = ? AND video_id = ?", enrollment.ID, reqData.VideoID).First(&entry).Error
		switch {
		case err == nil:
			entry.ProgressPercentage = reqData.ProgressPercentage
			entry.CompletedAt = now
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			entry = courseModels.CompletedVideo{
				EnrollmentID:       enrollment.ID,
				VideoID:            reqData.VideoID,
				ProgressPercentage: reqData.ProgressPercentage,
				CompletedAt:        now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// Recompute from post-upsert state, never from a stale read.
		var completed int64
		if err := tx.Model(&courseModels.CompletedVideo{}).Where("enrollment_id = ?", enrollment.ID).Count(&completed).Error; err != nil {
			return err
		}

		var totalVideos int64
		if err := tx.Model(&courseModels.RecordedVideo{}).Where("course_id = ?", enrollment.CourseID).Count(&totalVideos).Error; err != nil {
			return err
		}

		overall := 0
		if totalVideos > 0 {
			overall = int(math.Round(float64(completed) / float64(totalVideos) * 100))
			if overall > 100 {
				overall = 100
			}
		}

		enrollment.OverallCompletion = overall
		enrollment.LastAccessed = &now
		return tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
			Updates(map[string]interface{}{"overall_completion": overall, "last_accessed": now}).Error
	})
	if err != nil {
		log.Printf("Error updating progress for enrollment %d: %v", enrollment.ID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	var completedVideos []courseModels.CompletedVideo
	database.Database.Db.Where("enrollment_id = ?", enrollment.ID).Order("completed_at asc").Find(&completedVideos)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated!", fiber.Map{
		"completedVideos":   completedVideos,
		"overallCompletion": enrollment.OverallCompletion,
		"lastAccessed":      enrollment.LastAccessed,
	})
}
