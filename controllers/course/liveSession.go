package controllers

import (
	"log"
	"time"

	"yogalive/config"
	"yogalive/database"
	"yogalive/middleware"
	courseModels "yogalive/models/course"
	"yogalive/utils"
	courseValidator "yogalive/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateLiveSession schedules a Zoom meeting and appends the session to
// the course. Sessions are append-only; dateTime never changes after this.
func AdminCreateLiveSession(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedLiveSession").(*courseValidator.CreateLiveSessionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	startTime, _ := time.Parse(time.RFC3339, reqData.DateTime)

	joinURL, err := utils.Meetings.CreateMeeting(reqData.Title, startTime, reqData.Duration)
	if err != nil {
		log.Printf("Error creating zoom meeting: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to create Zoom meeting!", nil)
	}

	session := courseModels.LiveSession{
		CourseID:    crs.ID,
		Title:       reqData.Title,
		DateTime:    startTime,
		Duration:    reqData.Duration,
		MeetingLink: joinURL,
	}

	if err := database.Database.Db.Create(&session).Error; err != nil {
		log.Printf("Error saving live session: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create live session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Zoom live session created!", session)
}

// AdminListLiveSessions lists all sessions of a course for the admin panel.
func AdminListLiveSessions(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var sessions []courseModels.LiveSession
	if err := database.Database.Db.Where("course_id = ?", crs.ID).Order("date_time asc").Find(&sessions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch live sessions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Live sessions fetched successfully!", fiber.Map{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// AdminUploadRecording stores a session recording and marks the session completed.
func AdminUploadRecording(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)
	sessionID := c.Locals("sessionID").(int)

	var session courseModels.LiveSession
	if err := database.Database.Db.Where("id = ? AND course_id = ?", sessionID, courseID).First(&session).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Live session not found!", nil)
	}

	recording, err := c.FormFile("recording")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Recording file is required!", nil)
	}

	filePath, err := utils.SaveUploadedFile(recording, config.AppConfig.UploadDir)
	if err != nil {
		log.Printf("Error saving recording: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save recording!", nil)
	}

	session.RecordingURL = utils.GetFileURL(filePath)
	session.IsCompleted = true

	if err := database.Database.Db.Save(&session).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update live session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Recording uploaded successfully!", session)
}

// AdminAddRecordedVideo adds an on-demand video to a course. This grows the
// progress denominator for all enrollments of the course.
func AdminAddRecordedVideo(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedRecordedVideo").(*courseValidator.AddRecordedVideoRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	video := courseModels.RecordedVideo{
		CourseID:    crs.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		VideoURL:    reqData.VideoURL,
		Duration:    reqData.Duration,
	}

	if err := database.Database.Db.Create(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add recorded video!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Recorded video added successfully!", video)
}
