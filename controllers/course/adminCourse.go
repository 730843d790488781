package controllers

import (
	"log"
	"strconv"

	"yogalive/config"
	"yogalive/database"
	"yogalive/middleware"
	courseModels "yogalive/models/course"
	"yogalive/utils"
	courseValidator "yogalive/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateCourse creates a new course with a multipart thumbnail upload.
// is_free is derived from the price: a zero price makes the course free.
func AdminCreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Thumbnail file is required!", nil)
	}

	filePath, err := utils.SaveUploadedFile(thumbnail, config.AppConfig.UploadDir)
	if err != nil {
		log.Printf("Error saving thumbnail: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save thumbnail!", nil)
	}

	duration, _ := strconv.Atoi(reqData.Duration)
	price, _ := strconv.ParseFloat(reqData.Price, 64)

	crs := courseModels.Course{
		Title:       reqData.Title,
		Description: reqData.Description,
		Category:    reqData.Category,
		Level:       reqData.Level,
		Duration:    duration,
		Price:       price,
		IsFree:      price == 0,
		Thumbnail:   utils.GetFileURL(filePath),
	}

	if err := database.Database.Db.Create(&crs).Error; err != nil {
		log.Printf("Error creating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", crs)
}

// AdminUpdateCourse applies a partial update, optionally replacing the thumbnail.
func AdminUpdateCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedCourseUpdate").(*courseValidator.UpdateCourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Title != nil && *reqData.Title != "" {
		crs.Title = *reqData.Title
	}
	if reqData.Description != nil && *reqData.Description != "" {
		crs.Description = *reqData.Description
	}
	if reqData.Category != nil && *reqData.Category != "" {
		crs.Category = *reqData.Category
	}
	if reqData.Level != nil && *reqData.Level != "" {
		crs.Level = *reqData.Level
	}
	if reqData.Duration != nil && *reqData.Duration != "" {
		duration, _ := strconv.Atoi(*reqData.Duration)
		crs.Duration = duration
	}
	if reqData.Price != nil && *reqData.Price != "" {
		price, _ := strconv.ParseFloat(*reqData.Price, 64)
		crs.Price = price
		crs.IsFree = price == 0
	}

	if thumbnail, err := c.FormFile("thumbnail"); err == nil && thumbnail != nil {
		filePath, err := utils.SaveUploadedFile(thumbnail, config.AppConfig.UploadDir)
		if err != nil {
			log.Printf("Error saving thumbnail: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save new thumbnail!", nil)
		}
		crs.Thumbnail = utils.GetFileURL(filePath)
	}

	if err := database.Database.Db.Save(&crs).Error; err != nil {
		log.Printf("Error updating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", crs)
}

// AdminDeleteCourse soft-deletes a course. Enrollments are kept; refunds and
// access revocation are separate admin actions.
func AdminDeleteCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := database.Database.Db.Model(&crs).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// AdminToggleFeatured flips the featured flag on a course.
func AdminToggleFeatured(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	crs.IsFeatured = !crs.IsFeatured
	if err := database.Database.Db.Save(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	message := "Course removed from featured!"
	if crs.IsFeatured {
		message = "Course added to featured!"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"id":          crs.ID,
		"is_featured": crs.IsFeatured,
	})
}

// AdminCourseStats returns catalog-level aggregates.
func AdminCourseStats(c *fiber.Ctx) error {
	db := database.Database.Db

	var overview struct {
		TotalCourses int64    `json:"total_courses"`
		TotalFree    int64    `json:"total_free"`
		TotalPaid    int64    `json:"total_paid"`
		AvgPrice     *float64 `json:"avg_price"`
		MinPrice     *float64 `json:"min_price"`
		MaxPrice     *float64 `json:"max_price"`
	}
	if err := db.Model(&courseModels.Course{}).
		Select("COUNT(*) AS total_courses, " +
			"SUM(CASE WHEN is_free THEN 1 ELSE 0 END) AS total_free, " +
			"SUM(CASE WHEN is_free THEN 0 ELSE 1 END) AS total_paid, " +
			"AVG(price) AS avg_price, MIN(price) AS min_price, MAX(price) AS max_price").
		Where("is_deleted = ?", false).
		Scan(&overview).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course stats!", nil)
	}

	type bucket struct {
		Key   string `json:"key"`
		Count int64  `json:"count"`
	}

	var byCategory []bucket
	db.Model(&courseModels.Course{}).
		Select("category AS key, COUNT(*) AS count").
		Where("is_deleted = ?", false).
		Group("category").
		Order("count desc").
		Scan(&byCategory)

	var byLevel []bucket
	db.Model(&courseModels.Course{}).
		Select("level AS key, COUNT(*) AS count").
		Where("is_deleted = ?", false).
		Group("level").
		Order("count desc").
		Scan(&byLevel)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course stats fetched successfully!", fiber.Map{
		"overview":    overview,
		"by_category": byCategory,
		"by_level":    byLevel,
	})
}
