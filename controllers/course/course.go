package controllers

import (
	"yogalive/database"
	"yogalive/middleware"
	courseModels "yogalive/models/course"
	courseValidator "yogalive/validators/course"

	"github.com/gofiber/fiber/v2"
)

// GetAllCourses lists the public catalog with optional filters.
func GetAllCourses(c *fiber.Ctx) error {
	reqData, _ := c.Locals("validatedCourseList").(*courseValidator.CourseListQuery)

	db := database.Database.Db.Model(&courseModels.Course{}).Where("is_deleted = ?", false)

	if reqData != nil {
		if reqData.Category != "" {
			db = db.Where("category = ?", reqData.Category)
		}
		if reqData.Level != "" {
			db = db.Where("level = ?", reqData.Level)
		}
		if reqData.IsFree != nil {
			db = db.Where("is_free = ?", *reqData.IsFree)
		}
		if reqData.MinPrice != nil {
			db = db.Where("price >= ?", *reqData.MinPrice)
		}
		if reqData.MaxPrice != nil {
			db = db.Where("price <= ?", *reqData.MaxPrice)
		}
		if reqData.Search != "" {
			like := "%" + reqData.Search + "%"
			db = db.Where("title LIKE ? OR description LIKE ?", like, like)
		}
	}

	var courses []courseModels.Course
	if err := db.Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"count":   len(courses),
		"courses": courses,
	})
}

// GetFeaturedCourses returns up to four featured courses for the landing page.
func GetFeaturedCourses(c *fiber.Ctx) error {
	var courses []courseModels.Course
	if err := database.Database.Db.
		Where("is_featured = ? AND is_deleted = ?", true, false).
		Order("created_at desc").
		Limit(4).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch featured courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Featured courses fetched successfully!", fiber.Map{
		"count":   len(courses),
		"courses": courses,
	})
}

// GetCourse returns a single course with its sessions and videos.
func GetCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var crs courseModels.Course
	if err := database.Database.Db.
		Preload("LiveSessions").
		Preload("RecordedVideos").
		Where("id = ? AND is_deleted = ?", courseID, false).
		First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", crs)
}
