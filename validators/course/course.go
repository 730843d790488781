package courseValidator

import (
	"strconv"
	"strings"
	"time"

	"yogalive/middleware"

	"github.com/gofiber/fiber/v2"
)

// CourseID validates the :id route param and stashes it as an int.
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("id"))
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

type CourseListQuery struct {
	Category string   `query:"category"`
	Level    string   `query:"level"`
	IsFree   *bool    `query:"isFree"`
	MinPrice *float64 `query:"minPrice"`
	MaxPrice *float64 `query:"maxPrice"`
	Search   string   `query:"search"`
}

var validCategories = map[string]bool{
	"beginner": true, "intermediate": true, "advanced": true, "therapy": true, "meditation": true,
}

var validLevels = map[string]bool{
	"beginner": true, "intermediate": true, "advanced": true,
}

func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseListQuery)

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Category != "" && !validCategories[reqData.Category] {
			errors["category"] = "Invalid category!"
		}
		if reqData.Level != "" && !validLevels[reqData.Level] {
			errors["level"] = "Invalid level!"
		}
		if reqData.MinPrice != nil && *reqData.MinPrice < 0 {
			errors["minPrice"] = "minPrice cannot be negative!"
		}
		if reqData.MaxPrice != nil && *reqData.MaxPrice < 0 {
			errors["maxPrice"] = "maxPrice cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseList", reqData)
		return c.Next()
	}
}

type CreateCourseRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Category    string `form:"category"`
	Level       string `form:"level"`
	Duration    string `form:"duration"`
	Price       string `form:"price"`
}

// CreateCourse validates the multipart course creation form. The thumbnail
// file itself is checked in the controller.
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		} else if len(strings.TrimSpace(reqData.Title)) < 3 {
			errors["title"] = "Title must be at least 3 characters long!"
		}

		if strings.TrimSpace(reqData.Description) == "" {
			errors["description"] = "Description is required!"
		}

		if reqData.Category != "" && !validCategories[reqData.Category] {
			errors["category"] = "Invalid category!"
		}
		if reqData.Level != "" && !validLevels[reqData.Level] {
			errors["level"] = "Invalid level!"
		}

		if reqData.Duration == "" {
			errors["duration"] = "Duration is required!"
		} else if d, err := strconv.Atoi(reqData.Duration); err != nil || d <= 0 {
			errors["duration"] = "Duration must be a positive number of days!"
		}

		if reqData.Price == "" {
			errors["price"] = "Price is required!"
		} else if p, err := strconv.ParseFloat(reqData.Price, 64); err != nil || p < 0 {
			errors["price"] = "Price must be a valid non-negative number!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

type UpdateCourseRequest struct {
	Title       *string `form:"title"`
	Description *string `form:"description"`
	Category    *string `form:"category"`
	Level       *string `form:"level"`
	Duration    *string `form:"duration"`
	Price       *string `form:"price"`
}

func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateCourseRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Category != nil && *reqData.Category != "" && !validCategories[*reqData.Category] {
			errors["category"] = "Invalid category!"
		}
		if reqData.Level != nil && *reqData.Level != "" && !validLevels[*reqData.Level] {
			errors["level"] = "Invalid level!"
		}
		if reqData.Duration != nil && *reqData.Duration != "" {
			if d, err := strconv.Atoi(*reqData.Duration); err != nil || d <= 0 {
				errors["duration"] = "Duration must be a positive number of days!"
			}
		}
		if reqData.Price != nil && *reqData.Price != "" {
			if p, err := strconv.ParseFloat(*reqData.Price, 64); err != nil || p < 0 {
				errors["price"] = "Price must be a valid non-negative number!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourseUpdate", reqData)
		return c.Next()
	}
}

type CreateLiveSessionRequest struct {
	Title    string `json:"title"`
	DateTime string `json:"dateTime"`
	Duration int    `json:"duration"`
}

// CreateLiveSession validates the session scheduling body. dateTime must be an
// RFC3339 instant in the future.
func CreateLiveSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateLiveSessionRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}

		if reqData.DateTime == "" {
			errors["dateTime"] = "dateTime is required!"
		} else if parsed, err := time.Parse(time.RFC3339, reqData.DateTime); err != nil {
			errors["dateTime"] = "dateTime must be a valid RFC3339 timestamp!"
		} else if !parsed.After(time.Now()) {
			errors["dateTime"] = "dateTime must be in the future!"
		}

		if reqData.Duration <= 0 {
			errors["duration"] = "Duration must be a positive number of minutes!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLiveSession", reqData)
		return c.Next()
	}
}

// SessionID validates the :session_id route param.
func SessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionIDStr := strings.TrimSpace(c.Params("session_id"))
		sessionID, err := strconv.Atoi(sessionIDStr)
		if err != nil || sessionID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Session ID!", nil)
		}

		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

type AddRecordedVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl"`
	Duration    int    `json:"duration"`
}

func AddRecordedVideo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AddRecordedVideoRequest)

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if strings.TrimSpace(reqData.VideoURL) == "" {
			errors["videoUrl"] = "videoUrl is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRecordedVideo", reqData)
		return c.Next()
	}
}
