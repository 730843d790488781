package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"yogalive/config"
	"yogalive/database"
	"yogalive/middleware"
	"yogalive/models"
	courseModels "yogalive/models/course"
	enrollmentRoutes "yogalive/routers/enrollmentRoutes"
	"yogalive/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeMailer struct {
	mu    sync.Mutex
	sends []string
}

func (m *fakeMailer) Send(toName, toEmail, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, toEmail)
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	calls     int
	lastGross int64
	fail      bool
}

func (g *fakeGateway) CreatePaymentIntent(orderID string, grossAmount int64, customerName, customerEmail, itemName string) (*utils.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastGross = grossAmount
	if g.fail {
		return nil, fmt.Errorf("gateway unavailable")
	}
	return &utils.PaymentIntent{
		OrderID:     orderID,
		Token:       "snap-token-" + orderID,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + orderID,
	}, nil
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTest(t *testing.T) (*fiber.App, *gorm.DB, *fakeGateway) {
	t.Helper()

	config.LoadConfig()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	gateway := &fakeGateway{}
	utils.Payment = gateway
	utils.Mailer = &fakeMailer{}

	app := fiber.New()
	enrollmentRoutes.SetupEnrollmentRoutes(app)
	enrollmentRoutes.SetupAdminEnrollmentRoutes(app)

	return app, db, gateway
}

func createUser(t *testing.T, db *gorm.DB, email, role string) (models.User, string) {
	t.Helper()
	user := models.User{
		Name:       "Test User",
		Email:      email,
		Password:   "hashed",
		Role:       role,
		IsVerified: true,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)

	return user, token
}

func createCourse(t *testing.T, db *gorm.DB, title string, price float64, videos int) courseModels.Course {
	t.Helper()
	crs := courseModels.Course{
		Title:       title,
		Description: "A test course",
		Duration:    30,
		Price:       price,
		IsFree:      price == 0,
	}
	require.NoError(t, db.Create(&crs).Error)

	for i := 0; i < videos; i++ {
		video := courseModels.RecordedVideo{
			CourseID: crs.ID,
			Title:    fmt.Sprintf("Video %d", i+1),
			VideoURL: fmt.Sprintf("/uploads/video-%d.mp4", i+1),
		}
		require.NoError(t, db.Create(&video).Error)
	}
	return crs
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed apiResponse
	require.NoError(t, json.Unmarshal(raw, &parsed))

	return resp, parsed
}

func TestEnrollFreeCourseGrantsImmediateAccess(t *testing.T) {
	app, db, _ := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 3)

	resp, body := doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, body.Status)

	var enrollment courseModels.Enrollment
	require.NoError(t, json.Unmarshal(body.Data, &enrollment))
	assert.Equal(t, courseModels.PaymentStatusFree, enrollment.PaymentStatus)
	assert.True(t, enrollment.AccessIsActive)
	assert.Equal(t, 0, enrollment.OverallCompletion)

	// Denormalized membership entry is written on the free path
	var membership courseModels.CourseEnrolledUser
	require.NoError(t, db.Where("course_id = ?", crs.ID).First(&membership).Error)
	assert.Equal(t, courseModels.PaymentStatusFree, membership.PaymentStatus)

	// Content is accessible right away
	resp, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	app, db, _ := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 0)

	resp, _ := doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var count int64
	db.Model(&courseModels.Enrollment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestEnrollUnknownCourseNotFound(t *testing.T) {
	app, db, _ := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")

	resp, _ := doRequest(t, app, http.MethodPost, "/enroll/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEnrollPaidCourseRequiresConfirmation(t *testing.T) {
	app, db, gateway := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Advanced Pranayama", 1500, 2)

	resp, body := doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, gateway.calls)

	var payload struct {
		ClientSecret string  `json:"clientSecret"`
		EnrollmentID uint    `json:"enrollmentId"`
		Amount       float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	assert.NotEmpty(t, payload.ClientSecret)
	assert.Equal(t, 1500.0, payload.Amount)

	// The raw gateway payload is kept on the pending row
	var pending courseModels.Enrollment
	require.NoError(t, db.First(&pending, payload.EnrollmentID).Error)
	var storedIntent utils.PaymentIntent
	require.NoError(t, json.Unmarshal(pending.PaymentResponse, &storedIntent))
	assert.Equal(t, payload.ClientSecret, storedIntent.Token)
	assert.Equal(t, pending.TransactionID, storedIntent.OrderID)

	// No access and no denormalized membership before confirmation
	resp, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var memberships int64
	db.Model(&courseModels.CourseEnrolledUser{}).Count(&memberships)
	assert.Equal(t, int64(0), memberships)

	// Confirm payment
	resp, body = doRequest(t, app, http.MethodPut, fmt.Sprintf("/enroll/confirm/%d", payload.EnrollmentID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var confirmed courseModels.Enrollment
	require.NoError(t, json.Unmarshal(body.Data, &confirmed))
	assert.Equal(t, courseModels.PaymentStatusPaid, confirmed.PaymentStatus)
	assert.NotNil(t, confirmed.PaymentDate)

	// Access granted, membership denormalized as paid
	resp, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var membership courseModels.CourseEnrolledUser
	require.NoError(t, db.Where("course_id = ?", crs.ID).First(&membership).Error)
	assert.Equal(t, courseModels.PaymentStatusPaid, membership.PaymentStatus)
}

func TestConfirmPaymentIsNotReplayable(t *testing.T) {
	app, db, _ := setupTest(t)
	user, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Advanced Pranayama", 1500, 0)

	enrollment := courseModels.Enrollment{
		UserID:        user.ID,
		CourseID:      crs.ID,
		PaymentStatus: courseModels.PaymentStatusPending,
		PaymentAmount: crs.Price,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	resp, _ := doRequest(t, app, http.MethodPut, fmt.Sprintf("/enroll/confirm/%d", enrollment.ID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, fmt.Sprintf("/enroll/confirm/%d", enrollment.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var reloaded courseModels.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, courseModels.PaymentStatusPaid, reloaded.PaymentStatus)
}

func TestConfirmPaymentOfAnotherUserNotFound(t *testing.T) {
	app, db, _ := setupTest(t)
	owner, _ := createUser(t, db, "owner@example.com", "USER")
	_, intruderToken := createUser(t, db, "intruder@example.com", "USER")
	crs := createCourse(t, db, "Advanced Pranayama", 1500, 0)

	enrollment := courseModels.Enrollment{
		UserID:        owner.ID,
		CourseID:      crs.ID,
		PaymentStatus: courseModels.PaymentStatusPending,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	resp, _ := doRequest(t, app, http.MethodPut, fmt.Sprintf("/enroll/confirm/%d", enrollment.ID), intruderToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGatewayFailureLeavesNoPendingEnrollment(t *testing.T) {
	app, db, gateway := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Advanced Pranayama", 1500, 0)

	gateway.fail = true

	resp, _ := doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var count int64
	db.Model(&courseModels.Enrollment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPaidEnrollmentRoundsGrossAmount(t *testing.T) {
	app, db, gateway := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Advanced Pranayama", 499.99, 0)

	resp, body := doRequest(t, app, http.MethodPost, fmt.Sprintf("/enroll/%d", crs.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The gateway charge is the rounded price, the row keeps the exact one.
	assert.Equal(t, int64(500), gateway.lastGross)

	var payload struct {
		EnrollmentID uint `json:"enrollmentId"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &payload))

	var pending courseModels.Enrollment
	require.NoError(t, db.First(&pending, payload.EnrollmentID).Error)
	assert.Equal(t, 499.99, pending.PaymentAmount)
}

func TestCourseContentIncludesProgressSnapshot(t *testing.T) {
	app, db, _ := setupTest(t)
	user, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 3)

	enrollment := courseModels.Enrollment{
		UserID:            user.ID,
		CourseID:          crs.ID,
		PaymentStatus:     courseModels.PaymentStatusFree,
		AccessIsActive:    true,
		OverallCompletion: 33,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	var videos []courseModels.RecordedVideo
	require.NoError(t, db.Where("course_id = ?", crs.ID).Find(&videos).Error)
	require.NoError(t, db.Create(&courseModels.CompletedVideo{
		EnrollmentID:       enrollment.ID,
		VideoID:            videos[0].ID,
		ProgressPercentage: 100,
	}).Error)

	resp, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var content struct {
		RecordedVideos     []courseModels.RecordedVideo `json:"recordedVideos"`
		EnrollmentProgress struct {
			CompletedVideos   []courseModels.CompletedVideo `json:"completedVideos"`
			OverallCompletion int                           `json:"overallCompletion"`
		} `json:"enrollmentProgress"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &content))
	assert.Len(t, content.RecordedVideos, 3)
	assert.Len(t, content.EnrollmentProgress.CompletedVideos, 1)
	assert.Equal(t, 33, content.EnrollmentProgress.OverallCompletion)
}

func TestUpdateProgressAggregatesByDistinctVideo(t *testing.T) {
	app, db, _ := setupTest(t)
	user, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 5)

	enrollment := courseModels.Enrollment{
		UserID:         user.ID,
		CourseID:       crs.ID,
		PaymentStatus:  courseModels.PaymentStatusFree,
		AccessIsActive: true,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	var videos []courseModels.RecordedVideo
	require.NoError(t, db.Where("course_id = ?", crs.ID).Find(&videos).Error)

	progressURL := fmt.Sprintf("/enroll/progress/%d", enrollment.ID)

	type progressSnapshot struct {
		CompletedVideos   []courseModels.CompletedVideo `json:"completedVideos"`
		OverallCompletion int                           `json:"overallCompletion"`
	}

	// Video A
	resp, body := doRequest(t, app, http.MethodPut, progressURL, token, fiber.Map{
		"videoId": videos[0].ID, "progressPercentage": 100,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap progressSnapshot
	require.NoError(t, json.Unmarshal(body.Data, &snap))
	assert.Len(t, snap.CompletedVideos, 1)
	assert.Equal(t, 20, snap.OverallCompletion)

	// Video B
	_, body = doRequest(t, app, http.MethodPut, progressURL, token, fiber.Map{
		"videoId": videos[1].ID, "progressPercentage": 60,
	})
	require.NoError(t, json.Unmarshal(body.Data, &snap))
	assert.Len(t, snap.CompletedVideos, 2)
	assert.Equal(t, 40, snap.OverallCompletion)

	// Video A again: updates in place, does not grow the aggregate
	_, body = doRequest(t, app, http.MethodPut, progressURL, token, fiber.Map{
		"videoId": videos[0].ID, "progressPercentage": 80,
	})
	require.NoError(t, json.Unmarshal(body.Data, &snap))
	assert.Len(t, snap.CompletedVideos, 2)
	assert.Equal(t, 40, snap.OverallCompletion)

	var entry courseModels.CompletedVideo
	require.NoError(t, db.Where("enrollment_id = ? AND video_id = ?", enrollment.ID, videos[0].ID).First(&entry).Error)
	assert.Equal(t, 80.0, entry.ProgressPercentage)
}

func TestUpdateProgressWithNoVideosStaysZero(t *testing.T) {
	app, db, _ := setupTest(t)
	user, token := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Empty Course", 0, 0)

	enrollment := courseModels.Enrollment{
		UserID:         user.ID,
		CourseID:       crs.ID,
		PaymentStatus:  courseModels.PaymentStatusFree,
		AccessIsActive: true,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	resp, body := doRequest(t, app, http.MethodPut, fmt.Sprintf("/enroll/progress/%d", enrollment.ID), token, fiber.Map{
		"videoId": 42, "progressPercentage": 100,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap struct {
		OverallCompletion int `json:"overallCompletion"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &snap))
	assert.Equal(t, 0, snap.OverallCompletion)
}

func TestAdminEnrollmentStats(t *testing.T) {
	app, db, _ := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", "ADMIN")
	userA, _ := createUser(t, db, "a@example.com", "USER")
	userB, _ := createUser(t, db, "b@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 0)
	paidCrs := createCourse(t, db, "Advanced Pranayama", 1500, 0)

	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID: userA.ID, CourseID: crs.ID,
		PaymentStatus: courseModels.PaymentStatusFree, AccessIsActive: true,
	}).Error)
	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID: userB.ID, CourseID: paidCrs.ID,
		PaymentStatus: courseModels.PaymentStatusPaid, PaymentAmount: 1500, AccessIsActive: true,
	}).Error)

	resp, body := doRequest(t, app, http.MethodGet, "/admin/enrollments/stats", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Overview struct {
			TotalEnrollments int64    `json:"total_enrollments"`
			Free             int64    `json:"free"`
			Paid             int64    `json:"paid"`
			TotalRevenue     *float64 `json:"total_revenue"`
		} `json:"overview"`
		ByCourse []struct {
			CourseTitle string `json:"course_title"`
			Enrollments int64  `json:"enrollments"`
		} `json:"byCourse"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, int64(2), stats.Overview.TotalEnrollments)
	assert.Equal(t, int64(1), stats.Overview.Free)
	assert.Equal(t, int64(1), stats.Overview.Paid)
	require.NotNil(t, stats.Overview.TotalRevenue)
	assert.Equal(t, 1500.0, *stats.Overview.TotalRevenue)
	assert.Len(t, stats.ByCourse, 2)
}

func TestAdminEnrollmentRoutesRejectNonAdmins(t *testing.T) {
	app, db, _ := setupTest(t)
	_, token := createUser(t, db, "student@example.com", "USER")

	resp, _ := doRequest(t, app, http.MethodGet, "/admin/enrollments/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminOverridesAccess(t *testing.T) {
	app, db, _ := setupTest(t)
	_, adminToken := createUser(t, db, "admin@example.com", "ADMIN")
	user, userToken := createUser(t, db, "student@example.com", "USER")
	crs := createCourse(t, db, "Morning Flow", 0, 0)

	enrollment := courseModels.Enrollment{
		UserID: user.ID, CourseID: crs.ID,
		PaymentStatus: courseModels.PaymentStatusFree, AccessIsActive: true,
	}
	require.NoError(t, db.Create(&enrollment).Error)

	resp, _ := doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Admin deactivates access
	inactive := false
	resp, _ = doRequest(t, app, http.MethodPut, fmt.Sprintf("/admin/enrollments/%d", enrollment.ID), adminToken, fiber.Map{
		"access": fiber.Map{"isActive": &inactive},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, fmt.Sprintf("/enroll/course-content/%d", crs.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
