package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Basavaraj-fidelis/train-track-sub000/database"
	"github.com/Basavaraj-fidelis/train-track-sub000/handlers"
	admin_handlers "github.com/Basavaraj-fidelis/train-track-sub000/handlers/admin"
	auth_handlers "github.com/Basavaraj-fidelis/train-track-sub000/handlers/auth"
	course_handlers "github.com/Basavaraj-fidelis/train-track-sub000/handlers/course"
	enrollment_handlers "github.com/Basavaraj-fidelis/train-track-sub000/handlers/enrollment"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/services/storage"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/auth"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/cache"
	"github.com/Basavaraj-fidelis/train-track-sub000/utils/middleware"
)

// Deps carries the shared service layer constructed in app setup.
type Deps struct {
	Enrollments  *services.EnrollmentService
	Courses      *services.CourseService
	Compliance   *services.ComplianceService
	VideoStorage storage.VideoStorage
}

func SetupRoutes(app *fiber.App, store database.Storage, deps *Deps) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "train-track-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(deps.Courses, deps.Enrollments, deps.VideoStorage)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(deps.Enrollments, deps.Courses)
	adminHandler := admin_handlers.NewAdminHandler(db, deps.Enrollments, deps.Compliance)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")

	// Logins with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/admin-login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.AdminLogin)
		authGroup.Post("/employee-login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.EmployeeLogin)
	} else {
		authGroup.Post("/admin-login", authHandler.AdminLogin)
		authGroup.Post("/employee-login", authHandler.EmployeeLogin)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile route (protected)
	api.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)

	// Tokenized course access (public; the token itself is the credential)
	api.Get("/course-access/:token", enrollmentHandler.CourseAccess)
	api.Post("/complete-profile", enrollmentHandler.CompleteProfile)

	// Courses routes
	courses := api.Group("/courses")
	courses.Get("/", authMiddleware.Required(), courseHandler.ListCourses)
	courses.Get("/:id", authMiddleware.Required(), courseHandler.GetCourse)
	courses.Get("/:id/quiz", authMiddleware.Required(), courseHandler.GetQuiz)
	courses.Post("/", authMiddleware.RequireAdmin(), courseHandler.CreateCourse)
	courses.Put("/:id", authMiddleware.RequireAdmin(), courseHandler.UpdateCourse)
	courses.Put("/:id/quiz", authMiddleware.RequireAdmin(), courseHandler.UpsertQuiz)
	courses.Post("/:id/deactivate", authMiddleware.RequireAdmin(), courseHandler.DeactivateCourse)
	courses.Delete("/:id", authMiddleware.RequireAdmin(), courseHandler.DeleteCourse)

	// Assignment routes (admin only)
	courses.Post("/:id/assign", authMiddleware.RequireAdmin(), enrollmentHandler.AssignCourse)
	courses.Post("/:id/assign-emails", authMiddleware.RequireAdmin(), enrollmentHandler.AssignByEmail)
	courses.Post("/:id/auto-enroll", authMiddleware.RequireAdmin(), enrollmentHandler.AutoEnrollAll)
	api.Post("/users/:id/assign", authMiddleware.RequireAdmin(), enrollmentHandler.AssignUser)

	// Employee enrollment routes
	api.Get("/my-enrollments", authMiddleware.Required(), enrollmentHandler.MyEnrollments)
	api.Put("/my-enrollments/:id", authMiddleware.Required(), enrollmentHandler.UpdateProgress)
	api.Post("/quiz-submission", authMiddleware.Required(), enrollmentHandler.SubmitQuiz)
	api.Post("/acknowledge-completion", authMiddleware.Required(), enrollmentHandler.Acknowledge)
	api.Get("/my-certificates/:course_id", authMiddleware.Required(), enrollmentHandler.MyCertificate)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Post("/users", adminHandler.CreateUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Get("/compliance-status", adminHandler.ComplianceStatus)
	admin.Post("/send-reminders", adminHandler.SendReminders)
	admin.Post("/enrollments/:id/renew", adminHandler.RenewEnrollment)
	admin.Post("/expire-sweep", adminHandler.ExpireSweep)
}
