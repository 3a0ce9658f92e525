package app

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/Basavaraj-fidelis/train-track-sub000/api"
	"github.com/Basavaraj-fidelis/train-track-sub000/config"
	"github.com/Basavaraj-fidelis/train-track-sub000/database"
	"github.com/Basavaraj-fidelis/train-track-sub000/router"
	"github.com/Basavaraj-fidelis/train-track-sub000/services"
	"github.com/Basavaraj-fidelis/train-track-sub000/services/cron"
	"github.com/Basavaraj-fidelis/train-track-sub000/services/storage"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Wait for PostgreSQL before opening the GORM pool
	if err := database.WaitForDatabase(); err != nil {
		print("Check whether Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Outbound email; degrades to log-only when SMTP is unconfigured
	mailer := services.NewEmailService(getEnv)
	if !mailer.IsConfigured() {
		log.Println("Warning: SMTP is not configured, outbound email is disabled")
	}

	// Video storage: Spaces bucket when configured, local uploads/ otherwise
	var videoStorage storage.VideoStorage
	if getEnv.SPACES_BUCKET != "" && getEnv.SPACES_ACCESS_KEY != "" {
		videoStorage, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: getEnv.SPACES_ACCESS_KEY,
			SecretKey: getEnv.SPACES_SECRET_KEY,
			Bucket:    getEnv.SPACES_BUCKET,
			Region:    getEnv.SPACES_REGION,
			Endpoint:  getEnv.SPACES_ENDPOINT,
		})
		if err != nil {
			return err
		}
	} else {
		videoStorage, err = storage.NewLocalStorage(getEnv.UPLOAD_DIR)
		if err != nil {
			return err
		}
	}

	// Service layer
	certService := services.NewCertificateService(db)
	enrollmentService := services.NewEnrollmentService(db, certService, mailer)
	courseService := services.NewCourseService(db)
	complianceService := services.NewComplianceService(db)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(db, enrollmentService)
		if err := cronManager.Start(); err != nil {
			print("Warning: Failed to start cron jobs\n")
			print("Error: ", err.Error(), "\n")
			// Don't fail the app, just log the warning
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())

	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, &router.Deps{
		Enrollments:  enrollmentService,
		Courses:      courseService,
		Compliance:   complianceService,
		VideoStorage: videoStorage,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
