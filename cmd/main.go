package main

import (
	"log"

	"inventory-service/internal/auth"
	"inventory-service/internal/config"
	"inventory-service/internal/handlers"
	"inventory-service/internal/models"
	"inventory-service/internal/repository"
	"inventory-service/internal/services"
	"inventory-service/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := InitConfig()
	db := ConnectDatabase(cfg)
	MigrateDatabase(db)
	minioClient := InitMinIOClient(cfg)
	media := storage.NewMediaStore(minioClient, cfg.MinioBucket, cfg.PublicBaseURL)

	var cache *storage.RedisClient
	if cfg.RedisHost != "" {
		var err error
		cache, err = storage.NewRedisClient(cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
	}

	itemRepo := repository.NewItemRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	ledgerService := services.NewLedgerService(db, itemRepo, activityRepo, media)
	projectService := services.NewProjectService(db, projectRepo, itemRepo, activityRepo, ledgerService)
	dashboardService := services.NewDashboardService(db, activityRepo, cache, cfg.DashboardCacheTTL)

	app := fiber.New()

	// Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/inventory")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Everything below resolves the acting user from the bearer token
	api.Use(auth.Middleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}))

	ih := handlers.NewItemHandler(ledgerService)
	api.Get("/items", ih.ListItems)
	api.Get("/items/:id", ih.GetItem)
	api.Post("/items", ih.CreateItem)
	api.Put("/items/:id", ih.UpdateItem)
	api.Delete("/items/:id", ih.DeleteItem)
	api.Post("/items/:id/add/:amount", ih.AddStock)
	api.Post("/items/:id/remove/:amount", ih.RemoveStock)

	ph := handlers.NewProjectHandler(projectService)
	api.Get("/projects", ph.ListProjects)
	api.Get("/projects/:id", ph.GetProject)
	api.Post("/projects", ph.CreateProject)
	api.Delete("/projects/:id", ph.DeleteProject)
	api.Post("/projects/:id/items", ph.AddLineItem)
	api.Put("/projects/:id/status", ph.SetStatus)

	dh := handlers.NewDashboardHandler(dashboardService)
	api.Get("/dashboard/stats", dh.Stats)

	uh := handlers.NewUploadHandler(media)
	api.Post("/upload", uh.Upload)

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	// Start the Fiber server
	port := cfg.AppPort
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("Server listening on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.Project{},
		&models.ProjectItem{},
		&models.ActivityLog{},
	)
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func InitMinIOClient(cfg *config.Config) *minio.Client {
	minioClient, err := storage.NewMinioClient(cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}
