package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Max-OMeara/Library/internal/config"
	"github.com/Max-OMeara/Library/internal/handlers"
	"github.com/Max-OMeara/Library/internal/middleware"
	"github.com/Max-OMeara/Library/internal/models"
	"github.com/Max-OMeara/Library/internal/openlibrary"
	"github.com/Max-OMeara/Library/internal/repositories"
	"github.com/Max-OMeara/Library/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.JWTSecret == "dev-secret-change-me" {
		log.Printf("[WARN] JWT_SECRET not set, using development default")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Account{}, &models.BookStatusRecord{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	accountRepo := repositories.NewAccountRepository(db)
	statusRepo := repositories.NewBookStatusRepository(db)
	registry := services.NewRegistry()

	accountService := services.NewAccountService(db, accountRepo, statusRepo, registry)
	libraryService := services.NewLibraryService(
		openlibrary.NewClient(cfg.OpenLibraryURL),
		statusRepo,
		registry,
	)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())

	handlers.RegisterRoutes(router, accountService, libraryService, []byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.ServerAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
