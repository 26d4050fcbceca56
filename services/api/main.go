package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/config"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger := logrus.StandardLogger()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	application, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize API:", err)
	}
	defer application.Close()

	router := newRouter(application)

	logrus.WithFields(logrus.Fields{
		"env":               cfg.Env,
		"store":             cfg.StoreDriver,
		"identity_provider": cfg.IdentityProvider,
	}).Infof("Dealer management API starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start API:", err)
	}
}
