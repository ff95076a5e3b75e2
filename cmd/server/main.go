package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/handlers"
	"lifeline/internal/middleware"
	"lifeline/internal/repositories/mongodb"
	"lifeline/internal/services"
	"lifeline/pkg/cache"
	"lifeline/pkg/database"
	"lifeline/pkg/geocode"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"
	ws "lifeline/pkg/websocket"
	"lifeline/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db.Database); err != nil {
		cancelIndex()
		appLogger.WithError(err).Fatal("Failed to create indexes")
	}
	cancelIndex()

	var callCache mongodb.CacheService
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, running without call cache")
		} else {
			defer redisCache.Close()
			callCache = redisCache
		}
	}

	smsProvider := buildSMSProvider(cfg, appLogger)
	geocoder := buildGeocoder(cfg, appLogger)

	hub := ws.NewHub(appLogger.Logger)
	go hub.Run()

	ambulanceRepo := mongodb.NewAmbulanceRepository(db.Database)
	callRepo := mongodb.NewCallRepository(db.Database, callCache)

	ambulanceService := services.NewAmbulanceService(ambulanceRepo, callRepo, hub, appLogger)
	dispatchService := services.NewDispatchService(cfg.Dispatch, callRepo, ambulanceRepo, smsProvider, hub, appLogger)
	smsLocationService := services.NewSMSLocationService(cfg.Protocol, cfg.Dispatch, callRepo, ambulanceRepo, geocoder, dispatchService, hub, appLogger)
	callService := services.NewCallService(cfg.App.BaseURL, callRepo, ambulanceRepo, smsProvider, geocoder, smsLocationService, hub, appLogger)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.App.CORSOrigins))

	routes.Setup(router, &routes.Handlers{
		CallCenter: handlers.NewCallCenterHandler(callService, dispatchService),
		Ambulance:  handlers.NewAmbulanceHandler(ambulanceService, dispatchService),
		Location:   handlers.NewLocationHandler(callService),
		SMS:        handlers.NewSMSHandler(smsLocationService, appLogger),
	}, hub, appLogger, cfg.App.Version)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Starting dispatch server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}

func buildSMSProvider(cfg *config.Config, appLogger *logger.Logger) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case "aws_sns":
		provider, err := sms.NewSNSProvider(context.Background(), &sms.SNSConfig{
			Region:   cfg.SMS.AWS.Region,
			SenderID: cfg.SMS.AWS.SenderID,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize SNS provider")
		}
		return provider
	case "twilio":
		if cfg.SMS.Twilio.AccountSID == "" {
			appLogger.Warn("Twilio not configured, outbound SMS disabled")
			return nil
		}
		return sms.NewTwilioProvider(&sms.TwilioConfig{
			AccountSID: cfg.SMS.Twilio.AccountSID,
			AuthToken:  cfg.SMS.Twilio.AuthToken,
			FromNumber: cfg.SMS.Twilio.FromNumber,
		})
	default:
		appLogger.WithField("provider", cfg.SMS.Provider).Warn("Unknown SMS provider, outbound SMS disabled")
		return nil
	}
}

func buildGeocoder(cfg *config.Config, appLogger *logger.Logger) geocode.Geocoder {
	switch cfg.Geocode.Provider {
	case "google":
		geocoder, err := geocode.NewGoogleGeocoder(cfg.Geocode.GoogleAPIKey)
		if err != nil {
			appLogger.WithError(err).Warn("Google geocoder unavailable, addresses disabled")
			return nil
		}
		return geocoder
	case "nominatim":
		return geocode.NewNominatimGeocoder(&geocode.NominatimConfig{
			BaseURL:   cfg.Geocode.NominatimBaseURL,
			UserAgent: cfg.Geocode.UserAgent,
			Timeout:   cfg.Geocode.Timeout,
		})
	default:
		return nil
	}
}
