package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/config"
	"room-booking-backend/internal/database"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/handler"
	"room-booking-backend/internal/repository"
	"room-booking-backend/internal/service"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection and schema
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 4. Event publishers
	publishers := []events.Publisher{events.LogPublisher{}}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpPublisher.Close()
		publishers = append(publishers, amqpPublisher)
		log.Printf("Publishing events to exchange %s", cfg.AMQP.Exchange)
	}
	dispatcher := events.NewDispatcher(publishers...)

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// 6. Initialize services
	clk := clock.Real{}
	authz := service.NewAuthorizer(cfg.Security.Enabled)
	detector := service.NewConflictDetector(cfg.Booking.Buffer)
	bridge := service.NewRoomBridge(roomRepo, bookingRepo)

	authService := service.NewAuthService(userRepo, auditRepo, clk)
	roomService := service.NewRoomService(db, roomRepo, auditRepo, authz, dispatcher, clk)
	bookingService := service.NewBookingService(db, roomRepo, bookingRepo, detector, bridge, authz, dispatcher, clk,
		service.BookingHours{
			Location:    cfg.Booking.Location,
			OpeningHour: cfg.Booking.OpeningHour,
			ClosingHour: cfg.Booking.ClosingHour,
			GracePeriod: cfg.Lifecycle.GracePeriod,
		})
	lifecycleService := service.NewLifecycleService(db, bookingRepo, bridge, dispatcher, clk,
		cfg.Lifecycle.Interval, cfg.Lifecycle.GracePeriod)

	if cfg.Security.StaffUsername != "" && cfg.Security.StaffPassword != "" {
		if err := authService.EnsureStaff(context.Background(), cfg.Security.StaffUsername, cfg.Security.StaffPassword); err != nil {
			log.Printf("Warning: Failed to provision staff account: %v", err)
		}
	}
	if !cfg.Security.Enabled {
		log.Println("Security disabled - all requests run as the anonymous principal")
	}

	// 7. Start lifecycle scheduler in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lifecycleService.Start(ctx)

	// 8. Setup Gin router
	gin.SetMode(cfg.Server.GinMode)
	r := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Rooms:    handler.NewRoomHandler(roomService),
		Bookings: handler.NewBookingHandler(bookingService),
	}, handler.RouterOptions{
		SecurityEnabled: cfg.Security.Enabled,
		CORS:            cfg.CORS,
		RateLimit:       cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// 9. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the scheduler before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
