package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"hotel-inventory/config"
	"hotel-inventory/controllers"
	"hotel-inventory/routes"
	"hotel-inventory/services"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env not found, continuing with environment variables")
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("load settings")
	}
	if level, err := zerolog.ParseLevel(settings.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	pricing, err := settings.Pricing()
	if err != nil {
		log.Fatal().Err(err).Msg("pricing settings")
	}

	db, err := config.ConnectDatabase(settings)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	log.Info().Msg("database connection established and migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events services.EventPublisher = services.NoopPublisher{}
	if settings.RabbitMQURL != "" {
		publisher, err := services.NewRabbitPublisher(settings.RabbitMQURL, settings.BookingEventsQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connect failed")
		}
		defer publisher.Close()
		events = publisher
		log.Info().Str("queue", settings.BookingEventsQueue).Msg("publishing booking events")
	}

	// Initialize services
	inventoryService := services.NewInventoryService(db)
	roomService := services.NewRoomService(db, inventoryService)
	hotelService := services.NewHotelService(db, inventoryService, roomService)
	searchService := services.NewSearchService(db, settings.SearchCacheSize, settings.SearchCacheTTL)
	guestService := services.NewGuestService(db)
	// the sandbox gateway stands in for a real checkout provider; dev only
	bookingService := services.NewBookingService(db, inventoryService,
		services.NewSandboxGateway(settings.FrontendURL), events,
		services.BookingOptions{
			Pricing:     pricing,
			FrontendURL: settings.FrontendURL,
			Expiry:      settings.BookingExpiry,
		})
	expiryService := services.NewExpiryService(bookingService)
	priceService := services.NewPriceRefreshService(db, pricing)

	if settings.SeedDemo {
		if err := config.SeedDatabase(ctx, db, hotelService); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
	}

	// Initialize controllers
	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(routes.Controllers{
		Hotels:    controllers.NewHotelController(hotelService, searchService, bookingService),
		Rooms:     controllers.NewRoomController(roomService),
		Bookings:  controllers.NewBookingController(bookingService),
		Guests:    controllers.NewGuestController(guestService),
		Inventory: controllers.NewInventoryController(inventoryService),
	}, settings.ParseCorsOrigins())

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		expiryService.Run(ctx, settings.ReaperInterval)
	}()
	go func() {
		defer workers.Done()
		priceService.Run(ctx, settings.PriceRefreshInterval)
	}()

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe")
		}
	}()

	<-ctx.Done()
	log.Warn().Msg("shutdown signal received, stopping workers")
	workers.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server stopped gracefully")
}
