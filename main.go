package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/courier"
	"storefront/pkg/payment"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("METRICS_PORT", ":9100")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("SQLITE_PATH", "storefront.db")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com")
	viper.SetDefault("PAYMENT_KEY_ID", "")
	viper.SetDefault("PAYMENT_KEY_SECRET", "")
	viper.SetDefault("COURIER_BASE_URL", "")
	viper.SetDefault("COURIER_API_KEY", "")
	viper.SetDefault("COURIER_ORIGIN_PIN", "110001")
	viper.SetDefault("TAX_RATE", 0.05)
	viper.SetDefault("SHIPPING_BASE_FEE", 99.0)
	viper.SetDefault("SHIPPING_UNIT_FEE", 70.0)
	viper.SetDefault("PRICE_TOLERANCE", 1.0)
	viper.AutomaticEnv()

	// --- Database ---
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.CartItem{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Shipment{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	// --- External adapters ---
	gateway := payment.NewClient(payment.Config{
		KeyID:     viper.GetString("PAYMENT_KEY_ID"),
		KeySecret: viper.GetString("PAYMENT_KEY_SECRET"),
		BaseURL:   viper.GetString("PAYMENT_BASE_URL"),
	})
	courierClient := courier.NewClient(courier.Config{
		BaseURL:   viper.GetString("COURIER_BASE_URL"),
		APIKey:    viper.GetString("COURIER_API_KEY"),
		OriginPin: viper.GetString("COURIER_ORIGIN_PIN"),
	})

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	shipmentRepo := repositories.NewGORMShipmentRepository(db)

	// --- Services ---
	pricingCfg := services.PricingConfig{
		TaxRate:         viper.GetFloat64("TAX_RATE"),
		BaseShippingFee: viper.GetFloat64("SHIPPING_BASE_FEE"),
		PerUnitFee:      viper.GetFloat64("SHIPPING_UNIT_FEE"),
		Tolerance:       viper.GetFloat64("PRICE_TOLERANCE"),
	}
	// Live courier rates only when a courier API is configured; the
	// stepped tariff applies otherwise.
	var rates services.RateQuoter
	if viper.GetString("COURIER_BASE_URL") != "" {
		rates = courierClient
	}
	pricingService := services.NewPricingService(pricingCfg, rates)

	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}

	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	productService := services.NewProductService(productRepo)
	userService := services.NewUserService(userRepo, productRepo)
	orderService := services.NewOrderService(
		orderRepo, userRepo, productRepo, shipmentRepo,
		pricingService, gateway, courierClient, events,
	)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, authService)
	userHandler := handlers.NewUserHandler(userService, authService)
	orderHandler := handlers.NewOrderHandler(orderService, authService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.Prometheus())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Metrics Server ---
	metricsAddr := viper.GetString("METRICS_PORT")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	// --- RabbitMQ Consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event %s: %s", msg.RoutingKey, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase connects to Postgres when DATABASE_DSN is set and falls back
// to a local SQLite file otherwise, which keeps development setups simple.
func openDatabase() (*gorm.DB, error) {
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := viper.GetString("SQLITE_PATH")
	log.Printf("DATABASE_DSN not set, using SQLite at %s", path)
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
