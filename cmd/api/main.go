package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"casahub_go_backend/cmd/api/config"
	"casahub_go_backend/internal/api"
	"casahub_go_backend/internal/auth"
	"casahub_go_backend/internal/broker"
	"casahub_go_backend/internal/database"
	"casahub_go_backend/internal/services"
	"casahub_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	genaiAPIKey := os.Getenv("GOOGLE_AI_STUDIO_API_KEY")
	if genaiAPIKey == "" {
		log.Fatal("GOOGLE_AI_STUDIO_API_KEY is not set in the environment")
	}

	gcsBucketName := os.Getenv("GCS_BUCKET_NAME")
	if gcsBucketName == "" {
		log.Fatal("GCS_BUCKET_NAME environment variable is not set")
	}

	ctx := context.Background()
	cfg := config.NewConfig()

	database.InitDB()

	// External service clients
	stripeService := services.NewStripeService(
		os.Getenv("STRIPE_PUBLIC_KEY"),
		os.Getenv("STRIPE_SECRET_KEY"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"),
	)

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(genaiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}
	defer genaiClient.Close()

	gcsService, err := services.NewGCSService(ctx)
	if err != nil {
		log.Fatalf("Failed to create GCS service: %v", err)
	}

	// Internal services
	events := broker.NewBroker()
	userService := services.NewUserService(database.DB)
	walletService := services.NewWalletService(database.DB)
	creditService := services.NewCreditService(database.DB)
	orderStore := services.NewOrderStore(database.DB)
	billingService := services.NewBillingService(orderStore, walletService, stripeService, events)
	resumeService := services.NewAgentResumeService(services.NewResumeStore(database.DB), gcsService, gcsBucketName)

	toolService := services.NewToolInvocationService(
		services.NewToolRegistry(),
		creditService,
		walletService,
		creditService,
		services.NewGeminiTextGenerator(genaiClient),
		services.NewGormTxRunner(database.DB),
		gcsService,
		gcsBucketName,
		events,
		cfg.DefaultModel,
		cfg.GenerationTimeout,
	)

	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(allowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: restrict to ALLOWED_ORIGINS before production
		},
	}
	wsHandler := wsocket.NewHandler(upgrader, events, cfg.PingInterval)

	api.SetupRoutes(r, toolService, creditService, walletService, billingService, stripeService, userService, resumeService)
	auth.SetupRoutes(r, userService)

	r.GET("/ws", auth.AuthMiddleware(userService), func(c *gin.Context) {
		user, _ := c.Get("user")
		wsHandler.HandleWebSocket(c.Writer, c.Request, user)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
