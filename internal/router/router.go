// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/handlers"
	"github.com/campuskart/campus-market/internal/middleware"
	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/session"
	"github.com/campuskart/campus-market/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, revocations *session.RevocationStore) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	paymentService := services.NewPaymentService(db, cfg, notificationService)

	authService := services.NewAuthService(db, cfg, notificationService, revocations)
	itemService := services.NewItemService(db)
	orderService := services.NewOrderService(db, notificationService)
	borrowService := services.NewBorrowService(db, notificationService, paymentService)
	reviewService := services.NewReviewService(db)
	messageService := services.NewMessageService(db)
	statsService := services.NewStatsService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	itemHandler := handlers.NewItemHandler(itemService)
	orderHandler := handlers.NewOrderHandler(orderService)
	borrowHandler := handlers.NewBorrowHandler(borrowService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	messageHandler := handlers.NewMessageHandler(messageService)
	userHandler := handlers.NewUserHandler(db, statsService)
	uploadHandler := handlers.NewUploadHandler(storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(revocations), authHandler.Logout)
			auth.GET("/me", middleware.AuthRequired(revocations), authHandler.GetProfile)
			auth.PUT("/me", middleware.AuthRequired(revocations), authHandler.UpdateProfile)
		}

		// Colleges are public so the registration page can list them.
		v1.GET("/colleges", authHandler.ListColleges)
		v1.POST("/colleges", middleware.AuthRequired(revocations), middleware.AdminRequired(), authHandler.CreateCollege)
		v1.GET("/categories", itemHandler.ListCategories)

		// Stripe calls this without a bearer token; the webhook
		// signature is the authentication.
		v1.POST("/webhook/stripe", paymentHandler.StripeWebhook)

		// Everything below requires a logged-in campus user.
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(revocations))
		{
			// Item catalog
			items := protected.Group("/items")
			{
				items.POST("", itemHandler.CreateItem)
				items.GET("", itemHandler.ListItems)
				items.GET("/my", itemHandler.ListMyItems)
				items.GET("/:id", itemHandler.GetItem)
				items.PUT("/:id", itemHandler.UpdateItem)
				items.DELETE("/:id", itemHandler.DeleteItem)
			}

			// Buy flow
			orders := protected.Group("/orders")
			{
				orders.POST("", orderHandler.CreateOrder)
				orders.GET("", orderHandler.ListOrders)
				orders.GET("/:id", orderHandler.GetOrder)
				orders.POST("/:id/complete", orderHandler.CompleteOrder)
				orders.POST("/:id/cancel", orderHandler.CancelOrder)
			}

			// Borrow flow
			borrow := protected.Group("/borrow")
			{
				borrow.POST("", borrowHandler.CreateRequest)
				borrow.GET("", borrowHandler.ListRequests)
				borrow.GET("/pending", borrowHandler.ListPending)
				borrow.GET("/:id", borrowHandler.GetRequest)
				borrow.POST("/:id/approve", borrowHandler.Decide)
				borrow.POST("/:id/return", borrowHandler.Return)
				borrow.POST("/:id/confirm-return", borrowHandler.ConfirmReturn)
			}

			// Payments
			payments := protected.Group("/payments")
			{
				payments.POST("/checkout", paymentHandler.CreateCheckout)
				payments.GET("/status/:session_id", paymentHandler.CheckStatus)
				payments.GET("/history", paymentHandler.GetHistory)
			}

			// Reviews
			reviews := protected.Group("/reviews")
			{
				reviews.POST("", reviewHandler.CreateReview)
				reviews.GET("/:user_id", reviewHandler.ListForUser)
			}

			// Messaging
			protected.POST("/messages", middleware.MessageRateLimit(), messageHandler.SendMessage)
			protected.GET("/messages/unread-count", messageHandler.GetUnreadCount)
			protected.GET("/conversations", messageHandler.ListConversations)
			protected.GET("/conversations/:id/messages", messageHandler.GetMessages)

			// Profiles and dashboard
			protected.GET("/users/:id", userHandler.GetProfile)
			protected.GET("/stats/dashboard", userHandler.Dashboard)
			protected.GET("/stats/featured-items", userHandler.FeaturedItems)

			// Uploads
			protected.POST("/upload", middleware.UploadRateLimit(), uploadHandler.UploadImage)
			protected.POST("/upload/base64", middleware.UploadRateLimit(), uploadHandler.UploadBase64)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
