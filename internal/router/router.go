package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/babdal-backend/config"
	"github.com/ikkim/babdal-backend/internal/app/controller"
	"github.com/ikkim/babdal-backend/internal/middleware"
)

type Router struct {
	cartController      *controller.CartController
	checkoutController  *controller.CheckoutController
	recurringController *controller.RecurringOrderController
	config              *config.Config
}

func NewRouter(
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	recurringController *controller.RecurringOrderController,
	cfg *config.Config,
) *Router {
	return &Router{
		cartController:      cartController,
		checkoutController:  checkoutController,
		recurringController: recurringController,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "BABDAL API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/can-add", r.cartController.CanAddItem)
			cart.GET("/line-quantity", r.cartController.LineQuantity)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:id", r.cartController.UpdateQuantity)
			cart.DELETE("/items/:id", r.cartController.RemoveItem)
		}

		v1.POST("/checkout", r.checkoutController.Checkout)

		recurring := v1.Group("/recurring-orders")
		{
			recurring.GET("", r.recurringController.List)
			recurring.GET("/upcoming", r.recurringController.Upcoming)
			recurring.GET("/stats", r.recurringController.Stats)
			recurring.GET("/:id", r.recurringController.Get)
			recurring.PUT("/:id/config", r.recurringController.UpdateConfig)
			recurring.POST("/:id/toggle", r.recurringController.Toggle)
			recurring.DELETE("/:id", r.recurringController.Delete)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
