package routes

import (
	"strings"
	"time"

	"servicehub/handlers"
	"servicehub/middleware"
	"servicehub/models"
	"servicehub/navigation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-in endpoints.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", hb.Auth.Register)
		auth.POST("/login", hb.Auth.Login)
		auth.POST("/login/token", hb.Auth.LoginWithToken)
		auth.POST("/logout", hb.Auth.Logout)
		auth.GET("/me", hb.Auth.Me)
	}
}

// RegisterServiceRoutes registers the catalog. Reads are public; changes are
// admin only.
func RegisterServiceRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/categories", hb.Services.Categories)

	services := api.Group("/services")
	{
		services.GET("", hb.Services.List)
		services.GET("/:id", hb.Services.Get)

		admin := services.Group("")
		admin.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleAdmin))
		admin.POST("", hb.Services.Create)
		admin.PUT("/:id", hb.Services.Update)
		admin.DELETE("/:id", hb.Services.Delete)
	}
}

// RegisterWorkerRoutes registers the worker directory and the worker's own
// profile endpoints.
func RegisterWorkerRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	workers := api.Group("/workers")
	{
		me := workers.Group("/me")
		me.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleWorker))
		me.PUT("/profile", hb.Workers.UpdateProfile)
		me.PUT("/services", hb.Workers.UpdateServices)
		me.PUT("/availability", hb.Workers.UpdateAvailability)
		me.PUT("/status", hb.Workers.UpdateStatus)
		me.GET("/wallet", hb.Workers.Wallet)

		workers.GET("", hb.Workers.List)
		workers.GET("/:id", hb.Workers.Get)
		workers.GET("/:id/reviews", hb.Workers.Reviews)
	}
}

// RegisterBookingRoutes registers the booking lifecycle.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.Use(middleware.RequireAuth())
		bookings.POST("", middleware.RequireRole(models.RoleCustomer), hb.Bookings.Create)
		bookings.GET("", hb.Bookings.List)
		bookings.GET("/:id", hb.Bookings.Get)
		bookings.PATCH("/:id/status", hb.Bookings.Transition)
		bookings.POST("/:id/complete", hb.Bookings.Complete)
	}
}

// RegisterProbeRoutes registers endpoints that need no browser session:
// health, diagnostics, metrics and hashed assets.
func RegisterProbeRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.SPA.Health)
	r.GET("/debug-env", hb.SPA.DebugEnv)
	r.GET("/metrics", gin.WrapH(middleware.MetricsHandler()))
	r.GET("/assets/*filepath", hb.SPA.Asset)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// Probe routes are registered ahead of the session middleware so monitoring
// traffic never creates application sessions; every other GET that matches
// no route is a navigation and goes through the guard to the entry document.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, guard *navigation.Guard, sessions gin.HandlerFunc, corsOrigins string) {
	r.Use(cors.New(corsConfig(corsOrigins)))
	RegisterProbeRoutes(r, hb)

	r.Use(sessions)
	api := r.Group("/api")
	api.GET("/status", hb.SPA.Status)
	RegisterAuthRoutes(api, hb)
	RegisterServiceRoutes(api, hb)
	RegisterWorkerRoutes(api, hb)
	RegisterBookingRoutes(api, hb)

	r.NoRoute(hb.SPA.Static, middleware.NavigationGate(guard), hb.SPA.Index)
}

func corsConfig(origins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins == "" || origins == "*" {
		// Credentialed requests cannot use a literal wildcard, so echo the origin.
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	return cfg
}
