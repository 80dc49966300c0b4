package handler

import (
	"room-booking-backend/internal/config"
	"room-booking-backend/internal/middleware"
	"room-booking-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	Auth     *AuthHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler
}

// RouterOptions holds the middleware settings of the router
type RouterOptions struct {
	SecurityEnabled bool
	CORS            config.CORSConfig
	RateLimit       config.RateLimitConfig
}

// NewRouter creates and configures the gin engine
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.RateLimiter(opts.RateLimit.PerSecond, opts.RateLimit.Burst))

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "room-booking-backend",
		})
	})

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	secured := middleware.AuthMiddleware(opts.SecurityEnabled)
	staffOnly := middleware.RequireStaff(opts.SecurityEnabled)

	rooms := r.Group("/rooms")
	rooms.Use(secured)
	{
		rooms.GET("", h.Rooms.ListRooms)
		rooms.GET("/enabled", h.Rooms.ListEnabledRooms)
		rooms.GET("/locate", h.Rooms.LocateRoom)
		rooms.GET("/type/:type", h.Rooms.ListRoomsByType)
		rooms.GET("/:id", h.Rooms.GetRoom)

		// Staff-only routes
		rooms.POST("", staffOnly, h.Rooms.AddRoom)
		rooms.DELETE("/:id", staffOnly, h.Rooms.RemoveRoom)
		rooms.PUT("/:id/enable", staffOnly, h.Rooms.EnableRoom)
		rooms.PUT("/:id/disable", staffOnly, h.Rooms.DisableRoom)
	}

	bookings := r.Group("/bookings")
	bookings.Use(secured)
	{
		bookings.POST("", h.Bookings.CreateBooking)
		bookings.GET("", h.Bookings.ListBookings)
		bookings.GET("/mine", h.Bookings.ListMyBookings)
		bookings.GET("/availability", h.Bookings.CheckAvailability)
		bookings.GET("/availability/daily", h.Bookings.DailyAvailability)
		bookings.GET("/room/:roomId", h.Bookings.ListBookingsByRoom)
		bookings.GET("/:id", h.Bookings.GetBooking)
		bookings.PUT("/:id/cancel", h.Bookings.CancelBooking)
		bookings.PUT("/:id/check-in", h.Bookings.CheckIn)
	}

	return r
}
