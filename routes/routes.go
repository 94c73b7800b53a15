package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hotel-inventory/controllers"
	"hotel-inventory/middleware"
)

type Controllers struct {
	Hotels    *controllers.HotelController
	Rooms     *controllers.RoomController
	Bookings  *controllers.BookingController
	Guests    *controllers.GuestController
	Inventory *controllers.InventoryController
}

// SetupRouter wires the public, user and admin route groups.
func SetupRouter(ctl Controllers, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.UserIDHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// the payment provider authenticates its own callbacks
	r.POST("/webhook/payment", ctl.Bookings.PaymentWebhook)

	api := r.Group("/api")
	{
		hotels := api.Group("/hotels")
		{
			hotels.GET("/search", ctl.Hotels.SearchHotels)
			hotels.GET("/:id/info", ctl.Hotels.GetHotelInfo)
		}

		bookings := api.Group("/bookings", middleware.Principal())
		{
			bookings.POST("/init", ctl.Bookings.InitBooking)
			bookings.POST("/:id/guests", ctl.Bookings.AddGuests)
			bookings.POST("/:id/payments", ctl.Bookings.InitiatePayments)
			bookings.POST("/:id/cancel", ctl.Bookings.CancelBooking)
			bookings.GET("/:id/status", ctl.Bookings.GetBookingStatus)
		}

		me := api.Group("/users/me", middleware.Principal())
		{
			me.GET("/bookings", ctl.Bookings.GetMyBookings)
			me.POST("/guests", ctl.Guests.CreateGuest)
			me.GET("/guests", ctl.Guests.ListGuests)
		}

		admin := api.Group("/admin", middleware.Principal())
		{
			admin.POST("/hotels", ctl.Hotels.CreateHotel)
			admin.POST("/hotels/:id/activate", ctl.Hotels.ActivateHotel)
			admin.DELETE("/hotels/:id", ctl.Hotels.DeleteHotel)
			admin.GET("/hotels/:id/bookings", ctl.Hotels.GetHotelBookings)
			admin.GET("/hotels/:id/reports", ctl.Hotels.GetHotelReport)
			admin.POST("/hotels/:id/rooms", ctl.Rooms.CreateRoom)
			admin.DELETE("/rooms/:id", ctl.Rooms.DeleteRoom)

			admin.GET("/inventory/rooms/:roomId", ctl.Inventory.GetRoomInventory)
			admin.PATCH("/inventory/rooms/:roomId", ctl.Inventory.UpdateInventory)
		}
	}

	return r
}
