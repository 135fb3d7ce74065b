package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Hotels       *handler.HotelHandler
	RoomTypes    *handler.RoomTypeHandler
	Inventory    *handler.InventoryHandler
	Availability *handler.AvailabilityHandler
	Reservations *handler.ReservationHandler
	Finance      *handler.FinanceHandler
	Dashboard    *handler.DashboardHandler
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health.Health)
}

// RegisterAuth registers the token endpoints under /v1/auth.  Logout is
// reachable without JWTAuth so a client holding only a refresh token can
// end its session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)
}

// RegisterAPI registers the protected hotel API under /v1.  cache wraps
// the dashboard only; room types are edited through this API and are read
// uncached.  Pass a no-op middleware to disable it.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	api := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	staff := middleware.RequireRole(model.RoleHotelAdmin, model.RoleHotelStaff)
	admin := middleware.RequireRole(model.RoleHotelAdmin)
	master := middleware.RequireRole()

	api.GET("/me", h.Auth.Me, staff)
	api.POST("/users", h.Auth.CreateUser, admin)
	api.GET("/users", h.Auth.ListUsers, admin)

	hotels := api.Group("/hotels", master)
	hotels.POST("", h.Hotels.Create)
	hotels.GET("", h.Hotels.List)
	hotels.GET("/:id", h.Hotels.Get)
	hotels.PUT("/:id", h.Hotels.Update)

	rt := api.Group("/room-types")
	rt.GET("", h.RoomTypes.List, staff)
	rt.GET("/:id", h.RoomTypes.Get, staff)
	rt.POST("", h.RoomTypes.Create, admin)
	rt.PUT("/:id", h.RoomTypes.Update, admin)
	rt.DELETE("/:id", h.RoomTypes.Delete, admin)

	inv := api.Group("/inventory")
	inv.GET("", h.Inventory.Calendar, staff)
	inv.POST("/bulk", h.Inventory.Bulk, admin)
	inv.POST("/bulk/weekdays", h.Inventory.BulkWeekdays, admin)

	api.GET("/availability/quote", h.Availability.Quote, staff)

	res := api.Group("/reservations")
	res.GET("", h.Reservations.List, staff)
	res.POST("", h.Reservations.Create, staff)
	res.GET("/:id", h.Reservations.Get, staff)
	res.PUT("/:id", h.Reservations.Update, staff)
	res.PATCH("/:id/status", h.Reservations.SetStatus, staff)
	res.DELETE("/:id", h.Reservations.Delete, admin)

	fin := api.Group("/finance")
	fin.GET("/entries", h.Finance.ListEntries, staff)
	fin.POST("/entries", h.Finance.CreateEntry, admin)
	fin.PATCH("/entries/:id", h.Finance.UpdateEntry, admin)
	fin.DELETE("/entries/:id", h.Finance.DeleteEntry, admin)
	fin.GET("/preview", h.Finance.Preview, staff)
	fin.POST("/sync", h.Finance.Sync, admin)

	api.GET("/dashboard", h.Dashboard.Summary, staff, cache)
}
