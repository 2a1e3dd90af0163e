// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-reservation/internal/handler"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
)

// RegisterPublic registers unauthenticated endpoints: the health check
// and room browsing.  availCache wraps the availability and quote reads,
// which change whenever a reservation is written.
func RegisterPublic(e *echo.Echo, health echo.HandlerFunc, rooms *handler.RoomHandler, catalogCache, availCache echo.MiddlewareFunc) {
    e.GET("/healthz", health)

    g := e.Group("/v1/rooms")
    g.GET("", rooms.List, catalogCache)
    g.GET("/available", rooms.Available, availCache)
    g.GET("/:id/quote", rooms.Quote, availCache)
}

// RegisterAuth registers the session endpoints.  Register, login, refresh
// and logout need no access token; /v1/me does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh) // rotates the refresh token
    g.POST("/refresh-access", a.RefreshAccess)
    g.POST("/logout", a.Logout)
    e.POST("/v1/logout", a.Logout)

    e.GET("/v1/me", a.Me,
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleGuest, model.RoleStaff))
}

// RegisterGuest registers the GUEST endpoints under /v1/reservations.
// writeLimit applies to the state-changing routes only.
func RegisterGuest(e *echo.Echo, h *handler.GuestHandler, jwtSecret string, writeLimit echo.MiddlewareFunc) {
    guest := []echo.MiddlewareFunc{
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleGuest),
    }
    e.GET("/v1/my-reservations", h.ListMine, guest...)

    g := e.Group("/v1/reservations", guest...)
    g.POST("", h.Create, writeLimit)
    g.GET("", h.ListMine)
    g.GET("/:id", h.Get)
    g.PATCH("/:id/dates", h.Reschedule, writeLimit)
    g.PATCH("/:id", h.Update, writeLimit)
    g.POST("/:id/cancel", h.Cancel, writeLimit)
}

// RegisterStaff registers the front-desk endpoints under /v1/staff.
func RegisterStaff(e *echo.Echo, h *handler.StaffHandler, jwtSecret string) {
    g := e.Group(
        "/v1/staff",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleStaff),
    )
    g.GET("/reservations", h.List)
    g.GET("/reservations/:id", h.Get)
    g.POST("/reservations/:id/confirm", h.Confirm)
    g.POST("/reservations/:id/check-in", h.CheckIn)
    g.POST("/reservations/:id/check-out", h.CheckOut)
    g.POST("/reservations/:id/cancel", h.Cancel)
    g.PATCH("/reservations/:id/dates", h.Reschedule)
    g.GET("/rooms/:id/reservations", h.ListByRoom)
}
