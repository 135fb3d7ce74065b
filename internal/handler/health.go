package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports whether the service and its backing stores are up.
// Redis is optional: a nil client reports "disabled" and stays healthy.
type HealthHandler struct {
	DB    *sql.DB
	Redis *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb}
}

// Health answers 200 when the database responds, 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, checks := http.StatusOK, echo.Map{"db": "ok", "redis": "disabled"}
	if err := h.DB.PingContext(ctx); err != nil {
		status, checks["db"] = http.StatusServiceUnavailable, "down"
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
		}
	}
	checks["status"] = http.StatusText(status)
	return c.JSON(status, checks)
}
