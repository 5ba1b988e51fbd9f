package server

import (
	"net/http"
	"strconv"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Orders         *handler.OrderHandler
	AdminOrders    *handler.AdminOrderHandler
	AdminInventory *handler.AdminInventoryHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers, limiter echomw.RateLimiterStore) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Orders.RegisterRoutes(e, cfg, userRepo, checkoutLimiter(limiter))
	h.AdminOrders.RegisterRoutes(e, cfg, userRepo)
	h.AdminInventory.RegisterRoutes(e, cfg, userRepo)
}

// 注文確定はユーザー単位で絞る。AuthJWTの後ろで使う。
func checkoutLimiter(store echomw.RateLimiterStore) echo.MiddlewareFunc {
	if store == nil {
		return nil
	}
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			actor, ok := middleware.ActorFromContext(c)
			if !ok {
				return c.RealIP(), nil
			}
			return strconv.FormatInt(actor.UserID, 10), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, handler.ErrorResponse{Error: "forbidden"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, handler.ErrorResponse{Error: "too many requests"})
		},
	})
}
