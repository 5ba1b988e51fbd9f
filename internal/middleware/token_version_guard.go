package middleware

import (
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// トークン発行後にtoken_versionが上がった・無効化された・ロールが変わったユーザーは401。
// AuthJWTの後ろに置く。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok {
				return unauthorized(c)
			}

			user, err := userRepo.FindByID(c.Request().Context(), actor.UserID)
			if err != nil || user == nil {
				return unauthorized(c)
			}
			if !user.IsActive || user.TokenVersion != tv || user.Role != actor.Role {
				return unauthorized(c)
			}

			return next(c)
		}
	}
}
